// Package realtime provides a WebSocket client for live payment and
// subscription events, so a client waiting on an STK push can react the
// moment the backend hears from M-Pesa instead of only on the next poll.
package realtime

import (
	"encoding/json"
	"time"
)

// ConnectionState represents the state of a realtime connection.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)

// EventType represents the type of realtime event.
type EventType string

const (
	EventPaymentPending        EventType = "payment.pending"
	EventPaymentConfirmed      EventType = "payment.confirmed"
	EventPaymentFailed         EventType = "payment.failed"
	EventSubscriptionActivated EventType = "subscription.activated"
	EventSubscriptionExpired   EventType = "subscription.expired"
)

// Event represents a realtime event from the SomaPlan API.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// PaymentEvent contains data for payment events.
type PaymentEvent struct {
	Reference    string  `json:"reference"`
	Status       string  `json:"status"`
	Amount       float64 `json:"amount,omitempty"`
	MpesaReceipt string  `json:"mpesa_receipt,omitempty"`
	FailReason   string  `json:"fail_reason,omitempty"`
}

// SubscriptionEvent contains data for subscription events.
type SubscriptionEvent struct {
	SubscriptionID int    `json:"subscription_id"`
	Plan           string `json:"plan,omitempty"`
	EndDate        string `json:"end_date,omitempty"`
}

// SubscriptionFilter specifies which events to receive.
type SubscriptionFilter struct {
	// Reference narrows payment events to a single payment.
	Reference string   `json:"reference,omitempty"`
	Events    []string `json:"events,omitempty"`
}

// ConnectionOptions configures a realtime connection.
type ConnectionOptions struct {
	// WSURL is the WebSocket URL (e.g., "wss://api.somaplan.co.ke/ws/events/")
	WSURL string
	// Token is the JWT access token for authentication
	Token string
	// AutoReconnect enables automatic reconnection on disconnect
	AutoReconnect bool
	// MaxReconnectAttempts is the maximum number of reconnect attempts (0 = unlimited)
	MaxReconnectAttempts int
	// ReconnectDelay is the initial delay between reconnect attempts
	ReconnectDelay time.Duration
	// MaxReconnectDelay is the maximum delay between reconnect attempts
	MaxReconnectDelay time.Duration
	// Debug enables debug logging
	Debug bool
	// Logger is a custom logger function
	Logger func(msg string, args ...any)
}

// DefaultConnectionOptions returns options with sensible defaults.
func DefaultConnectionOptions() ConnectionOptions {
	return ConnectionOptions{
		WSURL:                "wss://api.somaplan.co.ke/ws/events/",
		AutoReconnect:        true,
		MaxReconnectAttempts: 10,
		ReconnectDelay:       1 * time.Second,
		MaxReconnectDelay:    30 * time.Second,
	}
}

// EventHandler is a callback for handling events.
type EventHandler func(event *Event)

// PaymentEventHandler is a callback for handling payment events.
type PaymentEventHandler func(event *PaymentEvent)

// SubscriptionEventHandler is a callback for handling subscription events.
type SubscriptionEventHandler func(event *SubscriptionEvent)

// StateChangeHandler is a callback for connection state changes.
type StateChangeHandler func(state ConnectionState)

// WebSocket command types
type wsCommand struct {
	Type      string              `json:"type"`
	RequestID string              `json:"request_id,omitempty"`
	Filter    *SubscriptionFilter `json:"filter,omitempty"`
}

type wsResponse struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error,omitempty"`
}
