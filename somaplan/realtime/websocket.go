package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// WebSocketClient streams payment and subscription events over WebSocket.
type WebSocketClient struct {
	opts              ConnectionOptions
	conn              *websocket.Conn
	state             ConnectionState
	reconnectAttempts int
	subscriptions     map[string]SubscriptionFilter
	pendingCommands   map[string]chan error

	paymentHandlers      map[EventType][]PaymentEventHandler
	subscriptionHandlers map[EventType][]SubscriptionEventHandler
	allEventHandlers     []EventHandler
	stateChangeHandlers  []StateChangeHandler

	mu     sync.RWMutex
	cmdMu  sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	cmdSeq int
}

// NewWebSocketClient creates a new WebSocket realtime client.
func NewWebSocketClient(opts ConnectionOptions) *WebSocketClient {
	defaults := DefaultConnectionOptions()
	if opts.WSURL == "" {
		opts.WSURL = defaults.WSURL
	}
	if opts.ReconnectDelay == 0 {
		opts.ReconnectDelay = defaults.ReconnectDelay
	}
	if opts.MaxReconnectDelay == 0 {
		opts.MaxReconnectDelay = defaults.MaxReconnectDelay
	}
	if opts.MaxReconnectAttempts == 0 {
		opts.MaxReconnectAttempts = defaults.MaxReconnectAttempts
	}

	return &WebSocketClient{
		opts:                 opts,
		state:                StateDisconnected,
		subscriptions:        make(map[string]SubscriptionFilter),
		pendingCommands:      make(map[string]chan error),
		paymentHandlers:      make(map[EventType][]PaymentEventHandler),
		subscriptionHandlers: make(map[EventType][]SubscriptionEventHandler),
	}
}

// SetToken updates the token used for the next (re)connect, e.g. after a
// sign-in replaced the session.
func (c *WebSocketClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.Token = token
}

// Connect establishes the WebSocket connection.
func (c *WebSocketClient) Connect() error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.setState(StateConnecting)
	c.mu.Unlock()

	return c.doConnect()
}

func (c *WebSocketClient) doConnect() error {
	c.log("connecting to %s", c.opts.WSURL)

	headers := http.Header{}
	c.mu.RLock()
	if c.opts.Token != "" {
		headers.Set("Authorization", "Bearer "+c.opts.Token)
	}
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, c.opts.WSURL, &websocket.DialOptions{
		HTTPHeader: headers,
	})
	if err != nil {
		c.mu.Lock()
		c.setState(StateDisconnected)
		c.mu.Unlock()
		return fmt.Errorf("websocket dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.done = make(chan struct{})
	c.reconnectAttempts = 0
	c.setState(StateConnected)
	c.mu.Unlock()

	go c.readLoop()

	// Resubscribe to previous subscriptions
	c.mu.RLock()
	subs := make([]SubscriptionFilter, 0, len(c.subscriptions))
	for _, sub := range c.subscriptions {
		subs = append(subs, sub)
	}
	c.mu.RUnlock()

	for _, sub := range subs {
		if err := c.Subscribe(sub); err != nil {
			c.log("failed to resubscribe: %v", err)
		}
	}

	return nil
}

// Disconnect closes the WebSocket connection.
func (c *WebSocketClient) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDisconnected {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	if c.conn != nil {
		err := c.conn.Close(websocket.StatusNormalClosure, "client disconnect")
		c.conn = nil
		c.setState(StateDisconnected)
		return err
	}

	c.setState(StateDisconnected)
	return nil
}

// State returns the current connection state.
func (c *WebSocketClient) State() ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Subscribe adds a subscription filter.
func (c *WebSocketClient) Subscribe(filter SubscriptionFilter) error {
	return c.sendCommand("subscribe", filter, func() {
		c.mu.Lock()
		c.subscriptions[subscriptionKey(filter)] = filter
		c.mu.Unlock()
	})
}

// Unsubscribe removes a subscription.
func (c *WebSocketClient) Unsubscribe(filter SubscriptionFilter) error {
	return c.sendCommand("unsubscribe", filter, func() {
		c.mu.Lock()
		delete(c.subscriptions, subscriptionKey(filter))
		c.mu.Unlock()
	})
}

func (c *WebSocketClient) sendCommand(cmdType string, filter SubscriptionFilter, onAck func()) error {
	c.cmdMu.Lock()
	c.cmdSeq++
	requestID := fmt.Sprintf("%s-%d", cmdType, c.cmdSeq)
	c.cmdMu.Unlock()

	cmd := wsCommand{
		Type:      cmdType,
		RequestID: requestID,
		Filter:    &filter,
	}

	respCh := make(chan error, 1)
	c.cmdMu.Lock()
	c.pendingCommands[requestID] = respCh
	c.cmdMu.Unlock()

	defer func() {
		c.cmdMu.Lock()
		delete(c.pendingCommands, requestID)
		c.cmdMu.Unlock()
	}()

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal %s command: %w", cmdType, err)
	}

	c.mu.RLock()
	conn := c.conn
	ctx := c.ctx
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}

	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("failed to send %s command: %w", cmdType, err)
	}

	select {
	case err := <-respCh:
		if err != nil {
			return err
		}
		onAck()
		return nil
	case <-time.After(10 * time.Second):
		return fmt.Errorf("%s timeout", cmdType)
	}
}

// OnEvent registers a handler for all events.
func (c *WebSocketClient) OnEvent(handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allEventHandlers = append(c.allEventHandlers, handler)
}

// OnPaymentEvent registers a handler for payment events.
func (c *WebSocketClient) OnPaymentEvent(eventType EventType, handler PaymentEventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paymentHandlers[eventType] = append(c.paymentHandlers[eventType], handler)
}

// OnSubscriptionEvent registers a handler for subscription events.
func (c *WebSocketClient) OnSubscriptionEvent(eventType EventType, handler SubscriptionEventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptionHandlers[eventType] = append(c.subscriptionHandlers[eventType], handler)
}

// OnStateChange registers a handler for state changes.
func (c *WebSocketClient) OnStateChange(handler StateChangeHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateChangeHandlers = append(c.stateChangeHandlers, handler)
}

func (c *WebSocketClient) readLoop() {
	defer func() {
		c.mu.Lock()
		if c.done != nil {
			close(c.done)
		}
		c.mu.Unlock()
	}()

	for {
		c.mu.RLock()
		conn := c.conn
		ctx := c.ctx
		c.mu.RUnlock()

		if conn == nil {
			return
		}

		_, data, err := conn.Read(ctx)
		if err != nil {
			c.log("read error: %v", err)
			c.handleDisconnect()
			return
		}

		c.handleMessage(data)
	}
}

func (c *WebSocketClient) handleMessage(data []byte) {
	// Try to parse as command response first
	var resp wsResponse
	if err := json.Unmarshal(data, &resp); err == nil {
		if resp.Type == "subscribed" || resp.Type == "unsubscribed" || resp.Type == "error" {
			c.handleCommandResponse(resp)
			return
		}
	}

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		c.log("failed to parse event: %v", err)
		return
	}

	c.dispatchEvent(&event)
}

func (c *WebSocketClient) handleCommandResponse(resp wsResponse) {
	if resp.RequestID == "" {
		return
	}

	c.cmdMu.Lock()
	ch, ok := c.pendingCommands[resp.RequestID]
	c.cmdMu.Unlock()

	if !ok {
		return
	}

	if resp.Type == "error" {
		ch <- fmt.Errorf("command error: %s", resp.Error)
	} else {
		ch <- nil
	}
}

func (c *WebSocketClient) dispatchEvent(event *Event) {
	c.mu.RLock()
	allHandlers := c.allEventHandlers
	paymentHandlers := c.paymentHandlers[event.Type]
	subscriptionHandlers := c.subscriptionHandlers[event.Type]
	c.mu.RUnlock()

	for _, handler := range allHandlers {
		c.safeCall(func() { handler(event) })
	}

	switch {
	case isPaymentEvent(event.Type):
		var paymentEvent PaymentEvent
		if err := json.Unmarshal(event.Data, &paymentEvent); err == nil {
			for _, handler := range paymentHandlers {
				c.safeCall(func() { handler(&paymentEvent) })
			}
		}
	case isSubscriptionEvent(event.Type):
		var subEvent SubscriptionEvent
		if err := json.Unmarshal(event.Data, &subEvent); err == nil {
			for _, handler := range subscriptionHandlers {
				c.safeCall(func() { handler(&subEvent) })
			}
		}
	}
}

// safeCall shields the read loop from a panicking handler.
func (c *WebSocketClient) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log("event handler panic: %v", r)
		}
	}()
	fn()
}

func (c *WebSocketClient) handleDisconnect() {
	c.mu.Lock()
	if c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}

	c.conn = nil
	if !c.opts.AutoReconnect {
		c.setState(StateDisconnected)
		c.mu.Unlock()
		return
	}

	c.reconnectAttempts++
	if c.opts.MaxReconnectAttempts > 0 && c.reconnectAttempts > c.opts.MaxReconnectAttempts {
		c.setState(StateDisconnected)
		c.mu.Unlock()
		c.log("max reconnect attempts reached")
		return
	}

	c.setState(StateReconnecting)
	c.mu.Unlock()

	delay := c.opts.ReconnectDelay * time.Duration(1<<(c.reconnectAttempts-1))
	if delay > c.opts.MaxReconnectDelay {
		delay = c.opts.MaxReconnectDelay
	}

	c.log("reconnecting in %v (attempt %d)", delay, c.reconnectAttempts)

	time.AfterFunc(delay, func() {
		if err := c.doConnect(); err != nil {
			c.log("reconnect failed: %v", err)
			c.handleDisconnect()
		}
	})
}

func (c *WebSocketClient) setState(state ConnectionState) {
	if c.state == state {
		return
	}
	c.state = state

	handlers := make([]StateChangeHandler, len(c.stateChangeHandlers))
	copy(handlers, c.stateChangeHandlers)

	// Handlers run outside the lock we are holding.
	go func() {
		for _, handler := range handlers {
			c.safeCall(func() { handler(state) })
		}
	}()
}

func (c *WebSocketClient) log(format string, args ...any) {
	if c.opts.Logger != nil {
		c.opts.Logger(format, args...)
	} else if c.opts.Debug {
		fmt.Printf("[somaplan-ws] "+format+"\n", args...)
	}
}

func subscriptionKey(filter SubscriptionFilter) string {
	return fmt.Sprintf("%s:%v", filter.Reference, filter.Events)
}

func isPaymentEvent(t EventType) bool {
	switch t {
	case EventPaymentPending, EventPaymentConfirmed, EventPaymentFailed:
		return true
	}
	return false
}

func isSubscriptionEvent(t EventType) bool {
	switch t {
	case EventSubscriptionActivated, EventSubscriptionExpired:
		return true
	}
	return false
}
