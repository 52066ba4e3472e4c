package resources

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/somaplan/somaplan-sdk-go/internal/testutil"
	"github.com/somaplan/somaplan-sdk-go/somaplan/types"
)

func TestPayments_ActiveSubscription_Active(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodGet, "/payments/my-subscriptions/active", http.StatusOK, map[string]any{
		"id":             3,
		"plan":           "annual",
		"amount":         200,
		"currency":       "KES",
		"start_date":     "2026-01-15",
		"end_date":       "2027-01-15",
		"is_active":      true,
		"days_remaining": 137,
	})

	payments := NewPaymentsResource(newTestTransport(ms, "access-jwt"))
	state, err := payments.ActiveSubscription(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !state.Active {
		t.Fatal("Active = false, want true")
	}
	if state.Subscription == nil || state.Subscription.Plan != "annual" {
		t.Errorf("Subscription = %+v", state.Subscription)
	}
	if got := state.Subscription.EndDate.Format("2006-01-02"); got != "2027-01-15" {
		t.Errorf("EndDate = %q, want 2027-01-15", got)
	}
}

func TestPayments_ActiveSubscription_RenewalEligible(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodGet, "/payments/my-subscriptions/active", http.StatusPaymentRequired, map[string]any{
		"detail":           "Subscription expired",
		"renewal_eligible": true,
		"renewal_amount":   99,
	})

	payments := NewPaymentsResource(newTestTransport(ms, "access-jwt"))
	state, err := payments.ActiveSubscription(context.Background())
	if err != nil {
		t.Fatalf("402 is a state, not an error; got %v", err)
	}
	if state.Active {
		t.Error("Active = true, want false")
	}
	if !state.RenewalEligible {
		t.Error("RenewalEligible = false, want true")
	}
	if state.RenewalAmount != 99 {
		t.Errorf("RenewalAmount = %v, want 99", state.RenewalAmount)
	}
}

func TestPayments_ActiveSubscription_NeverSubscribed(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodGet, "/payments/my-subscriptions/active", http.StatusNotFound, map[string]any{
		"detail": "No subscription found",
	})

	payments := NewPaymentsResource(newTestTransport(ms, "access-jwt"))
	state, err := payments.ActiveSubscription(context.Background())
	if err != nil {
		t.Fatalf("404 is a state, not an error; got %v", err)
	}
	if state.Active || state.RenewalEligible {
		t.Errorf("state = %+v, want empty", state)
	}
}

func TestPayments_ActiveSubscription_ServerErrorSurfaces(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodGet, "/payments/my-subscriptions/active", http.StatusInternalServerError, nil)

	payments := NewPaymentsResource(newTestTransport(ms, "access-jwt"))
	_, err := payments.ActiveSubscription(context.Background())
	if err == nil {
		t.Fatal("Expected error for 500")
	}
}

func TestPayments_Initiate(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodPost, "/payments/initiate/", http.StatusCreated, map[string]any{
		"reference":    "PAY-7f3a",
		"status":       "pending",
		"amount":       200,
		"phone_number": "+254712345678",
	})

	payments := NewPaymentsResource(newTestTransport(ms, "access-jwt"))
	payment, err := payments.Initiate(context.Background(), &InitiateRequest{
		PhoneNumber: "0712345678",
		Amount:      200,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if payment.Reference != "PAY-7f3a" {
		t.Errorf("Reference = %q", payment.Reference)
	}
	if payment.Status != types.PaymentStatusPending {
		t.Errorf("Status = %q, want pending", payment.Status)
	}

	var sent map[string]any
	ms.ParseLastRequestBody(t, &sent)
	if sent["phone_number"] != "+254712345678" {
		t.Errorf("sent phone_number = %v, want normalized form", sent["phone_number"])
	}
	if key, _ := sent["idempotency_key"].(string); key == "" {
		t.Error("idempotency_key missing from initiate body")
	}
}

func TestPayments_Initiate_FreshIdempotencyKeys(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodPost, "/payments/initiate/", http.StatusCreated, map[string]any{
		"reference": "PAY-1", "status": "pending",
	})

	payments := NewPaymentsResource(newTestTransport(ms, "access-jwt"))
	req := &InitiateRequest{PhoneNumber: "0712345678", Amount: 200}

	keys := map[string]bool{}
	for i := 0; i < 2; i++ {
		if _, err := payments.Initiate(context.Background(), req); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		var sent map[string]any
		ms.ParseLastRequestBody(t, &sent)
		keys[sent["idempotency_key"].(string)] = true
	}
	if len(keys) != 2 {
		t.Error("each Initiate call should carry a fresh idempotency key")
	}
}

func TestPayments_Initiate_RejectsZeroAmount(t *testing.T) {
	ms := testutil.NewMockServer(t)
	payments := NewPaymentsResource(newTestTransport(ms, "access-jwt"))

	_, err := payments.Initiate(context.Background(), &InitiateRequest{
		PhoneNumber: "0712345678",
		Amount:      0,
	})
	if err == nil {
		t.Fatal("Expected validation error for zero amount")
	}
	ms.AssertRequestCount(t, 0)
}

func TestPayments_Renew(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodPost, "/payments/renew/", http.StatusCreated, map[string]any{
		"reference": "PAY-renew-1",
		"status":    "pending",
		"amount":    99,
	})

	payments := NewPaymentsResource(newTestTransport(ms, "access-jwt"))
	payment, err := payments.Renew(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if payment.Amount != 99 {
		t.Errorf("Amount = %v, want discounted 99", payment.Amount)
	}
}

func TestPayments_WaitForConfirmation_Confirms(t *testing.T) {
	var calls atomic.Int32
	ms := testutil.NewMockServer(t)
	ms.Handle(http.MethodGet, "/payments/status/PAY-7f3a/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			w.Write([]byte(`{"reference": "PAY-7f3a", "status": "pending"}`))
			return
		}
		w.Write([]byte(`{"reference": "PAY-7f3a", "status": "confirmed", "mpesa_receipt": "QGH7KLM2XR"}`))
	})

	payments := NewPaymentsResource(newTestTransport(ms, "access-jwt"))
	payment, err := payments.WaitForConfirmation(context.Background(), "PAY-7f3a", PollOptions{
		Interval: 5 * time.Millisecond,
		Timeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if payment.Status != types.PaymentStatusConfirmed {
		t.Errorf("Status = %q, want confirmed", payment.Status)
	}
	if payment.MpesaReceipt == nil || *payment.MpesaReceipt != "QGH7KLM2XR" {
		t.Errorf("MpesaReceipt = %v", payment.MpesaReceipt)
	}
	if calls.Load() != 3 {
		t.Errorf("status calls = %d, want 3", calls.Load())
	}
}

func TestPayments_WaitForConfirmation_FailedIsTerminal(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodGet, "/payments/status/PAY-9/", http.StatusOK, map[string]any{
		"reference":   "PAY-9",
		"status":      "failed",
		"fail_reason": "Request cancelled by user",
	})

	payments := NewPaymentsResource(newTestTransport(ms, "access-jwt"))
	payment, err := payments.WaitForConfirmation(context.Background(), "PAY-9", PollOptions{
		Interval: 5 * time.Millisecond,
		Timeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if payment.Status != types.PaymentStatusFailed {
		t.Errorf("Status = %q, want failed", payment.Status)
	}
	ms.AssertRequestCount(t, 1)
}

func TestPayments_WaitForConfirmation_Timeout(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodGet, "/payments/status/PAY-slow/", http.StatusOK, map[string]any{
		"reference": "PAY-slow",
		"status":    "pending",
	})

	payments := NewPaymentsResource(newTestTransport(ms, "access-jwt"))
	payment, err := payments.WaitForConfirmation(context.Background(), "PAY-slow", PollOptions{
		Interval: 5 * time.Millisecond,
		Timeout:  30 * time.Millisecond,
	})
	if !errors.Is(err, ErrConfirmationTimeout) {
		t.Fatalf("err = %v, want ErrConfirmationTimeout", err)
	}
	if payment == nil || payment.Status != types.PaymentStatusPending {
		t.Errorf("last observed payment = %+v", payment)
	}
}

func TestPayments_WaitForConfirmation_Cancelled(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodGet, "/payments/status/PAY-c/", http.StatusOK, map[string]any{
		"reference": "PAY-c",
		"status":    "pending",
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	payments := NewPaymentsResource(newTestTransport(ms, "access-jwt"))
	_, err := payments.WaitForConfirmation(ctx, "PAY-c", PollOptions{
		Interval: 5 * time.Millisecond,
		Timeout:  time.Minute,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestPayments_Verify(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodPost, "/payments/verify/PAY-7f3a/", http.StatusOK, map[string]any{
		"reference": "PAY-7f3a",
		"status":    "confirmed",
	})

	payments := NewPaymentsResource(newTestTransport(ms, "access-jwt"))
	payment, err := payments.Verify(context.Background(), "PAY-7f3a")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if payment.Status != types.PaymentStatusConfirmed {
		t.Errorf("Status = %q, want confirmed", payment.Status)
	}
	ms.AssertLastRequestMethod(t, http.MethodPost)
}
