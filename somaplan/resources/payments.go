package resources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/somaplan/somaplan-sdk-go/internal/httpx"
	"github.com/somaplan/somaplan-sdk-go/somaplan/types"
)

// ErrConfirmationTimeout is returned by WaitForConfirmation when the
// payment is still pending after the polling budget is spent. The payment
// may yet complete; callers can keep the reference and check again later.
var ErrConfirmationTimeout = errors.New("payment confirmation timed out")

// PaymentsResource provides access to M-Pesa payment and subscription
// operations.
type PaymentsResource struct {
	base *Base
}

// NewPaymentsResource creates a new PaymentsResource.
func NewPaymentsResource(transport *httpx.Transport) *PaymentsResource {
	return &PaymentsResource{base: NewBase(transport)}
}

// SubscriptionState is the outcome of an active-subscription check.
// Exactly one of the three shapes applies: an active subscription, an
// expired one that can be renewed at a discount, or no subscription at all.
type SubscriptionState struct {
	Active          bool
	Subscription    *types.Subscription
	RenewalEligible bool
	RenewalAmount   float64
}

// ActiveSubscription checks the user's subscription. The backend answers
// 200 with the subscription when one is active, 402 when an expired
// subscription exists (optionally renewal-eligible), and 404 when the
// user has never subscribed. The latter two are states, not errors.
func (r *PaymentsResource) ActiveSubscription(ctx context.Context) (*SubscriptionState, error) {
	var sub types.Subscription
	err := r.base.Get(ctx, "/payments/my-subscriptions/active", &sub)
	if err == nil {
		return &SubscriptionState{Active: true, Subscription: &sub}, nil
	}

	var payErr *httpx.PaymentRequiredError
	if errors.As(err, &payErr) {
		return &SubscriptionState{
			RenewalEligible: payErr.RenewalEligible,
			RenewalAmount:   payErr.RenewalAmount,
		}, nil
	}
	if httpx.IsNotFoundError(err) {
		return &SubscriptionState{}, nil
	}
	return nil, err
}

// Subscriptions retrieves the user's full subscription history.
func (r *PaymentsResource) Subscriptions(ctx context.Context) ([]types.Subscription, error) {
	var result []types.Subscription
	if err := r.base.Get(ctx, "/payments/my-subscriptions/", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// InitiateRequest is the request to start an M-Pesa STK push.
type InitiateRequest struct {
	PhoneNumber string  `json:"phone_number" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Plan        string  `json:"plan,omitempty"`
}

type initiateBody struct {
	PhoneNumber    string  `json:"phone_number"`
	Amount         float64 `json:"amount"`
	Plan           string  `json:"plan,omitempty"`
	IdempotencyKey string  `json:"idempotency_key"`
}

// Initiate starts an M-Pesa STK push on the user's phone. Each call
// carries a fresh idempotency key so a retried request cannot charge
// twice.
func (r *PaymentsResource) Initiate(ctx context.Context, req *InitiateRequest) (*types.Payment, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	phone, err := NormalizePhoneNumber(req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	body := &initiateBody{
		PhoneNumber:    phone,
		Amount:         req.Amount,
		Plan:           req.Plan,
		IdempotencyKey: uuid.NewString(),
	}
	var result types.Payment
	if err := r.base.PostIdempotent(ctx, "/payments/initiate/", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type renewBody struct {
	IdempotencyKey string `json:"idempotency_key"`
}

// Renew starts an STK push for a discounted subscription renewal. Only
// valid when ActiveSubscription reported the user renewal-eligible; the
// backend rejects it with 403 otherwise.
func (r *PaymentsResource) Renew(ctx context.Context) (*types.Payment, error) {
	body := &renewBody{IdempotencyKey: uuid.NewString()}
	var result types.Payment
	if err := r.base.PostIdempotent(ctx, "/payments/renew/", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Verify asks the backend to re-query the payment with M-Pesa and return
// the reconciled state.
func (r *PaymentsResource) Verify(ctx context.Context, reference string) (*types.Payment, error) {
	var result types.Payment
	if err := r.base.PostIdempotent(ctx, fmt.Sprintf("/payments/verify/%s/", reference), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Status retrieves the current state of a payment without triggering a
// fresh M-Pesa query.
func (r *PaymentsResource) Status(ctx context.Context, reference string) (*types.Payment, error) {
	var result types.Payment
	if err := r.base.Get(ctx, fmt.Sprintf("/payments/status/%s/", reference), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PollOptions bound a WaitForConfirmation call.
type PollOptions struct {
	// Interval between status checks. Defaults to 3 seconds.
	Interval time.Duration
	// Timeout is the total polling budget. Defaults to 2 minutes, which
	// covers the STK push prompt lifetime on the user's phone.
	Timeout time.Duration
}

// WaitForConfirmation polls a payment until it reaches a terminal state,
// the polling budget runs out, or ctx is cancelled. On timeout it returns
// the last observed payment alongside ErrConfirmationTimeout.
func (r *PaymentsResource) WaitForConfirmation(ctx context.Context, reference string, opts PollOptions) (*types.Payment, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *types.Payment
	for {
		payment, err := r.Status(ctx, reference)
		if err != nil {
			// Transient failures should not abort the wait; the next
			// tick retries. Cancellation and deadline are terminal.
			if ctx.Err() != nil {
				return last, waitErr(ctx, err)
			}
			if !httpx.IsRetryable(err) {
				return nil, err
			}
		} else {
			last = payment
			if payment.Status.Terminal() {
				return payment, nil
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return last, waitErr(ctx, nil)
		}
	}
}

func waitErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrConfirmationTimeout
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}
