package httpx

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestParseErrorFromResponse_Detail(t *testing.T) {
	err := ParseErrorFromResponse(http.StatusUnauthorized,
		[]byte(`{"detail": "Authentication credentials were not provided."}`),
		http.Header{})

	if !IsAuthenticationError(err) {
		t.Fatalf("err = %T, want AuthenticationError", err)
	}
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatal("expected APIError")
	}
	if apiErr.Message != "Authentication credentials were not provided." {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestParseErrorFromResponse_WrappedMessage(t *testing.T) {
	err := ParseErrorFromResponse(http.StatusBadRequest,
		[]byte(`{"success": false, "message": "Invalid phone number or password"}`),
		http.Header{})

	if !IsValidationError(err) {
		t.Fatalf("err = %T, want ValidationError", err)
	}
	apiErr, _ := AsAPIError(err)
	if apiErr.Message != "Invalid phone number or password" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestParseErrorFromResponse_FieldErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "field errors",
			body: `{"phone_number": ["Enter a valid phone number."], "password": ["This field is required."]}`,
			want: "password: This field is required.; phone_number: Enter a valid phone number.",
		},
		{
			name: "non field errors",
			body: `{"non_field_errors": ["Unable to log in with provided credentials."]}`,
			want: "Unable to log in with provided credentials.",
		},
		{
			name: "single string value",
			body: `{"amount": "Ensure this value is greater than 0."}`,
			want: "amount: Ensure this value is greater than 0.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseErrorFromResponse(http.StatusBadRequest, []byte(tt.body), http.Header{})
			apiErr, ok := AsAPIError(err)
			if !ok {
				t.Fatal("expected APIError")
			}
			if apiErr.Message != tt.want {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.want)
			}
		})
	}
}

func TestParseErrorFromResponse_PaymentRequired(t *testing.T) {
	err := ParseErrorFromResponse(http.StatusPaymentRequired,
		[]byte(`{"detail": "Subscription expired", "renewal_eligible": true, "renewal_amount": 99}`),
		http.Header{})

	if !IsPaymentRequiredError(err) {
		t.Fatalf("err = %T, want PaymentRequiredError", err)
	}
	var payErr *PaymentRequiredError
	errors.As(err, &payErr)
	if !payErr.RenewalEligible {
		t.Error("RenewalEligible = false, want true")
	}
	if payErr.RenewalAmount != 99 {
		t.Errorf("RenewalAmount = %v, want 99", payErr.RenewalAmount)
	}
}

func TestParseErrorFromResponse_PaymentRequiredNoRenewal(t *testing.T) {
	err := ParseErrorFromResponse(http.StatusPaymentRequired,
		[]byte(`{"detail": "Payment required"}`),
		http.Header{})

	var payErr *PaymentRequiredError
	if !errors.As(err, &payErr) {
		t.Fatalf("err = %T, want PaymentRequiredError", err)
	}
	if payErr.RenewalEligible {
		t.Error("RenewalEligible = true, want false")
	}
}

func TestParseErrorFromResponse_RateLimit(t *testing.T) {
	headers := http.Header{}
	headers.Set("Retry-After", "30")

	err := ParseErrorFromResponse(http.StatusTooManyRequests, []byte(`{"detail": "Request was throttled."}`), headers)
	var rlErr *RateLimitError
	if !errors.As(err, &rlErr) {
		t.Fatalf("err = %T, want RateLimitError", err)
	}
	if rlErr.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %v, want 30s", rlErr.RetryAfter)
	}
	if rlErr.GetRetryAfter() != 30 {
		t.Errorf("GetRetryAfter() = %d, want 30", rlErr.GetRetryAfter())
	}
}

func TestParseErrorFromResponse_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
		name   string
	}{
		{http.StatusUnauthorized, IsAuthenticationError, "401"},
		{http.StatusNotFound, IsNotFoundError, "404"},
		{http.StatusBadRequest, IsValidationError, "400"},
		{http.StatusUnprocessableEntity, IsValidationError, "422"},
		{http.StatusPaymentRequired, IsPaymentRequiredError, "402"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseErrorFromResponse(tt.status, nil, http.Header{})
			if !tt.check(err) {
				t.Errorf("status %d produced %T", tt.status, err)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"server error", &ServerError{APIError: &APIError{StatusCode: 502}}, true},
		{"network error", NewNetworkError(errors.New("conn refused")), true},
		{"timeout", NewTimeoutError(10*time.Second, errors.New("deadline")), true},
		{"rate limit", &RateLimitError{APIError: &APIError{StatusCode: 429}}, true},
		{"validation", &ValidationError{APIError: &APIError{StatusCode: 400}}, false},
		{"auth", &AuthenticationError{APIError: &APIError{StatusCode: 401}}, false},
		{"payment required", &PaymentRequiredError{APIError: &APIError{StatusCode: 402}}, false},
		{"circuit open", NewCircuitBreakerOpenError(), false},
		{"plain error", errors.New("whatever"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	e := &APIError{StatusCode: 400, Code: "validation_error", Message: "bad input"}
	if e.Error() != "[400] validation_error: bad input" {
		t.Errorf("Error() = %q", e.Error())
	}

	e = &APIError{StatusCode: 500}
	if e.Error() != "[500] unknown error" {
		t.Errorf("Error() = %q", e.Error())
	}
}
