package resources

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/somaplan/somaplan-sdk-go/internal/httpx"
	"github.com/somaplan/somaplan-sdk-go/somaplan/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var kenyanMSISDN = regexp.MustCompile(`^\+254[17]\d{8}$`)

// AuthResource provides access to authentication operations.
type AuthResource struct {
	base *Base
}

// NewAuthResource creates a new AuthResource.
func NewAuthResource(transport *httpx.Transport) *AuthResource {
	return &AuthResource{base: NewBase(transport)}
}

// LoginRequest is the request to sign in with a phone number and password.
type LoginRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Password    string `json:"password" validate:"required,min=4"`
}

// LoginResponse is the response from signing in.
type LoginResponse struct {
	User   types.User      `json:"user"`
	Tokens types.TokenPair `json:"tokens"`
}

type loginEnvelope struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    LoginResponse `json:"data"`
}

// NormalizePhoneNumber converts the local MSISDN formats users type
// (07XXXXXXXX, 01XXXXXXXX, 2547XXXXXXXX, +2547XXXXXXXX) into the
// canonical +254 form the backend expects.
func NormalizePhoneNumber(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")

	switch {
	case strings.HasPrefix(s, "+254"):
		// already canonical
	case strings.HasPrefix(s, "254"):
		s = "+" + s
	case strings.HasPrefix(s, "0") && len(s) == 10:
		s = "+254" + s[1:]
	}

	if !kenyanMSISDN.MatchString(s) {
		return "", fmt.Errorf("invalid Kenyan phone number: %q", raw)
	}
	return s, nil
}

// Login authenticates with a phone number and password and returns the
// user profile together with a JWT token pair. The phone number is
// normalized before it is sent.
//
// Warning: the backend currently accepts one shared password for every
// account rather than per-user secrets, so a login proves little more
// than possession of the phone number. Do not treat an authenticated
// session as a strong identity claim until that is fixed server side.
func (r *AuthResource) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	phone, err := NormalizePhoneNumber(req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	body := &LoginRequest{PhoneNumber: phone, Password: req.Password}
	var envelope loginEnvelope
	if err := r.base.PostNoAuth(ctx, "/auth/login/", body, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data.Tokens.Access == "" {
		return nil, fmt.Errorf("login response missing access token")
	}
	return &envelope.Data, nil
}

// Me retrieves the profile of the currently authenticated user.
func (r *AuthResource) Me(ctx context.Context) (*types.User, error) {
	var result types.User
	if err := r.base.Get(ctx, "/auth/profile/me/", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Refresh exchanges a refresh token for a new access token. The transport
// refreshes automatically when configured to; this is the manual path.
func (r *AuthResource) Refresh(ctx context.Context, refreshToken string) (*types.TokenPair, error) {
	body := map[string]string{"refresh": refreshToken}
	var result types.TokenPair
	if err := r.base.PostNoAuth(ctx, "/auth/token/refresh/", body, &result); err != nil {
		return nil, err
	}
	if result.Access == "" {
		return nil, fmt.Errorf("refresh response missing access token")
	}
	// simplejwt only rotates the refresh token when rotation is enabled
	// server side; fall back to the one we sent.
	if result.Refresh == "" {
		result.Refresh = refreshToken
	}
	return &result, nil
}

// UpdateProfileRequest is the request to update the user's profile.
type UpdateProfileRequest struct {
	FirstName *string            `json:"first_name,omitempty"`
	LastName  *string            `json:"last_name,omitempty"`
	Email     *string            `json:"email,omitempty" validate:"omitempty,email"`
	County    *string            `json:"county,omitempty"`
	MeanGrade *string            `json:"mean_grade,omitempty"`
	Grades    []types.GradeEntry `json:"grades,omitempty"`
}

// UpdateProfile updates the user's profile, including KCSE grades.
func (r *AuthResource) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*types.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var result types.User
	if err := r.base.Patch(ctx, "/auth/profile/me/", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout invalidates the current refresh token server side. A 401 here is
// not an error: the session is already gone.
func (r *AuthResource) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh": refreshToken}
	err := r.base.Post(ctx, "/auth/logout/", body, nil)
	if httpx.IsAuthenticationError(err) {
		return nil
	}
	return err
}
