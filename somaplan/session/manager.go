// Package session tracks who is signed in and what they may access.
//
// The Manager owns the persisted credentials and a small derived state
// record (premium active, renewal eligible, payment required) that the
// rest of the client reads instead of re-deriving it from raw API
// responses. Reconciliation against the backend is single-flight, and a
// reconcile result that lost a race against a later sign-in or sign-out
// is discarded rather than applied.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/somaplan/somaplan-sdk-go/internal/httpx"
	"github.com/somaplan/somaplan-sdk-go/somaplan/credstore"
	"github.com/somaplan/somaplan-sdk-go/somaplan/resources"
	"github.com/somaplan/somaplan-sdk-go/somaplan/types"
)

// ErrNotRenewalEligible is returned by Renew when the current session has
// no expired subscription eligible for discounted renewal.
var ErrNotRenewalEligible = errors.New("subscription is not eligible for renewal")

// Session is the derived view of the signed-in user.
type Session struct {
	Authenticated bool
	User          *types.User

	// PremiumActive is true only when the backend confirmed an active
	// subscription. On any doubt it stays false.
	PremiumActive bool
	// RenewalEligible means an expired subscription can be renewed at the
	// discounted rate.
	RenewalEligible bool
	RenewalAmount   float64
	// RequirePayment is true whenever premium access is not confirmed,
	// including the signed-out state: an anonymous or doubtful session
	// must sign in and pay before seeing full results.
	RequirePayment bool
	// NeedsSubjectSelection flags a profile that has no KCSE subjects yet.
	NeedsSubjectSelection bool
}

// TokenSink receives token updates so the transport always signs requests
// with the session's current tokens. *httpx.Transport satisfies it.
type TokenSink interface {
	SetAccessToken(token string)
	SetRefreshToken(token string)
}

// Observer is notified after every applied session change.
type Observer func(Session)

// anonymousSession is the signed-out state. Exactly one of PremiumActive
// and RequirePayment holds in every session, so even anonymous users
// carry the payment gate.
func anonymousSession() Session {
	return Session{RequirePayment: true}
}

// Config wires a Manager.
type Config struct {
	Auth     *resources.AuthResource
	Payments *resources.PaymentsResource
	Tokens   TokenSink
	Store    credstore.Store
	// Credentials, when set, take precedence over whatever the Store
	// holds. Used when the caller supplies tokens explicitly.
	Credentials *credstore.Credentials
	Logger      httpx.Logger
}

// Manager reconciles and serves session state.
type Manager struct {
	auth     *resources.AuthResource
	payments *resources.PaymentsResource
	tokens   TokenSink
	store    credstore.Store
	logger   httpx.Logger

	mu        sync.Mutex
	session   Session
	creds     *credstore.Credentials
	seq       uint64
	applied   uint64
	inflight  chan struct{}
	observers []Observer
}

// NewManager creates a Manager and restores any persisted credentials
// into the token sink. A store load failure is treated as signed-out;
// the credentials file is not destroyed over a transient read error.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		auth:     cfg.Auth,
		payments: cfg.Payments,
		tokens:   cfg.Tokens,
		store:    cfg.Store,
		logger:   cfg.Logger,
		session:  anonymousSession(),
	}
	if !cfg.Credentials.Empty() {
		m.creds = cfg.Credentials
		m.pushTokens(cfg.Credentials.AccessToken, cfg.Credentials.RefreshToken)
		return m
	}
	if m.store != nil {
		creds, err := m.store.Load()
		if err != nil {
			m.log("failed to load stored credentials", "error", err)
		} else if !creds.Empty() {
			m.creds = creds
			m.pushTokens(creds.AccessToken, creds.RefreshToken)
		}
	}
	return m
}

// Current returns the session as last reconciled.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// HasCredentials reports whether a token is available, i.e. whether a
// Reconcile could possibly authenticate.
func (m *Manager) HasCredentials() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.creds.Empty()
}

// OnChange registers an observer. Observers run synchronously after each
// applied change, outside the manager's lock.
func (m *Manager) OnChange(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// Reconcile validates the stored session against the backend and applies
// the derived flags. Concurrent calls coalesce into the reconcile already
// in flight. A reconcile that completes after a later Login or SignOut is
// discarded.
//
// Failure handling is deliberately asymmetric: only an authoritative 401
// (survives the transport's refresh attempt) clears the persisted
// credentials; network failures keep them and fail safe to locked flags.
func (m *Manager) Reconcile(ctx context.Context) (Session, error) {
	m.mu.Lock()
	if m.inflight != nil {
		done := m.inflight
		m.mu.Unlock()
		select {
		case <-done:
			return m.Current(), nil
		case <-ctx.Done():
			return m.Current(), ctx.Err()
		}
	}
	m.inflight = make(chan struct{})
	m.seq++
	seq := m.seq
	creds := m.creds
	m.mu.Unlock()

	sess, clearCreds, err := m.probe(ctx, creds)

	m.mu.Lock()
	close(m.inflight)
	m.inflight = nil
	if seq <= m.applied {
		// A sign-in or sign-out landed while we were probing; whatever we
		// observed describes a session that no longer exists.
		current := m.session
		m.mu.Unlock()
		m.log("discarding stale reconcile result", "seq", seq)
		return current, err
	}
	m.applied = seq
	m.session = sess
	if clearCreds {
		m.creds = nil
	}
	observers := m.observers
	m.mu.Unlock()

	if clearCreds {
		m.pushTokens("", "")
		m.clearStore()
	}
	for _, fn := range observers {
		fn(sess)
	}
	return sess, err
}

// probe does the network work of a reconcile without touching state.
func (m *Manager) probe(ctx context.Context, creds *credstore.Credentials) (sess Session, clearCreds bool, err error) {
	if creds.Empty() {
		return anonymousSession(), false, nil
	}

	user, err := m.auth.Me(ctx)
	if err != nil {
		if httpx.IsAuthenticationError(err) {
			// The token is dead for real: the transport already tried a
			// refresh before surfacing this.
			m.log("stored session rejected, signing out")
			return anonymousSession(), true, nil
		}
		m.log("profile check failed, keeping credentials", "error", err)
		return anonymousSession(), false, err
	}

	sess = Session{
		Authenticated:         true,
		User:                  user,
		RequirePayment:        true,
		NeedsSubjectSelection: !user.HasSelectedSubjects,
	}

	state, err := m.payments.ActiveSubscription(ctx)
	if err != nil {
		// Unknown subscription state locks premium content until a later
		// reconcile succeeds.
		m.log("subscription check failed", "error", err)
		return sess, false, err
	}

	sess.PremiumActive = state.Active
	sess.RenewalEligible = state.RenewalEligible
	sess.RenewalAmount = state.RenewalAmount
	sess.RequirePayment = !state.Active
	return sess, false, nil
}

// Login signs in with a phone number and password, persists the issued
// tokens and derives the new session's flags. The result is applied
// unconditionally: a reconcile that was already in flight when the user
// signed in describes the old session and gets discarded.
func (m *Manager) Login(ctx context.Context, phoneNumber, password string) (Session, error) {
	resp, err := m.auth.Login(ctx, &resources.LoginRequest{
		PhoneNumber: phoneNumber,
		Password:    password,
	})
	if err != nil {
		return m.Current(), err
	}

	creds := &credstore.Credentials{
		AccessToken:  resp.Tokens.Access,
		RefreshToken: resp.Tokens.Refresh,
		PhoneNumber:  resp.User.PhoneNumber,
	}
	m.pushTokens(creds.AccessToken, creds.RefreshToken)
	if m.store != nil {
		if err := m.store.Save(creds); err != nil {
			m.log("failed to persist credentials", "error", err)
		}
	}

	user := resp.User
	sess := Session{
		Authenticated:         true,
		User:                  &user,
		RequirePayment:        true,
		NeedsSubjectSelection: !user.HasSelectedSubjects,
	}
	state, subErr := m.payments.ActiveSubscription(ctx)
	if subErr == nil {
		sess.PremiumActive = state.Active
		sess.RenewalEligible = state.RenewalEligible
		sess.RenewalAmount = state.RenewalAmount
		sess.RequirePayment = !state.Active
	} else {
		m.log("subscription check failed after login", "error", subErr)
	}

	m.mu.Lock()
	m.creds = creds
	m.seq++
	m.applied = m.seq
	m.session = sess
	observers := m.observers
	m.mu.Unlock()

	for _, fn := range observers {
		fn(sess)
	}
	return sess, subErr
}

// Renew starts a discounted renewal payment. It refuses to fire unless
// the last reconcile marked the session renewal-eligible; a failed
// initiation leaves the session state untouched. Renew only sends the
// STK push: the session flags change once the payment is confirmed and
// a reconcile observes the new subscription, which RenewAndWait does in
// one call.
func (m *Manager) Renew(ctx context.Context) (*types.Payment, error) {
	m.mu.Lock()
	eligible := m.session.RenewalEligible
	m.mu.Unlock()
	if !eligible {
		return nil, ErrNotRenewalEligible
	}
	return m.payments.Renew(ctx)
}

// RenewAndWait renews, polls the payment until it settles and then
// reconciles so the session observes the new subscription. The payment
// is returned alongside the resulting session; on a poll timeout it is
// the last observed state with ErrConfirmationTimeout.
func (m *Manager) RenewAndWait(ctx context.Context, opts resources.PollOptions) (Session, *types.Payment, error) {
	payment, err := m.Renew(ctx)
	if err != nil {
		return m.Current(), nil, err
	}

	payment, err = m.payments.WaitForConfirmation(ctx, payment.Reference, opts)
	if err != nil {
		return m.Current(), payment, err
	}
	if payment.Status != types.PaymentStatusConfirmed {
		// Failed or cancelled; nothing changed server side.
		return m.Current(), payment, nil
	}

	sess, err := m.Reconcile(ctx)
	return sess, payment, err
}

// SignOut invalidates the refresh token server side (best effort), clears
// the persisted credentials and resets the session.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	creds := m.creds
	m.mu.Unlock()

	if !creds.Empty() && creds.RefreshToken != "" {
		if err := m.auth.Logout(ctx, creds.RefreshToken); err != nil {
			// Local sign-out proceeds regardless.
			m.log("server logout failed", "error", err)
		}
	}

	m.mu.Lock()
	m.creds = nil
	m.seq++
	m.applied = m.seq
	m.session = anonymousSession()
	observers := m.observers
	m.mu.Unlock()

	m.pushTokens("", "")
	m.clearStore()
	for _, fn := range observers {
		fn(anonymousSession())
	}
	return nil
}

func (m *Manager) pushTokens(access, refresh string) {
	if m.tokens == nil {
		return
	}
	m.tokens.SetRefreshToken(refresh)
	m.tokens.SetAccessToken(access)
}

func (m *Manager) clearStore() {
	if m.store == nil {
		return
	}
	if err := m.store.Clear(); err != nil {
		m.log("failed to clear stored credentials", "error", err)
	}
}

func (m *Manager) log(msg string, keysAndValues ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, keysAndValues...)
	}
}
