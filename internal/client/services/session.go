// Package services contains the application services of the storefront
// client: the session and cart stores, catalog browsing with an offline
// cache, and checkout.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// Status is the authentication state of a session.
type Status int

const (
	StatusUnresolved Status = iota
	StatusResolving
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusUnresolved:
		return "unresolved"
	case StatusResolving:
		return "resolving"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Session is a read-only snapshot of the session state. Generation changes
// every time the token changes.
type Session struct {
	Token      string
	Identity   *models.User
	Status     Status
	Generation uint64
}

// Eligible reports whether the session may shop: authenticated with an
// age-verified identity.
func (s Session) Eligible() bool {
	return s.Status == StatusAuthenticated && s.Identity != nil && s.Identity.AgeVerified
}

// Landing names the view a caller should navigate to after an operation.
type Landing string

const LandingHome Landing = "home"

// RegisterInput is the registration form. BirthDate is YYYY-MM-DD.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	BirthDate string
}

type RegisterResult struct {
	User    *models.User
	Landing Landing
}

const (
	birthDateLayout   = "2006-01-02"
	minPasswordLength = 8
)

// TokenStore is the durable home of the bearer token.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// SessionStore owns the token and the identity resolved from it.
//
// mu guards state and is never held across network calls. Durable token
// writes happen under mu so storage always matches the in-memory token.
// Listeners are invoked outside mu; deliverMu serializes deliveries and each
// delivery carries the state current at delivery time.
type SessionStore struct {
	client client.Client
	tokens TokenStore
	log    logging.Logger
	now    func() time.Time

	mu    sync.Mutex
	state Session
	ready chan struct{}

	identities singleflight.Group
	deliverMu  sync.Mutex
	listeners  changeNotifier[Session]
}

func NewSessionStore(c client.Client, tokens TokenStore, log logging.Logger) *SessionStore {
	if log == nil {
		log = logging.Discard()
	}
	return &SessionStore{
		client: c,
		tokens: tokens,
		log:    log.With("component", "session"),
		now:    time.Now,
		state:  Session{Status: StatusUnresolved},
		ready:  make(chan struct{}),
	}
}

// Snapshot returns a copy of the current session.
func (s *SessionStore) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *SessionStore) snapshotLocked() Session {
	snap := s.state
	snap.Identity = s.state.Identity.Clone()
	return snap
}

// Subscribe registers fn to be called after every state transition and
// returns a function that removes it. fn must not call Login, Register,
// Logout, Restore or VerifyAge synchronously.
func (s *SessionStore) Subscribe(fn func(ctx context.Context, snap Session)) func() {
	return s.listeners.subscribe(fn)
}

// WaitReady blocks until the session is authenticated or anonymous.
func (s *SessionStore) WaitReady(ctx context.Context) error {
	s.mu.Lock()
	ch := s.ready
	s.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SessionStore) publish(ctx context.Context) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	s.listeners.notify(ctx, s.Snapshot())
}

// setStatusLocked keeps the ready channel in step with status: open while
// unresolved or resolving, closed once settled.
func (s *SessionStore) setStatusLocked(st Status) {
	s.state.Status = st
	settled := st == StatusAuthenticated || st == StatusAnonymous
	select {
	case <-s.ready:
		if !settled {
			s.ready = make(chan struct{})
		}
	default:
		if settled {
			close(s.ready)
		}
	}
}

// replaceTokenLocked installs token, drops the identity and moves to
// resolving (or anonymous for an empty token).
func (s *SessionStore) replaceTokenLocked(token string) uint64 {
	s.state.Generation++
	s.state.Token = token
	s.state.Identity = nil
	if token == "" {
		s.setStatusLocked(StatusAnonymous)
	} else {
		s.setStatusLocked(StatusResolving)
	}
	return s.state.Generation
}

// Login exchanges credentials for a token, persists it and resolves the
// identity. If identity resolution fails the session ends up anonymous and
// the error is returned.
func (s *SessionStore) Login(ctx context.Context, identifier, credential string) (*models.User, error) {
	if strings.TrimSpace(identifier) == "" {
		return nil, &client.ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if credential == "" {
		return nil, &client.ValidationError{Field: "password", Reason: "must not be empty"}
	}

	tok, err := s.client.Login(ctx, identifier, credential)
	if err != nil {
		return nil, fmt.Errorf("login: %w", invalidCredentials(err))
	}

	s.mu.Lock()
	if err := s.tokens.SaveToken(ctx, tok.AccessToken); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to persist token: %w", err)
	}
	gen := s.replaceTokenLocked(tok.AccessToken)
	s.mu.Unlock()
	s.publish(ctx)

	user, err := s.fetchIdentity(ctx, gen, tok.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	s.log.Info(ctx, "logged in", "username", user.Username)
	return user, nil
}

// invalidCredentials maps a credential-exchange rejection onto
// ErrInvalidCredentials. Other failures pass through.
func invalidCredentials(err error) error {
	if errors.Is(err, client.ErrInvalidCredentials) {
		return err
	}
	switch client.StatusCode(err) {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", client.ErrInvalidCredentials, err)
	}
	return err
}

// Register validates in, creates the account and logs in with the same
// credentials.
func (s *SessionStore) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	req, err := registerRequest(in)
	if err != nil {
		return nil, err
	}

	if _, err := s.client.Register(ctx, req); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user, err := s.Login(ctx, in.Username, in.Password)
	if err != nil {
		return nil, fmt.Errorf("account created, login failed: %w", err)
	}
	return &RegisterResult{User: user, Landing: LandingHome}, nil
}

func registerRequest(in RegisterInput) (models.RegisterRequest, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if username == "" {
		return models.RegisterRequest{}, &client.ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if !strings.Contains(email, "@") {
		return models.RegisterRequest{}, &client.ValidationError{Field: "email", Reason: "must be an email address"}
	}
	if len(in.Password) < minPasswordLength {
		return models.RegisterRequest{}, &client.ValidationError{
			Field:  "password",
			Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength),
		}
	}
	birth, err := time.Parse(birthDateLayout, strings.TrimSpace(in.BirthDate))
	if err != nil {
		return models.RegisterRequest{}, &client.ValidationError{Field: "birth_date", Reason: "must be a YYYY-MM-DD date"}
	}

	return models.RegisterRequest{
		Username:  username,
		Email:     email,
		Password:  in.Password,
		BirthDate: birth.UTC().Format(time.RFC3339),
	}, nil
}

// Logout clears the token, the identity and durable storage. It never fails;
// a storage error is logged.
func (s *SessionStore) Logout(ctx context.Context) {
	s.mu.Lock()
	s.clearLocked(ctx)
	s.mu.Unlock()
	s.publish(ctx)
}

func (s *SessionStore) clearLocked(ctx context.Context) {
	s.replaceTokenLocked("")
	if err := s.tokens.ClearToken(ctx); err != nil {
		s.log.Error(ctx, "failed to clear stored token", "error", err)
	}
}

// invalidateCredentials is the transition taken when the held token can no
// longer produce an identity. It is equivalent to Logout, but only applies
// while gen is still current.
func (s *SessionStore) invalidateCredentials(ctx context.Context, gen uint64, cause error) {
	s.mu.Lock()
	if s.state.Generation != gen {
		s.mu.Unlock()
		return
	}
	s.log.Warn(ctx, "credentials invalidated", "generation", gen, "cause", cause)
	s.clearLocked(ctx)
	s.mu.Unlock()
	s.publish(ctx)
}

// fetchIdentity resolves the identity for token under generation gen.
// Concurrent resolutions of the same token share one request. The result is
// discarded with ErrSessionChanged if the generation moved on meanwhile.
func (s *SessionStore) fetchIdentity(ctx context.Context, gen uint64, token string) (*models.User, error) {
	v, err, _ := s.identities.Do(token, func() (any, error) {
		return s.client.Me(ctx, token)
	})

	s.mu.Lock()
	if s.state.Generation != gen {
		s.mu.Unlock()
		s.log.Debug(ctx, "discarding stale identity result", "generation", gen)
		return nil, client.ErrSessionChanged
	}
	user, _ := v.(*models.User)
	if err == nil && user == nil {
		err = errors.New("empty identity")
	}
	if err != nil {
		s.mu.Unlock()
		s.invalidateCredentials(ctx, gen, err)
		return nil, err
	}

	s.state.Identity = user.Clone()
	s.setStatusLocked(StatusAuthenticated)
	s.mu.Unlock()
	s.publish(ctx)

	return user.Clone(), nil
}

// Restore loads the persisted token at startup. A missing token leaves the
// session anonymous; a JWT whose exp is already past is invalidated without
// a network call.
func (s *SessionStore) Restore(ctx context.Context) error {
	token, err := s.tokens.LoadToken(ctx)
	if err != nil {
		s.mu.Lock()
		s.setStatusLocked(StatusAnonymous)
		s.mu.Unlock()
		s.publish(ctx)
		return fmt.Errorf("failed to load stored token: %w", err)
	}

	s.mu.Lock()
	if token == "" {
		s.setStatusLocked(StatusAnonymous)
		s.mu.Unlock()
		s.publish(ctx)
		return nil
	}
	gen := s.replaceTokenLocked(token)
	s.mu.Unlock()
	s.publish(ctx)

	if tokenExpired(token, s.now()) {
		s.invalidateCredentials(ctx, gen, jwt.ErrTokenExpired)
		return nil
	}

	if _, err := s.fetchIdentity(ctx, gen, token); err != nil && !errors.Is(err, client.ErrSessionChanged) {
		s.log.Info(ctx, "stored session rejected", "error", err)
	}
	return nil
}

// tokenExpired reports whether token is a JWT whose exp claim is not after
// now. Opaque tokens and tokens without exp are left to the server.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

// VerifyAge asks the API to verify the current user's age. A token in the
// response replaces the held one together with the identity, without
// re-resolving.
func (s *SessionStore) VerifyAge(ctx context.Context) (*models.User, error) {
	snap := s.Snapshot()
	if snap.Token == "" || snap.Status != StatusAuthenticated {
		return nil, client.ErrNotAuthorized
	}

	av, err := s.client.VerifyAge(ctx, snap.Token)
	if err != nil {
		return nil, fmt.Errorf("verify age: %w", err)
	}
	if av == nil || av.User == nil {
		return nil, errors.New("verify age: response has no user")
	}

	s.mu.Lock()
	if s.state.Generation != snap.Generation {
		s.mu.Unlock()
		return nil, client.ErrSessionChanged
	}
	if av.AccessToken != "" && av.AccessToken != s.state.Token {
		if err := s.tokens.SaveToken(ctx, av.AccessToken); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("failed to persist token: %w", err)
		}
		s.state.Generation++
		s.state.Token = av.AccessToken
	}
	s.state.Identity = av.User.Clone()
	s.setStatusLocked(StatusAuthenticated)
	s.mu.Unlock()
	s.publish(ctx)

	return av.User.Clone(), nil
}

// MinimumAge returns the age threshold the API enforces.
func (s *SessionStore) MinimumAge(ctx context.Context) (int, error) {
	age, err := s.client.MinimumAge(ctx, s.Snapshot().Token)
	if err != nil {
		return 0, fmt.Errorf("minimum age: %w", err)
	}
	return age, nil
}
