package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/folio/internal/api"
)

// ErrExpired is returned by Bootstrap when the stored token's exp claim is in
// the past.
var ErrExpired = errors.New("session expired")

// Authenticator is the subset of the API client the session needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Register(ctx context.Context, username, email, password string) (*api.AuthResponse, error)
	Profile(ctx context.Context) (*api.Profile, error)
}

// Session holds the signed-in user and their bearer token. It satisfies
// api.Credentials so the client can read the token on every request.
type Session struct {
	client Authenticator
	store  *Store
	now    func() time.Time

	mu      sync.RWMutex
	token   string
	user    api.User
	expires time.Time
	loading bool
}

var _ api.Credentials = (*Session)(nil)

// New reads any persisted token from store. The session reports Loading until
// Bootstrap has run.
func New(client Authenticator, store *Store) *Session {
	s := &Session{client: client, store: store, now: time.Now, loading: true}
	if store == nil {
		return s
	}
	token, err := store.Load()
	if err != nil {
		log.Printf("session load failed: %v", err)
		return s
	}
	s.setToken(token)
	return s
}

// Bootstrap validates the persisted token by fetching the current profile.
// With no token it only clears the loading flag. An expired or rejected token
// logs the session out.
func (s *Session) Bootstrap(ctx context.Context) error {
	defer s.finishLoading()

	s.mu.RLock()
	token, expires := s.token, s.expires
	s.mu.RUnlock()

	if token == "" {
		return nil
	}
	if !expires.IsZero() && !s.now().Before(expires) {
		log.Printf("stored session expired at %s", expires.Format(time.RFC3339))
		s.logoutIf(token)
		return ErrExpired
	}

	profile, err := s.client.Profile(ctx)
	if err != nil {
		// A Login that finished during the fetch replaced the token; its
		// session must survive the stale token's rejection.
		if !s.logoutIf(token) {
			log.Printf("stale session check failed after re-login: %v", err)
			return nil
		}
		log.Printf("session bootstrap failed: %v", err)
		return fmt.Errorf("restore session: %w", err)
	}

	s.mu.Lock()
	// A Logout that raced the profile fetch wins.
	if s.token == token {
		s.user = profile.User
	}
	s.mu.Unlock()
	return nil
}

// Login exchanges credentials for a token. On failure the session is left
// unchanged and the error is returned as is.
func (s *Session) Login(ctx context.Context, email, password string) error {
	resp, err := s.client.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return err
	}
	s.establish(resp)
	return nil
}

// Register creates an account and signs it in.
func (s *Session) Register(ctx context.Context, username, email, password string) error {
	resp, err := s.client.Register(ctx, strings.TrimSpace(username), strings.TrimSpace(email), password)
	if err != nil {
		return err
	}
	s.establish(resp)
	return nil
}

// Logout forgets the token and user and removes the persisted token. There is
// no server call.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.user = api.User{}
	s.expires = time.Time{}
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			log.Printf("session clear failed: %v", err)
		}
	}
}

// logoutIf logs out only while token is still the session's token and
// reports whether it did.
func (s *Session) logoutIf(token string) bool {
	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		return false
	}
	s.token = ""
	s.user = api.User{}
	s.expires = time.Time{}
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			log.Printf("session clear failed: %v", err)
		}
	}
	return true
}

// HandleError logs the session out when err means the token was rejected and
// reports whether it did.
func (s *Session) HandleError(err error) bool {
	if err == nil || !errors.Is(err, api.ErrUnauthorized) {
		return false
	}
	log.Printf("token rejected, signing out: %v", err)
	s.Logout()
	return true
}

// SetUser replaces the cached user, e.g. after a profile edit.
func (s *Session) SetUser(u api.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		s.user = u
	}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Authenticated reports whether a token is held. The user may still be empty
// while Bootstrap is running.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// ExpiresAt returns the token's exp claim, or the zero time when the token is
// not a JWT or carries no expiry.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expires
}

func (s *Session) establish(resp *api.AuthResponse) {
	s.mu.Lock()
	s.setTokenLocked(resp.Token)
	s.user = resp.User
	s.loading = false
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Save(resp.Token); err != nil {
			log.Printf("session save failed: %v", err)
		}
	}
}

func (s *Session) finishLoading() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *Session) setToken(token string) {
	s.mu.Lock()
	s.setTokenLocked(token)
	s.mu.Unlock()
}

func (s *Session) setTokenLocked(token string) {
	s.token = strings.TrimSpace(token)
	s.expires = tokenExpiry(s.token)
}

// tokenExpiry reads the exp claim without verifying the signature; the server
// remains the authority on whether the token is valid.
func tokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
