package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fc-integration/inventory/internal/api"
	"github.com/fc-integration/inventory/internal/apperr"
	"github.com/fc-integration/inventory/internal/kv"
	"github.com/fc-integration/inventory/internal/nav"
	"github.com/fc-integration/inventory/types"
)

// Storage slots holding the persisted session.
const (
	TokenKey = "userToken"
	UserKey  = "userData"
)

const (
	defaultLoginError  = "An error occurred during login"
	defaultVerifyError = "Invalid two-factor code"
)

// State is the position of the store in the login state machine.
type State int

const (
	Anonymous State = iota
	PendingTwoFactor
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "ANONYMOUS"
	case PendingTwoFactor:
		return "PENDING_2FA"
	case Authenticated:
		return "AUTHENTICATED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Store owns the single live session of the process. It is created once
// at startup and handed to every component that needs credentials.
type Store struct {
	client *api.Client
	slots  kv.Store
	nav    nav.Navigator
	log    zerolog.Logger

	mu      sync.RWMutex
	state   State
	session types.Session
	pending string
}

func NewStore(client *api.Client, slots kv.Store, navigator nav.Navigator, log zerolog.Logger) *Store {
	return &Store{
		client: client,
		slots:  slots,
		nav:    navigator,
		log:    log.With().Str("component", "session").Logger(),
	}
}

// Current returns the live session, if any.
func (s *Store) Current() (types.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.session.Valid()
}

// Token returns the bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// PendingIdentifier returns the identifier awaiting a two-factor code.
func (s *Store) PendingIdentifier() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// Login submits credentials. When the account requires a second factor the
// result carries TwoFactorRequired and no session is established.
func (s *Store) Login(ctx context.Context, identifier, secret string) (types.LoginResult, error) {
	var resp types.AuthResponse
	err := s.client.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/login",
		Body:   types.LoginRequest{Email: identifier, Password: secret},
	}, &resp)
	if err != nil {
		s.log.Error().Err(err).Str("identifier", identifier).Msg("login failed")
		return types.LoginResult{}, authFailure(err, defaultLoginError)
	}

	if resp.TwoFactor {
		// A live session never coexists with a pending challenge.
		s.mu.Lock()
		hadSession := s.state == Authenticated
		s.session = types.Session{}
		s.state = PendingTwoFactor
		s.pending = identifier
		s.mu.Unlock()
		if hadSession {
			if err := s.slots.Delete(ctx, TokenKey, UserKey); err != nil {
				return types.LoginResult{}, err
			}
			s.log.Info().Msg("previous session discarded for two-factor challenge")
		}
		s.log.Info().Str("identifier", identifier).Msg("two-factor verification required")
		return types.LoginResult{TwoFactorRequired: true, Message: resp.Message}, nil
	}

	sess, err := s.establish(ctx, "/login", resp)
	if err != nil {
		return types.LoginResult{}, err
	}
	return types.LoginResult{Session: sess}, nil
}

// VerifyTwoFactor completes a challenge raised by Login. A rejected code
// leaves the store pending so the caller may retry.
func (s *Store) VerifyTwoFactor(ctx context.Context, identifier, code string) (types.Session, error) {
	var resp types.AuthResponse
	err := s.client.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/verify-two-factor",
		Body:   types.VerifyTwoFactorRequest{Email: identifier, Code: code},
	}, &resp)
	if err != nil {
		s.log.Error().Err(err).Str("identifier", identifier).Msg("two-factor verification failed")
		return types.Session{}, authFailure(err, defaultVerifyError)
	}
	return s.establish(ctx, "/verify-two-factor", resp)
}

// Logout notifies the server on a best-effort basis, then clears the
// session unconditionally. Calling it while logged out is a no-op clear.
func (s *Store) Logout(ctx context.Context) error {
	sess, ok := s.Current()
	if ok {
		err := s.client.Do(ctx, api.Request{
			Method: http.MethodPost,
			Path:   "/logout",
			Body:   types.LogoutRequest{Name: sess.User.Name},
			Token:  sess.Token,
		}, nil)
		if err != nil {
			s.log.Warn().Err(err).Msg("logout notification failed")
		}
	}
	return s.clear(ctx, "logout")
}

// Teardown clears the session without contacting the server. The gateway
// calls it when the token was rejected.
func (s *Store) Teardown(ctx context.Context) error {
	return s.clear(ctx, "teardown")
}

// Restore loads the persisted session at startup. A session is restored
// only when both slots are present and the profile decodes.
func (s *Store) Restore(ctx context.Context) (types.Session, bool, error) {
	token, hasToken, err := s.slots.Get(ctx, TokenKey)
	if err != nil {
		return types.Session{}, false, fmt.Errorf("read %s: %w", TokenKey, err)
	}
	raw, hasUser, err := s.slots.Get(ctx, UserKey)
	if err != nil {
		return types.Session{}, false, fmt.Errorf("read %s: %w", UserKey, err)
	}

	if !hasToken && !hasUser {
		return types.Session{}, false, nil
	}

	var user types.User
	if hasUser {
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			s.log.Error().Err(err).Msg("stored user profile is corrupt")
			hasUser = false
		}
	}

	sess := types.Session{Token: token, User: user}
	if !hasToken || !hasUser || !sess.Valid() {
		s.log.Warn().Bool("token", hasToken).Bool("user", hasUser).Msg("discarding incomplete stored session")
		if err := s.slots.Delete(ctx, TokenKey, UserKey); err != nil {
			return types.Session{}, false, err
		}
		return types.Session{}, false, nil
	}

	s.mu.Lock()
	s.session = sess
	s.state = Authenticated
	s.pending = ""
	s.mu.Unlock()

	s.log.Debug().Str("user", sess.User.ID).Msg("session restored")
	return sess, true, nil
}

func (s *Store) establish(ctx context.Context, path string, resp types.AuthResponse) (types.Session, error) {
	if resp.User == nil || resp.Token == "" {
		return types.Session{}, &apperr.RequestError{
			Method: http.MethodPost,
			Path:   path,
			Err:    errors.New("response carries no token or user"),
		}
	}
	sess := types.Session{Token: resp.Token, User: *resp.User}
	if !sess.Valid() {
		return types.Session{}, &apperr.RequestError{
			Method: http.MethodPost,
			Path:   path,
			Err:    errors.New("response user has no id"),
		}
	}

	if err := s.persist(ctx, sess); err != nil {
		return types.Session{}, err
	}

	s.mu.Lock()
	s.session = sess
	s.state = Authenticated
	s.pending = ""
	s.mu.Unlock()

	s.log.Info().Str("user", sess.User.ID).Str("role", string(sess.User.Role)).Msg("session established")
	if s.nav != nil {
		s.nav.Replace(nav.RouteHome)
	}
	return sess, nil
}

func (s *Store) persist(ctx context.Context, sess types.Session) error {
	data, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.slots.Set(ctx, TokenKey, sess.Token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.slots.Set(ctx, UserKey, string(data)); err != nil {
		_ = s.slots.Delete(ctx, TokenKey)
		return fmt.Errorf("persist user: %w", err)
	}
	return nil
}

func (s *Store) clear(ctx context.Context, reason string) error {
	s.mu.Lock()
	wasAuthenticated := s.session.Valid()
	s.session = types.Session{}
	s.state = Anonymous
	s.pending = ""
	s.mu.Unlock()

	err := s.slots.Delete(ctx, TokenKey, UserKey)
	if err != nil {
		s.log.Error().Err(err).Str("reason", reason).Msg("failed to clear stored session")
	}
	if wasAuthenticated {
		s.log.Info().Str("reason", reason).Msg("session cleared")
	}
	if s.nav != nil {
		s.nav.Replace(nav.RouteLogin)
	}
	return err
}

// authFailure turns a rejected credential check into an AuthError. Server
// faults and transport failures stay RequestErrors.
func authFailure(err error, fallback string) error {
	var reqErr *apperr.RequestError
	if !errors.As(err, &reqErr) || reqErr.Status == 0 || reqErr.Status >= http.StatusInternalServerError {
		return err
	}
	msg := reqErr.Message
	if msg == "" {
		msg = fallback
	}
	return &apperr.AuthError{Message: msg}
}
