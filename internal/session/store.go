package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	errors "github.com/frahmantamala/expense-client/internal"
	"github.com/frahmantamala/expense-client/internal/apiclient"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-client/internal/core/events"
)

// Store owns the session for one client profile. It is the only writer of the
// durable storage and publishes a session event after every change.
type Store struct {
	mu      sync.RWMutex
	current Session
	storage Storage
	api     AuthAPI
	bus     *events.EventBus
	logger  *slog.Logger
}

func NewStore(storage Storage, api AuthAPI, bus *events.EventBus, logger *slog.Logger) *Store {
	return &Store{
		storage: storage,
		api:     api,
		bus:     bus,
		logger:  logger,
	}
}

// Open builds a store and loads the persisted session.
func Open(ctx context.Context, storage Storage, api AuthAPI, bus *events.EventBus, logger *slog.Logger) (*Store, error) {
	s := NewStore(storage, api, bus, logger)
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Init replaces the in-memory session with what storage holds. Anything short
// of a decodable user plus a token loads as signed out.
func (s *Store) Init(ctx context.Context) error {
	loaded, err := s.load(ctx)
	if err != nil {
		return errors.NewInternalError("failed to load session", err)
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
	return nil
}

func (s *Store) load(ctx context.Context) (Session, error) {
	rawUser, hasUser, err := s.storage.Get(ctx, KeyUser)
	if err != nil {
		return Session{}, err
	}
	token, hasToken, err := s.storage.Get(ctx, KeyToken)
	if err != nil {
		return Session{}, err
	}

	if !hasUser || !hasToken || token == "" {
		if hasUser || hasToken {
			s.logger.Warn("incomplete persisted session, treating as signed out",
				"has_user", hasUser, "has_token", hasToken)
		}
		return Session{}, nil
	}

	var u user.User
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
		s.logger.Warn("unreadable persisted user, treating as signed out", "error", err)
		return Session{}, nil
	}
	return Session{User: &u, Token: token}, nil
}

// Current returns a copy; callers never share the store's user.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Token feeds the request gateway.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

func (s *Store) Login(ctx context.Context, email, password string) (Session, error) {
	dto := LoginDTO{Email: email, Password: password}
	if err := dto.Validate(); err != nil {
		return Session{}, err
	}

	result, err := s.api.Login(ctx, dto.Email, dto.Password)
	if err != nil {
		s.logger.Info("login rejected", "email", dto.Email, "error", err)
		return Session{}, authFailure(err, "Login failed", errors.ErrCodeLoginFailed)
	}

	return s.establish(ctx, result, events.EventTypeLoggedIn, "Login failed", errors.ErrCodeLoginFailed)
}

// Register validates the form locally and only then calls the API.
func (s *Store) Register(ctx context.Context, name, email, password, confirmPassword string) (Session, error) {
	dto := RegisterDTO{Name: name, Email: email, Password: password, ConfirmPassword: confirmPassword}
	if err := dto.Validate(); err != nil {
		return Session{}, err
	}

	result, err := s.api.Register(ctx, dto.request())
	if err != nil {
		s.logger.Info("registration rejected", "email", dto.Email, "error", err)
		return Session{}, authFailure(err, "Registration failed", errors.ErrCodeRegistrationFailed)
	}

	return s.establish(ctx, result, events.EventTypeRegistered, "Registration failed", errors.ErrCodeRegistrationFailed)
}

// establish persists user and token in one write and only then swaps the
// in-memory session, so a failed write leaves the previous pair in memory and
// in storage.
func (s *Store) establish(ctx context.Context, result *apiclient.AuthResult, eventType, fallback string, code errors.ErrorCode) (Session, error) {
	if result == nil || result.Token == "" || result.User == nil || !result.User.Role.Valid() {
		return Session{}, errors.NewAuthError(fallback, code)
	}

	next := Session{User: result.User.Clone(), Token: result.Token}

	rawUser, err := json.Marshal(next.User)
	if err != nil {
		return Session{}, errors.NewInternalError("failed to encode user", err)
	}
	if err := s.storage.SetAll(ctx, map[string]string{
		KeyUser:  string(rawUser),
		KeyToken: next.Token,
	}); err != nil {
		return Session{}, errors.NewInternalError("failed to persist session", err)
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.logger.Info("session established", "user_id", next.User.ID, "role", next.User.Role)
	s.publish(ctx, events.NewSessionChangedEvent(eventType, next.User))
	return next.clone(), nil
}

// Logout clears storage and then memory. It never calls the API and is safe
// to repeat. If storage cannot be cleared the session stays signed in, so
// memory never disagrees with what the next start will load.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	previous, err := s.clearLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("failed to clear session storage", "error", err)
		return errors.NewInternalError("Logout failed; you are still signed in", err)
	}

	if previous.Authenticated() {
		s.logger.Info("session ended", "user_id", previous.User.ID)
	}
	s.publish(ctx, events.NewSessionChangedEvent(events.EventTypeLoggedOut, nil))
	return nil
}

// clearLocked empties storage, retrying once, and drops the in-memory
// session only after storage is empty.
func (s *Store) clearLocked(ctx context.Context) (Session, error) {
	err := s.storage.Clear(ctx)
	if err != nil {
		s.logger.Warn("retrying session storage clear", "error", err)
		err = s.storage.Clear(ctx)
	}
	if err != nil {
		return Session{}, err
	}
	previous := s.current
	s.current = Session{}
	return previous, nil
}

func (s *Store) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishSync(ctx, event); err != nil {
		s.logger.Warn("session event handler failed", "event_type", event.EventType(), "error", err)
	}
}
