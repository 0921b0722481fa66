// Package session holds the authenticated user's profile, balance and
// token, and drives the anonymous/authenticating/authenticated state
// machine around the auth endpoints.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ramollino912/wallet-simulator-frontend/internal/api"
	"github.com/ramollino912/wallet-simulator-frontend/internal/models"
	"github.com/ramollino912/wallet-simulator-frontend/internal/money"
	"github.com/ramollino912/wallet-simulator-frontend/internal/storage"
)

// State is the session lifecycle state.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	Failed
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// persisted is the durable subset of session state. Loading and error
// flags are transient and never written.
type persisted struct {
	User            *models.User `json:"user"`
	Token           string       `json:"token"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// Store is the session store. All mutation goes through its mutex so a
// reader always observes a complete transition.
type Store struct {
	mu      sync.RWMutex
	client  *api.Client
	storage *storage.Store
	log     *logrus.Logger

	state   State
	user    *models.User
	token   string
	lastErr string
}

// New creates a session Store and wires itself as the client's 401
// hook so an authentication failure anywhere forces a logout.
func New(client *api.Client, st *storage.Store, log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	s := &Store{client: client, storage: st, log: log, state: Anonymous}
	client.SetTokenSource(s.Token)
	client.SetUnauthorizedHook(s.HandleUnauthorized)
	return s
}

// Token returns the current bearer token. Wired as the client's
// TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns a copy of the current profile, nil when anonymous.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// LastError returns the message recorded by the last failed attempt.
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// ClearError resets the recorded error message.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

type authResponse struct {
	Token   string      `json:"token"`
	Usuario models.User `json:"usuario"`
}

// Login authenticates with email and password.
func (s *Store) Login(ctx context.Context, email, password string) error {
	return s.authenticate(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "Error al iniciar sesión")
}

// LoginWithGoogle authenticates with a Google-issued token.
func (s *Store) LoginWithGoogle(ctx context.Context, googleToken string) error {
	return s.authenticate(ctx, "/auth/google", map[string]string{
		"token": googleToken,
	}, "Error al iniciar sesión con Google")
}

// Register creates an account and logs the new user in.
func (s *Store) Register(ctx context.Context, nombre, apellido, email, password string) error {
	return s.authenticate(ctx, "/auth/registro", map[string]string{
		"nombre":   nombre,
		"apellido": apellido,
		"email":    email,
		"password": password,
	}, "Error al registrar usuario")
}

func (s *Store) authenticate(ctx context.Context, path string, body any, fallback string) error {
	s.mu.Lock()
	s.state = Authenticating
	s.lastErr = ""
	s.mu.Unlock()

	var resp authResponse
	if err := s.client.Post(ctx, path, body, &resp); err != nil {
		msg := api.ServerMessage(err, fallback)
		s.mu.Lock()
		s.state = Failed
		s.lastErr = msg
		s.mu.Unlock()
		s.log.WithField("path", path).WithError(err).Debug("authentication rejected")
		return &api.Error{Message: msg, Status: statusOf(err)}
	}

	user := resp.Usuario
	s.mu.Lock()
	s.state = Authenticated
	s.user = &user
	s.token = resp.Token
	s.lastErr = ""
	s.persistLocked()
	s.mu.Unlock()

	s.log.WithField("user", user.Email).Info("session authenticated")
	return nil
}

func statusOf(err error) int {
	if apiErr, ok := err.(*api.Error); ok {
		return apiErr.Status
	}
	return 0
}

// Logout clears persisted credentials and in-memory state.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.log.Info("session closed")
}

// HandleUnauthorized is the transport layer's authentication-failure
// signal. Same wipe as Logout; callers get the 401 error separately.
func (s *Store) HandleUnauthorized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Anonymous {
		return
	}
	s.clearLocked()
	s.log.Warn("session expired, credentials cleared")
}

func (s *Store) clearLocked() {
	s.state = Anonymous
	s.user = nil
	s.token = ""
	s.lastErr = ""
	if s.storage != nil {
		if err := s.storage.Delete(storage.TokenKey); err != nil {
			s.log.WithError(err).Warn("failed to clear token")
		}
		if err := s.storage.Delete(storage.AuthKey); err != nil {
			s.log.WithError(err).Warn("failed to clear session record")
		}
	}
}

// UpdateUser shallow-merges partial profile fields into the current
// session. Fields left at their zero value keep the existing value, so
// a balance-only refresh never clobbers name or email. No-op when
// anonymous.
func (s *Store) UpdateUser(partial models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return
	}
	if partial.ID != 0 {
		s.user.ID = partial.ID
	}
	if partial.Nombre != "" {
		s.user.Nombre = partial.Nombre
	}
	if partial.Email != "" {
		s.user.Email = partial.Email
	}
	if partial.Saldo != 0 || partial.ID != 0 {
		s.user.Saldo = partial.Saldo
	}
	s.persistLocked()
}

// SetBalance replaces the session balance with a server-confirmed
// value. Balances are never computed locally.
func (s *Store) SetBalance(saldo float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return
	}
	s.user.Saldo = money.Amount(saldo)
	s.persistLocked()
}

type saldoResponse struct {
	Saldo money.Amount `json:"saldo"`
}

// RefreshBalance fetches the authoritative balance and merges it in.
func (s *Store) RefreshBalance(ctx context.Context) error {
	var resp saldoResponse
	if err := s.client.Get(ctx, "/saldo", &resp); err != nil {
		return err
	}
	s.SetBalance(resp.Saldo.Float())
	return nil
}

type profileResponse struct {
	Usuario models.User `json:"usuario"`
}

// RefreshProfile fetches the full profile and merges it in.
func (s *Store) RefreshProfile(ctx context.Context) error {
	var resp profileResponse
	if err := s.client.Get(ctx, "/profile", &resp); err != nil {
		return err
	}
	s.UpdateUser(resp.Usuario)
	return nil
}

// Restore loads the persisted session record at startup. A missing or
// unreadable record leaves the store anonymous.
func (s *Store) Restore() {
	if s.storage == nil {
		return
	}
	raw, err := s.storage.Get(storage.AuthKey)
	if err != nil {
		return
	}
	var p persisted
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.log.WithError(err).Warn("discarding corrupt session record")
		return
	}
	if !p.IsAuthenticated || p.User == nil || p.Token == "" {
		return
	}
	s.mu.Lock()
	s.state = Authenticated
	s.user = p.User
	s.token = p.Token
	s.mu.Unlock()
	s.log.WithField("user", p.User.Email).Debug("session restored")
}

// persistLocked writes {user, token, isAuthenticated} under the fixed
// key plus the raw token under its own key. Callers hold the mutex.
func (s *Store) persistLocked() {
	if s.storage == nil {
		return
	}
	raw, err := json.Marshal(persisted{
		User:            s.user,
		Token:           s.token,
		IsAuthenticated: s.state == Authenticated,
	})
	if err != nil {
		s.log.WithError(err).Warn("failed to serialise session")
		return
	}
	if err := s.storage.Set(storage.AuthKey, string(raw)); err != nil {
		s.log.WithError(err).Warn("failed to persist session")
	}
	if err := s.storage.Set(storage.TokenKey, s.token); err != nil {
		s.log.WithError(err).Warn("failed to persist token")
	}
}
