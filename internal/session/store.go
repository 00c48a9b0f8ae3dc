// Package session owns the authenticated identity for the process: token,
// profile, loading and error flags. One instance exists per process; it is
// constructed explicitly and injectable for tests.
package session

import (
	"context"
	"sync"

	"studygenie/internal/api"
	"studygenie/internal/errs"
	"studygenie/internal/models"

	"go.uber.org/zap"
)

// AuthAPI is the slice of the remote API the session store needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (api.AuthResponse, error)
	Register(ctx context.Context, name, email, password string) (api.AuthResponse, error)
	Me(ctx context.Context) (models.User, error)
}

// CredentialStore is the durable client-local storage for the credential
// and the cached profile snapshot.
type CredentialStore interface {
	SaveCredential(token string) error
	Credential() (string, bool, error)
	ClearCredential() error
	SaveProfile(user models.User) error
	Profile() (models.User, bool, error)
}

// MinPasswordLength is enforced locally on registration before any
// network call is made.
const MinPasswordLength = 6

// Snapshot is an immutable view of the session for routing decisions.
// RouteGuard reads snapshots; it never mutates the store.
type Snapshot struct {
	Authenticated bool
	Onboarded     bool
	Loading       bool
	Err           string
	User          *models.User
}

// Store is the process-wide session state.
//
// Every auth-mutating call captures the generation counter before
// suspending on the network. Logout (or any state-clearing write) bumps
// the counter, so an in-flight call completing afterwards sees that it is
// stale and discards its result instead of re-authenticating the user.
type Store struct {
	mu         sync.Mutex
	generation uint64
	token      string
	user       *models.User
	loading    bool
	lastErr    string

	persist CredentialStore
	api     AuthAPI
	log     *zap.Logger
}

// New creates a session store. It performs no I/O; call Bootstrap to load
// the persisted session.
func New(persist CredentialStore, authAPI AuthAPI, log *zap.Logger) *Store {
	return &Store{persist: persist, api: authAPI, log: log, loading: true}
}

// Bootstrap restores the persisted session, refreshing the profile from
// the remote API before declaring the store ready. On any failure the
// persisted credential is cleared: a token without a verified profile is
// not a session. The loading flag reaches false on every path.
func (s *Store) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	token, ok, err := s.persist.Credential()
	if err != nil || !ok {
		s.loading = false
		s.mu.Unlock()
		if err != nil {
			s.log.Error("Failed to read persisted credential", zap.Error(err))
			return errs.Wrap(errs.Transport, "failed to read persisted credential", err)
		}
		s.log.Info("No persisted session found")
		return nil
	}
	s.token = token
	s.loading = true
	gen := s.generation
	s.mu.Unlock()

	user, err := s.api.Me(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// Logged out while the fetch was in flight; the result is stale.
		s.log.Debug("Discarding stale bootstrap result")
		return nil
	}
	s.loading = false
	if err != nil {
		s.clearLocked(err.Error())
		s.log.Warn("Session bootstrap failed, cleared persisted session", zap.Error(err))
		return err
	}
	s.setUserLocked(user)
	s.log.Info("Session restored", zap.String("user", user.Email))
	return nil
}

// Login authenticates with the remote API. Empty fields fail locally with
// a validation error and make no network call. Failures are recorded in
// the session error state and returned; Login never panics.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return errs.New(errs.Validation, "email and password are required")
	}

	gen, err := s.beginMutation()
	if err != nil {
		return err
	}

	resp, err := s.api.Login(ctx, email, password)
	return s.finishAuth(gen, resp, err)
}

// Register creates an account and authenticates. Beyond presence checks,
// the password must meet the minimum length locally.
func (s *Store) Register(ctx context.Context, name, email, password string) error {
	if name == "" || email == "" || password == "" {
		return errs.New(errs.Validation, "name, email and password are required")
	}
	if len(password) < MinPasswordLength {
		return errs.Newf(errs.Validation, "password must be at least %d characters", MinPasswordLength)
	}

	gen, err := s.beginMutation()
	if err != nil {
		return err
	}

	resp, err := s.api.Register(ctx, name, email, password)
	return s.finishAuth(gen, resp, err)
}

// beginMutation flips the loading flag and captures the generation the
// network call is issued under.
func (s *Store) beginMutation() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return 0, errs.New(errs.Conflict, "another session operation is in flight")
	}
	s.loading = true
	s.lastErr = ""
	return s.generation, nil
}

// finishAuth applies the outcome of a login or register call, unless the
// session generation moved on while the call was in flight.
func (s *Store) finishAuth(gen uint64, resp api.AuthResponse, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.log.Debug("Discarding stale auth result")
		return errs.New(errs.Conflict, "session superseded while request was in flight")
	}
	s.loading = false
	if err != nil {
		s.lastErr = err.Error()
		return err
	}

	// Token and user are stored together: never one without the other.
	s.token = resp.Token
	user := resp.User
	s.user = &user
	if perr := s.persist.SaveCredential(resp.Token); perr != nil {
		s.log.Warn("Failed to persist credential", zap.Error(perr))
	}
	if perr := s.persist.SaveProfile(user); perr != nil {
		s.log.Warn("Failed to cache profile", zap.Error(perr))
	}
	s.log.Info("Authenticated", zap.String("user", user.Email))
	return nil
}

// UpdateProfile applies a server-confirmed profile record. Unconfirmed
// client-side state is never merged in.
func (s *Store) UpdateProfile(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		// Logged out while the confirming call was in flight; drop it.
		s.log.Debug("Discarding profile update for ended session")
		return
	}
	s.setUserLocked(user)
}

// Logout clears the session and persisted storage unconditionally and
// bumps the generation so in-flight results are discarded. A second call
// is a no-op.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" && s.user == nil && !s.loading {
		return
	}
	s.loading = false
	s.clearLocked("")
	s.log.Info("Logged out")
}

// Token returns the current bearer credential, or "" when logged out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Snapshot returns an immutable copy of the session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Authenticated: s.token != "",
		Loading:       s.loading,
		Err:           s.lastErr,
	}
	if s.user != nil {
		user := *s.user
		snap.User = &user
		snap.Onboarded = user.IsOnboarded
	}
	return snap
}

// setUserLocked stores the profile and refreshes the cached snapshot.
// Callers hold s.mu.
func (s *Store) setUserLocked(user models.User) {
	s.user = &user
	if err := s.persist.SaveProfile(user); err != nil {
		s.log.Warn("Failed to cache profile", zap.Error(err))
	}
}

// clearLocked wipes token, profile and persisted storage atomically and
// invalidates in-flight requests. Callers hold s.mu.
func (s *Store) clearLocked(reason string) {
	s.token = ""
	s.user = nil
	s.lastErr = reason
	s.generation++
	if err := s.persist.ClearCredential(); err != nil {
		s.log.Warn("Failed to clear persisted credential", zap.Error(err))
	}
}
