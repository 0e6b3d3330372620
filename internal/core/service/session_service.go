package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/agridynamic/admin-console/internal/core/domain"
	"github.com/agridynamic/admin-console/internal/core/ports"
)

// SessionService owns the console's authentication state: the token, the
// current user and the lifecycle status. One instance exists per process and
// is handed to every component that needs it.
type SessionService struct {
	store ports.TokenStore
	auth  ports.AuthGateway
	log   zerolog.Logger
	now   func() time.Time

	initOnce sync.Once

	// writeMu serialises state transitions together with their token store
	// I/O. mu guards the fields only, so readers never wait on I/O.
	writeMu sync.Mutex
	mu      sync.RWMutex
	status  domain.SessionStatus
	token   string
	user    *domain.User
	demoted domain.DemotionReason
	// generation changes on every explicit login/logout; a revalidation
	// result computed under an older generation is discarded.
	generation uint64

	subMu       sync.Mutex
	subscribers []func(domain.Session)
}

var _ ports.SessionService = (*SessionService)(nil)

func NewSessionService(store ports.TokenStore, auth ports.AuthGateway, log zerolog.Logger) *SessionService {
	return &SessionService{
		store:  store,
		auth:   auth,
		log:    log,
		now:    time.Now,
		status: domain.SessionUnknown,
	}
}

// Subscribe registers fn to receive a snapshot after every transition.
// Callbacks run synchronously and must not call back into the service's
// mutating methods.
func (s *SessionService) Subscribe(fn func(domain.Session)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Initialize revalidates a persisted token. It runs once per process; later
// calls wait for the first one and return the current snapshot. A failed
// revalidation is not retried: the token is erased and the session becomes
// anonymous until the next explicit login.
func (s *SessionService) Initialize(ctx context.Context) domain.Session {
	s.initOnce.Do(func() { s.initialize(ctx) })
	return s.Snapshot()
}

func (s *SessionService) initialize(ctx context.Context) {
	s.writeMu.Lock()
	gen := s.generation
	if s.status != domain.SessionUnknown {
		// An explicit login/logout already settled the session.
		s.writeMu.Unlock()
		return
	}

	token, err := s.store.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("token store unreadable, starting anonymous")
		token = ""
	}
	if token == "" {
		s.setLocked(domain.SessionAnonymous, "", nil, domain.DemotionNone)
		s.writeMu.Unlock()
		s.log.Info().Msg("no persisted token, session anonymous")
		return
	}

	s.setLocked(domain.SessionValidating, token, nil, domain.DemotionNone)
	s.writeMu.Unlock()

	if tokenExpired(token, s.now()) {
		s.demote(ctx, gen, domain.DemotionExpired, nil)
		return
	}

	user, err := s.auth.Profile(ctx, token)
	if err == nil && (user == nil || (user.ID == "" && user.Email == "")) {
		err = fmt.Errorf("profile: %w", domain.ErrMalformedResponse)
	}
	if err != nil {
		s.demote(ctx, gen, demotionFor(err), err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.generation != gen {
		s.log.Debug().Msg("stale revalidation result discarded")
		return
	}
	s.setLocked(domain.SessionAuthenticated, token, user, domain.DemotionNone)
	s.log.Info().Str("user_id", user.ID).Msg("session revalidated")
}

func (s *SessionService) demote(ctx context.Context, gen uint64, reason domain.DemotionReason, cause error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.generation != gen {
		s.log.Debug().Msg("stale revalidation failure discarded")
		return
	}
	if err := s.store.Clear(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to erase persisted token")
	}
	s.setLocked(domain.SessionAnonymous, "", nil, reason)
	s.log.Info().Err(cause).Str("reason", string(reason)).Msg("token revalidation failed, session anonymous")
}

// Authenticate runs the login form flow: local validation, backend login and
// then Login with the returned token and user.
func (s *SessionService) Authenticate(ctx context.Context, email, password string) (domain.Session, error) {
	email = strings.TrimSpace(email)
	var missing []string
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return s.Snapshot(), domain.NewValidationError("please enter both email and password", missing...)
	}

	res, err := s.auth.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			err = fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, err)
		}
		s.log.Info().Err(err).Msg("login rejected")
		return s.Snapshot(), fmt.Errorf("login: %w", err)
	}
	if res == nil || res.Token == "" || res.User == nil {
		return s.Snapshot(), fmt.Errorf("login: server response missing token or user data: %w", domain.ErrMalformedResponse)
	}

	if err := s.Login(ctx, res.Token, res.User); err != nil {
		return s.Snapshot(), err
	}
	return s.Snapshot(), nil
}

// Login stores token and user and marks the session authenticated. Navigation
// after login is the caller's business.
func (s *SessionService) Login(ctx context.Context, token string, user *domain.User) error {
	if token == "" || user == nil {
		return domain.ErrInvalidCredentials
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.store.Save(ctx, token); err != nil {
		s.log.Error().Err(err).Msg("failed to persist token")
		return fmt.Errorf("persist token: %w", err)
	}
	s.bumpGeneration()
	s.setLocked(domain.SessionAuthenticated, token, user, domain.DemotionNone)
	s.log.Info().Str("user_id", user.ID).Msg("session authenticated")
	return nil
}

// Logout erases the persisted token and clears the session. The in-memory
// state is cleared even when the store fails; the store error is returned.
func (s *SessionService) Logout(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.store.Clear(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to erase persisted token")
		err = fmt.Errorf("erase token: %w", err)
	}
	s.bumpGeneration()
	s.setLocked(domain.SessionAnonymous, "", nil, domain.DemotionNone)
	s.log.Info().Msg("session logged out")
	return err
}

// UpdateProfile changes the current user's details on the backend and adopts
// the returned profile.
func (s *SessionService) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.User, error) {
	update.Name = strings.TrimSpace(update.Name)
	update.Email = strings.TrimSpace(update.Email)
	var missing []string
	if update.Name == "" {
		missing = append(missing, "name")
	}
	if update.Email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError("", missing...)
	}

	s.mu.RLock()
	status, token, gen := s.status, s.token, s.generation
	s.mu.RUnlock()
	if status != domain.SessionAuthenticated {
		return nil, domain.ErrNotAuthenticated
	}

	user, err := s.auth.UpdateProfile(ctx, token, update)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("update profile: %w", domain.ErrMalformedResponse)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.generation != gen || s.status != domain.SessionAuthenticated {
		return nil, domain.ErrNotAuthenticated
	}
	s.setLocked(domain.SessionAuthenticated, s.token, user, domain.DemotionNone)
	return cloneUser(user), nil
}

// CurrentUser returns the authenticated user, if any. It never blocks on I/O.
func (s *SessionService) CurrentUser() (*domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil, false
	}
	return cloneUser(s.user), true
}

// Snapshot copies the current state.
func (s *SessionService) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Token returns the bearer token while validating or authenticated.
func (s *SessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// bumpGeneration must be called with writeMu held.
func (s *SessionService) bumpGeneration() {
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
}

// setLocked must be called with writeMu held.
func (s *SessionService) setLocked(status domain.SessionStatus, token string, user *domain.User, reason domain.DemotionReason) {
	s.mu.Lock()
	s.status = status
	s.token = token
	s.user = cloneUser(user)
	s.demoted = reason
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.subMu.Lock()
	subs := slices.Clone(s.subscribers)
	s.subMu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

func (s *SessionService) snapshotLocked() domain.Session {
	return domain.Session{
		Status:  s.status,
		User:    cloneUser(s.user),
		Token:   s.token,
		Demoted: s.demoted,
	}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// tokenExpired reports whether token is a JWT whose exp lies in the past.
// Opaque tokens are never considered expired here.
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

func demotionFor(err error) domain.DemotionReason {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return domain.DemotionRejected
	case errors.Is(err, domain.ErrMalformedResponse):
		return domain.DemotionMalformed
	default:
		return domain.DemotionUnreachable
	}
}
