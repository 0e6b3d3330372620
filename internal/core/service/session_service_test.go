package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/agridynamic/admin-console/internal/core/domain"
	"github.com/agridynamic/admin-console/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubTokenStore struct {
	mu       sync.Mutex
	token    string
	loadErr  error
	saveErr  error
	clearErr error
	clears   int
}

func (s *stubTokenStore) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.loadErr
}

func (s *stubTokenStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.token = token
	return nil
}

func (s *stubTokenStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.token = ""
	return nil
}

func (s *stubTokenStore) stored() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

type stubAuthGateway struct {
	loginFn   func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	profileFn func(ctx context.Context, token string) (*domain.User, error)
	updateFn  func(ctx context.Context, token string, u domain.ProfileUpdate) (*domain.User, error)

	mu           sync.Mutex
	loginCalls   int
	profileCalls int
}

func (g *stubAuthGateway) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	g.mu.Lock()
	g.loginCalls++
	g.mu.Unlock()
	return g.loginFn(ctx, email, password)
}

func (g *stubAuthGateway) Profile(ctx context.Context, token string) (*domain.User, error) {
	g.mu.Lock()
	g.profileCalls++
	g.mu.Unlock()
	return g.profileFn(ctx, token)
}

func (g *stubAuthGateway) UpdateProfile(ctx context.Context, token string, u domain.ProfileUpdate) (*domain.User, error) {
	return g.updateFn(ctx, token, u)
}

func adminUser() *domain.User {
	return &domain.User{ID: "u1", Name: "Ada", Email: "ada@example.org", IsAdmin: true}
}

func newSession(store *stubTokenStore, auth *stubAuthGateway) *SessionService {
	return NewSessionService(store, auth, zerolog.Nop())
}

func assertSessionInvariant(t *testing.T, s domain.Session) {
	t.Helper()
	if (s.User != nil) != (s.Status == domain.SessionAuthenticated) {
		t.Fatalf("user presence must match authenticated status: %+v", s)
	}
	hasToken := s.Token != ""
	wantToken := s.Status == domain.SessionValidating || s.Status == domain.SessionAuthenticated
	if hasToken != wantToken {
		t.Fatalf("token presence must match validating/authenticated status: %+v", s)
	}
}

// ---------------------------------------------------------------------------
// Initialize
// ---------------------------------------------------------------------------

func TestSession_StartsUnknown(t *testing.T) {
	svc := newSession(&stubTokenStore{}, &stubAuthGateway{})
	if got := svc.Snapshot().Status; got != domain.SessionUnknown {
		t.Fatalf("expected unknown, got %s", got)
	}
	if !svc.Snapshot().Status.Loading() {
		t.Fatalf("unknown must count as loading")
	}
}

func TestSession_Initialize_NoToken(t *testing.T) {
	auth := &stubAuthGateway{profileFn: func(context.Context, string) (*domain.User, error) {
		t.Fatalf("profile must not be fetched without a token")
		return nil, nil
	}}
	svc := newSession(&stubTokenStore{}, auth)

	snap := svc.Initialize(context.Background())
	if snap.Status != domain.SessionAnonymous {
		t.Fatalf("expected anonymous, got %s", snap.Status)
	}
	assertSessionInvariant(t, snap)
}

func TestSession_Initialize_ValidToken(t *testing.T) {
	store := &stubTokenStore{token: "opaque-token"}
	auth := &stubAuthGateway{profileFn: func(_ context.Context, token string) (*domain.User, error) {
		if token != "opaque-token" {
			t.Fatalf("profile fetched with wrong token %q", token)
		}
		return adminUser(), nil
	}}
	svc := newSession(store, auth)

	snap := svc.Initialize(context.Background())
	if snap.Status != domain.SessionAuthenticated {
		t.Fatalf("expected authenticated, got %s", snap.Status)
	}
	if snap.User == nil || snap.User.ID != "u1" {
		t.Fatalf("unexpected user %+v", snap.User)
	}
	if svc.Token() != "opaque-token" {
		t.Fatalf("token not retained")
	}
	assertSessionInvariant(t, snap)
}

// A persisted token rejected with 401 demotes to anonymous and is erased.
func TestSession_Initialize_RejectedTokenIsErased(t *testing.T) {
	store := &stubTokenStore{token: "stale"}
	auth := &stubAuthGateway{profileFn: func(context.Context, string) (*domain.User, error) {
		return nil, &domain.APIError{Status: http.StatusUnauthorized, Message: "Token is not valid"}
	}}
	svc := newSession(store, auth)

	snap := svc.Initialize(context.Background())
	if snap.Status != domain.SessionAnonymous {
		t.Fatalf("expected anonymous, got %s", snap.Status)
	}
	if store.stored() != "" {
		t.Fatalf("persisted token must be removed")
	}
	if snap.Demoted != domain.DemotionRejected {
		t.Fatalf("expected rejected demotion, got %q", snap.Demoted)
	}
	assertSessionInvariant(t, snap)
}

func TestSession_Initialize_NetworkFailureDemotes(t *testing.T) {
	store := &stubTokenStore{token: "tok"}
	auth := &stubAuthGateway{profileFn: func(context.Context, string) (*domain.User, error) {
		return nil, domain.ErrNetwork
	}}
	svc := newSession(store, auth)

	snap := svc.Initialize(context.Background())
	if snap.Status != domain.SessionAnonymous || snap.Demoted != domain.DemotionUnreachable {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if store.stored() != "" {
		t.Fatalf("token must be erased on any revalidation failure")
	}
}

func TestSession_Initialize_MalformedProfile(t *testing.T) {
	store := &stubTokenStore{token: "tok"}
	auth := &stubAuthGateway{profileFn: func(context.Context, string) (*domain.User, error) {
		return &domain.User{}, nil
	}}
	svc := newSession(store, auth)

	snap := svc.Initialize(context.Background())
	if snap.Status != domain.SessionAnonymous || snap.Demoted != domain.DemotionMalformed {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestSession_Initialize_ExpiredJWTSkipsNetwork(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "u1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	store := &stubTokenStore{token: expired}
	auth := &stubAuthGateway{profileFn: func(context.Context, string) (*domain.User, error) {
		t.Fatalf("expired token must not be sent to the backend")
		return nil, nil
	}}
	svc := newSession(store, auth)

	snap := svc.Initialize(context.Background())
	if snap.Status != domain.SessionAnonymous || snap.Demoted != domain.DemotionExpired {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if store.stored() != "" {
		t.Fatalf("expired token must be erased")
	}
}

func TestSession_Initialize_UnexpiredJWTIsValidated(t *testing.T) {
	live, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	auth := &stubAuthGateway{profileFn: func(context.Context, string) (*domain.User, error) {
		return adminUser(), nil
	}}
	svc := newSession(&stubTokenStore{token: live}, auth)

	if snap := svc.Initialize(context.Background()); snap.Status != domain.SessionAuthenticated {
		t.Fatalf("expected authenticated, got %s", snap.Status)
	}
	if auth.profileCalls != 1 {
		t.Fatalf("expected one profile call, got %d", auth.profileCalls)
	}
}

func TestSession_Initialize_RunsOnce(t *testing.T) {
	store := &stubTokenStore{token: "tok"}
	auth := &stubAuthGateway{profileFn: func(context.Context, string) (*domain.User, error) {
		return nil, domain.ErrNetwork
	}}
	svc := newSession(store, auth)

	svc.Initialize(context.Background())
	store.token = "tok-again"
	svc.Initialize(context.Background())

	if auth.profileCalls != 1 {
		t.Fatalf("revalidation must not be retried, got %d profile calls", auth.profileCalls)
	}
	if svc.Snapshot().Status != domain.SessionAnonymous {
		t.Fatalf("failed revalidation must stay anonymous")
	}
}

func TestSession_Initialize_StoreErrorStartsAnonymous(t *testing.T) {
	svc := newSession(&stubTokenStore{loadErr: errors.New("disk gone")}, &stubAuthGateway{})
	if snap := svc.Initialize(context.Background()); snap.Status != domain.SessionAnonymous {
		t.Fatalf("expected anonymous, got %s", snap.Status)
	}
}

func TestSession_LateRevalidationFailureIsDiscarded(t *testing.T) {
	store := &stubTokenStore{token: "old"}
	release := make(chan struct{})
	entered := make(chan struct{})
	auth := &stubAuthGateway{profileFn: func(context.Context, string) (*domain.User, error) {
		close(entered)
		<-release
		return nil, &domain.APIError{Status: http.StatusUnauthorized}
	}}
	svc := newSession(store, auth)

	done := make(chan domain.Session)
	go func() { done <- svc.Initialize(context.Background()) }()

	<-entered
	if got := svc.Snapshot().Status; got != domain.SessionValidating {
		t.Fatalf("expected validating during profile fetch, got %s", got)
	}
	if err := svc.Login(context.Background(), "fresh", adminUser()); err != nil {
		t.Fatalf("login: %v", err)
	}
	close(release)
	snap := <-done

	if snap.Status != domain.SessionAuthenticated {
		t.Fatalf("late failure must not demote a fresh login, got %s", snap.Status)
	}
	if store.stored() != "fresh" {
		t.Fatalf("fresh token must survive, got %q", store.stored())
	}
}

// ---------------------------------------------------------------------------
// Login / Logout / Authenticate
// ---------------------------------------------------------------------------

func TestSession_Login_EmptyTokenRejected(t *testing.T) {
	store := &stubTokenStore{}
	svc := newSession(store, &stubAuthGateway{})
	svc.Initialize(context.Background())

	if err := svc.Login(context.Background(), "", adminUser()); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if svc.Snapshot().Status != domain.SessionAnonymous {
		t.Fatalf("status must be unchanged")
	}
	if store.stored() != "" {
		t.Fatalf("nothing may be persisted")
	}
}

func TestSession_Login_PersistsToken(t *testing.T) {
	store := &stubTokenStore{}
	svc := newSession(store, &stubAuthGateway{})

	if err := svc.Login(context.Background(), "tok", adminUser()); err != nil {
		t.Fatalf("login: %v", err)
	}
	if store.stored() != "tok" {
		t.Fatalf("token not persisted")
	}
	user, ok := svc.CurrentUser()
	if !ok || user.Email != "ada@example.org" {
		t.Fatalf("unexpected current user %+v", user)
	}
}

func TestSession_Login_StoreFailureLeavesStateUnchanged(t *testing.T) {
	svc := newSession(&stubTokenStore{saveErr: errors.New("read-only fs")}, &stubAuthGateway{})
	svc.Initialize(context.Background())

	if err := svc.Login(context.Background(), "tok", adminUser()); err == nil {
		t.Fatalf("expected error")
	}
	if svc.Snapshot().Status != domain.SessionAnonymous {
		t.Fatalf("status must be unchanged")
	}
}

func TestSession_Logout(t *testing.T) {
	store := &stubTokenStore{}
	svc := newSession(store, &stubAuthGateway{})
	_ = svc.Login(context.Background(), "tok", adminUser())

	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	snap := svc.Snapshot()
	if snap.Status != domain.SessionAnonymous || snap.User != nil || snap.Token != "" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if store.stored() != "" {
		t.Fatalf("persisted token must be erased")
	}
}

func TestSession_Logout_StoreFailureStillClearsState(t *testing.T) {
	store := &stubTokenStore{}
	svc := newSession(store, &stubAuthGateway{})
	_ = svc.Login(context.Background(), "tok", adminUser())
	store.clearErr = errors.New("boom")

	if err := svc.Logout(context.Background()); err == nil {
		t.Fatalf("expected store error")
	}
	if svc.Snapshot().Status != domain.SessionAnonymous {
		t.Fatalf("state must be cleared regardless")
	}
}

// An empty password fails locally with no network call.
func TestSession_Authenticate_EmptyPassword(t *testing.T) {
	auth := &stubAuthGateway{loginFn: func(context.Context, string, string) (*ports.LoginResult, error) {
		t.Fatalf("login must not reach the backend")
		return nil, nil
	}}
	svc := newSession(&stubTokenStore{}, auth)
	svc.Initialize(context.Background())

	snap, err := svc.Authenticate(context.Background(), "ada@example.org", "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || len(ve.Fields) != 1 || ve.Fields[0] != "password" {
		t.Fatalf("expected password to be named, got %+v", ve)
	}
	if snap.Status != domain.SessionAnonymous {
		t.Fatalf("status must be unchanged, got %s", snap.Status)
	}
	if auth.loginCalls != 0 {
		t.Fatalf("unexpected login calls")
	}
}

func TestSession_Authenticate_Success(t *testing.T) {
	store := &stubTokenStore{}
	auth := &stubAuthGateway{loginFn: func(_ context.Context, email, password string) (*ports.LoginResult, error) {
		if email != "ada@example.org" || password != "pw" {
			t.Fatalf("unexpected credentials %s/%s", email, password)
		}
		return &ports.LoginResult{Token: "tok", User: adminUser()}, nil
	}}
	svc := newSession(store, auth)

	snap, err := svc.Authenticate(context.Background(), " ada@example.org ", "pw")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if snap.Status != domain.SessionAuthenticated || store.stored() != "tok" {
		t.Fatalf("unexpected result %+v / %q", snap, store.stored())
	}
}

func TestSession_Authenticate_RejectedKeepsServerMessage(t *testing.T) {
	auth := &stubAuthGateway{loginFn: func(context.Context, string, string) (*ports.LoginResult, error) {
		return nil, &domain.APIError{Status: http.StatusUnauthorized, Message: "Invalid email or password"}
	}}
	svc := newSession(&stubTokenStore{}, auth)

	_, err := svc.Authenticate(context.Background(), "a@b.c", "nope")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if msg := domain.UserMessage(err, "Login failed. Please try again."); msg != "Invalid email or password" {
		t.Fatalf("server message must surface verbatim, got %q", msg)
	}
}

func TestSession_Authenticate_MissingTokenInResponse(t *testing.T) {
	auth := &stubAuthGateway{loginFn: func(context.Context, string, string) (*ports.LoginResult, error) {
		return &ports.LoginResult{User: adminUser()}, nil
	}}
	svc := newSession(&stubTokenStore{}, auth)

	_, err := svc.Authenticate(context.Background(), "a@b.c", "pw")
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if svc.Snapshot().Authenticated() {
		t.Fatalf("session must not authenticate")
	}
}

// User presence and status stay in lockstep across any call sequence.
func TestSession_InvariantAcrossSequences(t *testing.T) {
	store := &stubTokenStore{token: "persisted"}
	auth := &stubAuthGateway{
		profileFn: func(context.Context, string) (*domain.User, error) { return adminUser(), nil },
		loginFn: func(context.Context, string, string) (*ports.LoginResult, error) {
			return &ports.LoginResult{Token: "new", User: adminUser()}, nil
		},
	}
	svc := newSession(store, auth)
	ctx := context.Background()

	steps := []func(){
		func() { svc.Initialize(ctx) },
		func() { _ = svc.Logout(ctx) },
		func() { _ = svc.Login(ctx, "", nil) },
		func() { _, _ = svc.Authenticate(ctx, "a@b.c", "pw") },
		func() { _ = svc.Login(ctx, "t2", adminUser()) },
		func() { svc.Initialize(ctx) },
		func() { _ = svc.Logout(ctx) },
		func() { _ = svc.Logout(ctx) },
	}
	assertSessionInvariant(t, svc.Snapshot())
	for _, step := range steps {
		step()
		assertSessionInvariant(t, svc.Snapshot())
	}
}

func TestSession_SubscribersSeeTransitions(t *testing.T) {
	auth := &stubAuthGateway{profileFn: func(context.Context, string) (*domain.User, error) { return adminUser(), nil }}
	svc := newSession(&stubTokenStore{token: "tok"}, auth)

	var seen []domain.SessionStatus
	svc.Subscribe(func(s domain.Session) { seen = append(seen, s.Status) })

	svc.Initialize(context.Background())
	_ = svc.Logout(context.Background())

	want := []domain.SessionStatus{domain.SessionValidating, domain.SessionAuthenticated, domain.SessionAnonymous}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}
}

func TestSession_UpdateProfile(t *testing.T) {
	auth := &stubAuthGateway{updateFn: func(_ context.Context, token string, u domain.ProfileUpdate) (*domain.User, error) {
		if token != "tok" {
			t.Fatalf("profile update sent with token %q", token)
		}
		return &domain.User{ID: "u1", Name: u.Name, Email: u.Email}, nil
	}}
	svc := newSession(&stubTokenStore{}, auth)

	if _, err := svc.UpdateProfile(context.Background(), domain.ProfileUpdate{Name: "A", Email: "a@b.c"}); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	_ = svc.Login(context.Background(), "tok", adminUser())
	if _, err := svc.UpdateProfile(context.Background(), domain.ProfileUpdate{Name: "", Email: "a@b.c"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	user, err := svc.UpdateProfile(context.Background(), domain.ProfileUpdate{Name: "Ada L.", Email: "ada@example.org"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if user.Name != "Ada L." {
		t.Fatalf("unexpected user %+v", user)
	}
	if current, _ := svc.CurrentUser(); current.Name != "Ada L." {
		t.Fatalf("current user not replaced: %+v", current)
	}
}
