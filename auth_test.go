package authcore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/kvels/authcore"
	"github.com/kvels/authcore/password"
	"github.com/kvels/authcore/session"
	"github.com/kvels/authcore/store/memory"
)

// testConfig trims argon2 down to the package floors so the suite stays
// fast. Production parameter choices are covered in config_test.go.
func testConfig() authcore.Config {
	cfg := authcore.DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestService(t *testing.T) (*authcore.Service, *memory.Store) {
	t.Helper()

	users := memory.New()
	svc, err := authcore.New().
		WithConfig(testConfig()).
		WithUserStore(users).
		WithSessionStore(session.NewMemoryStore()).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc, users
}

func newRedisService(t *testing.T) (*authcore.Service, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := testConfig()
	svc, err := authcore.New().
		WithConfig(cfg).
		WithUserStore(memory.New()).
		WithSessionStore(session.NewStore(rdb, cfg.Session.RedisPrefix)).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc, mr
}

func signupForm(email string) *authcore.SignupForm {
	return &authcore.SignupForm{Email: email, Password: "Sup3rSecret"}
}

func loginForm(email string) *authcore.LoginForm {
	return &authcore.LoginForm{Email: email, Password: "Sup3rSecret"}
}

func TestSignupLoginRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Signup(ctx, signupForm("a@b.c")); err != nil {
		t.Fatalf("signup: %v", err)
	}

	key, err := svc.Login(ctx, loginForm("a@b.c"))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if key == "" {
		t.Fatal("expected a session key")
	}

	if !svc.IsAuth(ctx, key) {
		t.Fatal("expected key to authenticate")
	}

	user, err := svc.CurrentUser(ctx, key)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if user.Email != "a@b.c" || user.IsAdmin || user.IsConfirmed {
		t.Fatalf("unexpected user: %+v", user)
	}

	if err := svc.Logout(ctx, key); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if svc.IsAuth(ctx, key) {
		t.Fatal("expected key dead after logout")
	}
}

func TestDuplicateSignupLeavesAccountUntouched(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Signup(ctx, signupForm("a@b.c")); err != nil {
		t.Fatalf("signup: %v", err)
	}

	err := svc.Signup(ctx, &authcore.SignupForm{Email: "a@b.c", Password: "Diff3rentPw"})
	if !errors.Is(err, authcore.ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}

	// The original credential must still work.
	if _, err := svc.Login(ctx, loginForm("a@b.c")); err != nil {
		t.Fatalf("login with original password: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Signup(ctx, signupForm("a@b.c")); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, err := svc.Login(ctx, &authcore.LoginForm{Email: "a@b.c", Password: "WrongPass1"})
	if !errors.Is(err, authcore.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, loginForm("nobody@example.com"))
	if !errors.Is(err, authcore.ErrEmailDoesNotExist) {
		t.Fatalf("expected ErrEmailDoesNotExist from Login, got %v", err)
	}

	_, err = svc.LoginFor(ctx, loginForm("nobody@example.com"), time.Minute)
	if !errors.Is(err, authcore.ErrEmailDoesNotExist) {
		t.Fatalf("expected ErrEmailDoesNotExist from LoginFor, got %v", err)
	}
}

func TestSignupValidationRejectsBeforeMutation(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	cases := []*authcore.SignupForm{
		{Email: "not-an-address", Password: "Sup3rSecret"},
		{Email: "a@b.c", Password: "short"},
		{Email: "a@b.c", Password: "alllowercase1"},
		{Email: "a@b.c", Password: "NoDigitsHere"},
	}
	for _, form := range cases {
		if err := svc.Signup(ctx, form); !errors.Is(err, authcore.ErrValidation) {
			t.Fatalf("form %+v: expected ErrValidation, got %v", form, err)
		}
	}
	if users.Len() != 0 {
		t.Fatalf("expected no accounts created, got %d", users.Len())
	}
}

func TestLoginForExpiry(t *testing.T) {
	svc, mr := newRedisService(t)
	ctx := context.Background()

	if err := svc.Signup(ctx, signupForm("a@b.c")); err != nil {
		t.Fatalf("signup: %v", err)
	}

	key, err := svc.LoginFor(ctx, loginForm("a@b.c"), time.Minute)
	if err != nil {
		t.Fatalf("login for: %v", err)
	}
	if !svc.IsAuth(ctx, key) {
		t.Fatal("expected key live before expiry")
	}

	mr.FastForward(2 * time.Minute)

	if svc.IsAuth(ctx, key) {
		t.Fatal("expected key dead after ttl elapsed")
	}
	if _, err := svc.CurrentUser(ctx, key); !errors.Is(err, authcore.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLoginForRejectsNonPositiveTTL(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.LoginFor(context.Background(), loginForm("a@b.c"), 0)
	if !errors.Is(err, authcore.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.Signup(ctx, signupForm("a@b.c")); err != nil {
		t.Fatalf("signup: %v", err)
	}
	key, err := svc.Login(ctx, loginForm("a@b.c"))
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(ctx, key); err != nil {
		t.Fatalf("first logout: %v", err)
	}
	if err := svc.Logout(ctx, key); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if err := svc.Logout(ctx, "never-issued"); err != nil {
		t.Fatalf("logout of unknown key: %v", err)
	}
}

func TestDeleteCascadesAllSessions(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	if err := svc.Signup(ctx, signupForm("a@b.c")); err != nil {
		t.Fatalf("signup: %v", err)
	}
	first, err := svc.Login(ctx, loginForm("a@b.c"))
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := svc.Login(ctx, loginForm("a@b.c"))
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if err := svc.Delete(ctx, first); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if svc.IsAuth(ctx, first) || svc.IsAuth(ctx, second) {
		t.Fatal("expected every session invalidated")
	}
	if users.Len() != 0 {
		t.Fatalf("expected account removed, got %d users", users.Len())
	}

	// The cascaded key no longer resolves, so a second delete is
	// unauthorized rather than not-found.
	if err := svc.Delete(ctx, second); !errors.Is(err, authcore.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestDeleteWithAccountAlreadyGone(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	if err := svc.Signup(ctx, signupForm("a@b.c")); err != nil {
		t.Fatalf("signup: %v", err)
	}
	key, err := svc.Login(ctx, loginForm("a@b.c"))
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Remove the account behind the service's back; the session stays live.
	user, err := svc.CurrentUser(ctx, key)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if err := users.Delete(ctx, user.ID); err != nil {
		t.Fatalf("store delete: %v", err)
	}

	if err := svc.Delete(ctx, key); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestExternalAccountFlow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.SignupExternal(ctx, "ext@b.c"); err != nil {
		t.Fatalf("signup external: %v", err)
	}
	if err := svc.SignupExternal(ctx, "ext@b.c"); !errors.Is(err, authcore.ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}

	key, err := svc.LoginExternal(ctx, "ext@b.c")
	if err != nil {
		t.Fatalf("login external: %v", err)
	}

	user, err := svc.CurrentUser(ctx, key)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if !user.IsConfirmed {
		t.Fatal("external account should be pre-confirmed")
	}

	// The generated password is never revealed, so the password path must
	// reject any guess.
	_, err = svc.Login(ctx, &authcore.LoginForm{Email: "ext@b.c", Password: "AnyGuess123"})
	if !errors.Is(err, authcore.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized on password path, got %v", err)
	}
}

func TestLoginExternalUnknownEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.LoginExternal(context.Background(), "nobody@example.com")
	if !errors.Is(err, authcore.ErrEmailDoesNotExist) {
		t.Fatalf("expected ErrEmailDoesNotExist, got %v", err)
	}
}

func TestIsAuthUnknownKey(t *testing.T) {
	svc, _ := newTestService(t)

	if svc.IsAuth(context.Background(), "garbage") {
		t.Fatal("expected unknown key to read as unauthenticated")
	}
	if svc.IsAuth(context.Background(), "") {
		t.Fatal("expected empty key to read as unauthenticated")
	}
}

func TestMetricsCountOutcomes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Signup(ctx, signupForm("a@b.c"))
	svc.Signup(ctx, signupForm("a@b.c"))
	key, _ := svc.Login(ctx, loginForm("a@b.c"))
	svc.Login(ctx, &authcore.LoginForm{Email: "a@b.c", Password: "WrongPass1"})
	svc.Logout(ctx, key)
	svc.Logout(ctx, key)

	snap := svc.MetricsSnapshot()
	expect := map[authcore.MetricID]uint64{
		authcore.MetricSignupSuccess:   1,
		authcore.MetricSignupDuplicate: 1,
		authcore.MetricLoginSuccess:    1,
		authcore.MetricLoginFailure:    1,
		authcore.MetricSessionIssued:   1,
		authcore.MetricLogout:          1,
		authcore.MetricLogoutNoop:      1,
	}
	for id, want := range expect {
		if got := snap.Counters[id]; got != want {
			t.Errorf("metric %d: expected %d, got %d", id, want, got)
		}
	}
}

func TestAuditEventsReachSink(t *testing.T) {
	sink := authcore.NewChannelSink(16)
	svc, err := authcore.New().
		WithConfig(testConfig()).
		WithUserStore(memory.New()).
		WithSessionStore(session.NewMemoryStore()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ctx := authcore.WithClientIP(context.Background(), "203.0.113.9")
	if err := svc.Signup(ctx, signupForm("a@b.c")); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := svc.Login(ctx, loginForm("a@b.c")); err != nil {
		t.Fatalf("login: %v", err)
	}

	// Close drains the dispatcher buffer into the sink.
	svc.Close()

	var types []string
	for {
		select {
		case ev := <-sink.Events():
			if ev.EventID == "" {
				t.Fatal("expected event id")
			}
			if ev.IP != "203.0.113.9" {
				t.Fatalf("expected client ip on event, got %q", ev.IP)
			}
			types = append(types, ev.EventType)
			continue
		default:
		}
		break
	}

	if len(types) != 2 || types[0] != "signup_success" || types[1] != "login_success" {
		t.Fatalf("unexpected event sequence: %v", types)
	}
}

func TestLoginUpgradesStaleHash(t *testing.T) {
	users := memory.New()
	cfg := testConfig()
	cfg.Password.Time = 2

	svc, err := authcore.New().
		WithConfig(cfg).
		WithUserStore(users).
		WithSessionStore(session.NewMemoryStore()).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer svc.Close()

	// Seed an account hashed with weaker parameters than configured.
	weak, err := password.New(password.Config{
		Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16,
	})
	if err != nil {
		t.Fatalf("weak hasher: %v", err)
	}
	oldHash, err := weak.Hash("Sup3rSecret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	seeded, err := users.Create(context.Background(), "a@b.c", oldHash, false, false)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.Login(context.Background(), loginForm("a@b.c")); err != nil {
		t.Fatalf("login: %v", err)
	}

	stored, err := users.GetByID(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.PasswordHash == oldHash {
		t.Fatal("expected credential rehashed with current parameters")
	}

	// The upgraded hash still verifies on the next login.
	if _, err := svc.Login(context.Background(), loginForm("a@b.c")); err != nil {
		t.Fatalf("login after upgrade: %v", err)
	}
}

func TestBuilderRequiresStores(t *testing.T) {
	if _, err := authcore.New().Build(); err == nil {
		t.Fatal("expected error without stores")
	}
	if _, err := authcore.New().WithUserStore(memory.New()).Build(); err == nil {
		t.Fatal("expected error without session store")
	}
}

func TestBuilderCannotBeReused(t *testing.T) {
	b := authcore.New().
		WithUserStore(memory.New()).
		WithSessionStore(session.NewMemoryStore())

	svc, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer svc.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second build to fail")
	}
}

func TestNilServiceIsInert(t *testing.T) {
	var svc *authcore.Service

	if err := svc.Signup(context.Background(), signupForm("a@b.c")); !errors.Is(err, authcore.ErrServiceNotReady) {
		t.Fatalf("expected ErrServiceNotReady, got %v", err)
	}
	if svc.IsAuth(context.Background(), "k") {
		t.Fatal("nil service must not authenticate")
	}
	svc.Close()
}
