package session

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mediwrap/platform/internal/localstore"
)

func newTestService(t *testing.T) (*Service, *localstore.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := localstore.New(client)
	identities, err := NewLocalIdentityStore(store)
	if err != nil {
		t.Fatalf("identity store: %v", err)
	}
	profiles, err := NewLocalProfileStore(store)
	if err != nil {
		t.Fatalf("profile store: %v", err)
	}
	tokens := NewTokenIssuer("test-secret", time.Hour)
	return NewService(identities, profiles, tokens, nil, nil), store
}

func TestSignupDefaultsToPatientRole(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, token, err := svc.Signup(ctx, "ana@example.com", "hunter2!", "Ana Silva", "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if token == "" {
		t.Fatal("expected a signed token")
	}
	if sess.Role != RolePatient {
		t.Fatalf("expected patient role, got %s", sess.Role)
	}
	if sess.DisplayName != "Ana Silva" {
		t.Fatalf("unexpected display name %q", sess.DisplayName)
	}
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Signup(ctx, "ana@example.com", "hunter2!", "Ana", ""); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	_, _, err := svc.Signup(ctx, "ana@example.com", "other-pass", "Ana Again", "")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignupRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.Signup(context.Background(), "x@example.com", "pw", "X", "superuser")
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

type failingProfiles struct{}

func (failingProfiles) Get(ctx context.Context, identityID string) (*Profile, error) {
	return nil, ErrProfileNotFound
}

func (failingProfiles) Create(ctx context.Context, profile *Profile) error {
	return errors.New("profile store down")
}

func TestSignupRollsBackIdentityWhenProfileWriteFails(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := localstore.New(client)
	identities, err := NewLocalIdentityStore(store)
	if err != nil {
		t.Fatalf("identity store: %v", err)
	}
	broken := NewService(identities, failingProfiles{}, NewTokenIssuer("s", time.Hour), nil, nil)
	ctx := context.Background()

	if _, _, err := broken.Signup(ctx, "ana@example.com", "pw", "Ana", ""); err == nil {
		t.Fatal("expected signup to fail")
	}

	// The half-created identity must be gone so the email is free again.
	profiles, err := NewLocalProfileStore(store)
	if err != nil {
		t.Fatalf("profile store: %v", err)
	}
	healthy := NewService(identities, profiles, NewTokenIssuer("s", time.Hour), nil, nil)
	if _, _, err := healthy.Signup(ctx, "ana@example.com", "pw", "Ana", ""); err != nil {
		t.Fatalf("retry signup after rollback: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Signup(ctx, "ana@example.com", "correct-pw", "Ana", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, _, err := svc.Login(ctx, "ana@example.com", "wrong-pw")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownEmailIsIndistinguishable(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.Login(context.Background(), "nobody@example.com", "pw")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Signup(ctx, "doc@example.com", "pw123456", "Dr. Chen", "doctor"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	sess, token, err := svc.Login(ctx, "doc@example.com", "pw123456")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Role != RoleDoctor {
		t.Fatalf("expected doctor role, got %s", sess.Role)
	}

	verified, err := svc.Verify(ctx, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.IdentityID != sess.IdentityID {
		t.Fatalf("identity mismatch: %s vs %s", verified.IdentityID, sess.IdentityID)
	}
}

func TestVerifyFallsBackWhenProfileMissing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := localstore.New(client)
	identities, err := NewLocalIdentityStore(store)
	if err != nil {
		t.Fatalf("identity store: %v", err)
	}
	profiles, err := NewLocalProfileStore(store)
	if err != nil {
		t.Fatalf("profile store: %v", err)
	}
	svc := NewService(identities, profiles, NewTokenIssuer("s", time.Hour), nil, nil)

	// A token for an identity that never got a profile row.
	sess := &Session{IdentityID: "id-1", Email: "maria.souza@example.com", Role: RoleAdmin}
	token, err := svc.tokens.Issue(sess)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	verified, err := svc.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.DisplayName != "maria.souza" {
		t.Fatalf("expected email local-part as display name, got %q", verified.DisplayName)
	}
	if verified.Role != RolePatient {
		t.Fatalf("expected fallback patient role, got %s", verified.Role)
	}
}

func TestTokenTamperingRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	token, err := issuer.Issue(&Session{IdentityID: "id-1", Email: "a@b.c", Role: RolePatient})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewTokenIssuer("secret-b", time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid across secrets, got %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.Issue(&Session{IdentityID: "id-1", Email: "a@b.c", Role: RolePatient})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	verifier := NewTokenIssuer("secret", time.Hour)
	if _, err := verifier.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}
