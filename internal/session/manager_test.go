package session

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mediwrap/platform/internal/events"
	"github.com/mediwrap/platform/internal/localstore"
)

func newTestManager(t *testing.T) (*Manager, *Service, *redis.Client) {
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
	bus := events.NewBus(client, nil)
	svc := NewService(identities, profiles, NewTokenIssuer("test-secret", time.Hour), bus, nil)
	mgr := NewManager(svc, NewRedisTokenCache(client, ""), bus, nil)
	return mgr, svc, client
}

func TestRestoreWithoutTokenLandsAnonymous(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	if _, state := mgr.Current(); state != StateUnknown {
		t.Fatalf("expected unknown before restore, got %s", state)
	}
	if state := mgr.Restore(context.Background()); state != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", state)
	}
}

func TestRestoreRecoversSessionFromCachedToken(t *testing.T) {
	mgr, svc, client := newTestManager(t)
	ctx := context.Background()

	if _, _, err := svc.Signup(ctx, "ana@example.com", "pw123456", "Ana", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, token, err := svc.Login(ctx, "ana@example.com", "pw123456")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := NewRedisTokenCache(client, "").SaveToken(ctx, token); err != nil {
		t.Fatalf("save token: %v", err)
	}

	if state := mgr.Restore(ctx); state != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", state)
	}
	sess, _ := mgr.Current()
	if sess == nil || sess.Email != "ana@example.com" {
		t.Fatalf("unexpected restored session: %+v", sess)
	}
}

func TestRestoreIsIdempotent(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	first := mgr.Restore(ctx)
	second := mgr.Restore(ctx)
	if first != second {
		t.Fatalf("restore not idempotent: %s then %s", first, second)
	}
}

func TestRestoreClearsRejectedToken(t *testing.T) {
	mgr, _, client := newTestManager(t)
	ctx := context.Background()

	cache := NewRedisTokenCache(client, "")
	if err := cache.SaveToken(ctx, "not-a-jwt"); err != nil {
		t.Fatalf("save token: %v", err)
	}

	if state := mgr.Restore(ctx); state != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", state)
	}
	token, err := cache.LoadToken(ctx)
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	if token != "" {
		t.Fatal("expected rejected token to be cleared")
	}
}

func TestSignOutClearsLocalStateUnconditionally(t *testing.T) {
	mgr, _, client := newTestManager(t)
	ctx := context.Background()

	if _, err := mgr.SignUp(ctx, "ana@example.com", "pw123456", "Ana", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, state := mgr.Current(); state != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", state)
	}

	mgr.SignOut(ctx)

	sess, state := mgr.Current()
	if state != StateAnonymous || sess != nil {
		t.Fatalf("expected anonymous with no session, got %s %+v", state, sess)
	}
	token, _ := NewRedisTokenCache(client, "").LoadToken(ctx)
	if token != "" {
		t.Fatal("expected cached token to be cleared")
	}
}

func TestRemoteSignOutDropsHeldSession(t *testing.T) {
	mgr, svc, _ := newTestManager(t)
	ctx := context.Background()

	sess, err := mgr.SignUp(ctx, "ana@example.com", "pw123456", "Ana", "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	// Give the feed subscription time to attach before publishing.
	time.Sleep(50 * time.Millisecond)

	// Another client signs this identity out; the event arrives over the
	// change feed rather than through this manager.
	svc.Logout(ctx, sess.IdentityID)

	deadline := time.After(2 * time.Second)
	for {
		if _, state := mgr.Current(); state == StateAnonymous {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for remote sign-out to take effect")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
