package session

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/mediwrap/platform/internal/events"
	"github.com/mediwrap/platform/pkg/logging"
)

// State is the manager's view of the current principal.
type State string

const (
	// StateUnknown means Restore has not run yet.
	StateUnknown State = "unknown"
	// StateRestoring means a restore attempt is in flight.
	StateRestoring State = "restoring"
	// StateAuthenticated means a verified session is held.
	StateAuthenticated State = "authenticated"
	// StateAnonymous means restore completed without a valid session.
	StateAnonymous State = "anonymous"
)

// TokenCache persists the session token between process runs.
type TokenCache interface {
	SaveToken(ctx context.Context, token string) error
	LoadToken(ctx context.Context) (string, error)
	ClearToken(ctx context.Context) error
}

// RedisTokenCache keeps the token in a single Redis key.
type RedisTokenCache struct {
	redis *redis.Client
	key   string
}

// NewRedisTokenCache creates a token cache under the given key. An empty
// key falls back to the default.
func NewRedisTokenCache(client *redis.Client, key string) *RedisTokenCache {
	if key == "" {
		key = "mediwrap:session:token"
	}
	return &RedisTokenCache{redis: client, key: key}
}

func (c *RedisTokenCache) SaveToken(ctx context.Context, token string) error {
	return c.redis.Set(ctx, c.key, token, 0).Err()
}

func (c *RedisTokenCache) LoadToken(ctx context.Context) (string, error) {
	token, err := c.redis.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return token, err
}

func (c *RedisTokenCache) ClearToken(ctx context.Context) error {
	return c.redis.Del(ctx, c.key).Err()
}

// Feed is the change-feed surface the manager watches for authoritative
// session events. *events.Bus satisfies it.
type Feed interface {
	Subscribe(ctx context.Context, collection string, filter map[string]string) *events.Subscription
}

// Manager owns the current session for a client process. It restores from
// the token cache on startup, exposes the session to callers, and follows
// the sessions change feed so a remote sign-out takes effect here too.
// Later writers win: whatever happened last, locally or on the feed, is
// the state callers see.
type Manager struct {
	svc    *Service
	cache  TokenCache
	feed   Feed
	logger *logging.Logger

	mu      sync.RWMutex
	state   State
	current *Session
	sub     *events.Subscription
}

// NewManager creates a session manager in the unknown state. cache and
// feed may be nil; restore then starts anonymous and no feed is watched.
func NewManager(svc *Service, cache TokenCache, feed Feed, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{svc: svc, cache: cache, feed: feed, logger: logger, state: StateUnknown}
}

// Current returns the held session (nil when not authenticated) and state.
func (m *Manager) Current() (*Session, State) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.state
}

// Restore resolves the unknown state exactly once: it loads the cached
// token, verifies it, and lands in authenticated or anonymous. Calling it
// again after it has settled is a no-op returning the settled state.
func (m *Manager) Restore(ctx context.Context) State {
	m.mu.Lock()
	if m.state != StateUnknown {
		state := m.state
		m.mu.Unlock()
		return state
	}
	m.state = StateRestoring
	m.mu.Unlock()

	sess := m.restore(ctx)

	m.mu.Lock()
	if sess != nil {
		m.state = StateAuthenticated
		m.current = sess
	} else {
		m.state = StateAnonymous
		m.current = nil
	}
	state := m.state
	m.mu.Unlock()

	if sess != nil {
		m.watch(ctx, sess.IdentityID)
	}
	return state
}

func (m *Manager) restore(ctx context.Context) *Session {
	if m.cache == nil {
		return nil
	}
	token, err := m.cache.LoadToken(ctx)
	if err != nil {
		m.logger.Error("session restore: token cache unavailable", "error", err)
		return nil
	}
	if token == "" {
		return nil
	}
	sess, err := m.svc.Verify(ctx, token)
	if err != nil {
		m.logger.Info("session restore: cached token rejected", "error", err)
		if clearErr := m.cache.ClearToken(ctx); clearErr != nil {
			m.logger.Error("session restore: clear token failed", "error", clearErr)
		}
		return nil
	}
	return sess
}

// SignIn authenticates and adopts the resulting session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	sess, token, err := m.svc.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.adopt(ctx, sess, token)
	return sess, nil
}

// SignUp registers a new account and adopts the resulting session.
func (m *Manager) SignUp(ctx context.Context, email, password, name, role string) (*Session, error) {
	sess, token, err := m.svc.Signup(ctx, email, password, name, role)
	if err != nil {
		return nil, err
	}
	m.adopt(ctx, sess, token)
	return sess, nil
}

// SignOut clears local state unconditionally. Remote failures are logged,
// never surfaced: a user asking to sign out is signed out.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	identityID := ""
	if m.current != nil {
		identityID = m.current.IdentityID
	}
	m.current = nil
	m.state = StateAnonymous
	sub := m.sub
	m.sub = nil
	m.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	if m.cache != nil {
		if err := m.cache.ClearToken(ctx); err != nil {
			m.logger.Error("sign out: clear token failed", "error", err)
		}
	}
	if identityID != "" {
		m.svc.Logout(ctx, identityID)
	}
}

func (m *Manager) adopt(ctx context.Context, sess *Session, token string) {
	m.mu.Lock()
	m.state = StateAuthenticated
	m.current = sess
	sub := m.sub
	m.sub = nil
	m.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	if m.cache != nil {
		if err := m.cache.SaveToken(ctx, token); err != nil {
			m.logger.Error("session: persist token failed", "error", err)
		}
	}
	m.watch(ctx, sess.IdentityID)
}

// watch follows session events for the identity. A remote sign-out or
// revocation for the held identity drops the session here too.
func (m *Manager) watch(ctx context.Context, identityID string) {
	if m.feed == nil {
		return
	}
	sub := m.feed.Subscribe(ctx, events.CollectionSessions, map[string]string{"identity_id": identityID})

	m.mu.Lock()
	if m.sub != nil {
		m.sub.Close()
	}
	m.sub = sub
	m.mu.Unlock()

	go func() {
		for evt := range sub.C {
			action := evt.Keys["action"]
			if action != events.SessionSignedOut && action != events.SessionRevoked {
				continue
			}
			m.mu.Lock()
			if m.current == nil || m.current.IdentityID != identityID {
				m.mu.Unlock()
				continue
			}
			m.current = nil
			m.state = StateAnonymous
			m.mu.Unlock()

			m.logger.Info("session dropped by remote event", "identity_id", identityID, "action", action)
			if m.cache != nil {
				if err := m.cache.ClearToken(context.Background()); err != nil {
					m.logger.Error("session: clear token failed", "error", err)
				}
			}
		}
	}()
}
