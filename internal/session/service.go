package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mediwrap/platform/internal/events"
	"github.com/mediwrap/platform/internal/notify"
	"github.com/mediwrap/platform/pkg/logging"
)

// Mailer enqueues asynchronous email jobs.
type Mailer interface {
	EnqueueEmail(ctx context.Context, msg notify.EmailMessage) error
}

// Service implements authentication: login, signup, logout, and token
// verification. Stores and the event publisher are required; notifier and
// mailer are optional.
type Service struct {
	identities IdentityStore
	profiles   ProfileStore
	tokens     *TokenIssuer
	events     events.Publisher
	notifier   notify.Notifier
	mailer     Mailer
	logger     *logging.Logger
}

// NewService creates a session service.
func NewService(identities IdentityStore, profiles ProfileStore, tokens *TokenIssuer, publisher events.Publisher, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		identities: identities,
		profiles:   profiles,
		tokens:     tokens,
		events:     publisher,
		logger:     logger,
	}
}

// WithNotifier attaches a notification publisher.
func (s *Service) WithNotifier(n notify.Notifier) *Service {
	s.notifier = n
	return s
}

// WithMailer attaches an email job queue.
func (s *Service) WithMailer(m Mailer) *Service {
	s.mailer = m
	return s
}

// Login authenticates an email/password pair and returns the session plus
// a signed token. Unknown emails and wrong passwords both yield
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, string, error) {
	identity, err := s.identities.GetByEmail(ctx, email)
	if errors.Is(err, ErrIdentityNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("lookup identity: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	sess, err := s.sessionFor(ctx, identity)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(sess)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.publishSessionChange(ctx, sess.IdentityID, events.SessionSignedIn)
	s.logger.Info("session started", "identity_id", sess.IdentityID, "role", string(sess.Role))
	return sess, token, nil
}

// Signup registers a new account: identity first, then profile. If the
// profile write fails the identity is deleted again so a retry with the
// same email is possible.
func (s *Service) Signup(ctx context.Context, email, password, name, roleRaw string) (*Session, string, error) {
	role := RolePatient
	if roleRaw != "" {
		parsed, err := ParseRole(roleRaw)
		if err != nil {
			return nil, "", err
		}
		role = parsed
	}

	if _, err := s.identities.GetByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, ErrIdentityNotFound) {
		return nil, "", fmt.Errorf("lookup identity: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	identity := &Identity{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		return nil, "", fmt.Errorf("create identity: %w", err)
	}

	profile := &Profile{
		IdentityID: identity.ID,
		Email:      email,
		Name:       name,
		Role:       role,
		CreatedAt:  identity.CreatedAt,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if delErr := s.identities.Delete(ctx, identity.ID); delErr != nil {
			s.logger.Error("signup: identity rollback failed", "identity_id", identity.ID, "error", delErr)
		}
		return nil, "", fmt.Errorf("create profile: %w", err)
	}

	sess := &Session{
		IdentityID:  identity.ID,
		Email:       email,
		DisplayName: profile.Name,
		Role:        role,
	}
	token, err := s.tokens.Issue(sess)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.publishSessionChange(ctx, sess.IdentityID, events.SessionSignedIn)
	s.logger.Info("account created", "identity_id", identity.ID, "role", string(role))

	if s.notifier != nil {
		s.notifier.Publish(ctx, identity.ID, notify.Info("Welcome to MediWrap", "Your account is ready"))
	}
	if s.mailer != nil {
		if err := s.mailer.EnqueueEmail(ctx, notify.WelcomeEmail(email, profile.Name)); err != nil {
			s.logger.Error("signup: welcome email enqueue failed", "identity_id", identity.ID, "error", err)
		}
	}
	return sess, token, nil
}

// Logout publishes the sign-out event. Token invalidation is the caller's
// side: clients drop the token, the manager clears its cached session.
func (s *Service) Logout(ctx context.Context, identityID string) {
	s.publishSessionChange(ctx, identityID, events.SessionSignedOut)
	s.logger.Info("session ended", "identity_id", identityID)
}

// Verify validates a token and refreshes the session from the profile
// store. A missing profile falls back to a minimal patient session derived
// from the identity, so a valid token keeps working even when the profile
// record is gone.
func (s *Service) Verify(ctx context.Context, tokenString string) (*Session, error) {
	sess, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.Get(ctx, sess.IdentityID)
	if errors.Is(err, ErrProfileNotFound) {
		fallback := fallbackProfile(&Identity{ID: sess.IdentityID, Email: sess.Email})
		sess.DisplayName = fallback.Name
		sess.Role = fallback.Role
		return sess, nil
	}
	if err != nil {
		// The token itself is good; keep its claims rather than failing
		// the request on a store hiccup.
		s.logger.Error("verify: profile fetch failed", "identity_id", sess.IdentityID, "error", err)
		return sess, nil
	}
	sess.DisplayName = profile.Name
	sess.Role = profile.Role
	return sess, nil
}

func (s *Service) sessionFor(ctx context.Context, identity *Identity) (*Session, error) {
	profile, err := s.profiles.Get(ctx, identity.ID)
	if errors.Is(err, ErrProfileNotFound) {
		profile = fallbackProfile(identity)
	} else if err != nil {
		return nil, fmt.Errorf("lookup profile: %w", err)
	}
	return &Session{
		IdentityID:  identity.ID,
		Email:       identity.Email,
		DisplayName: profile.Name,
		Role:        profile.Role,
	}, nil
}

func (s *Service) publishSessionChange(ctx context.Context, identityID, action string) {
	if s.events == nil {
		return
	}
	event := events.ChangeEvent{
		EventID:    uuid.NewString(),
		Collection: events.CollectionSessions,
		Keys: map[string]string{
			"identity_id": identityID,
			"action":      action,
		},
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.PublishChange(ctx, event); err != nil {
		s.logger.Error("session: publish change event failed", "identity_id", identityID, "error", err)
	}
}
