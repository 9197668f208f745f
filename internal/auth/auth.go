// Package auth manages the single local account that gates the board.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/validate"
)

// passwordKey is the keyring entry holding the password hash.
const passwordKey = "account-password"

// Sessions persists the account record and the session marker.
type Sessions interface {
	LoadUser(ctx context.Context) (model.User, bool, error)
	SaveUser(ctx context.Context, u model.User) error
	ClearUser(ctx context.Context) error
	SetAuthenticated(ctx context.Context, authenticated bool) error
	IsAuthenticated(ctx context.Context) (bool, error)
}

// Secrets stores the password hash.
type Secrets interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Service registers, logs in and logs out the local user.
type Service struct {
	sessions Sessions
	secrets  Secrets
	cost     int
	now      func() time.Time
	log      *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates an auth service.
func NewService(sessions Sessions, secrets Secrets, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		secrets:  secrets,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates the account, replacing any previous one, and starts a
// session.
func (s *Service) Register(ctx context.Context, in model.SignupInput) (model.User, error) {
	if err := validate.Signup(in); err != nil {
		return model.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return model.User{}, model.WrapStorage("register", err)
	}
	if err := s.secrets.Set(passwordKey, string(hash)); err != nil {
		return model.User{}, model.WrapStorage("register", err)
	}

	u := model.User{
		Name:      strings.TrimSpace(in.Name),
		Email:     normalizeEmail(in.Email),
		CreatedAt: s.now().UTC(),
	}
	if err := s.sessions.SaveUser(ctx, u); err != nil {
		return model.User{}, err
	}
	if err := s.sessions.SetAuthenticated(ctx, true); err != nil {
		return model.User{}, err
	}

	s.log.Info("account registered", zap.String("email", u.Email))
	return u, nil
}

// Login starts a session when the email and password match the account.
// A mismatch is a validation error on the password field.
func (s *Service) Login(ctx context.Context, in model.LoginInput) (model.User, error) {
	if err := validate.Login(in); err != nil {
		return model.User{}, err
	}

	u, ok, err := s.sessions.LoadUser(ctx)
	if err != nil {
		return model.User{}, err
	}
	if !ok || u.Email != normalizeEmail(in.Email) {
		return model.User{}, invalidCredentials()
	}

	hash, err := s.secrets.Get(passwordKey)
	if errors.Is(err, credential.ErrNotFound) {
		return model.User{}, invalidCredentials()
	}
	if err != nil {
		return model.User{}, model.WrapStorage("login", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(in.Password)) != nil {
		s.log.Info("login rejected", zap.String("email", u.Email))
		return model.User{}, invalidCredentials()
	}

	if err := s.sessions.SetAuthenticated(ctx, true); err != nil {
		return model.User{}, err
	}
	s.log.Info("logged in", zap.String("email", u.Email))
	return u, nil
}

// Logout ends the session. The account is kept so the user can log in again.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.sessions.SetAuthenticated(ctx, false); err != nil {
		return err
	}
	s.log.Info("logged out")
	return nil
}

// Current returns the logged-in user. ok is false when no session is active.
func (s *Service) Current(ctx context.Context) (model.User, bool, error) {
	authenticated, err := s.sessions.IsAuthenticated(ctx)
	if err != nil || !authenticated {
		return model.User{}, false, err
	}
	return s.sessions.LoadUser(ctx)
}

// HasAccount reports whether an account has been registered.
func (s *Service) HasAccount(ctx context.Context) (bool, error) {
	_, ok, err := s.sessions.LoadUser(ctx)
	return ok, err
}

// DeleteAccount removes the account, its password and the session.
func (s *Service) DeleteAccount(ctx context.Context) error {
	if err := s.secrets.Delete(passwordKey); err != nil {
		return model.WrapStorage("delete account", err)
	}
	if err := s.sessions.ClearUser(ctx); err != nil {
		return err
	}
	s.log.Info("account deleted")
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func invalidCredentials() error {
	return model.NewValidationError("login", map[string]string{
		"password": "invalid email or password",
	})
}
