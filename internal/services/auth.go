package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf16"

	"github.com/authgate/apiserver/internal/store"
	"github.com/authgate/apiserver/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// UserRepository defines the credential store operations the auth flow needs.
type UserRepository interface {
	Create(ctx context.Context, user types.User) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByToken(ctx context.Context, token types.AccessToken) (types.User, error)
}

// EventPublisher announces completed registrations.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event types.UserRegisteredEvent) error
}

// RegisterInput carries the submitted registration fields.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthService implements registration, login and token verification.
type AuthService struct {
	repo   UserRepository
	events EventPublisher
	log    logrus.FieldLogger
	cost   int
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithEventPublisher publishes a UserRegisteredEvent after each registration.
func WithEventPublisher(events EventPublisher) AuthOption {
	return func(s *AuthService) { s.events = events }
}

// WithLogger sets the service logger.
func WithLogger(log logrus.FieldLogger) AuthOption {
	return func(s *AuthService) { s.log = log }
}

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) { s.cost = cost }
}

func NewAuthService(repo UserRepository, opts ...AuthOption) *AuthService {
	s := &AuthService{
		repo: repo,
		log:  logrus.StandardLogger(),
		cost: bcrypt.DefaultCost,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates the input, hashes the password and creates the user.
// The returned user carries the access token issued by the store.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return types.User{}, newError(KindValidation, MsgMissingFields, nil)
	}
	if passwordLength(in.Password) < minPasswordLength {
		return types.User{}, newError(KindValidation, MsgPasswordTooShort, nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return types.User{}, newError(KindValidation, MsgPasswordTooLong, err)
		}
		return types.User{}, newError(KindUnavailable, MsgUnavailable, err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, newError(KindConflict, err.Error(), err)
		}
		s.log.WithError(err).Error("create user failed")
		return types.User{}, newError(KindUnavailable, MsgUnavailable, err)
	}

	s.publishRegistered(ctx, user)
	return user, nil
}

// Login checks the credentials and returns the stored user. Unknown
// usernames and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, username, password string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Spend the same bcrypt work as a real comparison.
			_ = bcrypt.CompareHashAndPassword(s.placeholderHash(), []byte(password))
			return types.User{}, newError(KindAuthentication, MsgCredentials, nil)
		}
		s.log.WithError(err).Error("load user failed")
		return types.User{}, newError(KindUnavailable, MsgUnavailable, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, newError(KindAuthentication, MsgCredentials, nil)
	}
	return user, nil
}

// Verify resolves an access token to its owner. Missing and unknown tokens
// are both unauthorized.
func (s *AuthService) Verify(ctx context.Context, token types.AccessToken) (types.User, error) {
	if token.IsZero() {
		return types.User{}, newError(KindUnauthorized, MsgPleaseLogIn, nil)
	}
	user, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, newError(KindUnauthorized, MsgPleaseLogIn, nil)
		}
		s.log.WithError(err).Error("verify token failed")
		return types.User{}, newError(KindUnavailable, MsgUnavailable, err)
	}
	return user, nil
}

func (s *AuthService) publishRegistered(ctx context.Context, user types.User) {
	if s.events == nil {
		return
	}
	event := types.UserRegisteredEvent{
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		RegisteredAt: s.now().UTC(),
	}
	if err := s.events.PublishUserRegistered(ctx, event); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("publish user registered event failed")
	}
}

// passwordLength counts UTF-16 code units, so characters outside the BMP
// count twice.
func passwordLength(password string) int {
	n := 0
	for _, r := range password {
		n += utf16.RuneLen(r)
	}
	return n
}

func (s *AuthService) placeholderHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("placeholder-password"), s.cost)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
