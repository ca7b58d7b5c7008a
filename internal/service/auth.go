package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/NickLinnik/LocalLibrary/internal/auth"
	"github.com/NickLinnik/LocalLibrary/internal/domain"
	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
	"github.com/NickLinnik/LocalLibrary/internal/id"
	"github.com/NickLinnik/LocalLibrary/internal/ratelimit"
	"github.com/NickLinnik/LocalLibrary/internal/store"
	"github.com/NickLinnik/LocalLibrary/internal/validation"
)

// Login outcomes reported to the LoginObserver.
const (
	LoginSuccess   = "success"
	LoginFailed    = "failed"
	LoginThrottled = "throttled"
)

// UserStore persists accounts. *sqlite.Store implements it.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateUserPassword(ctx context.Context, id, hash string) error
}

// SessionStore keeps browser sessions. *session.Store implements it.
type SessionStore interface {
	Create(ctx context.Context, userID string) (*domain.Session, error)
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	CountVisit(ctx context.Context, sessionID string) (int, error)
	Promote(ctx context.Context, oldID, userID string) (*domain.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// LoginObserver counts login attempts. *metrics.Metrics implements it.
type LoginObserver interface {
	Login(outcome string)
}

// LoginForm carries the login page input.
type LoginForm struct {
	Username string `form:"username" json:"username" validate:"required,max=150"`
	Password string `form:"password" json:"password" validate:"required,max=1024"`
}

// UserForm creates an account.
type UserForm struct {
	Username  string `form:"username" json:"username" validate:"required,max=150"`
	Password  string `form:"password" json:"password" validate:"required,min=8,max=1024"`
	FirstName string `form:"first_name" json:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" json:"last_name" validate:"max=150"`
	Email     string `form:"email" json:"email" validate:"omitempty,email"`
	Role      string `form:"role" json:"role" validate:"required,oneof=librarian member"`
}

// SessionToken is a session together with the token that proves it.
type SessionToken struct {
	Session *domain.Session
	Token   string
}

// Principal is the caller resolved from a session token. User is nil for
// anonymous sessions.
type Principal struct {
	Session *domain.Session
	User    *domain.User
}

// AuthService handles accounts, login and session resolution.
type AuthService struct {
	users     UserStore
	sessions  SessionStore
	tokens    *auth.TokenService
	hasher    *auth.PasswordHasher
	limiter   *ratelimit.KeyedRateLimiter
	observer  LoginObserver
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates an AuthService. limiter and observer may be nil.
func NewAuthService(
	users UserStore,
	sessions SessionStore,
	tokens *auth.TokenService,
	hasher *auth.PasswordHasher,
	limiter *ratelimit.KeyedRateLimiter,
	observer LoginObserver,
	logger *slog.Logger,
) *AuthService {
	if hasher == nil {
		hasher = auth.NewPasswordHasher(auth.DefaultArgon2Params)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		hasher:    hasher,
		limiter:   limiter,
		observer:  observer,
		validator: validation.New(),
		logger:    logger,
	}
}

// StartSession opens an anonymous session, used for the visit counter
// before anyone logs in.
func (s *AuthService) StartSession(ctx context.Context) (*SessionToken, error) {
	sess, err := s.sessions.Create(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return &SessionToken{Session: sess, Token: s.tokens.Issue(sess.ID, sess.ExpiresAt)}, nil
}

// Resolve verifies a token and loads its session and user. A session whose
// user has since been deleted resolves as anonymous.
func (s *AuthService) Resolve(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid session").WithCause(err)
	}
	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, domainerrors.Unauthorized("session expired").WithCause(err)
	}

	p := &Principal{Session: sess}
	if !sess.IsAuthenticated() {
		return p, nil
	}
	u, err := s.users.GetUser(ctx, sess.UserID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.logger.Warn("session references missing user", "session_id", sess.ID, "user_id", sess.UserID)
	case err != nil:
		return nil, fmt.Errorf("load session user: %w", err)
	default:
		p.User = u
	}
	return p, nil
}

// CountVisit bumps the session's visit counter and returns the new value.
func (s *AuthService) CountVisit(ctx context.Context, sessionID string) (int, error) {
	return s.sessions.CountVisit(ctx, sessionID)
}

// Login checks credentials and binds a fresh session to the user. The
// caller's anonymous session, if any, is replaced so its token stops
// working; the visit count carries over.
func (s *AuthService) Login(ctx context.Context, form LoginForm, clientIP, currentSessionID string) (*SessionToken, *domain.User, error) {
	if s.limiter != nil && !s.limiter.Allow(clientIP) {
		s.observe(LoginThrottled)
		s.logger.Warn("login throttled", "ip", clientIP)
		return nil, nil, domainerrors.RateLimited("too many login attempts, try again later")
	}
	if err := s.validator.Validate(form); err != nil {
		return nil, nil, err
	}

	u, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(form.Username))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil || !s.hasher.Verify(u.PasswordHash, form.Password) {
		s.observe(LoginFailed)
		s.logger.Info("login failed", "username", form.Username, "ip", clientIP)
		return nil, nil, domainerrors.InvalidCredentials(
			"Please enter a correct username and password. Note that both fields may be case-sensitive.")
	}

	sess, err := s.sessions.Promote(ctx, currentSessionID, u.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	s.observe(LoginSuccess)
	s.logger.Info("user logged in", "user_id", u.ID, "session_id", sess.ID)
	return &SessionToken{Session: sess, Token: s.tokens.Issue(sess.ID, sess.ExpiresAt)}, u, nil
}

// Logout ends a session. Unknown sessions are ignored.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info("session ended", "session_id", sessionID)
	return nil
}

// CreateUser validates form and stores a new account with a hashed password.
func (s *AuthService) CreateUser(ctx context.Context, form UserForm) (*domain.User, error) {
	if err := s.validator.Validate(form); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(form.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		ID:           userID,
		Username:     strings.TrimSpace(form.Username),
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Email:        form.Email,
		PasswordHash: hash,
		Role:         domain.Role(form.Role),
		CreatedAt:    time.Now(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.FieldInvalid("username", "A user with that username already exists.")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created", "user_id", u.ID, "username", u.Username, "role", u.Role)
	return u, nil
}

// UserByUsername looks up an account, for tools that act on behalf of a
// named user.
func (s *AuthService) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("user %q not found", username)
	}
	return u, err
}

// SetPassword replaces a user's password.
func (s *AuthService) SetPassword(ctx context.Context, username, password string) error {
	if len(password) < 8 {
		return domainerrors.FieldInvalid("password", "Ensure this value has at least 8 characters.")
	}
	u, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFoundf("user %q not found", username)
	}
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdateUserPassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.logger.Info("password changed", "user_id", u.ID)
	return nil
}

func (s *AuthService) observe(outcome string) {
	if s.observer != nil {
		s.observer.Login(outcome)
	}
}
