package auth

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 12

const (
	msgFirstNameTooShort  = "First name must be at least 2 characters long"
	msgLastNameTooShort   = "Last name must be at least 2 characters long"
	msgInvalidEmail       = "Please provide a valid email address"
	msgPasswordTooShort   = "Password must be at least 6 characters long"
	msgEmailRequired      = "Email is required"
	msgPasswordRequired   = "Password is required"
	msgInvalidCredentials = "Invalid email or password"
	msgUserExists         = "User with this email already exists"
	msgAuthRequired       = "Authentication required"
	msgUserNotFound       = "User not found"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	GetUser(ctx context.Context, id string) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
}

type (
	RegisterInput struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}

	LoginInput struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	// Session is what register and login hand back to the caller.
	Session struct {
		User      core.User `json:"user"`
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
)

// Service issues credentials and resolves request identities.
type Service struct {
	users  UserStore
	tokens *TokenIssuer
	cost   int
	known  cache.Cache[core.User]
}

// Option configures a Service.
type Option func(*Service)

// WithUserCache serves authenticated users from c instead of loading them
// on every request. Users are immutable once registered.
func WithUserCache(c cache.Cache[core.User]) Option {
	return func(s *Service) { s.known = c }
}

func NewService(users UserStore, tokens *TokenIssuer, opts ...Option) *Service {
	s := &Service{users: users, tokens: tokens, cost: BcryptCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	if msgs := checkRegistration(in); len(msgs) > 0 {
		return Session{}, core.Validation(msgs...)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return Session{}, core.Op("register user", err)
	}

	u, err := s.users.CreateUser(ctx, core.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hash),
	})
	if core.IsConflict(err) {
		return Session{}, core.Conflict(msgUserExists, err)
	}
	if err != nil {
		return Session{}, core.Op("register user", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", u.ID)
	return s.session(u)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	var msgs []string
	if strings.TrimSpace(in.Email) == "" {
		msgs = append(msgs, msgEmailRequired)
	}
	if in.Password == "" {
		msgs = append(msgs, msgPasswordRequired)
	}
	if len(msgs) > 0 {
		return Session{}, core.Validation(msgs...)
	}

	u, err := s.users.GetUserByEmail(ctx, in.Email)
	if core.IsNotFound(err) {
		return Session{}, core.Unauthenticated(msgInvalidCredentials)
	}
	if err != nil {
		return Session{}, core.Op("log in", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			slog.WarnContext(ctx, "Unusable password hash", "user_id", u.ID, "error", err)
		}
		return Session{}, core.Unauthenticated(msgInvalidCredentials)
	}

	return s.session(u)
}

// Authenticate resolves a bearer token to the user it was issued for.
func (s *Service) Authenticate(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, core.Unauthenticated(msgAuthRequired)
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return core.User{}, err
	}
	if s.known != nil {
		if u, ok := s.known.Get(claims.UserID); ok {
			return u, nil
		}
	}
	u, err := s.users.GetUser(ctx, claims.UserID)
	if core.IsNotFound(err) {
		return core.User{}, core.Unauthenticated(msgUserNotFound)
	}
	if err != nil {
		return core.User{}, core.Op("authenticate", err)
	}
	if s.known != nil {
		s.known.Set(u.ID, u)
	}
	return u, nil
}

func (s *Service) Me(ctx context.Context, userID string) (core.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, core.Op("get current user", err)
	}
	return u, nil
}

func (s *Service) session(u core.User) (Session, error) {
	token, expires, err := s.tokens.Issue(u)
	if err != nil {
		return Session{}, core.Op("issue token", err)
	}
	return Session{User: u, Token: token, ExpiresAt: expires}, nil
}

func checkRegistration(in RegisterInput) []string {
	var msgs []string
	if utf8.RuneCountInString(strings.TrimSpace(in.FirstName)) < 2 {
		msgs = append(msgs, msgFirstNameTooShort)
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.LastName)) < 2 {
		msgs = append(msgs, msgLastNameTooShort)
	}
	if !emailPattern.MatchString(strings.TrimSpace(in.Email)) {
		msgs = append(msgs, msgInvalidEmail)
	}
	if len(in.Password) < 6 {
		msgs = append(msgs, msgPasswordTooShort)
	}
	return msgs
}
