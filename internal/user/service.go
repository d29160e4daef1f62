package user

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alecgard/taskhub/internal/apperr"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// Errors returned by the identity service and its stores.
var (
	ErrNotFound           = apperr.NotFound("User not found")
	ErrEmailTaken         = apperr.Conflict("User already exists")
	ErrFieldsRequired     = apperr.Validation("All fields are required")
	ErrNameLength         = apperr.Validation("Name must be a string and between 3 and 30 characters")
	ErrEmailInvalid       = apperr.Validation("Invalid email address")
	ErrPasswordWeak       = apperr.Validation("Password must be at least 8 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one special character")
	ErrUnknownEmail       = apperr.Validation("User doesn't exist")
	ErrInvalidCredentials = apperr.Validation("Invalid credentials")
)

const passwordSpecials = "@$!%*?&"

// Repository persists users and sessions.
type Repository interface {
	Create(ctx context.Context, name, email, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*User, error)
	CreateSession(ctx context.Context, sess Session) error
	GetSessionUser(ctx context.Context, tokenHash string) (*User, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	CleanExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Service implements registration, login and session handling.
type Service struct {
	repo       Repository
	sessionTTL time.Duration
	bcryptCost int
	validate   *validator.Validate
	now        func() time.Time
}

// NewService creates a user service. A zero bcryptCost uses bcrypt.DefaultCost.
func NewService(repo Repository, sessionTTL time.Duration, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		sessionTTL: sessionTTL,
		bcryptCost: bcryptCost,
		validate:   validator.New(),
		now:        time.Now,
	}
}

// Register validates the input, hashes the password and creates the user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || strings.TrimSpace(in.Password) == "" {
		return nil, ErrFieldsRequired
	}
	if s.validate.Var(name, "min=3,max=30") != nil {
		return nil, ErrNameLength
	}
	if s.validate.Var(email, "email") != nil {
		return nil, ErrEmailInvalid
	}
	if !strongPassword(in.Password) {
		return nil, ErrPasswordWeak
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	return s.repo.Create(ctx, name, email, string(hash))
}

// Login verifies credentials and opens a session. It returns the opaque
// plaintext token to hand to the client.
func (s *Service) Login(ctx context.Context, in LoginInput) (string, *User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || strings.TrimSpace(in.Password) == "" {
		return "", nil, ErrFieldsRequired
	}
	if s.validate.Var(email, "email") != nil {
		return "", nil, ErrEmailInvalid
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrUnknownEmail
		}
		return "", nil, err
	}
	if !CheckPassword(u, in.Password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return "", nil, err
	}
	now := s.now()
	err = s.repo.CreateSession(ctx, Session{
		TokenHash: HashToken(token),
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	})
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Logout ends the session identified by the plaintext token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.repo.DeleteSession(ctx, HashToken(token))
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetMany returns the users with the given ids. Unknown ids are skipped.
func (s *Service) GetMany(ctx context.Context, ids []string) ([]*User, error) {
	return s.repo.GetByIDs(ctx, ids)
}

// SessionUser resolves a plaintext session token to its user.
func (s *Service) SessionUser(ctx context.Context, token string) (*User, error) {
	return s.repo.GetSessionUser(ctx, HashToken(token))
}

// PruneSessions deletes expired sessions and reports how many were removed.
func (s *Service) PruneSessions(ctx context.Context) (int64, error) {
	return s.repo.CleanExpiredSessions(ctx, s.now())
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func CheckPassword(u *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// HashToken returns the hex-encoded SHA-256 of a session token.
func HashToken(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// strongPassword requires 8+ characters drawn from letters, digits and
// passwordSpecials, with at least one of each class.
func strongPassword(p string) bool {
	if len(p) < 8 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return false
		}
	}
	return lower && upper && digit && special
}
