package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/accessgate/rbac-service/internal/core/domain"
	"github.com/accessgate/rbac-service/internal/core/ports"
)

const defaultTokenTTL = 7 * 24 * time.Hour

// LoginGuard abstracts the failed-login tracker (Redis).
type LoginGuard interface {
	Blocked(ctx context.Context, identifier string) (bool, error)
	RecordFailure(ctx context.Context, identifier string) error
	Reset(ctx context.Context, identifier string) error
}

// tokenClaims is the JWT payload issued on login.
type tokenClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthService implements registration, login and token verification.
type AuthService struct {
	users     ports.UserRepository
	roles     ports.RoleRepository
	hasher    ports.PasswordHasher
	guard     LoginGuard
	jwtSecret []byte
	tokenTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	users ports.UserRepository,
	roles ports.RoleRepository,
	hasher ports.PasswordHasher,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{
		users:     users,
		roles:     roles,
		hasher:    hasher,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		log:       log,
		now:       time.Now,
	}
}

// WithLoginGuard enables brute-force throttling of Login.
func (s *AuthService) WithLoginGuard(guard LoginGuard) *AuthService {
	s.guard = guard
	return s
}

// Register validates the input, hashes the password and stores the user.
// Username/email collisions are detected by the store, not pre-checked.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	in = trimRegisterInput(in)
	if in.FirstName == "" || in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, domain.Invalid("Missing required fields")
	}

	if in.RoleID != "" {
		if err := ensureRoleExists(ctx, s.roles, in.RoleID); err != nil {
			return nil, fmt.Errorf("register: %w", err)
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user := &domain.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		RoleID:       in.RoleID,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created, nil
}

// Login authenticates by username or email. An unknown identity and a wrong
// password both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (string, *domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return "", nil, domain.Invalid("Missing fields")
	}

	if s.guard != nil {
		blocked, err := s.guard.Blocked(ctx, identifier)
		if err != nil {
			s.log.Warn().Err(err).Msg("login guard check failed, continuing")
		} else if blocked {
			return "", nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if errors.Is(err, domain.ErrUserNotFound) {
		// Burn a comparison so unknown identities cost the same as wrong passwords.
		_ = s.hasher.Compare(s.dummy(), password)
		s.recordFailure(ctx, identifier)
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.recordFailure(ctx, identifier)
		return "", nil, domain.ErrInvalidCredentials
	}

	if s.guard != nil {
		if err := s.guard.Reset(ctx, identifier); err != nil {
			s.log.Warn().Err(err).Msg("failed to reset login failures")
		}
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("login: sign token: %w", err)
	}
	return token, user, nil
}

// Verify checks signature, algorithm and expiry of a bearer token.
func (s *AuthService) Verify(token string) (*domain.Claims, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.jwtSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, domain.ErrInvalidToken
	}

	out := &domain.Claims{
		UserID:    claims.UserID,
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

func (s *AuthService) issueToken(user *domain.User) (string, error) {
	now := s.now()
	claims := tokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *AuthService) recordFailure(ctx context.Context, identifier string) {
	if s.guard == nil {
		return
	}
	if err := s.guard.RecordFailure(ctx, identifier); err != nil {
		s.log.Warn().Err(err).Msg("failed to record login failure")
	}
}

// dummy returns a hash of a random-looking constant, computed once on first use.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("no-such-user-placeholder")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func trimRegisterInput(in ports.RegisterInput) ports.RegisterInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.RoleID = strings.TrimSpace(in.RoleID)
	return in
}

// ensureRoleExists turns a dangling role reference into a validation error.
func ensureRoleExists(ctx context.Context, roles ports.RoleRepository, roleID string) error {
	if _, err := roles.FindByID(ctx, roleID); err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return domain.Invalid("role does not exist")
		}
		return fmt.Errorf("resolve role: %w", err)
	}
	return nil
}
