package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"michi/internal/models"
	"michi/internal/store"
	"michi/pkg/auth"

	"github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultIdentityCacheTTL bounds how long a resolved identity is reused without a store lookup.
const DefaultIdentityCacheTTL = 30 * time.Second

// AuthService registers accounts, issues bearer tokens and resolves them back to identities
type AuthService struct {
	users      store.UserStore
	jwtAuth    *auth.LocalJWTAuth
	identities *cache.Cache
}

// NewAuthService creates a new auth service
func NewAuthService(users store.UserStore, jwtAuth *auth.LocalJWTAuth, cacheTTL time.Duration) *AuthService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultIdentityCacheTTL
	}
	return &AuthService{
		users:      users,
		jwtAuth:    jwtAuth,
		identities: cache.New(cacheTTL, 2*cacheTTL),
	}
}

// LoginResult is returned on a successful login
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Register creates a regular account
func (s *AuthService) Register(ctx context.Context, userName, password string) (*models.User, error) {
	user, err := s.createUser(ctx, userName, password, models.RoleUser)
	switch {
	case err == nil:
		metrics.Registrations.WithLabelValues(resultSuccess).Inc()
		log.Printf("✅ [AUTH] Registered user %s", user.UserName)
	case errors.Is(err, ErrConflict):
		metrics.Registrations.WithLabelValues(resultConflict).Inc()
	default:
		metrics.Registrations.WithLabelValues(resultFailure).Inc()
	}
	return user, err
}

// createUser validates and stores a new account. The administrator name is reserved for the seed.
func (s *AuthService) createUser(ctx context.Context, userName, password string, role models.Role) (*models.User, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, newError(ErrValidation, "userName is required")
	}
	if password == "" {
		return nil, newError(ErrValidation, "password is required")
	}
	if userName == models.AdminUserName && role != models.RoleAdmin {
		return nil, newError(ErrValidation, "user name is reserved")
	}

	if _, err := s.users.GetByUserName(ctx, userName); err == nil {
		return nil, newError(ErrConflict, "user name already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check user name: %w", err)
	}

	hash, err := s.jwtAuth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{UserName: userName, Password: hash, Role: role}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, newError(ErrConflict, "user name already exists")
		}
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and mints a bearer token.
// Unknown user and wrong password return the same error.
func (s *AuthService) Login(ctx context.Context, userName, password string) (*LoginResult, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || password == "" {
		metrics.Logins.WithLabelValues(resultFailure).Inc()
		return nil, newError(ErrValidation, "username and password are required")
	}

	user, err := s.users.GetByUserName(ctx, userName)
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("⚠️  [AUTH] Login failed: unknown user %q", userName)
		metrics.Logins.WithLabelValues(resultFailure).Inc()
		return nil, newError(ErrInvalidCredentials, "invalid username or password")
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.jwtAuth.VerifyPassword(user.Password, password)
	if err != nil {
		log.Printf("⚠️  [AUTH] Stored hash for %s could not be checked: %v", userName, err)
	}
	if !ok {
		log.Printf("⚠️  [AUTH] Login failed: wrong password for %q", userName)
		metrics.Logins.WithLabelValues(resultFailure).Inc()
		return nil, newError(ErrInvalidCredentials, "invalid username or password")
	}

	token, expiresAt, err := s.jwtAuth.GenerateToken(user.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.identities.SetDefault(user.ID.Hex(), models.IdentityOf(user))
	metrics.Logins.WithLabelValues(resultSuccess).Inc()
	log.Printf("✅ [AUTH] User %s logged in", userName)

	return &LoginResult{Token: token, ExpiresAt: expiresAt}, nil
}

// ResolveToken checks signature and expiry, then confirms the user still exists
func (s *AuthService) ResolveToken(ctx context.Context, token string) (models.Identity, error) {
	userID, err := s.jwtAuth.VerifyToken(token)
	if err != nil {
		return models.Identity{}, newError(ErrUnauthenticated, "invalid or expired token")
	}

	if cached, ok := s.identities.Get(userID); ok {
		return cached.(models.Identity), nil
	}

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return models.Identity{}, newError(ErrUnauthenticated, "invalid or expired token")
	}

	user, err := s.users.GetByID(ctx, oid)
	if errors.Is(err, store.ErrNotFound) {
		return models.Identity{}, newError(ErrUnauthenticated, "user no longer exists")
	}
	if err != nil {
		return models.Identity{}, err
	}

	identity := models.IdentityOf(user)
	s.identities.SetDefault(userID, identity)
	return identity, nil
}

// Me returns the caller's own profile
func (s *AuthService) Me(ctx context.Context, identity models.Identity) (*models.User, error) {
	user, err := s.users.GetByID(ctx, identity.UserID)
	if errors.Is(err, store.ErrNotFound) {
		s.Forget(identity.UserID)
		return nil, newError(ErrUnauthenticated, "user no longer exists")
	}
	return user, err
}

// Forget drops the cached identity so the next request reloads the user.
func (s *AuthService) Forget(userID primitive.ObjectID) {
	s.identities.Delete(userID.Hex())
}

// EnsureAdmin creates the administrator account, or upgrades an existing one to the admin role.
// An empty password disables seeding.
func (s *AuthService) EnsureAdmin(ctx context.Context, password string) error {
	existing, err := s.users.GetByUserName(ctx, models.AdminUserName)
	switch {
	case err == nil:
		if existing.Role != models.RoleAdmin {
			if err := s.users.SetRole(ctx, existing.ID, models.RoleAdmin); err != nil {
				return fmt.Errorf("failed to upgrade admin account: %w", err)
			}
			s.Forget(existing.ID)
			log.Println("🔐 [AUTH] Upgraded existing admin account to admin role")
		}
		return nil
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("failed to look up admin account: %w", err)
	}

	if password == "" {
		log.Println("⚠️  [AUTH] ADMIN_PASSWORD not set, administrator account not seeded")
		return nil
	}

	if _, err := s.createUser(ctx, models.AdminUserName, password, models.RoleAdmin); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil
		}
		return fmt.Errorf("failed to seed admin account: %w", err)
	}
	log.Println("🔐 [AUTH] Administrator account seeded")
	return nil
}
