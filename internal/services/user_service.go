package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"michi/internal/models"
	"michi/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserService implements administrator management of accounts
type UserService struct {
	users  store.UserStore
	robots store.RobotStore
	auth   *AuthService
}

// NewUserService creates a new user service
func NewUserService(users store.UserStore, robots store.RobotStore, authService *AuthService) *UserService {
	return &UserService{
		users:  users,
		robots: robots,
		auth:   authService,
	}
}

// UserUpdate carries the optional fields of an administrator user update
type UserUpdate struct {
	UserName *string `json:"userName"`
	Password *string `json:"password"`
}

// List returns every account, newest first
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// Create adds a regular account
func (s *UserService) Create(ctx context.Context, userName, password string) (*models.User, error) {
	user, err := s.auth.createUser(ctx, userName, password, models.RoleUser)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ [USERS] Created user %s", user.UserName)
	return user, nil
}

// Update renames and/or resets the password of an account.
// A blank password leaves the stored hash untouched.
func (s *UserService) Update(ctx context.Context, id string, update UserUpdate) (*models.User, error) {
	oid, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}

	current, err := s.users.GetByID(ctx, oid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}

	var patch models.UserPatch

	if update.UserName != nil {
		name := strings.TrimSpace(*update.UserName)
		switch {
		case name == "":
			return nil, newError(ErrValidation, "userName cannot be blank")
		case current.IsAdmin() && name != models.AdminUserName:
			return nil, newError(ErrValidation, "the administrator account cannot be renamed")
		case !current.IsAdmin() && name == models.AdminUserName:
			return nil, newError(ErrValidation, "user name is reserved")
		}
		if name != current.UserName {
			patch.UserName = &name
		}
	}

	if update.Password != nil && strings.TrimSpace(*update.Password) != "" {
		hash, err := s.auth.jwtAuth.HashPassword(*update.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		patch.PasswordHash = &hash
	}

	if patch.Empty() {
		return current, nil
	}

	user, err := s.users.Update(ctx, oid, patch)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, newError(ErrNotFound, "user not found")
	case errors.Is(err, store.ErrDuplicate):
		return nil, newError(ErrConflict, "user name already exists")
	case err != nil:
		return nil, err
	}

	s.auth.Forget(oid)
	log.Printf("✅ [USERS] Updated user %s", user.UserName)
	return user, nil
}

// Delete removes an account and pulls it from every robot owner list
func (s *UserService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, "user")
	if err != nil {
		return err
	}

	current, err := s.users.GetByID(ctx, oid)
	if errors.Is(err, store.ErrNotFound) {
		return newError(ErrNotFound, "user not found")
	}
	if err != nil {
		return err
	}
	if current.IsAdmin() {
		return newError(ErrValidation, "the administrator account cannot be deleted")
	}

	if err := s.users.Delete(ctx, oid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(ErrNotFound, "user not found")
		}
		return err
	}
	s.auth.Forget(oid)

	released, err := s.robots.PullOwnerEverywhere(ctx, oid)
	if err != nil {
		// The sweep job removes whatever is left behind here.
		log.Printf("⚠️  [USERS] Failed to release robots of deleted user %s: %v", oid.Hex(), err)
	} else if released > 0 {
		log.Printf("🧹 [USERS] Released %d robot(s) owned by deleted user %s", released, current.UserName)
	}
	return nil
}

// ownerIDs converts hex owner identifiers, rejecting malformed ones.
func ownerIDs(hexIDs []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexIDs))
	for _, h := range hexIDs {
		oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(h))
		if err != nil {
			return nil, newError(ErrValidation, "invalid owner id %q", h)
		}
		ids = append(ids, oid)
	}
	return models.DedupeOwners(ids), nil
}
