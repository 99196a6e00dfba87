// Package store persists users and robots.
package store

import (
	"context"
	"errors"

	"michi/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when no document matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique field (userName, robotId) is already taken.
	ErrDuplicate = errors.New("duplicate key")
)

// UserStore is the persistence contract for accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	// List returns every user, newest first.
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.UserPatch) (*models.User, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

// RobotStore is the persistence contract for robots and their owner lists.
type RobotStore interface {
	Create(ctx context.Context, robot *models.Robot) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Robot, error)
	GetByRobotID(ctx context.Context, robotID string) (*models.Robot, error)
	// List returns every robot, newest first.
	List(ctx context.Context) ([]models.Robot, error)
	// ListByOwner returns robots whose owner list contains owner, newest first.
	ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Robot, error)
	// AddOwner appends owner to the robot with the given robotId unless already present.
	AddOwner(ctx context.Context, robotID string, owner primitive.ObjectID) (*models.Robot, error)
	// RemoveOwner drops every occurrence of owner from the robot's owner list.
	RemoveOwner(ctx context.Context, id primitive.ObjectID, owner primitive.ObjectID) (*models.Robot, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.RobotPatch) (*models.Robot, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// PullOwnerEverywhere removes owner from every robot and returns the number of robots changed.
	PullOwnerEverywhere(ctx context.Context, owner primitive.ObjectID) (int64, error)
	// OwnerIDs returns the distinct owner references held by any robot.
	OwnerIDs(ctx context.Context) ([]primitive.ObjectID, error)
	// PullOwners removes each of owners from every robot and returns the number of robots changed.
	PullOwners(ctx context.Context, owners []primitive.ObjectID) (int64, error)
}
