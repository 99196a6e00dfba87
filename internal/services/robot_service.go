package services

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"strings"

	"michi/internal/logging"
	"michi/internal/models"
	"michi/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RobotService implements the robot registry: self-service ownership and administrator CRUD
type RobotService struct {
	robots store.RobotStore
	logger *slog.Logger
}

// NewRobotService creates a new robot service
func NewRobotService(robots store.RobotStore) *RobotService {
	return &RobotService{
		robots: robots,
		logger: slog.Default(),
	}
}

// RobotUpdate carries the optional fields of an administrator robot update
type RobotUpdate struct {
	RobotName    *string   `json:"robotName"`
	OwnerUserIDs *[]string `json:"ownerUserIds"`
}

// ListMine returns the robots the caller owns, newest first
func (s *RobotService) ListMine(ctx context.Context, identity models.Identity) ([]models.Robot, error) {
	return s.robots.ListByOwner(ctx, identity.UserID)
}

// Claim adds the caller to the owner list of the robot with the given hardware ID
func (s *RobotService) Claim(ctx context.Context, identity models.Identity, robotID string) (*models.Robot, error) {
	robotID = strings.TrimSpace(robotID)
	if robotID == "" {
		metrics.RobotClaims.WithLabelValues(resultFailure).Inc()
		return nil, newError(ErrValidation, "robotId is required")
	}

	robot, err := s.robots.AddOwner(ctx, robotID, identity.UserID)
	if errors.Is(err, store.ErrNotFound) {
		metrics.RobotClaims.WithLabelValues(resultNotFound).Inc()
		return nil, newError(ErrNotFound, "robot not found")
	}
	if err != nil {
		metrics.RobotClaims.WithLabelValues(resultFailure).Inc()
		return nil, err
	}

	metrics.RobotClaims.WithLabelValues(resultSuccess).Inc()
	logging.WithRobot(s.logger, robotID, "claim").Info("robot claimed", "user", identity.UserName)
	return robot, nil
}

// UpdateName renames a robot the caller owns
func (s *RobotService) UpdateName(ctx context.Context, identity models.Identity, id, name string) (*models.Robot, error) {
	oid, err := parseID(id, "robot")
	if err != nil {
		return nil, err
	}

	robot, err := s.robots.GetByID(ctx, oid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(ErrNotFound, "robot not found")
	}
	if err != nil {
		return nil, err
	}
	if !robot.HasOwner(identity.UserID) {
		return nil, newError(ErrForbidden, "you do not own this robot")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(ErrValidation, "robotName is required")
	}

	updated, err := s.robots.Update(ctx, oid, models.RobotPatch{RobotName: &name})
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(ErrNotFound, "robot not found")
	}
	return updated, err
}

// RemoveOwnership drops the caller from the owner list; a no-op when not an owner
func (s *RobotService) RemoveOwnership(ctx context.Context, identity models.Identity, id string) error {
	oid, err := parseID(id, "robot")
	if err != nil {
		return err
	}

	robot, err := s.robots.RemoveOwner(ctx, oid, identity.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return newError(ErrNotFound, "robot not found")
	}
	if err != nil {
		return err
	}

	logging.WithRobot(s.logger, robot.RobotID, "release").Info("ownership removed", "user", identity.UserName)
	return nil
}

// ListAll returns every robot, newest first
func (s *RobotService) ListAll(ctx context.Context) ([]models.Robot, error) {
	return s.robots.List(ctx)
}

// Create registers a robot with an empty owner list
func (s *RobotService) Create(ctx context.Context, creator models.Identity, robotID, robotName string) (*models.Robot, error) {
	robotID = strings.TrimSpace(robotID)
	robotName = strings.TrimSpace(robotName)
	if robotID == "" {
		return nil, newError(ErrValidation, "robotId is required")
	}
	if robotName == "" {
		return nil, newError(ErrValidation, "robotName is required")
	}

	robot := &models.Robot{
		RobotID:      robotID,
		RobotName:    robotName,
		OwnerUserIDs: []primitive.ObjectID{},
		CreatedBy:    creator.UserID,
	}
	if err := s.robots.Create(ctx, robot); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, newError(ErrConflict, "robot ID already exists")
		}
		return nil, err
	}

	log.Printf("🤖 [ROBOTS] Created robot %s (%s)", robot.RobotID, robot.RobotName)
	return robot, nil
}

// Update renames a robot and/or replaces its owner list
func (s *RobotService) Update(ctx context.Context, id string, update RobotUpdate) (*models.Robot, error) {
	oid, err := parseID(id, "robot")
	if err != nil {
		return nil, err
	}

	var patch models.RobotPatch
	if update.RobotName != nil {
		name := strings.TrimSpace(*update.RobotName)
		if name == "" {
			return nil, newError(ErrValidation, "robotName cannot be blank")
		}
		patch.RobotName = &name
	}
	if update.OwnerUserIDs != nil {
		owners, err := ownerIDs(*update.OwnerUserIDs)
		if err != nil {
			return nil, err
		}
		patch.OwnerUserIDs = &owners
	}

	if patch.Empty() {
		robot, err := s.robots.GetByID(ctx, oid)
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(ErrNotFound, "robot not found")
		}
		return robot, err
	}

	robot, err := s.robots.Update(ctx, oid, patch)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(ErrNotFound, "robot not found")
	}
	if err != nil {
		return nil, err
	}

	log.Printf("🤖 [ROBOTS] Updated robot %s", robot.RobotID)
	return robot, nil
}

// Delete removes a robot
func (s *RobotService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, "robot")
	if err != nil {
		return err
	}

	if err := s.robots.Delete(ctx, oid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(ErrNotFound, "robot not found")
		}
		return err
	}

	log.Printf("🗑️  [ROBOTS] Deleted robot %s", oid.Hex())
	return nil
}
