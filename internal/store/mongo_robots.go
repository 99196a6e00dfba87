package store

import (
	"context"
	"fmt"
	"time"

	"michi/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRobotStore keeps robots in a MongoDB collection
type MongoRobotStore struct {
	collection *mongo.Collection
}

// NewMongoRobotStore creates a robot store over the given collection
func NewMongoRobotStore(collection *mongo.Collection) *MongoRobotStore {
	return &MongoRobotStore{collection: collection}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

// Create inserts the robot and fills in its ID and timestamps
func (s *MongoRobotStore) Create(ctx context.Context, robot *models.Robot) error {
	now := time.Now()
	if robot.ID.IsZero() {
		robot.ID = primitive.NewObjectID()
	}
	robot.CreatedAt = now
	robot.UpdatedAt = now
	robot.OwnerUserIDs = models.DedupeOwners(robot.OwnerUserIDs)

	if _, err := s.collection.InsertOne(ctx, robot); err != nil {
		return mapWriteError("failed to create robot", err)
	}
	return nil
}

// GetByID retrieves a robot by its MongoDB ID
func (s *MongoRobotStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Robot, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByRobotID retrieves a robot by its hardware identifier
func (s *MongoRobotStore) GetByRobotID(ctx context.Context, robotID string) (*models.Robot, error) {
	return s.findOne(ctx, bson.M{"robotId": robotID})
}

func (s *MongoRobotStore) findOne(ctx context.Context, filter bson.M) (*models.Robot, error) {
	var robot models.Robot
	err := s.collection.FindOne(ctx, filter).Decode(&robot)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get robot: %w", err)
	}
	return &robot, nil
}

// List returns all robots, newest first
func (s *MongoRobotStore) List(ctx context.Context) ([]models.Robot, error) {
	return s.find(ctx, bson.M{})
}

// ListByOwner returns the robots owned by owner, newest first
func (s *MongoRobotStore) ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Robot, error) {
	return s.find(ctx, bson.M{"ownerUserIds": owner})
}

func (s *MongoRobotStore) find(ctx context.Context, filter bson.M) ([]models.Robot, error) {
	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("failed to list robots: %w", err)
	}
	defer cursor.Close(ctx)

	robots := []models.Robot{}
	if err := cursor.All(ctx, &robots); err != nil {
		return nil, fmt.Errorf("failed to decode robots: %w", err)
	}
	return robots, nil
}

// AddOwner adds owner with $addToSet so concurrent claims never duplicate an entry
func (s *MongoRobotStore) AddOwner(ctx context.Context, robotID string, owner primitive.ObjectID) (*models.Robot, error) {
	update := bson.M{
		"$addToSet": bson.M{"ownerUserIds": owner},
		"$set":      bson.M{"updatedAt": time.Now()},
	}
	return s.findOneAndUpdate(ctx, bson.M{"robotId": robotID}, update)
}

// RemoveOwner pulls owner from the robot's owner list
func (s *MongoRobotStore) RemoveOwner(ctx context.Context, id primitive.ObjectID, owner primitive.ObjectID) (*models.Robot, error) {
	update := bson.M{
		"$pull": bson.M{"ownerUserIds": owner},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, update)
}

// Update applies the patch and returns the updated robot
func (s *MongoRobotStore) Update(ctx context.Context, id primitive.ObjectID, patch models.RobotPatch) (*models.Robot, error) {
	set := bson.M{"updatedAt": time.Now()}
	if patch.RobotName != nil {
		set["robotName"] = *patch.RobotName
	}
	if patch.OwnerUserIDs != nil {
		set["ownerUserIds"] = models.DedupeOwners(*patch.OwnerUserIDs)
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

func (s *MongoRobotStore) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Robot, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var robot models.Robot
	err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&robot)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapWriteError("failed to update robot", err)
	}
	return &robot, nil
}

// Delete removes the robot
func (s *MongoRobotStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete robot: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PullOwnerEverywhere removes owner from every robot that lists it
func (s *MongoRobotStore) PullOwnerEverywhere(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	result, err := s.collection.UpdateMany(ctx,
		bson.M{"ownerUserIds": owner},
		bson.M{
			"$pull": bson.M{"ownerUserIds": owner},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to pull owner: %w", err)
	}
	return result.ModifiedCount, nil
}

// OwnerIDs returns the distinct owner references across all robots
func (s *MongoRobotStore) OwnerIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	values, err := s.collection.Distinct(ctx, "ownerUserIds", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list owner ids: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// PullOwners removes the given owners from every robot that lists any of them
func (s *MongoRobotStore) PullOwners(ctx context.Context, owners []primitive.ObjectID) (int64, error) {
	if len(owners) == 0 {
		return 0, nil
	}
	result, err := s.collection.UpdateMany(ctx,
		bson.M{"ownerUserIds": bson.M{"$in": owners}},
		bson.M{
			"$pull": bson.M{"ownerUserIds": bson.M{"$in": owners}},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to pull owners: %w", err)
	}
	return result.ModifiedCount, nil
}
