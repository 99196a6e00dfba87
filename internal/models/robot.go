package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Robot represents a physical robot registered in the robots collection
type Robot struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	RobotID      string               `bson:"robotId" json:"robotId"`
	RobotName    string               `bson:"robotName" json:"robotName"`
	OwnerUserIDs []primitive.ObjectID `bson:"ownerUserIds" json:"ownerUserIds"`
	CreatedBy    primitive.ObjectID   `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasOwner reports whether userID is on the owner list.
func (r *Robot) HasOwner(userID primitive.ObjectID) bool {
	for _, id := range r.OwnerUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// RobotPatch carries the optional fields of an admin robot update.
type RobotPatch struct {
	RobotName    *string
	OwnerUserIDs *[]primitive.ObjectID
}

// Empty reports whether the patch changes nothing.
func (p RobotPatch) Empty() bool {
	return p.RobotName == nil && p.OwnerUserIDs == nil
}

// DedupeOwners returns ids with duplicates removed, keeping first occurrences in order.
func DedupeOwners(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
