package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"michi/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OwnerSweepJobName is the scheduler name of the stale owner sweep
const OwnerSweepJobName = "owner_sweep"

// OwnerSweepJob removes robot owner references to accounts that no longer exist
type OwnerSweepJob struct {
	users  store.UserStore
	robots store.RobotStore
}

// NewOwnerSweepJob creates a new owner sweep job
func NewOwnerSweepJob(users store.UserStore, robots store.RobotStore) *OwnerSweepJob {
	return &OwnerSweepJob{users: users, robots: robots}
}

// Run removes owner references whose account is confirmed missing.
// Owners are checked one by one, so accounts created after the sweep starts are never touched.
func (j *OwnerSweepJob) Run(ctx context.Context) error {
	log.Println("[OWNER-SWEEP] Starting stale owner sweep...")
	startTime := time.Now()

	owners, err := j.robots.OwnerIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load owner ids: %w", err)
	}

	var stale []primitive.ObjectID
	for _, id := range owners {
		_, err := j.users.GetByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			stale = append(stale, id)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to check owner %s: %w", id.Hex(), err)
		}
	}

	changed, err := j.robots.PullOwners(ctx, stale)
	if err != nil {
		return fmt.Errorf("failed to pull stale owners: %w", err)
	}

	log.Printf("[OWNER-SWEEP] Checked %d owners, %d stale, cleaned %d robot(s) in %v",
		len(owners), len(stale), changed, time.Since(startTime))
	return nil
}
