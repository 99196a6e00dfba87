package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"michi/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-process store used by tests and by development runs without MongoDB.
// It implements both UserStore and RobotStore; use Users() and Robots() to get each view.
type Memory struct {
	mu     sync.RWMutex
	users  map[primitive.ObjectID]*models.User
	robots map[primitive.ObjectID]*models.Robot
	seq    map[primitive.ObjectID]uint64
	next   uint64
	now    func() time.Time
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		users:  make(map[primitive.ObjectID]*models.User),
		robots: make(map[primitive.ObjectID]*models.Robot),
		seq:    make(map[primitive.ObjectID]uint64),
		now:    time.Now,
	}
}

// Users returns the UserStore view of the store
func (m *Memory) Users() UserStore { return memoryUsers{m} }

// Robots returns the RobotStore view of the store
func (m *Memory) Robots() RobotStore { return memoryRobots{m} }

func (m *Memory) stamp(id primitive.ObjectID) {
	m.next++
	m.seq[id] = m.next
}

// newer orders documents newest first; insertion order breaks timestamp ties.
func (m *Memory) newer(a, b primitive.ObjectID, ta, tb time.Time) bool {
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return m.seq[a] > m.seq[b]
}

type memoryUsers struct{ m *Memory }

func (s memoryUsers) Create(_ context.Context, user *models.User) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.UserName == user.UserName {
			return ErrDuplicate
		}
	}

	now := m.now()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	stored := *user
	m.users[user.ID] = &stored
	m.stamp(user.ID)
	return nil
}

func (s memoryUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s memoryUsers) GetByUserName(_ context.Context, userName string) (*models.User, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.UserName == userName {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s memoryUsers) List(_ context.Context) ([]models.User, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool {
		return m.newer(users[i].ID, users[j].ID, users[i].CreatedAt, users[j].CreatedAt)
	})
	return users, nil
}

func (s memoryUsers) Update(_ context.Context, id primitive.ObjectID, patch models.UserPatch) (*models.User, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.UserName != nil {
		for otherID, other := range m.users {
			if otherID != id && other.UserName == *patch.UserName {
				return nil, ErrDuplicate
			}
		}
		u.UserName = *patch.UserName
	}
	if patch.PasswordHash != nil {
		u.Password = *patch.PasswordHash
	}
	u.UpdatedAt = m.now()

	out := *u
	return &out, nil
}

func (s memoryUsers) SetRole(_ context.Context, id primitive.ObjectID, role models.Role) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = m.now()
	return nil
}

func (s memoryUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	delete(m.seq, id)
	return nil
}

func (s memoryUsers) Count(_ context.Context) (int64, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

type memoryRobots struct{ m *Memory }

func copyRobot(r *models.Robot) *models.Robot {
	out := *r
	out.OwnerUserIDs = append([]primitive.ObjectID{}, r.OwnerUserIDs...)
	return &out
}

func (s memoryRobots) Create(_ context.Context, robot *models.Robot) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.robots {
		if r.RobotID == robot.RobotID {
			return ErrDuplicate
		}
	}

	now := m.now()
	if robot.ID.IsZero() {
		robot.ID = primitive.NewObjectID()
	}
	robot.CreatedAt = now
	robot.UpdatedAt = now
	robot.OwnerUserIDs = models.DedupeOwners(robot.OwnerUserIDs)

	m.robots[robot.ID] = copyRobot(robot)
	m.stamp(robot.ID)
	return nil
}

func (s memoryRobots) GetByID(_ context.Context, id primitive.ObjectID) (*models.Robot, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.robots[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRobot(r), nil
}

func (s memoryRobots) GetByRobotID(_ context.Context, robotID string) (*models.Robot, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	if r := m.byRobotID(robotID); r != nil {
		return copyRobot(r), nil
	}
	return nil, ErrNotFound
}

func (m *Memory) byRobotID(robotID string) *models.Robot {
	for _, r := range m.robots {
		if r.RobotID == robotID {
			return r
		}
	}
	return nil
}

func (s memoryRobots) List(_ context.Context) ([]models.Robot, error) {
	return s.filter(func(*models.Robot) bool { return true }), nil
}

func (s memoryRobots) ListByOwner(_ context.Context, owner primitive.ObjectID) ([]models.Robot, error) {
	return s.filter(func(r *models.Robot) bool { return r.HasOwner(owner) }), nil
}

func (s memoryRobots) filter(keep func(*models.Robot) bool) []models.Robot {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	robots := []models.Robot{}
	for _, r := range m.robots {
		if keep(r) {
			robots = append(robots, *copyRobot(r))
		}
	}
	sort.Slice(robots, func(i, j int) bool {
		return m.newer(robots[i].ID, robots[j].ID, robots[i].CreatedAt, robots[j].CreatedAt)
	})
	return robots
}

func (s memoryRobots) AddOwner(_ context.Context, robotID string, owner primitive.ObjectID) (*models.Robot, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.byRobotID(robotID)
	if r == nil {
		return nil, ErrNotFound
	}
	if !r.HasOwner(owner) {
		r.OwnerUserIDs = append(r.OwnerUserIDs, owner)
	}
	r.UpdatedAt = m.now()
	return copyRobot(r), nil
}

func (s memoryRobots) RemoveOwner(_ context.Context, id primitive.ObjectID, owner primitive.ObjectID) (*models.Robot, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.robots[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.OwnerUserIDs = without(r.OwnerUserIDs, func(o primitive.ObjectID) bool { return o == owner })
	r.UpdatedAt = m.now()
	return copyRobot(r), nil
}

func (s memoryRobots) Update(_ context.Context, id primitive.ObjectID, patch models.RobotPatch) (*models.Robot, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.robots[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.RobotName != nil {
		r.RobotName = *patch.RobotName
	}
	if patch.OwnerUserIDs != nil {
		r.OwnerUserIDs = models.DedupeOwners(*patch.OwnerUserIDs)
	}
	r.UpdatedAt = m.now()
	return copyRobot(r), nil
}

func (s memoryRobots) Delete(_ context.Context, id primitive.ObjectID) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.robots[id]; !ok {
		return ErrNotFound
	}
	delete(m.robots, id)
	delete(m.seq, id)
	return nil
}

func (s memoryRobots) PullOwnerEverywhere(_ context.Context, owner primitive.ObjectID) (int64, error) {
	return s.prune(func(o primitive.ObjectID) bool { return o == owner }), nil
}

func (s memoryRobots) OwnerIDs(_ context.Context) ([]primitive.ObjectID, error) {
	m := s.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[primitive.ObjectID]struct{})
	ids := []primitive.ObjectID{}
	for _, r := range m.robots {
		for _, o := range r.OwnerUserIDs {
			if _, ok := seen[o]; !ok {
				seen[o] = struct{}{}
				ids = append(ids, o)
			}
		}
	}
	return ids, nil
}

func (s memoryRobots) PullOwners(_ context.Context, owners []primitive.ObjectID) (int64, error) {
	if len(owners) == 0 {
		return 0, nil
	}
	drop := make(map[primitive.ObjectID]struct{}, len(owners))
	for _, id := range owners {
		drop[id] = struct{}{}
	}
	return s.prune(func(o primitive.ObjectID) bool {
		_, ok := drop[o]
		return ok
	}), nil
}

func (s memoryRobots) prune(drop func(primitive.ObjectID) bool) int64 {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	var changed int64
	now := m.now()
	for _, r := range m.robots {
		kept := without(r.OwnerUserIDs, drop)
		if len(kept) != len(r.OwnerUserIDs) {
			r.OwnerUserIDs = kept
			r.UpdatedAt = now
			changed++
		}
	}
	return changed
}

func without(ids []primitive.ObjectID, drop func(primitive.ObjectID) bool) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !drop(id) {
			out = append(out, id)
		}
	}
	return out
}
