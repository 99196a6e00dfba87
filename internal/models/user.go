package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the explicit privilege level of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AdminUserName is the single administrator account, created by the bootstrap seed.
const AdminUserName = "admin"

// Capabilities is implemented by anything the authorization gate can inspect.
type Capabilities interface {
	IsAdmin() bool
}

// User represents an account in the users collection
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserName  string             `bson:"userName" json:"userName"`
	Password  string             `bson:"password" json:"-"` // salted hash, never exposed in API
	Role      Role               `bson:"role,omitempty" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// EffectiveRole treats documents written before roles existed as regular users.
func (u *User) EffectiveRole() Role {
	if u.Role == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// IsAdmin reports whether the account carries the administrator role.
func (u *User) IsAdmin() bool {
	return u.EffectiveRole() == RoleAdmin
}

// UserResponse is the API response for user data
type UserResponse struct {
	ID        string    `json:"_id"`
	UserName  string    `json:"userName"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID.Hex(),
		UserName:  u.UserName,
		Role:      u.EffectiveRole(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserPatch carries the optional fields of an admin user update.
// PasswordHash is already hashed by the caller.
type UserPatch struct {
	UserName     *string
	PasswordHash *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.UserName == nil && p.PasswordHash == nil
}

// Identity is the caller resolved from a bearer token.
type Identity struct {
	UserID   primitive.ObjectID
	UserName string
	Role     Role
}

// IsAdmin reports whether the identity carries the administrator role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// IdentityOf builds the identity for a stored user.
func IdentityOf(u *User) Identity {
	return Identity{UserID: u.ID, UserName: u.UserName, Role: u.EffectiveRole()}
}
