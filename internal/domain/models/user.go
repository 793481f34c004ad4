package models

import "time"

// Role carries the authorization level of a user account.
type Role string

const (
	RoleStudent     Role = "Student"
	RoleStorekeeper Role = "Storekeeper"
	RoleAdmin       Role = "Admin"
)

// User is an account. PasswordHash is a bcrypt digest; IsActive false marks
// a blacklisted account that is rejected by the authorization gate.
type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	UserName     string    `bson:"userName" json:"userName"`
	FullName     string    `bson:"fullName" json:"fullName"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password" json:"-"`
	Role         Role      `bson:"role" json:"role"`
	IsActive     bool      `bson:"isActive" json:"isActive"`
	RefreshToken string    `bson:"refreshToken,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
