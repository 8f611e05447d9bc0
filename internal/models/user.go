package models

import (
	"time"
)

// User is the studio account projection the finance module touches.
// Accounts are managed elsewhere; only the session balance is written here.
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Email             string    `gorm:"uniqueIndex;not null" json:"email"`
	FullName          string    `json:"full_name"`
	Role              string    `gorm:"default:member" json:"role"`
	RemainingSessions int       `gorm:"not null;default:0" json:"remaining_sessions"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// IsAdmin returns true if user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Role constants
const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleMember = "member"
)
