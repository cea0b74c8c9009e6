package model

import (
	"time"
)

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

func IsValidRole(role string) bool {
	return role == RoleStudent || role == RoleInstructor || role == RoleAdmin
}

func IsValidStatus(status string) bool {
	return status == StatusActive || status == StatusInactive || status == StatusSuspended
}

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	FirstLogin     bool      `json:"first_login"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
