package models

import (
	"time"
)

const (
	RoleUser   = "user"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusDisabled  = "disabled"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`   // "user", "editor", "admin"
	Status       string    `json:"status"` // "active", "suspended", "disabled"
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StatusError maps a non-active status to its sentinel error.
func (u *User) StatusError() error {
	switch u.Status {
	case StatusSuspended:
		return ErrAccountSuspended
	case StatusDisabled:
		return ErrAccountDisabled
	}
	return nil
}

// UserUpdate holds the fields an admin may change. Nil means unchanged.
type UserUpdate struct {
	Name   *string
	Role   *string
	Status *string
}
