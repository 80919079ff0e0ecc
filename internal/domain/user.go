package domain

import "time"

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for registered accounts. Email doubles as the
// token subject.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Authorities  []string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
