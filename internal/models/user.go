// Package models contains the row types shared by repositories and services.
package models

import "time"

// User is an account row. PasswordHash is only populated by the
// credentials lookup; profile reads leave it empty.
type User struct {
	ID           int64
	Email        string
	Name         string
	IsActive     bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
