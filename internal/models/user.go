// Package models contains data models for the todo service.
package models

import "time"

// AuthProvider identifies the origin of a user's identity.
type AuthProvider string

const (
	// AuthProviderPassword marks users registered locally with email and password.
	AuthProviderPassword AuthProvider = "PASSWORD"
	// AuthProviderGoogle marks users signed in through Google OAuth.
	AuthProviderGoogle AuthProvider = "GOOGLE"
)

// External reports whether the provider is a third-party identity source.
func (p AuthProvider) External() bool {
	return p != AuthProviderPassword
}

// User represents an authenticated user in the system. A user record is
// created either from a password registration or from an external provider
// callback; AuthProvider is fixed at creation and never changes.
type User struct {
	ID           int64        `json:"id" gorm:"primaryKey"`
	Email        string       `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Username     string       `json:"username" gorm:"size:100"`
	PasswordHash string       `json:"-" gorm:"size:255"`
	AuthProvider AuthProvider `json:"auth_provider" gorm:"size:20;not null;uniqueIndex:idx_users_provider_subject"`
	// ProviderSubject holds the stable subject identifier issued by the
	// external provider ("sub" claim). Nil for password users so the
	// composite unique index only binds external identities.
	ProviderSubject *string   `json:"-" gorm:"size:255;uniqueIndex:idx_users_provider_subject"`
	Enabled         bool      `json:"enabled" gorm:"not null;default:true"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the database table name for the User model.
func (User) TableName() string {
	return "users"
}
