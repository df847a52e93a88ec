// Package models contains data structures for the application's domain models.
package models

import "time"

// UserProfile mirrors the identity provider's account record. The provider
// remains the source of truth for authentication; this row carries the
// metadata the rest of the application reads.
type UserProfile struct {
	UID           string    `gorm:"primaryKey;size:36" json:"uid"`
	Email         string    `gorm:"index;not null" json:"email"`
	DisplayName   string    `json:"displayName"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	LastLoginAt   time.Time `json:"lastLoginAt"`
}

// TableName keeps the collection name from the original schema.
func (UserProfile) TableName() string {
	return "users"
}
