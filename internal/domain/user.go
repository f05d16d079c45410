package domain

import "time"

// User represents an account. On device only ID and Email matter (the session
// accessor exposes them); PasswordHash exists server-side only.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`    // Unique
	PasswordHash string    `bson:"passwordHash" json:"-"` // Never expose via JSON
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
