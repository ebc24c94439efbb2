package types

import "time"

// UserRegisteredEvent is published after a user record has been created.
// It never carries credential material.
type UserRegisteredEvent struct {
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registeredAt"`
}
