package dto

import "time"

// UserResponse represents a user without credential material.
type UserResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       *string   `json:"email,omitempty"`
	PhoneNumber *string   `json:"phone_number,omitempty"`
	Role        string    `json:"role"`
	LocationID  *string   `json:"location_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AuthResponse couples an issued token with the authenticated user.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
