package model

import "time"

// User is the single local account that owns the board.
// The password is kept in the system keyring, never in this record.
type User struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// SignupInput is the registration form.
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginInput is the login form.
type LoginInput struct {
	Email    string
	Password string
}
