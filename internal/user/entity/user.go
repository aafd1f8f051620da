package entity

import "time"

// User represents an account row in the `users` table.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	PasswordAlgo string
	Country      string
	CreatedAt    time.Time
}

// Summary is the public projection of a user returned to clients.
// It never carries the password hash.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email}
}
