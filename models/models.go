package models

import "time"

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type Client struct {
	ID          int        `json:"id"`
	OwnerID     int        `json:"owner_id"`
	Name        string     `json:"name"`
	Email       *string    `json:"email"`
	Phone       *string    `json:"phone"`
	CreatedAt   time.Time  `json:"created_at"`
	LastContact *time.Time `json:"last_contact"`
}

type ClientWithNotes struct {
	Client
	Notes []Note `json:"notes"`
}

type Note struct {
	ID        int       `json:"id"`
	ClientID  int       `json:"client_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
