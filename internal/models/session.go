package models

import "time"

type Session struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	Remember  bool      `json:"remember"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
