package models

import (
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        *string   `json:"phone,omitempty"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	ChannelEmail = "email"
	ChannelPhone = "phone"
)

// Passcode is a one-time code issued to an email address or phone number.
type Passcode struct {
	ID        int64     `json:"id"`
	RequestID string    `json:"request_id"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Code      string    `json:"-"`
	Channel   string    `json:"channel"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (p Passcode) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
