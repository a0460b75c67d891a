package model

import "time"

type User struct {
	ID           int64
	SSOSubject   string
	Username     string
	Email        string
	PasswordHash string
	AvatarURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
