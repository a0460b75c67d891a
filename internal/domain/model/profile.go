package model

import "time"

type Profile struct {
	UserID    int64
	Username  string
	Email     string
	FullName  string
	Bio       string
	Phone     string
	Location  string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}
