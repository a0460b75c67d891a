package model

import "time"

type LoginRecord struct {
	ID        int64
	UserID    int64
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}
