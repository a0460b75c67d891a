package dto

import "time"

type ProfileResponse struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Bio       string `json:"bio"`
	Phone     string `json:"phone"`
	Location  string `json:"location"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type ProfileUpdateRequest struct {
	FullName *string `json:"full_name"`
	Bio      *string `json:"bio"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
}

type LoginRecordResponse struct {
	ID        int64     `json:"id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginHistoryResponse struct {
	Logins []LoginRecordResponse `json:"logins"`
}

type AvatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}
