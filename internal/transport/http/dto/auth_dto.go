package dto

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type SSOLoginRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

type MeResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type AuthResponse struct {
	Token        string     `json:"token"`
	ExpiresInSec int64      `json:"expires_in_sec"`
	Me           MeResponse `json:"me"`
}

type CheckResponse struct {
	Authenticated bool       `json:"authenticated"`
	Me            MeResponse `json:"me"`
}

type SSOStartResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}
