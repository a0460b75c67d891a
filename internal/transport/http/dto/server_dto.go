package dto

import "time"

type ServerCreateRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type ServerResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

type ServerListResponse struct {
	Servers []ServerResponse `json:"servers"`
}
