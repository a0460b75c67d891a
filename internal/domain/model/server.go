package model

import "time"

// MonitoredServer is a user-added endpoint tracked on the dashboard. The owner
// is fixed at creation and rows are never visible across owners.
type MonitoredServer struct {
	ID        int64
	OwnerID   int64
	Name      string
	Address   string
	CreatedAt time.Time
}
