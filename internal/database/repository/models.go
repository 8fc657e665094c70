package repository

import "time"

// Session represents the locally persisted identity. The rest of the app
// only ever reads UserID from it; mutations carry it as a correlation field.
type Session struct {
	ID        string
	UserID    string
	Role      string
	CreatedAt time.Time
}
