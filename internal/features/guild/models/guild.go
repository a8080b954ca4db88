package models

import "time"

// GuildSettings is the per-server preference record, keyed by guild ID.
type GuildSettings struct {
	ID        string    `json:"id"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const DefaultTimezone = "UTC"
