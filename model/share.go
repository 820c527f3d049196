package model

import "time"

// Clip is a shared link to a track, optionally truncated to [Start, StopAt)
// whole seconds. StopAt is zero when the clip plays to the end.
type Clip struct {
	ID        string    `json:"id"`
	Track     Track     `json:"track"`
	Start     int       `json:"start"`
	StopAt    int       `json:"stopAt,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Normalize clamps negative offsets and drops a stop offset that is not
// after the start offset.
func (c *Clip) Normalize() {
	if c.Start < 0 {
		c.Start = 0
	}
	if c.StopAt <= c.Start {
		c.StopAt = 0
	}
}
