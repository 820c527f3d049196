package model

// LyricLine is one timed caption. Lines for a track are ordered by StartMs.
type LyricLine struct {
	ID      string `json:"id"`
	StartMs int64  `json:"start_time_ms"`
	EndMs   int64  `json:"end_time_ms"`
	Text    string `json:"text"`
}
