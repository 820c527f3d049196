package model

import "time"

// PlayerPhase is the lifecycle phase of the embedded player as seen by the
// session controller.
type PlayerPhase string

const (
	PhaseIdle      PlayerPhase = "idle"
	PhaseLoading   PlayerPhase = "loading"
	PhasePlaying   PlayerPhase = "playing"
	PhasePaused    PlayerPhase = "paused"
	PhaseBuffering PlayerPhase = "buffering"
	PhaseEnded     PlayerPhase = "ended"
)

// PlaybackState is a read-only snapshot of a listening session pushed to UI
// consumers. Positions and durations are seconds.
type PlaybackState struct {
	SessionID string      `json:"sessionId,omitempty"`
	Phase     PlayerPhase `json:"phase"`
	Current   *Track      `json:"current,omitempty"`
	IsPlaying bool        `json:"isPlaying"`
	IsLoading bool        `json:"isLoading"`
	// Ready is set once the player confirmed playback of Current.
	Ready    bool    `json:"ready"`
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
	Volume   int     `json:"volume"`

	Lyrics         []LyricLine `json:"lyrics"`
	LyricsLoading  bool        `json:"lyricsLoading"`
	LyricsNotFound bool        `json:"lyricsNotFound"`
	LyricIndex     int         `json:"lyricIndex"`

	Queue       []Track    `json:"queue"`
	QueueIndex  int        `json:"queueIndex"`
	QueueOwner  QueueOwner `json:"queueOwner,omitempty"`
	Suggestions []Track    `json:"suggestions,omitempty"`
	// SuggestionsLoading is set while post-queue suggestions are fetched.
	SuggestionsLoading bool `json:"suggestionsLoading"`

	Crossfade     int        `json:"crossfade"`
	StopAt        float64    `json:"stopAt,omitempty"`
	PendingStopAt float64    `json:"pendingStopAt,omitempty"`
	SleepAt       *time.Time `json:"sleepAt,omitempty"`
	SleepAtEnd    bool       `json:"sleepAtTrackEnd,omitempty"`
}
