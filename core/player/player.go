package player

import (
	"context"
	"errors"
	"time"

	"Bt1QPlayer/model"
)

var (
	// ErrLoadInProgress is returned when a play command arrives while another
	// load is still waiting for the player. The command is dropped.
	ErrLoadInProgress  = errors.New("player: load already in progress")
	ErrLoadTimeout     = errors.New("player: load timed out")
	ErrNotPlayable     = errors.New("player: track has no media id")
	ErrNoTrack         = errors.New("player: no track loaded")
	ErrIndexOutOfRange = errors.New("player: index out of range")
	ErrClosed          = errors.New("player: session closed")
	ErrInvalidSleep    = errors.New("player: sleep duration must be positive")
	ErrUnknownAction   = errors.New("player: unsupported media action")
)

// EventType is a state notification from the embedded player.
type EventType string

const (
	EventReady     EventType = "ready"
	EventPlaying   EventType = "playing"
	EventPaused    EventType = "paused"
	EventBuffering EventType = "buffering"
	EventEnded     EventType = "ended"
	EventError     EventType = "error"
	// EventReattached reports a player rebuilt on a new host page with the
	// last track reloaded. Host-side state such as media controls is gone.
	EventReattached EventType = "reattached"
)

// Event is delivered through the dispatch function handed to a PlayerFactory.
type Event struct {
	Type EventType
	Err  error
}

// EmbeddedPlayer is the third-party player the session drives. Only the
// Controller calls it.
type EmbeddedPlayer interface {
	LoadByID(mediaID string, startSeconds float64) error
	Play() error
	Pause() error
	SeekTo(seconds float64) error
	CurrentTime() (float64, error)
	Duration() (float64, error)
	SetVolume(volume int) error
	Mute() error
	Unmute() error
	Destroy() error
}

// PlayerFactory creates the session's single player instance. The player
// reports EventReady once through dispatch before it accepts loads.
type PlayerFactory func(dispatch func(Event)) (EmbeddedPlayer, error)

// LyricsService looks up timed lyrics. An empty result means no lyrics.
type LyricsService interface {
	Lookup(ctx context.Context, artist, title string) ([]model.LyricLine, error)
}

// ContinuationService returns "up next" candidates for a media id.
type ContinuationService interface {
	UpNext(ctx context.Context, mediaID string) ([]model.Track, error)
}

// HistoryRecorder receives plays and natural completions. Calls are best
// effort and made off the controller lock.
type HistoryRecorder interface {
	RecordPlay(ctx context.Context, track model.Track) error
	RecordCompletion(ctx context.Context, track model.Track) error
}

// Options tunes a Controller. Zero durations and thresholds fall back to
// defaults. Volume is taken as given, so zero starts muted; a negative
// Volume selects DefaultVolume.
type Options struct {
	SessionID string

	PollInterval        time.Duration
	FadeInterval        time.Duration
	AdvanceDelay        time.Duration
	LyricsTimeout       time.Duration
	ContinuationTimeout time.Duration
	// LoadTimeout bounds how long a load may wait for the player to start
	// or cue the track.
	LoadTimeout time.Duration
	// RestartThreshold is how far into a track "previous" restarts it
	// instead of moving back in the queue.
	RestartThreshold float64

	Volume    int
	Crossfade int

	Media    MediaSession
	History  HistoryRecorder
	OnChange func(model.PlaybackState)
}

const (
	DefaultPollInterval        = 500 * time.Millisecond
	DefaultFadeInterval        = 100 * time.Millisecond
	DefaultAdvanceDelay        = 50 * time.Millisecond
	DefaultLyricsTimeout       = 20 * time.Second
	DefaultContinuationTimeout = 30 * time.Second
	DefaultLoadTimeout         = 30 * time.Second
	DefaultRestartThreshold    = 3.0
	DefaultVolume              = 80
	MaxCrossfade               = 12
)

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.FadeInterval <= 0 {
		o.FadeInterval = DefaultFadeInterval
	}
	if o.AdvanceDelay <= 0 {
		o.AdvanceDelay = DefaultAdvanceDelay
	}
	if o.LyricsTimeout <= 0 {
		o.LyricsTimeout = DefaultLyricsTimeout
	}
	if o.ContinuationTimeout <= 0 {
		o.ContinuationTimeout = DefaultContinuationTimeout
	}
	if o.LoadTimeout <= 0 {
		o.LoadTimeout = DefaultLoadTimeout
	}
	if o.RestartThreshold <= 0 {
		o.RestartThreshold = DefaultRestartThreshold
	}
	if o.Volume < 0 {
		o.Volume = DefaultVolume
	}
	return o
}
