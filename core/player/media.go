package player

import (
	"Bt1QPlayer/logger"
)

// MediaAction is an OS-level media control.
type MediaAction string

const (
	ActionPlay     MediaAction = "play"
	ActionPause    MediaAction = "pause"
	ActionStop     MediaAction = "stop"
	ActionPrevious MediaAction = "previoustrack"
	ActionNext     MediaAction = "nexttrack"
	ActionSeekTo   MediaAction = "seekto"
)

// SupportedActions lists the controls registered with the media session.
// Relative seeking is left unregistered.
var SupportedActions = []MediaAction{
	ActionPlay, ActionPause, ActionStop, ActionPrevious, ActionNext, ActionSeekTo,
}

// MediaMetadata is what the OS shows for the current track.
type MediaMetadata struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Album   string `json:"album,omitempty"`
	Artwork string `json:"artwork,omitempty"`
}

// MediaSession mirrors playback into the platform's media controls. Every
// method is best effort.
type MediaSession interface {
	SetActionHandlers(actions []MediaAction) error
	SetMetadata(md MediaMetadata) error
	// SetPlaybackState accepts "playing", "paused" or "none".
	SetPlaybackState(state string) error
	SetPositionState(duration, position float64) error
}

// HandleMediaAction routes an OS media control to the controller.
func (c *Controller) HandleMediaAction(action MediaAction, seekTime float64) error {
	switch action {
	case ActionPlay:
		return c.Resume()
	case ActionPause:
		return c.Pause()
	case ActionStop:
		c.Stop()
		return nil
	case ActionNext:
		return c.PlayNext()
	case ActionPrevious:
		return c.PlayPrev()
	case ActionSeekTo:
		return c.Seek(seekTime)
	default:
		return ErrUnknownAction
	}
}

func (c *Controller) mediaMetadataLocked() {
	m := c.opts.Media
	if m == nil || c.current == nil {
		return
	}
	md := MediaMetadata{
		Title:   c.current.Title,
		Artist:  c.current.Artist,
		Album:   c.current.Album,
		Artwork: c.current.Thumbnail,
	}
	if err := m.SetMetadata(md); err != nil {
		logger.Debug("media session metadata failed", logger.String("session", c.opts.SessionID), logger.ErrorField(err))
	}
}

func (c *Controller) mediaStateLocked() {
	m := c.opts.Media
	if m == nil {
		return
	}
	state := "none"
	switch {
	case c.current == nil:
	case c.isPlayingLocked():
		state = "playing"
	default:
		state = "paused"
	}
	if err := m.SetPlaybackState(state); err != nil {
		logger.Debug("media session state failed", logger.String("session", c.opts.SessionID), logger.ErrorField(err))
	}
}

// mediaPositionLocked reports position only when the duration is known.
func (c *Controller) mediaPositionLocked() {
	m := c.opts.Media
	if m == nil || c.duration <= 0 {
		return
	}
	pos := c.position
	if pos > c.duration {
		pos = c.duration
	}
	if pos < 0 {
		pos = 0
	}
	_ = m.SetPositionState(c.duration, pos)
}

func (c *Controller) registerMediaHandlers() {
	if c.opts.Media == nil {
		return
	}
	if err := c.opts.Media.SetActionHandlers(SupportedActions); err != nil {
		logger.Debug("media session handlers failed", logger.String("session", c.opts.SessionID), logger.ErrorField(err))
	}
}
