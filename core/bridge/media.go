package bridge

import (
	"Bt1QPlayer/core/player"
)

// MediaSession forwards OS media control updates to the player page, which
// owns the platform media session.
type MediaSession struct {
	hub       *Hub
	sessionID string
}

func NewMediaSession(hub *Hub, sessionID string) *MediaSession {
	return &MediaSession{hub: hub, sessionID: sessionID}
}

func (m *MediaSession) send(data MediaData) error {
	msg, err := NewMessage(MsgTypeMedia, m.sessionID, data)
	if err != nil {
		return err
	}
	return m.hub.SendToPlayer(m.sessionID, msg)
}

func (m *MediaSession) SetActionHandlers(actions []player.MediaAction) error {
	return m.send(MediaData{Kind: "actions", Actions: actions})
}

func (m *MediaSession) SetMetadata(md player.MediaMetadata) error {
	return m.send(MediaData{Kind: "metadata", Metadata: &md})
}

func (m *MediaSession) SetPlaybackState(state string) error {
	return m.send(MediaData{Kind: "state", State: state})
}

func (m *MediaSession) SetPositionState(duration, position float64) error {
	return m.send(MediaData{Kind: "position", Duration: duration, Position: position})
}
