package model

import "strings"

// Track is a playable unit as returned by search, album, playlist and
// trending endpoints, or built from a shared link. Tracks are values and are
// replaced rather than mutated.
type Track struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Thumbnail string `json:"thumbnail"`
	// MediaID is what the embedded player loads. It differs from ID when the
	// catalogue and the player use different identifiers.
	MediaID  string `json:"videoId"`
	Duration string `json:"duration,omitempty"`
	Album    string `json:"album,omitempty"`

	IsPodcast    bool   `json:"isPodcast,omitempty"`
	PodcastID    string `json:"podcastId,omitempty"`
	PodcastTitle string `json:"podcastTitle,omitempty"`
}

// Playable reports whether the track has a media identifier.
func (t Track) Playable() bool {
	return strings.TrimSpace(t.MediaID) != ""
}

// QueueOwner marks who built the current queue. The empty owner means no
// queue; QueueOwnerContinuation is an up-next list fetched for one manually
// chosen track; anything else is a user-curated list such as "playlist:42".
type QueueOwner string

const (
	QueueOwnerNone         QueueOwner = ""
	QueueOwnerContinuation QueueOwner = "continuation"
	QueueOwnerUser         QueueOwner = "queue"
	QueueOwnerPlaylist     QueueOwner = "playlist"
)

// UserCurated reports whether the queue came from an explicit user action.
func (o QueueOwner) UserCurated() bool {
	return o != QueueOwnerNone && o != QueueOwnerContinuation
}
