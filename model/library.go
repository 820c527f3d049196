package model

import "time"

// PlayHistory is one recorded play of a track by a listener.
type PlayHistory struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ListenerID string    `gorm:"size:64;index:idx_history_listener_played" json:"listenerId"`
	TrackID    string    `gorm:"size:128" json:"trackId"`
	MediaID    string    `gorm:"size:64;index" json:"videoId"`
	Title      string    `gorm:"size:255" json:"title"`
	Artist     string    `gorm:"size:255" json:"artist"`
	Thumbnail  string    `gorm:"size:512" json:"thumbnail"`
	Album      string    `gorm:"size:255" json:"album,omitempty"`
	PlayedAt   time.Time `gorm:"index:idx_history_listener_played" json:"playedAt"`
}

// TableName keeps the table name stable across GORM naming changes.
func (PlayHistory) TableName() string { return "play_history" }

// TrackStat aggregates plays per listener and track. Completions counts
// plays that reached the natural end without a skip.
type TrackStat struct {
	ListenerID  string    `gorm:"primaryKey;size:64" json:"listenerId"`
	MediaID     string    `gorm:"primaryKey;size:64" json:"videoId"`
	Title       string    `gorm:"size:255" json:"title"`
	Artist      string    `gorm:"size:255" json:"artist"`
	Plays       int64     `json:"plays"`
	Completions int64     `json:"completions"`
	LastPlayed  time.Time `json:"lastPlayed"`
}

func (TrackStat) TableName() string { return "track_stats" }

// LikedSong is a track saved to a listener's library.
type LikedSong struct {
	ListenerID string    `gorm:"primaryKey;size:64" json:"listenerId"`
	TrackID    string    `gorm:"primaryKey;size:128" json:"trackId"`
	MediaID    string    `gorm:"size:64" json:"videoId"`
	Title      string    `gorm:"size:255" json:"title"`
	Artist     string    `gorm:"size:255" json:"artist"`
	Thumbnail  string    `gorm:"size:512" json:"thumbnail"`
	Album      string    `gorm:"size:255" json:"album,omitempty"`
	Duration   string    `gorm:"size:16" json:"duration,omitempty"`
	LikedAt    time.Time `json:"likedAt"`
}

func (LikedSong) TableName() string { return "liked_songs" }

// Track converts the saved row back into a playable Track.
func (l LikedSong) Track() Track {
	return Track{
		ID:        l.TrackID,
		MediaID:   l.MediaID,
		Title:     l.Title,
		Artist:    l.Artist,
		Thumbnail: l.Thumbnail,
		Album:     l.Album,
		Duration:  l.Duration,
	}
}
