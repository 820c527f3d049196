package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"

	"Bt1QPlayer/core/upnext"
	"Bt1QPlayer/model"
)

// YTMusicPlugin searches YouTube Music tracks.
type YTMusicPlugin struct{}

func NewYTMusicPlugin() *YTMusicPlugin { return &YTMusicPlugin{} }

func (p *YTMusicPlugin) Source() string { return "ytmusic" }

func (p *YTMusicPlugin) Search(ctx context.Context, query string, limit int) ([]model.Track, error) {
	type answer struct {
		tracks []model.Track
		err    error
	}
	ch := make(chan answer, 1)

	// the ytmusic client takes no context
	go func() {
		r, err := ytmusic.TrackSearch(query).Next()
		if err != nil {
			ch <- answer{err: fmt.Errorf("ytmusic search: %w", err)}
			return
		}
		tracks := make([]model.Track, 0, len(r.Tracks))
		for _, v := range r.Tracks {
			if v.VideoID == "" {
				continue
			}
			names := make([]string, 0, len(v.Artists))
			for _, a := range v.Artists {
				names = append(names, a.Name)
			}
			t := model.Track{
				ID:        v.VideoID,
				MediaID:   v.VideoID,
				Title:     v.Title,
				Artist:    strings.Join(names, ", "),
				Album:     v.Album.Name,
				Thumbnail: "https://i.ytimg.com/vi/" + v.VideoID + "/hqdefault.jpg",
			}
			if len(v.Thumbnails) > 0 {
				t.Thumbnail = v.Thumbnails[len(v.Thumbnails)-1].URL
			}
			if v.Duration > 0 {
				t.Duration = upnext.FormatDuration(v.Duration)
			}
			tracks = append(tracks, t)
			if len(tracks) >= limit {
				break
			}
		}
		ch <- answer{tracks: tracks}
	}()

	select {
	case a := <-ch:
		return a.tracks, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// YouTubePlugin searches plain YouTube videos.
type YouTubePlugin struct {
	client *ytsearch.Client
}

func NewYouTubePlugin() *YouTubePlugin {
	return &YouTubePlugin{client: ytsearch.NewClient(nil)}
}

func (p *YouTubePlugin) Source() string { return "youtube" }

func (p *YouTubePlugin) Search(ctx context.Context, query string, limit int) ([]model.Track, error) {
	r, err := p.client.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}
	tracks := make([]model.Track, 0, len(r.Results))
	for _, v := range r.Results {
		if v.VideoID == "" {
			continue
		}
		tracks = append(tracks, model.Track{
			ID:        v.VideoID,
			MediaID:   v.VideoID,
			Title:     v.Title,
			Artist:    strings.TrimSuffix(v.Channel, " - Topic"),
			Thumbnail: "https://i.ytimg.com/vi/" + v.VideoID + "/hqdefault.jpg",
		})
		if len(tracks) >= limit {
			break
		}
	}
	return tracks, nil
}
