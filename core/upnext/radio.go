package upnext

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"Bt1QPlayer/model"
)

// RadioClient reads the YouTube Music radio mix seeded by a video with
// yt-dlp. It needs the yt-dlp binary on PATH.
type RadioClient struct {
	limit int
	proxy string
}

func NewRadioClient(limit int, proxy string) *RadioClient {
	if limit <= 0 {
		limit = 25
	}
	return &RadioClient{limit: limit, proxy: proxy}
}

func (c *RadioClient) Name() string { return "radio" }

// RadioURL is the radio mix playlist for a video id.
func RadioURL(mediaID string) string {
	return "https://music.youtube.com/watch?v=" + mediaID + "&list=RDAMVM" + mediaID
}

// UpNext extracts the first entries of the radio mix. The seed is
// usually the first entry and is filtered out later by Clean.
func (c *RadioClient) UpNext(ctx context.Context, mediaID string) ([]model.Track, error) {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreConfig().
		FlatPlaylist().
		Print("%(id)s\t%(title)s\t%(uploader)s\t%(duration)s").
		PlaylistItems(fmt.Sprintf("1-%d", c.limit+1))
	if c.proxy != "" {
		cmd.Proxy(c.proxy)
	}

	res, err := cmd.Run(ctx, RadioURL(mediaID), "--yes-playlist")
	if err != nil {
		return nil, fmt.Errorf("yt-dlp radio %s: %w", mediaID, err)
	}
	return parseRadioOutput(res.Stdout), nil
}

// parseRadioOutput turns yt-dlp's tab separated print lines into tracks.
func parseRadioOutput(out string) []model.Track {
	var tracks []model.Track
	for _, l := range strings.Split(strings.TrimSpace(out), "\n") {
		ps := strings.Split(l, "\t")
		if len(ps) < 3 {
			continue
		}
		id := strings.TrimSpace(ps[0])
		if id == "" || id == "NA" || ps[1] == "" || ps[1] == "NA" {
			continue
		}
		t := model.Track{
			ID:        id,
			MediaID:   id,
			Title:     ps[1],
			Thumbnail: thumbnailURL(id),
		}
		if ps[2] != "NA" {
			t.Artist = strings.TrimSuffix(ps[2], " - Topic")
		}
		if len(ps) > 3 {
			if secs, err := strconv.ParseFloat(ps[3], 64); err == nil && secs > 0 {
				t.Duration = FormatDuration(int(secs))
			}
		}
		tracks = append(tracks, t)
	}
	return tracks
}

func thumbnailURL(id string) string {
	return "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg"
}

// FormatDuration renders seconds as m:ss or h:mm:ss.
func FormatDuration(secs int) string {
	if secs < 0 {
		secs = 0
	}
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
