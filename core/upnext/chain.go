package upnext

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"Bt1QPlayer/logger"
	"Bt1QPlayer/model"
)

// ErrNoResults means every source came back empty.
var ErrNoResults = errors.New("upnext: no results")

// Source is one provider of up-next tracks.
type Source interface {
	Name() string
	UpNext(ctx context.Context, mediaID string) ([]model.Track, error)
}

// Chain asks its sources in order and keeps the first useful answer.
type Chain struct {
	sources []Source
	limit   int
}

func NewChain(limit int, sources ...Source) *Chain {
	return &Chain{sources: sources, limit: limit}
}

// UpNext returns cleaned tracks from the first source that yields any.
func (c *Chain) UpNext(ctx context.Context, mediaID string) ([]model.Track, error) {
	var errs []error
	for _, src := range c.sources {
		tracks, err := src.UpNext(ctx, mediaID)
		if err != nil {
			logger.Warn("up-next source failed",
				logger.String("source", src.Name()), logger.String("mediaId", mediaID), logger.ErrorField(err))
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		tracks = Clean(mediaID, tracks, c.limit)
		if len(tracks) > 0 {
			logger.Debug("up-next resolved",
				logger.String("source", src.Name()), logger.String("mediaId", mediaID), logger.Int("tracks", len(tracks)))
			return tracks, nil
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, ErrNoResults
}

// Clean drops unplayable tracks and the seed, removes duplicate media ids
// and caps the list at limit (no cap when limit <= 0).
func Clean(seed string, tracks []model.Track, limit int) []model.Track {
	out := lo.Filter(tracks, func(t model.Track, _ int) bool {
		return t.Playable() && t.MediaID != seed
	})
	out = lo.UniqBy(out, func(t model.Track) string { return t.MediaID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
