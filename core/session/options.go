package session

import (
	"context"

	"Bt1QPlayer/config"
	"Bt1QPlayer/core/player"
	"Bt1QPlayer/model"
	"Bt1QPlayer/repository"
)

// PlayerOptions derives controller tunables from the configuration. Per
// session fields (id, media session, callbacks) are filled by the Manager.
func PlayerOptions(cfg *config.Config) player.Options {
	return player.Options{
		PollInterval:  cfg.PollInterval,
		FadeInterval:  cfg.FadeInterval,
		AdvanceDelay:  cfg.AdvanceDelay,
		LyricsTimeout: cfg.LyricsTimeout,
		LoadTimeout:   cfg.LoadTimeout,
		Volume:        cfg.DefaultVolume,
		Crossfade:     cfg.DefaultCrossfade,
	}
}

// historyRecorder binds a listener to the history repository.
type historyRecorder struct {
	repo       repository.HistoryRepository
	listenerID string
}

func (h *historyRecorder) RecordPlay(ctx context.Context, t model.Track) error {
	return h.repo.RecordPlay(ctx, h.listenerID, t)
}

func (h *historyRecorder) RecordCompletion(ctx context.Context, t model.Track) error {
	return h.repo.RecordCompletion(ctx, h.listenerID, t)
}
