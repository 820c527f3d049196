package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Bt1QPlayer/model"
)

// HistoryRepository 播放历史数据访问接口
type HistoryRepository interface {
	RecordPlay(ctx context.Context, listenerID string, t model.Track) error
	// RecordCompletion counts a play that reached its natural end.
	RecordCompletion(ctx context.Context, listenerID string, t model.Track) error
	Recent(ctx context.Context, listenerID string, limit int) ([]*model.PlayHistory, error)
	TopTracks(ctx context.Context, listenerID string, limit int) ([]*model.TrackStat, error)
}

// gormHistoryRepository GORM 实现
type gormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository 创建 GORM 历史仓库
func NewGormHistoryRepository(db *gorm.DB) HistoryRepository {
	return &gormHistoryRepository{db: db}
}

func statConflict(t model.Track, now time.Time, counter string) clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{{Name: "listener_id"}, {Name: "media_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			counter:       gorm.Expr(counter + " + 1"),
			"title":       t.Title,
			"artist":      t.Artist,
			"last_played": now,
		}),
	}
}

// RecordPlay 记录一次播放并累加统计
func (r *gormHistoryRepository) RecordPlay(ctx context.Context, listenerID string, t model.Track) error {
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		h := &model.PlayHistory{
			ListenerID: listenerID,
			TrackID:    t.ID,
			MediaID:    t.MediaID,
			Title:      t.Title,
			Artist:     t.Artist,
			Thumbnail:  t.Thumbnail,
			Album:      t.Album,
			PlayedAt:   now,
		}
		if err := tx.Create(h).Error; err != nil {
			return err
		}
		stat := &model.TrackStat{
			ListenerID: listenerID,
			MediaID:    t.MediaID,
			Title:      t.Title,
			Artist:     t.Artist,
			Plays:      1,
			LastPlayed: now,
		}
		return tx.Clauses(statConflict(t, now, "plays")).Create(stat).Error
	})
}

// RecordCompletion 记录一次完整播放
func (r *gormHistoryRepository) RecordCompletion(ctx context.Context, listenerID string, t model.Track) error {
	now := time.Now()
	stat := &model.TrackStat{
		ListenerID:  listenerID,
		MediaID:     t.MediaID,
		Title:       t.Title,
		Artist:      t.Artist,
		Completions: 1,
		LastPlayed:  now,
	}
	return r.db.WithContext(ctx).Clauses(statConflict(t, now, "completions")).Create(stat).Error
}

// Recent 获取最近播放
func (r *gormHistoryRepository) Recent(ctx context.Context, listenerID string, limit int) ([]*model.PlayHistory, error) {
	var rows []*model.PlayHistory
	err := r.db.WithContext(ctx).
		Where("listener_id = ?", listenerID).
		Order("played_at DESC").
		Limit(clampLimit(limit)).
		Find(&rows).Error
	return rows, err
}

// TopTracks 获取播放最多的歌曲
func (r *gormHistoryRepository) TopTracks(ctx context.Context, listenerID string, limit int) ([]*model.TrackStat, error) {
	var rows []*model.TrackStat
	err := r.db.WithContext(ctx).
		Where("listener_id = ?", listenerID).
		Order("plays DESC, completions DESC, last_played DESC").
		Limit(clampLimit(limit)).
		Find(&rows).Error
	return rows, err
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}
