package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Bt1QPlayer/model"
)

// LibraryRepository 收藏歌曲数据访问接口
type LibraryRepository interface {
	Like(ctx context.Context, listenerID string, t model.Track) error
	Unlike(ctx context.Context, listenerID, trackID string) error
	IsLiked(ctx context.Context, listenerID, trackID string) (bool, error)
	Liked(ctx context.Context, listenerID string, limit, offset int) ([]*model.LikedSong, error)
}

type gormLibraryRepository struct {
	db *gorm.DB
}

// NewGormLibraryRepository 创建 GORM 收藏仓库
func NewGormLibraryRepository(db *gorm.DB) LibraryRepository {
	return &gormLibraryRepository{db: db}
}

// Like is idempotent; liking again refreshes the stored metadata.
func (r *gormLibraryRepository) Like(ctx context.Context, listenerID string, t model.Track) error {
	row := &model.LikedSong{
		ListenerID: listenerID,
		TrackID:    t.ID,
		MediaID:    t.MediaID,
		Title:      t.Title,
		Artist:     t.Artist,
		Thumbnail:  t.Thumbnail,
		Album:      t.Album,
		Duration:   t.Duration,
		LikedAt:    time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "listener_id"}, {Name: "track_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"media_id", "title", "artist", "thumbnail", "album", "duration"}),
	}).Create(row).Error
}

func (r *gormLibraryRepository) Unlike(ctx context.Context, listenerID, trackID string) error {
	return r.db.WithContext(ctx).
		Where("listener_id = ? AND track_id = ?", listenerID, trackID).
		Delete(&model.LikedSong{}).Error
}

func (r *gormLibraryRepository) IsLiked(ctx context.Context, listenerID, trackID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.LikedSong{}).
		Where("listener_id = ? AND track_id = ?", listenerID, trackID).
		Count(&n).Error
	return n > 0, err
}

// Liked 分页获取收藏，最新的在前
func (r *gormLibraryRepository) Liked(ctx context.Context, listenerID string, limit, offset int) ([]*model.LikedSong, error) {
	if offset < 0 {
		offset = 0
	}
	var rows []*model.LikedSong
	err := r.db.WithContext(ctx).
		Where("listener_id = ?", listenerID).
		Order("liked_at DESC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}
