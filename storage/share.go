package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"Bt1QPlayer/model"
)

var (
	ErrShareNotFound = errors.New("storage: share not found")
	ErrInvalidShare  = errors.New("storage: invalid share")
)

var shareIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{6,32}$`)

// objectStore is the subset of object storage the share store needs.
type objectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

type minioObjects struct {
	client *minio.Client
	bucket string
}

func (m *minioObjects) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (m *minioObjects) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	if _, err := obj.Stat(); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrShareNotFound
		}
		return nil, err
	}
	return io.ReadAll(obj)
}

// ShareStore keeps shared clips as JSON objects under shares/<id>.json.
type ShareStore struct {
	objects objectStore
}

// NewShareStore 创建分享存储
func NewShareStore(client *minio.Client, bucket string) *ShareStore {
	return &ShareStore{objects: &minioObjects{client: client, bucket: bucket}}
}

func shareKey(id string) string {
	return "shares/" + id + ".json"
}

// Save assigns an id and stores the clip.
func (s *ShareStore) Save(ctx context.Context, clip model.Clip) (*model.Clip, error) {
	if !clip.Track.Playable() {
		return nil, fmt.Errorf("%w: track has no media id", ErrInvalidShare)
	}
	clip.Normalize()
	clip.ID = strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	clip.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(&clip)
	if err != nil {
		return nil, err
	}
	if err := s.objects.Put(ctx, shareKey(clip.ID), data, "application/json"); err != nil {
		return nil, fmt.Errorf("store share: %w", err)
	}
	return &clip, nil
}

// Get loads a clip by id.
func (s *ShareStore) Get(ctx context.Context, id string) (*model.Clip, error) {
	if !shareIDPattern.MatchString(id) {
		return nil, ErrShareNotFound
	}
	data, err := s.objects.Get(ctx, shareKey(id))
	if err != nil {
		return nil, err
	}
	var clip model.Clip
	if err := json.Unmarshal(data, &clip); err != nil {
		return nil, fmt.Errorf("decode share %s: %w", id, err)
	}
	clip.Normalize()
	return &clip, nil
}
