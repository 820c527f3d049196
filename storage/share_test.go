package storage

import (
	"context"
	"errors"
	"testing"

	"Bt1QPlayer/model"
)

type memObjects struct {
	data map[string][]byte
}

func (m *memObjects) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m.data[key] = data
	return nil
}

func (m *memObjects) Get(ctx context.Context, key string) ([]byte, error) {
	d, ok := m.data[key]
	if !ok {
		return nil, ErrShareNotFound
	}
	return d, nil
}

func newMemStore() (*ShareStore, *memObjects) {
	mem := &memObjects{data: map[string][]byte{}}
	return &ShareStore{objects: mem}, mem
}

func TestShareStore_SaveAndGet(t *testing.T) {
	s, mem := newMemStore()
	ctx := context.Background()

	saved, err := s.Save(ctx, model.Clip{
		Track:  model.Track{ID: "t1", MediaID: "v1", Title: "Song"},
		Start:  30,
		StopAt: 45,
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.ID == "" || saved.CreatedAt.IsZero() {
		t.Fatalf("Expected id and timestamp, got %+v", saved)
	}
	if _, ok := mem.data["shares/"+saved.ID+".json"]; !ok {
		t.Errorf("Expected object under shares/<id>.json")
	}

	got, err := s.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Track.MediaID != "v1" || got.Start != 30 || got.StopAt != 45 {
		t.Errorf("Unexpected clip %+v", got)
	}
}

func TestShareStore_StopNotAfterStartDropped(t *testing.T) {
	s, _ := newMemStore()
	saved, err := s.Save(context.Background(), model.Clip{
		Track:  model.Track{ID: "t1", MediaID: "v1"},
		Start:  60,
		StopAt: 30,
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.StopAt != 0 {
		t.Errorf("Expected stop offset to be dropped, got %d", saved.StopAt)
	}
}

func TestShareStore_Errors(t *testing.T) {
	s, _ := newMemStore()
	ctx := context.Background()

	if _, err := s.Save(ctx, model.Clip{Track: model.Track{ID: "x"}}); !errors.Is(err, ErrInvalidShare) {
		t.Errorf("Expected ErrInvalidShare, got %v", err)
	}
	if _, err := s.Get(ctx, "../etc/passwd"); !errors.Is(err, ErrShareNotFound) {
		t.Errorf("Expected ErrShareNotFound for bad id, got %v", err)
	}
	if _, err := s.Get(ctx, "abcdef123456"); !errors.Is(err, ErrShareNotFound) {
		t.Errorf("Expected ErrShareNotFound, got %v", err)
	}
}
