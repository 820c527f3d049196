package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Bt1QPlayer/model"
)

type mockPlugin struct {
	source string
	tracks []model.Track
	err    error
	delay  time.Duration
}

func (m *mockPlugin) Source() string { return m.source }

func (m *mockPlugin) Search(ctx context.Context, query string, limit int) ([]model.Track, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.tracks, m.err
}

func tr(id, source string) model.Track {
	return model.Track{ID: id, MediaID: id, Title: source}
}

func TestManager_MergesInPriorityOrder(t *testing.T) {
	first := &mockPlugin{source: "ytmusic", tracks: []model.Track{tr("a", "ytmusic"), tr("b", "ytmusic")}}
	second := &mockPlugin{source: "youtube", tracks: []model.Track{tr("b", "youtube"), tr("c", "youtube"), {ID: "x"}}}

	m := NewManager(time.Second, first, second)
	got, err := m.Search(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 merged tracks, got %d", len(got))
	}
	if got[1].MediaID != "b" || got[1].Title != "ytmusic" {
		t.Errorf("Expected first plugin to win duplicate b, got %+v", got[1])
	}
}

func TestManager_PartialFailure(t *testing.T) {
	bad := &mockPlugin{source: "bad", err: errors.New("down")}
	slow := &mockPlugin{source: "slow", tracks: []model.Track{tr("z", "slow")}, delay: time.Second}
	good := &mockPlugin{source: "good", tracks: []model.Track{tr("a", "good")}}

	m := NewManager(50*time.Millisecond, bad, slow, good)
	got, err := m.Search(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("Expected partial results, got error %v", err)
	}
	if len(got) != 1 || got[0].MediaID != "a" {
		t.Errorf("Unexpected results %+v", got)
	}
}

func TestManager_AllFail(t *testing.T) {
	m := NewManager(time.Second, &mockPlugin{source: "a", err: errors.New("x")})
	if _, err := m.Search(context.Background(), "q", 5); err == nil {
		t.Error("Expected error when every plugin fails")
	}
	if _, err := m.Search(context.Background(), "   ", 5); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Expected ErrEmptyQuery, got %v", err)
	}
}

func TestManager_Get(t *testing.T) {
	m := NewManager(time.Second)
	m.Register(&mockPlugin{source: "ytmusic"})
	if m.Get("ytmusic") == nil {
		t.Error("Expected registered plugin")
	}
	if m.Get("nope") != nil {
		t.Error("Expected nil for unknown source")
	}
}

func TestAPIPlugin_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.URL.Query().Get("q") != "queen" || r.URL.Query().Get("limit") != "3" {
			t.Errorf("Unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"1","title":"Song","artist":"Queen","videoId":"v1"}]}`))
	}))
	defer srv.Close()

	got, err := NewAPIPlugin(srv.URL, time.Second, nil).Search(context.Background(), "queen", 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 || got[0].MediaID != "v1" {
		t.Errorf("Unexpected results %+v", got)
	}
}
