package upnext

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"Bt1QPlayer/logger"
	"Bt1QPlayer/model"
)

type mockSource struct {
	name   string
	calls  int
	tracks []model.Track
	err    error
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) UpNext(ctx context.Context, mediaID string) ([]model.Track, error) {
	m.calls++
	return m.tracks, m.err
}

func tr(id string) model.Track { return model.Track{ID: id, MediaID: id, Title: id} }

func TestClean(t *testing.T) {
	in := []model.Track{tr("seed"), tr("a"), {ID: "nomedia"}, tr("b"), tr("a"), tr("c")}
	out := Clean("seed", in, 2)
	if len(out) != 2 || out[0].MediaID != "a" || out[1].MediaID != "b" {
		t.Errorf("Unexpected cleaned list %+v", out)
	}
	if got := Clean("seed", in, 0); len(got) != 3 {
		t.Errorf("Expected no cap with limit 0, got %d", len(got))
	}
}

func TestChain_FallsThrough(t *testing.T) {
	failing := &mockSource{name: "api", err: errors.New("down")}
	empty := &mockSource{name: "empty", tracks: []model.Track{tr("seed")}}
	good := &mockSource{name: "radio", tracks: []model.Track{tr("x"), tr("y")}}
	unused := &mockSource{name: "unused", tracks: []model.Track{tr("z")}}

	c := NewChain(10, failing, empty, good, unused)
	tracks, err := c.UpNext(context.Background(), "seed")
	if err != nil {
		t.Fatalf("UpNext failed: %v", err)
	}
	if len(tracks) != 2 {
		t.Errorf("Expected 2 tracks, got %d", len(tracks))
	}
	if unused.calls != 0 {
		t.Errorf("Expected chain to stop at first useful source")
	}
}

func TestChain_AllFail(t *testing.T) {
	c := NewChain(10, &mockSource{name: "a", err: errors.New("x")})
	if _, err := c.UpNext(context.Background(), "seed"); err == nil {
		t.Error("Expected error when every source fails")
	}

	c = NewChain(10, &mockSource{name: "a"})
	if _, err := c.UpNext(context.Background(), "seed"); !errors.Is(err, ErrNoResults) {
		t.Errorf("Expected ErrNoResults, got %v", err)
	}
}

func TestAPIClient_UpNext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/next/abc123" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"1","title":"One","artist":"A","videoId":"v1"}]}`))
	}))
	defer srv.Close()

	tracks, err := NewAPIClient(srv.URL, time.Second, nil).UpNext(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("UpNext failed: %v", err)
	}
	if len(tracks) != 1 || tracks[0].MediaID != "v1" {
		t.Errorf("Unexpected tracks %+v", tracks)
	}
}

func TestAPIClient_UpNextFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"unknown id"}`))
	}))
	defer srv.Close()

	if _, err := NewAPIClient(srv.URL, time.Second, nil).UpNext(context.Background(), "x"); err == nil {
		t.Error("Expected error for unsuccessful envelope")
	}
}

func TestParseRadioOutput(t *testing.T) {
	out := "seed\tSeed Song\tSeed Artist - Topic\t200\n" +
		"v2\tSecond\tNA\t65.0\n" +
		"NA\tBroken\tX\t1\n" +
		"short line\n"

	tracks := parseRadioOutput(out)
	if len(tracks) != 2 {
		t.Fatalf("Expected 2 tracks, got %d: %+v", len(tracks), tracks)
	}
	if tracks[0].Artist != "Seed Artist" || tracks[0].Duration != "3:20" {
		t.Errorf("Unexpected first track %+v", tracks[0])
	}
	if tracks[1].Artist != "" || tracks[1].Duration != "1:05" || tracks[1].Thumbnail == "" {
		t.Errorf("Unexpected second track %+v", tracks[1])
	}
}

func TestRadioURL(t *testing.T) {
	want := "https://music.youtube.com/watch?v=abc&list=RDAMVMabc"
	if got := RadioURL("abc"); got != want {
		t.Errorf("RadioURL = %s, want %s", got, want)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(3725); got != "1:02:05" {
		t.Errorf("Expected 1:02:05, got %s", got)
	}
	if got := FormatDuration(59); got != "0:59" {
		t.Errorf("Expected 0:59, got %s", got)
	}
}

func TestChain_LogsFailingSource(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	defer logger.Replace(zap.New(core))()

	c := NewChain(5, &mockSource{name: "api", err: errors.New("down")}, &mockSource{name: "radio", tracks: []model.Track{tr("x")}})
	if _, err := c.UpNext(context.Background(), "seed"); err != nil {
		t.Fatalf("UpNext failed: %v", err)
	}

	warned := logs.FilterMessage("up-next source failed").All()
	if len(warned) != 1 {
		t.Fatalf("Expected one warning, got %d", len(warned))
	}
	if src := warned[0].ContextMap()["source"]; src != "api" {
		t.Errorf("Expected failing source in log, got %v", src)
	}
}
