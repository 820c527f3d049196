package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"Bt1QPlayer/config"
	"Bt1QPlayer/core/bridge"
	"Bt1QPlayer/core/player"
	"Bt1QPlayer/model"
)

func setupManager(t *testing.T) (*Manager, *bridge.Hub) {
	t.Helper()
	hub := bridge.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	m := NewManager(Deps{Hub: hub}, player.Options{
		PollInterval: time.Hour,
		AdvanceDelay: time.Millisecond,
		Volume:       80,
	}, time.Minute)
	t.Cleanup(m.CloseAll)
	return m, hub
}

func connect(t *testing.T, hub *bridge.Hub, sessionID, role string) *bridge.Client {
	t.Helper()
	c := bridge.NewClient(hub, nil, sessionID, role)
	hub.Register(c)
	waitFor(t, func() bool { return hub.ClientCount(sessionID) > 0 })
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// waitMessage skips messages until one matches.
func waitMessage(t *testing.T, c *bridge.Client, match func(*bridge.Message) bool) *bridge.Message {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				t.Fatal("client channel closed")
			}
			var msg bridge.Message
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("Invalid message: %v", err)
			}
			if match(&msg) {
				return &msg
			}
		case <-timeout:
			t.Fatal("Expected message not received")
		}
	}
}

func isCommand(name string) func(*bridge.Message) bool {
	return func(msg *bridge.Message) bool {
		if msg.Type != bridge.MsgTypeCommand {
			return false
		}
		var cmd bridge.CommandData
		return msg.Decode(&cmd) == nil && cmd.Name == name
	}
}

func pageEvent(sessionID, event string) *bridge.Message {
	msg, _ := bridge.NewMessage(bridge.MsgTypeEvent, sessionID, bridge.EventData{Event: event})
	return msg
}

func TestManager_PlaybackThroughPage(t *testing.T) {
	m, hub := setupManager(t)
	s := m.Create("")
	page := connect(t, hub, s.ID, bridge.RolePlayer)

	if err := s.Controller.PlayManual(model.Track{ID: "t1", MediaID: "v1", Title: "Song"}, 0, 0); err != nil {
		t.Fatalf("PlayManual failed: %v", err)
	}
	waitMessage(t, page, isCommand(bridge.CmdCreate))

	ctx := context.Background()
	m.HandleMessage(ctx, page, pageEvent(s.ID, "ready"))
	waitMessage(t, page, isCommand(bridge.CmdLoad))

	m.HandleMessage(ctx, page, pageEvent(s.ID, "playing"))
	waitMessage(t, page, func(msg *bridge.Message) bool {
		if msg.Type != bridge.MsgTypeState {
			return false
		}
		var st model.PlaybackState
		return msg.Decode(&st) == nil && st.IsPlaying && st.Current != nil && st.Current.MediaID == "v1"
	})
}

func isMedia(kind string) func(*bridge.Message) bool {
	return func(msg *bridge.Message) bool {
		if msg.Type != bridge.MsgTypeMedia {
			return false
		}
		var data bridge.MediaData
		return msg.Decode(&data) == nil && data.Kind == kind
	}
}

func TestManager_NewPageGetsMediaSession(t *testing.T) {
	m, hub := setupManager(t)
	s := m.Create("")
	page := connect(t, hub, s.ID, bridge.RolePlayer)

	_ = s.Controller.PlayManual(model.Track{ID: "t1", MediaID: "v1", Title: "Song", Artist: "Band"}, 0, 0)
	waitMessage(t, page, isCommand(bridge.CmdCreate))
	ctx := context.Background()
	m.HandleMessage(ctx, page, pageEvent(s.ID, "ready"))
	m.HandleMessage(ctx, page, pageEvent(s.ID, "playing"))

	// a reloaded page replaces the old one
	next := connect(t, hub, s.ID, bridge.RolePlayer)
	waitMessage(t, next, isCommand(bridge.CmdCreate))
	m.HandleMessage(ctx, next, pageEvent(s.ID, "ready"))

	waitMessage(t, next, isCommand(bridge.CmdLoad))
	waitMessage(t, next, isMedia("actions"))
	got := waitMessage(t, next, isMedia("metadata"))
	var data bridge.MediaData
	if err := got.Decode(&data); err != nil || data.Metadata == nil || data.Metadata.Title != "Song" {
		t.Errorf("Expected metadata for Song, got %+v (%v)", data, err)
	}
	waitMessage(t, next, isMedia("state"))
}

func TestManager_MediaActionFromViewer(t *testing.T) {
	m, hub := setupManager(t)
	s := m.Create("")
	viewer := connect(t, hub, s.ID, bridge.RoleViewer)

	msg, _ := bridge.NewMessage(bridge.MsgTypeMediaAction, s.ID, bridge.MediaActionData{Action: player.ActionSeekTo, SeekTime: 10})
	m.HandleMessage(context.Background(), viewer, msg)

	// nothing is loaded, so the controller refuses and the viewer hears why
	got := waitMessage(t, viewer, func(msg *bridge.Message) bool { return msg.Type == bridge.MsgTypeError })
	var data bridge.ErrorData
	if err := got.Decode(&data); err != nil || data.Message != player.ErrNoTrack.Error() {
		t.Errorf("Unexpected error payload %+v (%v)", data, err)
	}
}

func TestManager_UnknownSession(t *testing.T) {
	m, hub := setupManager(t)
	c := connect(t, hub, "missing", bridge.RoleViewer)
	m.HandleMessage(context.Background(), c, pageEvent("missing", "ready"))

	got := waitMessage(t, c, func(msg *bridge.Message) bool { return msg.Type == bridge.MsgTypeError })
	var data bridge.ErrorData
	if err := got.Decode(&data); err != nil || data.Message != ErrSessionNotFound.Error() {
		t.Errorf("Unexpected error payload %+v (%v)", data, err)
	}
}

func TestManager_CreateGetDelete(t *testing.T) {
	m, _ := setupManager(t)
	s := m.Create("alice")
	if s.ListenerID != "alice" {
		t.Errorf("Expected listener alice, got %q", s.ListenerID)
	}
	if anon := m.Create(""); anon.ListenerID != anon.ID {
		t.Errorf("Expected anonymous listener to use the session id")
	}
	if got, err := m.Get(s.ID); err != nil || got != s {
		t.Fatalf("Get failed: %v", err)
	}
	if m.Count() != 2 || len(m.List()) != 2 {
		t.Errorf("Expected 2 sessions")
	}
	if err := m.Delete(s.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := m.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if err := m.Delete(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestManager_SendState(t *testing.T) {
	m, hub := setupManager(t)
	s := m.Create("")
	c := bridge.NewClient(hub, nil, s.ID, bridge.RoleViewer)
	if err := m.SendState(c); err != nil {
		t.Fatalf("SendState failed: %v", err)
	}
	got := waitMessage(t, c, func(msg *bridge.Message) bool { return msg.Type == bridge.MsgTypeState })
	var st model.PlaybackState
	if err := got.Decode(&st); err != nil || st.Volume != 80 {
		t.Errorf("Unexpected state %+v (%v)", st, err)
	}
}

func TestManager_Reap(t *testing.T) {
	m, hub := setupManager(t)
	idle := m.Create("")
	watched := m.Create("")
	connect(t, hub, watched.ID, bridge.RoleViewer)

	if n := m.Reap(time.Now().Add(30 * time.Second)); n != 0 {
		t.Errorf("Expected nothing reaped before the TTL, got %d", n)
	}
	if n := m.Reap(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Fatalf("Expected 1 reaped session, got %d", n)
	}
	if _, err := m.Get(idle.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected idle session to be gone")
	}
	if _, err := m.Get(watched.ID); err != nil {
		t.Errorf("Expected connected session to survive: %v", err)
	}
}

func TestManager_SetOptions(t *testing.T) {
	m, _ := setupManager(t)
	m.SetOptions(player.Options{PollInterval: time.Hour, Volume: 35})
	if v := m.Create("").Controller.State().Volume; v != 35 {
		t.Errorf("Expected new sessions to use volume 35, got %d", v)
	}
}

func TestPlayerOptions(t *testing.T) {
	cfg := &config.Config{
		PollInterval:     250 * time.Millisecond,
		FadeInterval:     50 * time.Millisecond,
		AdvanceDelay:     10 * time.Millisecond,
		LyricsTimeout:    5 * time.Second,
		LoadTimeout:      15 * time.Second,
		DefaultVolume:    60,
		DefaultCrossfade: 4,
	}
	opts := PlayerOptions(cfg)
	if opts.PollInterval != cfg.PollInterval || opts.FadeInterval != cfg.FadeInterval ||
		opts.AdvanceDelay != cfg.AdvanceDelay || opts.LyricsTimeout != cfg.LyricsTimeout ||
		opts.LoadTimeout != cfg.LoadTimeout {
		t.Errorf("Unexpected intervals %+v", opts)
	}
	if opts.Volume != 60 || opts.Crossfade != 4 {
		t.Errorf("Expected volume 60 and crossfade 4, got %d/%d", opts.Volume, opts.Crossfade)
	}
}

type fakeHistory struct {
	plays       []string
	completions []string
}

func (f *fakeHistory) RecordPlay(ctx context.Context, listenerID string, t model.Track) error {
	f.plays = append(f.plays, listenerID+":"+t.MediaID)
	return nil
}

func (f *fakeHistory) RecordCompletion(ctx context.Context, listenerID string, t model.Track) error {
	f.completions = append(f.completions, listenerID+":"+t.MediaID)
	return nil
}

func (f *fakeHistory) Recent(ctx context.Context, listenerID string, limit int) ([]*model.PlayHistory, error) {
	return nil, nil
}

func (f *fakeHistory) TopTracks(ctx context.Context, listenerID string, limit int) ([]*model.TrackStat, error) {
	return nil, nil
}

func TestHistoryRecorder(t *testing.T) {
	repo := &fakeHistory{}
	rec := &historyRecorder{repo: repo, listenerID: "bob"}
	ctx := context.Background()
	_ = rec.RecordPlay(ctx, model.Track{MediaID: "v1"})
	_ = rec.RecordCompletion(ctx, model.Track{MediaID: "v1"})
	if len(repo.plays) != 1 || repo.plays[0] != "bob:v1" || len(repo.completions) != 1 {
		t.Errorf("Unexpected recorded calls %+v", repo)
	}
}
