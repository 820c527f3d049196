package bridge

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"Bt1QPlayer/core/player"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

type eventLog struct {
	mu     sync.Mutex
	events []player.Event
}

func (l *eventLog) dispatch(ev player.Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) all() []player.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]player.Event(nil), l.events...)
}

func setupRemote(t *testing.T) (*RemotePlayer, *Client, *fakeClock, *eventLog) {
	t.Helper()
	hub := NewHub()
	page := newTestClient(hub, "s1", RolePlayer, 32)
	hub.registerClient(page)

	clock := &fakeClock{t: time.Unix(1000, 0)}
	rp := NewRemotePlayer(hub, "s1")
	rp.now = clock.now
	log := &eventLog{}
	if _, err := rp.Factory()(log.dispatch); err != nil {
		t.Fatalf("Factory failed: %v", err)
	}
	if cmd := nextCommand(t, page); cmd.Name != CmdCreate {
		t.Fatalf("Expected create command, got %+v", cmd)
	}
	return rp, page, clock, log
}

func nextCommand(t *testing.T, c *Client) CommandData {
	t.Helper()
	select {
	case data := <-c.Send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Invalid message: %v", err)
		}
		if msg.Type != MsgTypeCommand {
			t.Fatalf("Expected command, got %s", msg.Type)
		}
		var cmd CommandData
		if err := msg.Decode(&cmd); err != nil {
			t.Fatalf("Invalid command: %v", err)
		}
		return cmd
	default:
		t.Fatal("Expected a queued command")
	}
	return CommandData{}
}

func f64(v float64) *float64 { return &v }

func TestRemotePlayer_FactoryWithoutPage(t *testing.T) {
	rp := NewRemotePlayer(NewHub(), "s1")
	if _, err := rp.Factory()(func(player.Event) {}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
	if _, err := rp.CurrentTime(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}

func TestRemotePlayer_LoadAndPosition(t *testing.T) {
	rp, page, clock, log := setupRemote(t)

	if err := rp.LoadByID("v1", 30); err != nil {
		t.Fatalf("LoadByID failed: %v", err)
	}
	cmd := nextCommand(t, page)
	if cmd.Name != CmdLoad || cmd.MediaID != "v1" || cmd.Start != 30 || !cmd.Autoplay {
		t.Errorf("Unexpected load command %+v", cmd)
	}

	rp.HandleEvent(EventData{Event: "playing", CurrentTime: f64(30), Duration: f64(200)})
	clock.advance(2 * time.Second)

	pos, _ := rp.CurrentTime()
	if pos != 32 {
		t.Errorf("Expected extrapolated position 32, got %v", pos)
	}
	d, _ := rp.Duration()
	if d != 200 {
		t.Errorf("Expected duration 200, got %v", d)
	}

	rp.HandleEvent(EventData{Event: "paused"})
	clock.advance(5 * time.Second)
	if pos, _ := rp.CurrentTime(); pos != 32 {
		t.Errorf("Expected position frozen at 32 while paused, got %v", pos)
	}

	evs := log.all()
	if len(evs) != 2 || evs[0].Type != player.EventPlaying || evs[1].Type != player.EventPaused {
		t.Errorf("Unexpected events %+v", evs)
	}
}

func TestRemotePlayer_PositionCappedAtDuration(t *testing.T) {
	rp, _, clock, _ := setupRemote(t)
	rp.UpdateStatus(StatusData{CurrentTime: 99, Duration: 100})
	rp.HandleEvent(EventData{Event: "playing"})
	clock.advance(10 * time.Second)
	if pos, _ := rp.CurrentTime(); pos != 100 {
		t.Errorf("Expected position capped at 100, got %v", pos)
	}
}

func TestRemotePlayer_ErrorEvent(t *testing.T) {
	rp, _, _, log := setupRemote(t)
	rp.HandleEvent(EventData{Event: "error", Code: 150})
	rp.HandleEvent(EventData{Event: "unstarted"})
	rp.HandleEvent(EventData{Event: "reattached"})

	evs := log.all()
	if len(evs) != 1 || evs[0].Type != player.EventError {
		t.Fatalf("Expected a single error event, got %+v", evs)
	}
	if !errors.Is(evs[0].Err, ErrPlayerFailure) {
		t.Errorf("Expected ErrPlayerFailure, got %v", evs[0].Err)
	}
}

func TestRemotePlayer_ReattachReloads(t *testing.T) {
	rp, page, clock, log := setupRemote(t)
	rp.HandleEvent(EventData{Event: "ready"})
	_ = rp.LoadByID("v1", 0)
	nextCommand(t, page)
	rp.HandleEvent(EventData{Event: "playing", CurrentTime: f64(10)})
	clock.advance(5 * time.Second)

	rp.Reattach()
	if cmd := nextCommand(t, page); cmd.Name != CmdCreate {
		t.Fatalf("Expected create on reattach, got %+v", cmd)
	}
	rp.HandleEvent(EventData{Event: "ready"})

	cmd := nextCommand(t, page)
	if cmd.Name != CmdLoad || cmd.MediaID != "v1" || cmd.Start != 15 || !cmd.Autoplay {
		t.Errorf("Unexpected reload command %+v", cmd)
	}
	// the second ready is absorbed by the bridge
	evs := log.all()
	if len(evs) != 3 || evs[2].Type != player.EventReattached {
		t.Errorf("Expected ready, playing and reattached, got %+v", evs)
	}
}

func TestRemotePlayer_ReattachDuringLoadAutoplays(t *testing.T) {
	rp, page, _, log := setupRemote(t)
	rp.HandleEvent(EventData{Event: "ready"})
	_ = rp.LoadByID("v1", 5)
	nextCommand(t, page)

	rp.Reattach()
	nextCommand(t, page)
	rp.HandleEvent(EventData{Event: "ready"})

	cmd := nextCommand(t, page)
	if cmd.Name != CmdLoad || cmd.MediaID != "v1" || cmd.Start != 5 || !cmd.Autoplay {
		t.Errorf("Expected the pending load to be replayed with autoplay, got %+v", cmd)
	}
	if evs := log.all(); evs[len(evs)-1].Type != player.EventReattached {
		t.Errorf("Expected reattached event, got %+v", evs)
	}
}

func TestRemotePlayer_ReattachPausedKeepsPaused(t *testing.T) {
	rp, page, _, _ := setupRemote(t)
	rp.HandleEvent(EventData{Event: "ready"})
	_ = rp.LoadByID("v1", 0)
	nextCommand(t, page)
	rp.HandleEvent(EventData{Event: "playing", CurrentTime: f64(3)})
	rp.HandleEvent(EventData{Event: "paused", CurrentTime: f64(8)})

	rp.Reattach()
	nextCommand(t, page)
	rp.HandleEvent(EventData{Event: "ready"})

	cmd := nextCommand(t, page)
	if cmd.Start != 8 || cmd.Autoplay {
		t.Errorf("Expected paused reload at 8, got %+v", cmd)
	}
}

func TestRemotePlayer_ReattachBeforeFirstLoadPassesReady(t *testing.T) {
	rp, page, _, log := setupRemote(t)

	rp.Reattach()
	nextCommand(t, page)
	rp.HandleEvent(EventData{Event: "ready"})

	evs := log.all()
	if len(evs) != 1 || evs[0].Type != player.EventReady {
		t.Errorf("Expected ready to reach the controller, got %+v", evs)
	}
}

func TestRemotePlayer_CuedCountsAsPaused(t *testing.T) {
	rp, page, _, log := setupRemote(t)
	_ = rp.LoadByID("v1", 0)
	nextCommand(t, page)

	rp.HandleEvent(EventData{Event: "cued", Duration: f64(120)})

	evs := log.all()
	if len(evs) != 1 || evs[0].Type != player.EventPaused {
		t.Fatalf("Expected cued to arrive as paused, got %+v", evs)
	}
	if d, _ := rp.Duration(); d != 120 {
		t.Errorf("Expected duration 120, got %v", d)
	}
}

func TestRemotePlayer_Destroy(t *testing.T) {
	rp, page, _, log := setupRemote(t)
	if err := rp.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if cmd := nextCommand(t, page); cmd.Name != CmdDestroy {
		t.Errorf("Expected destroy command, got %+v", cmd)
	}
	if err := rp.Play(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Expected ErrDestroyed, got %v", err)
	}
	rp.HandleEvent(EventData{Event: "playing"})
	if len(log.all()) != 0 {
		t.Error("Expected no events after destroy")
	}
}

type fakeActions struct {
	action player.MediaAction
	seek   float64
}

func (f *fakeActions) HandleMediaAction(action player.MediaAction, seekTime float64) error {
	f.action = action
	f.seek = seekTime
	return nil
}

func TestRoute(t *testing.T) {
	rp, page, _, log := setupRemote(t)
	viewer := newTestClient(rp.hub, "s1", RoleViewer, 1)
	actions := &fakeActions{}

	ev, _ := NewMessage(MsgTypeEvent, "s1", EventData{Event: "ready"})
	if err := Route(viewer, ev, rp, actions); err == nil {
		t.Error("Expected viewer events to be rejected")
	}
	if err := Route(page, ev, rp, actions); err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if evs := log.all(); len(evs) != 1 || evs[0].Type != player.EventReady {
		t.Errorf("Expected ready event, got %+v", evs)
	}

	act, _ := NewMessage(MsgTypeMediaAction, "s1", MediaActionData{Action: player.ActionSeekTo, SeekTime: 42})
	if err := Route(viewer, act, rp, actions); err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if actions.action != player.ActionSeekTo || actions.seek != 42 {
		t.Errorf("Unexpected action %+v", actions)
	}

	if err := Route(page, &Message{Type: MsgTypeStatus}, rp, actions); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Expected ErrEmptyPayload, got %v", err)
	}
	if err := Route(page, &Message{Type: "bogus"}, rp, actions); err == nil {
		t.Error("Expected unsupported type error")
	}
}

func TestMediaSession(t *testing.T) {
	hub := NewHub()
	page := newTestClient(hub, "s1", RolePlayer, 4)
	hub.registerClient(page)

	ms := NewMediaSession(hub, "s1")
	if err := ms.SetMetadata(player.MediaMetadata{Title: "Song", Artist: "A"}); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}
	var msg Message
	_ = json.Unmarshal(<-page.Send, &msg)
	var data MediaData
	if err := msg.Decode(&data); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if msg.Type != MsgTypeMedia || data.Kind != "metadata" || data.Metadata.Title != "Song" {
		t.Errorf("Unexpected media message %+v", data)
	}

	if err := NewMediaSession(hub, "none").SetPlaybackState("playing"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}
