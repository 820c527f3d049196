package bridge

import (
	"fmt"
	"sync"
	"time"

	"Bt1QPlayer/core/player"
	"Bt1QPlayer/logger"
)

// RemotePlayer drives the embedded player hosted by the session's player
// page. Position and duration come from the page's status reports and are
// extrapolated between reports while playing.
type RemotePlayer struct {
	hub       *Hub
	sessionID string
	now       func() time.Time

	mu        sync.Mutex
	dispatch  func(player.Event)
	created   bool
	destroyed bool
	// a reconnecting page must reload what the old page was playing
	reattach bool
	// starting is set from a load until the page reports its outcome
	starting bool

	mediaID  string
	position float64
	duration float64
	playing  bool
	statusAt time.Time
}

// NewRemotePlayer 创建远程播放器
func NewRemotePlayer(hub *Hub, sessionID string) *RemotePlayer {
	return &RemotePlayer{hub: hub, sessionID: sessionID, now: time.Now}
}

// Factory returns the player.PlayerFactory for this session. The page answers
// the create command with a ready event.
func (p *RemotePlayer) Factory() player.PlayerFactory {
	return func(dispatch func(player.Event)) (player.EmbeddedPlayer, error) {
		p.mu.Lock()
		p.dispatch = dispatch
		p.created = true
		p.destroyed = false
		p.reattach = false
		p.mu.Unlock()

		if err := p.send(CommandData{Name: CmdCreate}); err != nil {
			return nil, err
		}
		return p, nil
	}
}

// Reattach re-creates the player on a page that connected after the player
// was created. Once the new page is ready the last track is reloaded.
func (p *RemotePlayer) Reattach() {
	p.mu.Lock()
	if !p.created || p.destroyed {
		p.mu.Unlock()
		return
	}
	p.reattach = true
	p.mu.Unlock()

	if err := p.send(CommandData{Name: CmdCreate}); err != nil {
		logger.Warn("player reattach failed", logger.String("session", p.sessionID), logger.ErrorField(err))
	}
}

func (p *RemotePlayer) send(cmd CommandData) error {
	msg, err := NewMessage(MsgTypeCommand, p.sessionID, cmd)
	if err != nil {
		return err
	}
	if err := p.hub.SendToPlayer(p.sessionID, msg); err != nil {
		return fmt.Errorf("%s command: %w", cmd.Name, err)
	}
	return nil
}

func (p *RemotePlayer) alive() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return ErrDestroyed
	}
	return nil
}

// ========== player.EmbeddedPlayer ==========

func (p *RemotePlayer) LoadByID(mediaID string, startSeconds float64) error {
	if err := p.alive(); err != nil {
		return err
	}
	p.mu.Lock()
	p.mediaID = mediaID
	p.position = startSeconds
	p.duration = 0
	p.playing = false
	p.starting = true
	p.statusAt = p.now()
	p.mu.Unlock()
	return p.send(CommandData{Name: CmdLoad, MediaID: mediaID, Start: startSeconds, Autoplay: true})
}

func (p *RemotePlayer) Play() error {
	if err := p.alive(); err != nil {
		return err
	}
	return p.send(CommandData{Name: CmdPlay})
}

func (p *RemotePlayer) Pause() error {
	if err := p.alive(); err != nil {
		return err
	}
	return p.send(CommandData{Name: CmdPause})
}

func (p *RemotePlayer) SeekTo(seconds float64) error {
	if err := p.alive(); err != nil {
		return err
	}
	p.mu.Lock()
	p.position = seconds
	p.statusAt = p.now()
	p.mu.Unlock()
	return p.send(CommandData{Name: CmdSeek, Time: seconds})
}

func (p *RemotePlayer) CurrentTime() (float64, error) {
	if !p.hub.HasPlayer(p.sessionID) {
		return 0, ErrNotConnected
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentTimeLocked(), nil
}

func (p *RemotePlayer) currentTimeLocked() float64 {
	pos := p.position
	if p.playing && !p.statusAt.IsZero() {
		pos += p.now().Sub(p.statusAt).Seconds()
	}
	if p.duration > 0 && pos > p.duration {
		pos = p.duration
	}
	return pos
}

func (p *RemotePlayer) Duration() (float64, error) {
	if !p.hub.HasPlayer(p.sessionID) {
		return 0, ErrNotConnected
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration, nil
}

func (p *RemotePlayer) SetVolume(volume int) error {
	if err := p.alive(); err != nil {
		return err
	}
	return p.send(CommandData{Name: CmdVolume, Volume: volume})
}

func (p *RemotePlayer) Mute() error {
	if err := p.alive(); err != nil {
		return err
	}
	return p.send(CommandData{Name: CmdMute})
}

func (p *RemotePlayer) Unmute() error {
	if err := p.alive(); err != nil {
		return err
	}
	return p.send(CommandData{Name: CmdUnmute})
}

func (p *RemotePlayer) Destroy() error {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return nil
	}
	p.destroyed = true
	p.dispatch = nil
	p.mu.Unlock()

	err := p.send(CommandData{Name: CmdDestroy})
	if err != nil && !p.hub.HasPlayer(p.sessionID) {
		return nil
	}
	return err
}

// ========== 页面上报 ==========

// UpdateStatus records a progress report from the page.
func (p *RemotePlayer) UpdateStatus(s StatusData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = s.CurrentTime
	if s.Duration > 0 {
		p.duration = s.Duration
	}
	p.statusAt = p.now()
}

// eventCued is the page's report of a track loaded without autoplay.
const eventCued player.EventType = "cued"

// HandleEvent turns a page event into a player.Event. A cued track counts as
// paused. Unknown events are ignored.
func (p *RemotePlayer) HandleEvent(ev EventData) {
	p.mu.Lock()
	if ev.CurrentTime != nil {
		p.position = *ev.CurrentTime
		p.statusAt = p.now()
	}
	if ev.Duration != nil && *ev.Duration > 0 {
		p.duration = *ev.Duration
	}

	var out player.Event
	switch player.EventType(ev.Event) {
	case player.EventReady:
		out = player.Event{Type: player.EventReady}
		if p.reattach {
			p.reattach = false
			if p.mediaID == "" {
				// nothing was loaded yet, the controller still waits for ready
				break
			}
			cmd := CommandData{Name: CmdLoad, MediaID: p.mediaID, Start: p.currentTimeLocked(), Autoplay: p.playing || p.starting}
			dispatch := p.dispatch
			p.mu.Unlock()
			if err := p.send(cmd); err != nil {
				logger.Warn("player reload failed", logger.String("session", p.sessionID), logger.ErrorField(err))
				return
			}
			if dispatch != nil {
				dispatch(player.Event{Type: player.EventReattached})
			}
			return
		}
	case player.EventPlaying:
		p.playing = true
		p.starting = false
		p.statusAt = p.now()
		out = player.Event{Type: player.EventPlaying}
	case player.EventPaused, player.EventBuffering, player.EventEnded, eventCued:
		if p.playing {
			p.position = p.currentTimeLocked()
			p.statusAt = p.now()
		}
		p.playing = false
		typ := player.EventType(ev.Event)
		switch typ {
		case eventCued:
			typ = player.EventPaused
			p.starting = false
		case player.EventPaused, player.EventEnded:
			p.starting = false
		}
		out = player.Event{Type: typ}
	case player.EventError:
		p.playing = false
		p.starting = false
		out = player.Event{Type: player.EventError, Err: fmt.Errorf("%w: %s", ErrPlayerFailure, DescribeError(ev.Code))}
	default:
		p.mu.Unlock()
		return
	}
	dispatch := p.dispatch
	p.mu.Unlock()

	if dispatch != nil {
		dispatch(out)
	}
}

// DescribeError names the embedded player's numeric error codes.
func DescribeError(code int) string {
	switch code {
	case 2:
		return "invalid media id"
	case 5:
		return "html5 player error"
	case 100:
		return "media not found or private"
	case 101, 150:
		return "embedding disabled by owner"
	default:
		return fmt.Sprintf("code %d", code)
	}
}
