package session

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"Bt1QPlayer/core/bridge"
	"Bt1QPlayer/core/player"
	"Bt1QPlayer/logger"
	"Bt1QPlayer/model"
	"Bt1QPlayer/repository"
)

var ErrSessionNotFound = errors.New("session: not found")

// Session 一个收听会话
type Session struct {
	ID         string
	ListenerID string
	CreatedAt  time.Time
	Controller *player.Controller
	Remote     *bridge.RemotePlayer

	lastActive atomic.Int64
}

// Touch marks the session as used.
func (s *Session) Touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Deps are the services shared by every session.
type Deps struct {
	Hub     *bridge.Hub
	Lyrics  player.LyricsService
	UpNext  player.ContinuationService
	History repository.HistoryRepository
}

// Manager 会话注册表
type Manager struct {
	deps    Deps
	idleTTL time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
	opts     player.Options
}

// NewManager 创建会话管理器
func NewManager(deps Deps, opts player.Options, idleTTL time.Duration) *Manager {
	if idleTTL <= 0 {
		idleTTL = 2 * time.Hour
	}
	m := &Manager{
		deps:     deps,
		idleTTL:  idleTTL,
		sessions: make(map[string]*Session),
		opts:     opts,
	}
	deps.Hub.OnPlayerJoin(m.playerJoined)
	return m
}

// SetOptions replaces the tunables used for sessions created afterwards.
func (m *Manager) SetOptions(opts player.Options) {
	m.mu.Lock()
	m.opts = opts
	m.mu.Unlock()
}

// ========== 会话管理 ==========

// Create starts a session for a listener. An empty listener id means the
// session id doubles as the listener id.
func (m *Manager) Create(listenerID string) *Session {
	id := uuid.NewString()
	if listenerID == "" {
		listenerID = id
	}

	s := &Session{
		ID:         id,
		ListenerID: listenerID,
		CreatedAt:  time.Now(),
		Remote:     bridge.NewRemotePlayer(m.deps.Hub, id),
	}
	s.Touch()

	m.mu.RLock()
	opts := m.opts
	m.mu.RUnlock()

	opts.SessionID = id
	opts.Media = bridge.NewMediaSession(m.deps.Hub, id)
	if m.deps.History != nil {
		opts.History = &historyRecorder{repo: m.deps.History, listenerID: listenerID}
	}
	opts.OnChange = func(state model.PlaybackState) {
		m.push(id, state)
	}
	s.Controller = player.New(s.Remote.Factory(), m.deps.Lyrics, m.deps.UpNext, opts)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	logger.Info("session created",
		logger.String("session", id),
		logger.String("listener", listenerID))
	return s
}

// Get 获取会话
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.Touch()
	return s, nil
}

// Delete 关闭并移除会话
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	m.closeSession(s)
	return nil
}

func (m *Manager) closeSession(s *Session) {
	if err := s.Controller.Close(); err != nil {
		logger.Warn("session close failed", logger.String("session", s.ID), logger.ErrorField(err))
	}
	m.deps.Hub.CloseSession(s.ID)
	logger.Info("session closed", logger.String("session", s.ID))
}

// List returns sessions ordered by creation time.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll 关闭所有会话
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		m.closeSession(s)
	}
}

// ========== 空闲回收 ==========

// Reap closes sessions idle for longer than the TTL with no page connected.
func (m *Manager) Reap(now time.Time) int {
	var idle []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastActive()) < m.idleTTL || m.deps.Hub.ClientCount(id) > 0 {
			continue
		}
		delete(m.sessions, id)
		idle = append(idle, s)
	}
	m.mu.Unlock()

	for _, s := range idle {
		m.closeSession(s)
	}
	return len(idle)
}

// RunReaper calls Reap every interval until ctx is done.
func (m *Manager) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.Reap(now); n > 0 {
				logger.Info("reaped idle sessions", logger.Int("count", n))
			}
		}
	}
}

// ========== WebSocket ==========

// HandleMessage routes a page message to its session.
func (m *Manager) HandleMessage(ctx context.Context, client *bridge.Client, msg *bridge.Message) {
	s, err := m.Get(client.SessionID)
	if err != nil {
		m.replyError(client, err)
		return
	}
	if err := bridge.Route(client, msg, s.Remote, s.Controller); err != nil {
		logger.Debug("page message rejected",
			logger.String("session", s.ID),
			logger.String("type", string(msg.Type)),
			logger.ErrorField(err))
		m.replyError(client, err)
	}
}

// SendState queues the current snapshot for a client that has not been
// registered with the hub yet.
func (m *Manager) SendState(client *bridge.Client) error {
	s, err := m.Get(client.SessionID)
	if err != nil {
		return err
	}
	msg, err := bridge.NewMessage(bridge.MsgTypeState, s.ID, s.Controller.State())
	if err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case client.Send <- data:
		return nil
	default:
		return bridge.ErrBufferFull
	}
}

func (m *Manager) replyError(client *bridge.Client, err error) {
	msg, mErr := bridge.NewMessage(bridge.MsgTypeError, client.SessionID, bridge.ErrorData{Message: err.Error()})
	if mErr != nil {
		return
	}
	client.SendMessage(msg)
}

func (m *Manager) push(id string, state model.PlaybackState) {
	msg, err := bridge.NewMessage(bridge.MsgTypeState, id, state)
	if err != nil {
		logger.Warn("encode state failed", logger.String("session", id), logger.ErrorField(err))
		return
	}
	if err := m.deps.Hub.BroadcastMessage(id, msg); err != nil {
		logger.Warn("broadcast state failed", logger.String("session", id), logger.ErrorField(err))
	}
}

func (m *Manager) playerJoined(id string) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.Remote.Reattach()
	}
}
