package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"Bt1QPlayer/logger"
)

var (
	ErrNotConnected  = errors.New("bridge: no player page connected")
	ErrBufferFull    = errors.New("bridge: send buffer full")
	ErrEmptyPayload  = errors.New("bridge: message has no data")
	ErrDestroyed     = errors.New("bridge: player destroyed")
	ErrPlayerFailure = errors.New("bridge: embedded player error")
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 8192
	sendBuffer     = 64
)

// Client WebSocket 客户端
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	ID        string
	SessionID string
	Role      string
}

// NewClient 创建客户端，未知角色按 viewer 处理
func NewClient(hub *Hub, conn *websocket.Conn, sessionID, role string) *Client {
	if role != RolePlayer {
		role = RoleViewer
	}
	return &Client{
		Hub:       hub,
		Conn:      conn,
		Send:      make(chan []byte, sendBuffer),
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
	}
}

// Hub 会话 WebSocket 管理中心
type Hub struct {
	// 会话 -> 客户端集合
	sessions map[string]map[*Client]bool

	// 会话 -> 播放页（每个会话只能有一个）
	players map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	mu   sync.RWMutex
	done chan struct{}
	once sync.Once

	onPlayerJoin func(sessionID string)
}

type broadcastMessage struct {
	SessionID string
	Message   []byte
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		players:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
		done:       make(chan struct{}),
	}
}

// OnPlayerJoin sets a callback run whenever a player page (re)connects.
func (h *Hub) OnPlayerJoin(fn func(sessionID string)) {
	h.mu.Lock()
	h.onPlayerJoin = fn
	h.mu.Unlock()
}

// Run 启动 Hub 主循环
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastToSession(msg)

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop 停止 Hub
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()

	sessionID := client.SessionID

	// 新的播放页替换旧连接
	if client.Role == RolePlayer {
		if old, exists := h.players[sessionID]; exists && old != client {
			h.removeClient(old)
		}
		h.players[sessionID] = client
	}

	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[*Client]bool)
	}
	h.sessions[sessionID][client] = true
	joined := h.onPlayerJoin
	h.mu.Unlock()

	logger.Info("client registered",
		logger.String("session", sessionID),
		logger.String("client", client.ID),
		logger.String("role", client.Role))

	if client.Role == RolePlayer && joined != nil {
		joined(sessionID)
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeClient(client)
}

// removeClient 移除客户端（需要持有锁）
func (h *Hub) removeClient(client *Client) {
	sessionID := client.SessionID

	clients, ok := h.sessions[sessionID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.sessions, sessionID)
	}
	if h.players[sessionID] == client {
		delete(h.players, sessionID)
	}

	logger.Info("client unregistered",
		logger.String("session", sessionID),
		logger.String("client", client.ID))
}

func (h *Hub) broadcastToSession(msg *broadcastMessage) {
	var stale []*Client

	h.mu.RLock()
	for client := range h.sessions[msg.SessionID] {
		select {
		case client.Send <- msg.Message:
		default:
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	// 发送缓冲区满，移除客户端
	for _, client := range stale {
		h.unregisterClient(client)
	}
}

// sendToClient delivers data if the client is still registered.
func (h *Hub) sendToClient(client *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.sessions[client.SessionID][client] {
		return false
	}
	select {
	case client.Send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.sessions {
		for client := range clients {
			close(client.Send)
		}
	}
	h.sessions = make(map[string]map[*Client]bool)
	h.players = make(map[string]*Client)
}

// Register 注册客户端
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister 注销客户端
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast 向会话所有客户端广播
func (h *Hub) Broadcast(sessionID string, data []byte) {
	select {
	case h.broadcast <- &broadcastMessage{SessionID: sessionID, Message: data}:
	case <-h.done:
	}
}

// BroadcastMessage 广播 Message
func (h *Hub) BroadcastMessage(sessionID string, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.Broadcast(sessionID, data)
	return nil
}

// SendToPlayer 发送消息给会话的播放页
func (h *Hub) SendToPlayer(sessionID string, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client := h.players[sessionID]
	if client == nil {
		return ErrNotConnected
	}
	select {
	case client.Send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// HasPlayer 会话是否已连接播放页
func (h *Hub) HasPlayer(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.players[sessionID] != nil
}

// ClientCount 获取会话客户端数量
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// CloseSession 断开会话的所有客户端
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.sessions[sessionID] {
		h.removeClient(client)
	}
}

// ========== Client 方法 ==========

// ReadPump 读取消息循环
func (c *Client) ReadPump(ctx context.Context, handler func(ctx context.Context, client *Client, msg *Message)) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error",
					logger.ErrorField(err),
					logger.String("session", c.SessionID),
					logger.String("client", c.ID))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("invalid message format",
				logger.ErrorField(err),
				logger.String("session", c.SessionID))
			continue
		}

		if msg.Type == MsgTypePing {
			c.SendMessage(&Message{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
			continue
		}

		handler(ctx, c, &msg)
	}
}

// WritePump 写入消息循环，每条消息单独一帧
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 发送消息给客户端，缓冲区满时丢弃
func (c *Client) SendMessage(msg *Message) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.Hub.sendToClient(c, data)
}
