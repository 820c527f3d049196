package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"Bt1QPlayer/core/bridge"
	"Bt1QPlayer/core/session"
	"Bt1QPlayer/logger"
	"Bt1QPlayer/model"
)

// session 根据路径参数获取会话
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.svc.Sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, r, err)
		return nil, false
	}
	return s, true
}

func pathIndex(r *http.Request) int {
	n, _ := strconv.Atoi(mux.Vars(r)["index"])
	return n
}

// respond writes the session snapshot, or the error from the operation.
func respond(w http.ResponseWriter, r *http.Request, s *session.Session, err error) {
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Controller.State())
}

// SessionResponse 会话信息
type SessionResponse struct {
	ID         string              `json:"id"`
	ListenerID string              `json:"listenerId"`
	Connected  bool                `json:"connected"`
	State      model.PlaybackState `json:"state"`
}

func (h *Handler) sessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		ID:         s.ID,
		ListenerID: s.ListenerID,
		Connected:  h.svc.Hub.HasPlayer(s.ID),
		State:      s.Controller.State(),
	}
}

// ========== 会话管理 ==========

// CreateSessionHandler 创建会话
func (h *Handler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	s := h.svc.Sessions.Create(listenerID(r))
	writeJSON(w, http.StatusCreated, h.sessionResponse(s))
}

// GetSessionHandler 获取会话状态
func (h *Handler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.sessionResponse(s))
}

// DeleteSessionHandler 结束会话
func (h *Handler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Sessions.Delete(mux.Vars(r)["id"]); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// ========== 播放控制 ==========

// PlayRequest 手动播放请求
type PlayRequest struct {
	Track     model.Track `json:"track"`
	StartTime float64     `json:"startTime"`
	StopAt    float64     `json:"stopAt"`
}

// PlayHandler 播放单曲，清空队列并拉取续播列表
func (h *Handler) PlayHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req PlayRequest
	if !decodeBody(w, r, &req) {
		return
	}
	respond(w, r, s, s.Controller.PlayManual(req.Track, req.StartTime, req.StopAt))
}

// PlaylistRequest 播放列表请求
type PlaylistRequest struct {
	Tracks     []model.Track    `json:"tracks"`
	StartIndex int              `json:"startIndex"`
	Owner      model.QueueOwner `json:"owner"`
}

// PlayPlaylistHandler 以列表替换队列并播放
func (h *Handler) PlayPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req PlaylistRequest
	if !decodeBody(w, r, &req) {
		return
	}
	respond(w, r, s, s.Controller.PlayPlaylist(req.Tracks, req.StartIndex, req.Owner))
}

// TrackRequest 单曲请求
type TrackRequest struct {
	Track model.Track `json:"track"`
}

// EnqueueHandler 添加到队列末尾
func (h *Handler) EnqueueHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req TrackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	respond(w, r, s, s.Controller.Enqueue(req.Track))
}

// PlayFromQueueHandler 播放队列中的指定位置
func (h *Handler) PlayFromQueueHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respond(w, r, s, s.Controller.PlayFromQueue(pathIndex(r), 0))
}

// RemoveFromQueueHandler 从队列删除
func (h *Handler) RemoveFromQueueHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respond(w, r, s, s.Controller.RemoveFromQueue(pathIndex(r)))
}

// MoveRequest 队列移动请求
type MoveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// MoveInQueueHandler 调整队列顺序
func (h *Handler) MoveInQueueHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req MoveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	respond(w, r, s, s.Controller.MoveInQueue(req.From, req.To))
}

// ToggleHandler 播放/暂停
func (h *Handler) ToggleHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respond(w, r, s, s.Controller.TogglePlayPause())
}

// NextHandler 下一首
func (h *Handler) NextHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respond(w, r, s, s.Controller.PlayNext())
}

// PrevHandler 上一首
func (h *Handler) PrevHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respond(w, r, s, s.Controller.PlayPrev())
}

// StopHandler 停止播放
func (h *Handler) StopHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Controller.Stop()
	respond(w, r, s, nil)
}

// SeekRequest 跳转请求
type SeekRequest struct {
	Time float64 `json:"time"`
}

// SeekHandler 跳转
func (h *Handler) SeekHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SeekRequest
	if !decodeBody(w, r, &req) {
		return
	}
	respond(w, r, s, s.Controller.Seek(req.Time))
}

// VolumeRequest 音量请求
type VolumeRequest struct {
	Volume int `json:"volume"`
}

// VolumeHandler 设置音量
func (h *Handler) VolumeHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req VolumeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.Controller.SetVolume(req.Volume)
	respond(w, r, s, nil)
}

// CrossfadeRequest 淡入淡出请求
type CrossfadeRequest struct {
	Seconds int `json:"seconds"`
}

// CrossfadeHandler 设置淡入淡出时长
func (h *Handler) CrossfadeHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req CrossfadeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.Controller.SetCrossfade(req.Seconds)
	respond(w, r, s, nil)
}

// AcceptSuggestionHandler 播放推荐歌曲
func (h *Handler) AcceptSuggestionHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respond(w, r, s, s.Controller.AcceptSuggestion(pathIndex(r)))
}

// DismissSuggestionsHandler 忽略推荐
func (h *Handler) DismissSuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Controller.DismissSuggestions()
	respond(w, r, s, nil)
}

// ========== WebSocket ==========

// WebSocketHandler 播放页与 UI 的 WebSocket 连接
// 查询参数: session=<id>, role=player|viewer
func (h *Handler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if _, err := h.svc.Sessions.Get(sessionID); err != nil {
		writeErr(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket 升级失败", logger.ErrorField(err))
		return
	}

	client := bridge.NewClient(h.svc.Hub, conn, sessionID, r.URL.Query().Get("role"))
	if err := h.svc.Sessions.SendState(client); err != nil {
		logger.Warn("initial state not sent", logger.String("session", sessionID), logger.ErrorField(err))
	}
	h.svc.Hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.base, h.svc.Sessions.HandleMessage)

	logger.Info("WebSocket 连接建立",
		logger.String("session", sessionID),
		logger.String("role", client.Role))
}
