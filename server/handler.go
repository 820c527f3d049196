package server

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sho0pi/naturaltime"

	"Bt1QPlayer/config"
	"Bt1QPlayer/core/bridge"
	"Bt1QPlayer/core/player"
	"Bt1QPlayer/core/session"
	"Bt1QPlayer/model"
	"Bt1QPlayer/repository"
)

// Searcher 搜索服务
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]model.Track, error)
}

// ShareStore 分享存储
type ShareStore interface {
	Save(ctx context.Context, clip model.Clip) (*model.Clip, error)
	Get(ctx context.Context, id string) (*model.Clip, error)
}

// PartyStore 派对队列存储
type PartyStore interface {
	Create(ctx context.Context, hostID string) (*model.PartyQueue, error)
	Get(ctx context.Context, code string) (*model.PartyQueue, error)
	AddTrack(ctx context.Context, code string, t model.Track) (*model.PartyQueue, error)
	RemoveTrack(ctx context.Context, code string, index int) (*model.PartyQueue, error)
	Delete(ctx context.Context, code string) error
}

// Services are the dependencies behind the HTTP surface. Nil stores turn
// their routes into 503 responses.
type Services struct {
	Sessions *session.Manager
	Hub      *bridge.Hub
	Search   Searcher
	Lyrics   player.LyricsService
	UpNext   player.ContinuationService
	Shares   ShareStore
	Parties  PartyStore
	History  repository.HistoryRepository
	Library  repository.LibraryRepository
}

// Handler 处理所有 API 请求
type Handler struct {
	cfg      *config.Config
	svc      Services
	sleep    *naturaltime.Parser
	upgrader websocket.Upgrader
	// base outlives requests; websocket pumps stop when it is cancelled
	base context.Context
}

// NewHandler 创建 API 处理器
func NewHandler(cfg *config.Config, svc Services) (*Handler, error) {
	parser, err := naturaltime.New()
	if err != nil {
		return nil, err
	}
	return &Handler{
		cfg:   cfg,
		svc:   svc,
		sleep: parser,
		base:  context.Background(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}, nil
}

// corsMiddleware 添加 CORS 头
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Listener-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewRouter 注册所有路由
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// 会话
	router.HandleFunc("/api/sessions", h.CreateSessionHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}", h.GetSessionHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/sessions/{id}", h.DeleteSessionHandler).Methods(http.MethodDelete)

	// 播放控制
	router.HandleFunc("/api/sessions/{id}/play", h.PlayHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/playlist", h.PlayPlaylistHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/queue", h.EnqueueHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/queue/move", h.MoveInQueueHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/queue/{index:[0-9]+}/play", h.PlayFromQueueHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/queue/{index:[0-9]+}", h.RemoveFromQueueHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/sessions/{id}/toggle", h.ToggleHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/next", h.NextHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/prev", h.PrevHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/stop", h.StopHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/seek", h.SeekHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/volume", h.VolumeHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/crossfade", h.CrossfadeHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/sleep", h.SleepHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/sleep", h.CancelSleepHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/sessions/{id}/suggestions/{index:[0-9]+}/play", h.AcceptSuggestionHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/suggestions", h.DismissSuggestionsHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/sessions/{id}/shares/{shareId}/play", h.PlayShareHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/parties/{code}/play", h.PlayPartyHandler).Methods(http.MethodPost)

	// 播放页与 UI 的 WebSocket
	router.HandleFunc("/ws/player", h.WebSocketHandler)

	// 目录查询
	router.HandleFunc("/api/search", h.SearchHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/lyrics", h.LyricsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/upnext/{mediaId}", h.UpNextHandler).Methods(http.MethodGet)

	// 分享
	router.HandleFunc("/api/shares", h.CreateShareHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/shares/{id}", h.GetShareHandler).Methods(http.MethodGet)

	// 派对队列
	router.HandleFunc("/api/parties", h.CreatePartyHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/parties/{code}", h.GetPartyHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/parties/{code}", h.DeletePartyHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/parties/{code}/tracks", h.AddPartyTrackHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/parties/{code}/tracks/{index:[0-9]+}", h.RemovePartyTrackHandler).Methods(http.MethodDelete)

	// 收听记录与曲库
	router.HandleFunc("/api/history", h.HistoryHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/stats/top", h.TopTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/likes", h.LikedHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/likes", h.LikeHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/likes/{trackId}", h.UnlikeHandler).Methods(http.MethodDelete)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{"sessions": h.svc.Sessions.Count()})
	}).Methods(http.MethodGet)

	// preflight requests only reach corsMiddleware through a matched route
	router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	return router
}
