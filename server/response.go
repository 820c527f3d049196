package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"Bt1QPlayer/cache"
	"Bt1QPlayer/core/lyrics"
	"Bt1QPlayer/core/player"
	"Bt1QPlayer/core/search"
	"Bt1QPlayer/core/session"
	"Bt1QPlayer/core/upnext"
	"Bt1QPlayer/logger"
	"Bt1QPlayer/storage"
)

const maxBodyBytes = 1 << 20

// envelope 统一响应结构
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		logger.Warn("write response failed", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: msg})
}

// writeErr maps err to a status code. Unexpected errors are logged and
// reported without detail.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.ErrorField(err))
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, storage.ErrShareNotFound),
		errors.Is(err, cache.ErrPartyNotFound),
		errors.Is(err, lyrics.ErrNotFound),
		errors.Is(err, upnext.ErrNoResults):
		return http.StatusNotFound

	case errors.Is(err, player.ErrNotPlayable),
		errors.Is(err, player.ErrIndexOutOfRange),
		errors.Is(err, player.ErrInvalidSleep),
		errors.Is(err, player.ErrUnknownAction),
		errors.Is(err, search.ErrEmptyQuery),
		errors.Is(err, storage.ErrInvalidShare),
		errors.Is(err, cache.ErrIndexRange),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest

	case errors.Is(err, player.ErrLoadInProgress),
		errors.Is(err, player.ErrNoTrack),
		errors.Is(err, cache.ErrConflict):
		return http.StatusConflict

	case errors.Is(err, player.ErrClosed):
		return http.StatusGone

	case errors.Is(err, cache.ErrNotInitialized), errors.Is(err, errUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

var (
	errBadRequest  = errors.New("bad request")
	errUnavailable = errors.New("feature not configured")
)

// decodeBody 解析 JSON 请求体
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// queryInt reads an integer query parameter, falling back to def.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// listenerID identifies the caller for history and library requests.
func listenerID(r *http.Request) string {
	if id := r.Header.Get("X-Listener-ID"); id != "" {
		return id
	}
	return r.URL.Query().Get("listener")
}
