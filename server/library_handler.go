package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// listener 获取调用方的收听者 ID
func (h *Handler) listener(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := listenerID(r)
	if id == "" {
		writeError(w, http.StatusBadRequest, "listener id is required")
		return "", false
	}
	return id, true
}

// HistoryHandler 最近播放
func (h *Handler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if h.svc.History == nil {
		writeErr(w, r, errUnavailable)
		return
	}
	id, ok := h.listener(w, r)
	if !ok {
		return
	}
	items, err := h.svc.History.Recent(r.Context(), id, queryInt(r, "limit", 50))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// TopTracksHandler 播放次数排行
func (h *Handler) TopTracksHandler(w http.ResponseWriter, r *http.Request) {
	if h.svc.History == nil {
		writeErr(w, r, errUnavailable)
		return
	}
	id, ok := h.listener(w, r)
	if !ok {
		return
	}
	stats, err := h.svc.History.TopTracks(r.Context(), id, queryInt(r, "limit", 20))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// LikedHandler 喜欢的歌曲
func (h *Handler) LikedHandler(w http.ResponseWriter, r *http.Request) {
	if h.svc.Library == nil {
		writeErr(w, r, errUnavailable)
		return
	}
	id, ok := h.listener(w, r)
	if !ok {
		return
	}
	songs, err := h.svc.Library.Liked(r.Context(), id, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// LikeHandler 收藏歌曲
func (h *Handler) LikeHandler(w http.ResponseWriter, r *http.Request) {
	if h.svc.Library == nil {
		writeErr(w, r, errUnavailable)
		return
	}
	id, ok := h.listener(w, r)
	if !ok {
		return
	}
	var req TrackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !req.Track.Playable() || req.Track.ID == "" {
		writeError(w, http.StatusBadRequest, "track id and media id are required")
		return
	}
	if err := h.svc.Library.Like(r.Context(), id, req.Track); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req.Track)
}

// UnlikeHandler 取消收藏
func (h *Handler) UnlikeHandler(w http.ResponseWriter, r *http.Request) {
	if h.svc.Library == nil {
		writeErr(w, r, errUnavailable)
		return
	}
	id, ok := h.listener(w, r)
	if !ok {
		return
	}
	if err := h.svc.Library.Unlike(r.Context(), id, mux.Vars(r)["trackId"]); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
