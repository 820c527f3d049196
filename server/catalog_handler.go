package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"Bt1QPlayer/core/search"
)

// SearchHandler 搜索歌曲
func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if h.svc.Search == nil {
		writeErr(w, r, errUnavailable)
		return
	}
	limit := lo.Clamp(queryInt(r, "limit", 20), 1, 50)
	tracks, err := h.svc.Search.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// LyricsHandler 查询歌词
func (h *Handler) LyricsHandler(w http.ResponseWriter, r *http.Request) {
	if h.svc.Lyrics == nil {
		writeErr(w, r, errUnavailable)
		return
	}
	q := r.URL.Query()
	title := strings.TrimSpace(q.Get("title"))
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	lines, err := h.svc.Lyrics.Lookup(r.Context(), strings.TrimSpace(q.Get("artist")), title)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

// UpNextHandler 查询续播列表
func (h *Handler) UpNextHandler(w http.ResponseWriter, r *http.Request) {
	if h.svc.UpNext == nil {
		writeErr(w, r, errUnavailable)
		return
	}
	mediaID := mux.Vars(r)["mediaId"]
	tracks, err := h.svc.UpNext.UpNext(r.Context(), mediaID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

var _ Searcher = (*search.Manager)(nil)
