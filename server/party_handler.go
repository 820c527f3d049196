package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"Bt1QPlayer/model"
)

func (h *Handler) parties(w http.ResponseWriter, r *http.Request) (PartyStore, bool) {
	if h.svc.Parties == nil {
		writeErr(w, r, errUnavailable)
		return nil, false
	}
	return h.svc.Parties, true
}

// CreatePartyHandler 创建派对队列
func (h *Handler) CreatePartyHandler(w http.ResponseWriter, r *http.Request) {
	store, ok := h.parties(w, r)
	if !ok {
		return
	}
	q, err := store.Create(r.Context(), listenerID(r))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// GetPartyHandler 获取派对队列
func (h *Handler) GetPartyHandler(w http.ResponseWriter, r *http.Request) {
	store, ok := h.parties(w, r)
	if !ok {
		return
	}
	q, err := store.Get(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// DeletePartyHandler 结束派对
func (h *Handler) DeletePartyHandler(w http.ResponseWriter, r *http.Request) {
	store, ok := h.parties(w, r)
	if !ok {
		return
	}
	if err := store.Delete(r.Context(), mux.Vars(r)["code"]); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// AddPartyTrackHandler 向派对队列添加歌曲
func (h *Handler) AddPartyTrackHandler(w http.ResponseWriter, r *http.Request) {
	store, ok := h.parties(w, r)
	if !ok {
		return
	}
	var req TrackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	q, err := store.AddTrack(r.Context(), mux.Vars(r)["code"], req.Track)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// RemovePartyTrackHandler 从派对队列删除歌曲
func (h *Handler) RemovePartyTrackHandler(w http.ResponseWriter, r *http.Request) {
	store, ok := h.parties(w, r)
	if !ok {
		return
	}
	q, err := store.RemoveTrack(r.Context(), mux.Vars(r)["code"], pathIndex(r))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// PlayPartyHandler 在会话中播放派对队列
func (h *Handler) PlayPartyHandler(w http.ResponseWriter, r *http.Request) {
	store, ok := h.parties(w, r)
	if !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	q, err := store.Get(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	owner := model.QueueOwner("party:" + q.Code)
	respond(w, r, s, s.Controller.PlayPlaylist(q.Tracks, 0, owner))
}
