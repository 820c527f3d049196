package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"Bt1QPlayer/model"
)

// ShareRequest 创建分享请求
type ShareRequest struct {
	Track  model.Track `json:"track"`
	Start  int         `json:"start"`
	StopAt int         `json:"stopAt"`
}

// ShareResponse 分享结果
type ShareResponse struct {
	Clip *model.Clip `json:"clip"`
	URL  string      `json:"url"`
}

func (h *Handler) shareURL(id string) string {
	return h.cfg.PublicBaseURL + "/?share=" + id
}

// CreateShareHandler 创建分享链接
func (h *Handler) CreateShareHandler(w http.ResponseWriter, r *http.Request) {
	if h.svc.Shares == nil {
		writeErr(w, r, errUnavailable)
		return
	}
	var req ShareRequest
	if !decodeBody(w, r, &req) {
		return
	}
	clip, err := h.svc.Shares.Save(r.Context(), model.Clip{Track: req.Track, Start: req.Start, StopAt: req.StopAt})
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ShareResponse{Clip: clip, URL: h.shareURL(clip.ID)})
}

// GetShareHandler 获取分享
func (h *Handler) GetShareHandler(w http.ResponseWriter, r *http.Request) {
	if h.svc.Shares == nil {
		writeErr(w, r, errUnavailable)
		return
	}
	clip, err := h.svc.Shares.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ShareResponse{Clip: clip, URL: h.shareURL(clip.ID)})
}

// PlayShareHandler 在会话中播放分享片段
func (h *Handler) PlayShareHandler(w http.ResponseWriter, r *http.Request) {
	if h.svc.Shares == nil {
		writeErr(w, r, errUnavailable)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	clip, err := h.svc.Shares.Get(r.Context(), mux.Vars(r)["shareId"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	respond(w, r, s, s.Controller.PlayManual(clip.Track, float64(clip.Start), float64(clip.StopAt)))
}
