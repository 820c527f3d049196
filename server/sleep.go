package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sho0pi/naturaltime"

	"Bt1QPlayer/core/player"
)

// SleepRequest 睡眠定时请求
// When accepts "30m", "in 20 minutes", "at 11pm"; Minutes wins when set.
type SleepRequest struct {
	When       string `json:"when"`
	Minutes    int    `json:"minutes"`
	AtTrackEnd bool   `json:"atTrackEnd"`
}

// SleepResponse 睡眠定时结果
type SleepResponse struct {
	At         *time.Time `json:"at,omitempty"`
	AtTrackEnd bool       `json:"atTrackEnd"`
}

// parseSleep turns a sleep phrase into a delay from now.
func parseSleep(parser *naturaltime.Parser, when string, now time.Time) (time.Duration, error) {
	when = strings.TrimSpace(when)
	if when == "" {
		return 0, fmt.Errorf("%w: empty sleep time", errBadRequest)
	}
	if d, err := time.ParseDuration(when); err == nil {
		if d <= 0 {
			return 0, player.ErrInvalidSleep
		}
		return d, nil
	}
	if parser != nil {
		t, err := parser.ParseDate(when, now)
		if err == nil && t != nil {
			d := t.Sub(now)
			if d <= 0 {
				return 0, player.ErrInvalidSleep
			}
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: could not parse time %q", errBadRequest, when)
}

// SleepHandler 设置睡眠定时
func (h *Handler) SleepHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SleepRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.AtTrackEnd {
		s.Controller.SetSleepAtTrackEnd(true)
		writeJSON(w, http.StatusOK, SleepResponse{AtTrackEnd: true})
		return
	}

	now := time.Now()
	var d time.Duration
	if req.Minutes > 0 {
		d = time.Duration(req.Minutes) * time.Minute
	} else {
		var err error
		if d, err = parseSleep(h.sleep, req.When, now); err != nil {
			writeErr(w, r, err)
			return
		}
	}
	if err := s.Controller.SetSleepTimer(d); err != nil {
		writeErr(w, r, err)
		return
	}
	at := now.Add(d)
	writeJSON(w, http.StatusOK, SleepResponse{At: &at})
}

// CancelSleepHandler 取消睡眠定时
func (h *Handler) CancelSleepHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Controller.CancelSleep()
	respond(w, r, s, nil)
}
