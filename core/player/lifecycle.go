package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"Bt1QPlayer/logger"
	"Bt1QPlayer/model"
)

// ========== Loading ==========

// beginLoadLocked makes track current and asks the player to load it. If the
// player is not ready yet the request waits for EventReady.
func (c *Controller) beginLoadLocked(track model.Track, start float64, kind loadKind) {
	c.closeLoadDoneLocked()
	c.loadGen++
	c.loading = true
	c.awaitingStart = false
	c.loadKind = kind
	c.loadDone = make(chan struct{})
	gen := c.loadGen
	c.loadTimer = time.AfterFunc(c.opts.LoadTimeout, func() { c.loadTimedOut(gen) })

	c.cancelFadesLocked()
	c.fadeOutStarted = false
	c.cancelLyricsLocked()
	c.resetLyricsLocked()

	t := track
	c.current = &t
	c.position = start
	c.duration = 0
	c.ready = false
	c.phase = model.PhaseLoading
	c.mediaMetadataLocked()

	if c.player == nil {
		p, err := c.factory(c.dispatch)
		if err != nil {
			c.failLoadLocked(fmt.Errorf("create player: %w", err))
			return
		}
		c.player = p
		c.playerReady = false
		c.registerMediaHandlers()
	}

	req := loadRequest{mediaID: track.MediaID, start: start, gen: c.loadGen}
	if !c.playerReady {
		c.pending = &req
		c.notifyLocked()
		return
	}
	c.issueLoadLocked(req)
}

func (c *Controller) issueLoadLocked(req loadRequest) {
	if c.crossfade > 0 {
		_ = c.player.SetVolume(0)
	} else {
		c.applyVolumeLocked()
	}
	if err := c.player.LoadByID(req.mediaID, req.start); err != nil {
		c.failLoadLocked(fmt.Errorf("load %s: %w", req.mediaID, err))
		return
	}
	logger.Debug("track load issued",
		logger.String("session", c.opts.SessionID),
		logger.String("mediaId", req.mediaID),
		logger.Float64("start", req.start))
	c.notifyLocked()
}

// failLoadLocked resolves the in-flight load as failed. The track stays
// current so the user can retry.
func (c *Controller) failLoadLocked(err error) {
	logger.Warn("track load failed", logger.String("session", c.opts.SessionID), logger.ErrorField(err))
	c.loading = false
	c.awaitingStart = false
	c.pending = nil
	c.pendingStopAt = 0
	c.phase = model.PhaseIdle
	c.closeLoadDoneLocked()
	c.cancelFadesLocked()
	c.applyVolumeLocked()
	c.mediaStateLocked()
	c.notifyLocked()
}

// loadTimedOut fails a load the player never started or cued.
func (c *Controller) loadTimedOut(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.loading || gen != c.loadGen || c.current == nil {
		return
	}
	c.failLoadLocked(fmt.Errorf("load %s: %w", c.current.MediaID, ErrLoadTimeout))
}

// resolvePausedLoadLocked settles a load the player cued without starting,
// as when autoplay is refused. A staged stop-at waits for the first
// playing event.
func (c *Controller) resolvePausedLoadLocked() {
	c.loading = false
	c.awaitingStart = true
	c.closeLoadDoneLocked()
	if d, err := c.player.Duration(); err == nil && d > 0 {
		c.duration = d
	}
	c.ready = true
	c.phase = model.PhasePaused
	logger.Info("track cued paused",
		logger.String("session", c.opts.SessionID),
		logger.String("mediaId", c.current.MediaID))
	c.mediaStateLocked()
	c.notifyLocked()
}

func (c *Controller) closeLoadDoneLocked() {
	if c.loadTimer != nil {
		c.loadTimer.Stop()
		c.loadTimer = nil
	}
	if c.loadDone != nil {
		close(c.loadDone)
		c.loadDone = nil
	}
}

// ========== Player events ==========

func (c *Controller) handleEvent(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	switch ev.Type {
	case EventReady:
		c.playerReady = true
		if c.pending != nil {
			req := *c.pending
			c.pending = nil
			if c.loading && req.gen == c.loadGen {
				c.issueLoadLocked(req)
			}
		}

	case EventPlaying:
		c.onPlayingLocked()

	case EventPaused:
		if c.loading {
			// a paused before the load is issued belongs to the previous
			// track; after it, the player cued the new one without starting
			if c.pending == nil && c.playerReady && c.current != nil {
				c.resolvePausedLoadLocked()
			}
			return
		}
		if c.current == nil || c.phase == model.PhaseEnded {
			return
		}
		c.phase = model.PhasePaused
		c.mediaStateLocked()
		c.notifyLocked()

	case EventBuffering:
		if c.phase == model.PhasePlaying {
			c.phase = model.PhaseBuffering
			c.notifyLocked()
		}

	case EventEnded:
		if c.loading || c.current == nil || c.phase == model.PhaseEnded {
			return
		}
		c.onEndedLocked()

	case EventReattached:
		c.registerMediaHandlers()
		c.mediaMetadataLocked()
		c.mediaStateLocked()
		c.mediaPositionLocked()
		if c.fadeIn == nil && c.fadeOut == nil {
			c.applyVolumeLocked()
		}

	case EventError:
		err := ev.Err
		if err == nil {
			err = errors.New("player error")
		}
		c.failLoadLocked(err)
	}
}

func (c *Controller) onPlayingLocked() {
	if c.current == nil {
		return
	}

	if c.loading || c.awaitingStart {
		c.loading = false
		c.awaitingStart = false
		c.closeLoadDoneLocked()
		if d, err := c.player.Duration(); err == nil && d > 0 {
			c.duration = d
		}
		if c.pendingStopAt > 0 {
			c.stopAt = c.pendingStopAt
			c.pendingStopAt = 0
		}
		c.ready = true

		gen := c.loadGen
		track := *c.current
		if c.crossfade > 0 {
			c.startFadeInLocked()
		}
		c.fetchLyricsLocked(gen, track)
		if c.loadKind == loadManual {
			c.fetchContinuationLocked(gen, track)
		}
		logger.Info("track playing",
			logger.String("session", c.opts.SessionID),
			logger.String("mediaId", track.MediaID),
			logger.String("title", track.Title))
	}

	c.phase = model.PhasePlaying
	c.mediaStateLocked()
	c.mediaPositionLocked()
	c.notifyLocked()
}

// onEndedLocked runs once per natural end of a track.
func (c *Controller) onEndedLocked() {
	track := *c.current
	c.phase = model.PhaseEnded
	c.cancelFadesLocked()
	c.fadeOutStarted = false
	c.stopAt = 0
	c.applyVolumeLocked()
	c.recordCompletion(track)

	defer func() {
		c.mediaStateLocked()
		c.notifyLocked()
	}()

	if c.sleepAtEnd {
		c.sleepAtEnd = false
		logger.Info("sleep at track end reached", logger.String("session", c.opts.SessionID))
		return
	}

	if c.queue.HasNext() {
		gen := c.loadGen
		time.AfterFunc(c.opts.AdvanceDelay, func() { c.advance(gen) })
		return
	}

	c.fetchSuggestionsLocked(c.loadGen, track)
}

// advance resolves the next entry when it fires, so queue edits made during
// the delay are honoured.
func (c *Controller) advance(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.loadGen || c.phase != model.PhaseEnded {
		return
	}
	index, ok := c.queue.Next()
	if !ok {
		if c.current != nil {
			c.fetchSuggestionsLocked(c.loadGen, *c.current)
		}
		return
	}
	if err := c.playFromQueueLocked(index, 0); err != nil {
		logger.Warn("auto advance failed",
			logger.String("session", c.opts.SessionID), logger.Int("index", index), logger.ErrorField(err))
	}
}

// ========== Lyrics ==========

func (c *Controller) resetLyricsLocked() {
	c.lyricLines = nil
	c.lyricIndex = -1
	c.lyricsLoading = false
	c.lyricsNotFound = false
}

func (c *Controller) cancelLyricsLocked() {
	if c.lyricsCancel != nil {
		c.lyricsCancel()
		c.lyricsCancel = nil
	}
}

type lyricsResult struct {
	lines []model.LyricLine
	err   error
}

// fetchLyricsLocked looks up lyrics for track. The timeout is hard: a lookup
// that ignores its context is abandoned and counts as not found.
func (c *Controller) fetchLyricsLocked(gen uint64, track model.Track) {
	c.cancelLyricsLocked()
	if c.lyrics == nil {
		c.lyricsNotFound = true
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.opts.LyricsTimeout)
	c.lyricsCancel = cancel
	c.lyricsLoading = true
	c.lyricsNotFound = false

	artist, title := track.Artist, CleanTitle(track.Title)
	svc := c.lyrics

	go func() {
		defer cancel()

		ch := make(chan lyricsResult, 1)
		go func() {
			lines, err := svc.Lookup(ctx, artist, title)
			ch <- lyricsResult{lines, err}
		}()

		var res lyricsResult
		select {
		case res = <-ch:
		case <-ctx.Done():
			res.err = ctx.Err()
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || gen != c.loadGen {
			return
		}
		c.lyricsLoading = false
		if res.err != nil || len(res.lines) == 0 {
			if res.err != nil {
				logger.Debug("lyrics lookup failed",
					logger.String("artist", artist), logger.String("title", title), logger.ErrorField(res.err))
			}
			c.lyricLines = nil
			c.lyricsNotFound = true
			c.lyricIndex = -1
		} else {
			c.lyricLines = res.lines
			c.lyricIndex = FindLyricIndex(res.lines, secondsToMs(c.position))
		}
		c.notifyLocked()
	}()
}

// ========== Continuation ==========

func (c *Controller) upNextCandidates(seed model.Track, tracks []model.Track) []model.Track {
	tracks = lo.Filter(tracks, func(t model.Track, _ int) bool {
		return t.Playable() && t.MediaID != seed.MediaID
	})
	return lo.UniqBy(tracks, func(t model.Track) string { return t.MediaID })
}

// fetchContinuationLocked fills the queue with up-next tracks for a manually
// chosen track. A queue built by the user in the meantime wins.
func (c *Controller) fetchContinuationLocked(gen uint64, track model.Track) {
	if c.upnext == nil {
		return
	}
	svc := c.upnext

	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.opts.ContinuationTimeout)
		defer cancel()

		tracks, err := svc.UpNext(ctx, track.MediaID)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || gen != c.loadGen {
			return
		}
		if err != nil {
			logger.Warn("continuation fetch failed",
				logger.String("session", c.opts.SessionID), logger.String("mediaId", track.MediaID), logger.ErrorField(err))
			return
		}
		if c.queue.Owner() != model.QueueOwnerNone {
			return
		}

		items := c.upNextCandidates(track, tracks)
		c.queue.Replace(append([]model.Track{track}, items...), 0, model.QueueOwnerContinuation)
		logger.Debug("continuation installed",
			logger.String("session", c.opts.SessionID), logger.Int("tracks", len(items)))
		c.notifyLocked()
	}()
}

// fetchSuggestionsLocked offers follow-ups once the queue is exhausted.
// Nothing is auto-played.
func (c *Controller) fetchSuggestionsLocked(gen uint64, track model.Track) {
	c.suggestions = nil
	if c.upnext == nil {
		return
	}
	c.suggestionsLoading = true
	svc := c.upnext

	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.opts.ContinuationTimeout)
		defer cancel()

		tracks, err := svc.UpNext(ctx, track.MediaID)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || gen != c.loadGen {
			return
		}
		c.suggestionsLoading = false
		if err != nil {
			logger.Warn("suggestions fetch failed",
				logger.String("session", c.opts.SessionID), logger.String("mediaId", track.MediaID), logger.ErrorField(err))
			c.suggestions = nil
		} else {
			c.suggestions = c.upNextCandidates(track, tracks)
		}
		c.notifyLocked()
	}()
}

// ========== Sync tick ==========

// tick polls the player position and drives lyrics sync, stop-at and the
// crossfade fade-out. Stop-at takes precedence when both fall on one tick.
func (c *Controller) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.current == nil || c.player == nil || c.loading {
		return
	}
	switch c.phase {
	case model.PhasePlaying, model.PhaseBuffering, model.PhasePaused:
	default:
		return
	}

	t, err := c.player.CurrentTime()
	if err != nil {
		return
	}
	c.position = t
	if c.duration <= 0 {
		if d, err := c.player.Duration(); err == nil && d > 0 {
			c.duration = d
		}
	}
	c.lyricIndex = FindLyricIndex(c.lyricLines, secondsToMs(t))

	stopped := false
	if c.stopAt > 0 && t >= c.stopAt {
		c.stopAt = 0
		stopped = true
		logger.Debug("stop-at reached", logger.String("session", c.opts.SessionID), logger.Float64("position", t))
		c.pauseLocked()
	}

	if !stopped && c.isPlayingLocked() && c.crossfade > 0 && c.duration > 0 && !c.fadeOutStarted {
		remaining := c.duration - t
		if remaining > 0 && remaining <= float64(c.crossfade) {
			c.startFadeOutLocked(remaining)
		}
	}

	c.mediaPositionLocked()
	c.notifyLocked()
}

// ========== Fades ==========

func (c *Controller) startFadeInLocked() {
	c.cancelFadeInLocked()
	target := c.volume
	if target <= 0 || c.player == nil {
		return
	}

	steps := rampSteps(time.Duration(c.crossfade)*time.Second, c.opts.FadeInterval)
	r := NewRamp(0, target, steps)
	c.fadeIn = r
	_ = c.player.SetVolume(0)

	go r.Run(c.opts.FadeInterval, func(v int, done bool) bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.fadeIn != r || c.player == nil {
			return false
		}
		if v > c.volume {
			v = c.volume
		}
		_ = c.player.SetVolume(v)
		if done {
			c.fadeIn = nil
		}
		return true
	})
}

func (c *Controller) startFadeOutLocked(remaining float64) {
	c.cancelFadeInLocked()
	c.cancelFadeOutLocked()
	c.fadeOutStarted = true
	if c.volume <= 0 || c.player == nil {
		return
	}

	length := time.Duration(remaining * float64(time.Second))
	r := NewRamp(c.volume, 0, rampSteps(length, c.opts.FadeInterval))
	c.fadeOut = r
	logger.Debug("crossfade out", logger.String("session", c.opts.SessionID), logger.Float64("remaining", remaining))

	go r.Run(c.opts.FadeInterval, func(v int, done bool) bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.fadeOut != r || c.player == nil {
			return false
		}
		if v > c.volume {
			v = c.volume
		}
		_ = c.player.SetVolume(v)
		if done {
			c.fadeOut = nil
		}
		return true
	})
}

func (c *Controller) cancelFadeInLocked() {
	if c.fadeIn != nil {
		c.fadeIn.Cancel()
		c.fadeIn = nil
	}
}

func (c *Controller) cancelFadeOutLocked() {
	if c.fadeOut != nil {
		c.fadeOut.Cancel()
		c.fadeOut = nil
	}
}

func (c *Controller) cancelFadesLocked() {
	c.cancelFadeInLocked()
	c.cancelFadeOutLocked()
}
