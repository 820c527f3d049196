package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"

	"Bt1QPlayer/logger"
	"Bt1QPlayer/model"
)

type loadKind int

const (
	loadManual loadKind = iota
	loadQueue
)

type loadRequest struct {
	mediaID string
	start   float64
	gen     uint64
}

// Controller owns one listening session: the embedded player, the queue,
// lyrics, crossfade and stop-at. All state lives behind mu; player events and
// the poll ticker are serialized through the run loop.
type Controller struct {
	mu   sync.Mutex
	opts Options

	factory PlayerFactory
	lyrics  LyricsService
	upnext  ContinuationService

	player      EmbeddedPlayer
	playerReady bool
	pending     *loadRequest

	phase    model.PlayerPhase
	current  *model.Track
	queue    Queue
	position float64
	duration float64
	volume   int
	ready    bool

	lyricLines     []model.LyricLine
	lyricsLoading  bool
	lyricsNotFound bool
	lyricIndex     int
	lyricsCancel   context.CancelFunc

	suggestions        []model.Track
	suggestionsLoading bool

	crossfade      int
	fadeIn         *Ramp
	fadeOut        *Ramp
	fadeOutStarted bool

	stopAt        float64
	pendingStopAt float64

	// loadGen bumps on every load and on Stop; async results carrying an
	// older generation are discarded.
	loadGen   uint64
	loading   bool
	loadKind  loadKind
	loadDone  chan struct{}
	loadTimer *time.Timer
	// awaitingStart marks a load that resolved paused; the first playing
	// event still runs the track-start work.
	awaitingStart bool

	sleepTimer *time.Timer
	sleepSeq   uint64
	sleepAt    time.Time
	sleepAtEnd bool

	events  chan Event
	changed chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closed  bool
}

// New starts a controller. The player is created on the first load.
func New(factory PlayerFactory, lyrics LyricsService, upnext ContinuationService, opts Options) *Controller {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		opts:       opts,
		factory:    factory,
		lyrics:     lyrics,
		upnext:     upnext,
		phase:      model.PhaseIdle,
		queue:      NewQueue(),
		volume:     lo.Clamp(opts.Volume, 0, 100),
		crossfade:  lo.Clamp(opts.Crossfade, 0, MaxCrossfade),
		lyricIndex: -1,
		events:     make(chan Event, 64),
		changed:    make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
	}

	c.wg.Add(2)
	go c.run()
	go c.publish()
	return c
}

// run serializes player events and position polling.
func (c *Controller) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-c.events:
			c.handleEvent(ev)
		case <-ticker.C:
			c.tick()
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Controller) publish() {
	defer c.wg.Done()
	for {
		select {
		case <-c.changed:
			if c.opts.OnChange != nil {
				c.opts.OnChange(c.State())
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// dispatch is handed to the player factory.
func (c *Controller) dispatch(ev Event) {
	select {
	case c.events <- ev:
	case <-c.ctx.Done():
	}
}

func (c *Controller) notifyLocked() {
	select {
	case c.changed <- struct{}{}:
	default:
	}
}

// State returns a snapshot of the session.
func (c *Controller) State() model.PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := model.PlaybackState{
		SessionID:          c.opts.SessionID,
		Phase:              c.phase,
		IsPlaying:          c.isPlayingLocked(),
		IsLoading:          c.loading,
		Ready:              c.ready,
		Position:           c.position,
		Duration:           c.duration,
		Volume:             c.volume,
		Lyrics:             append([]model.LyricLine(nil), c.lyricLines...),
		LyricsLoading:      c.lyricsLoading,
		LyricsNotFound:     c.lyricsNotFound,
		LyricIndex:         c.lyricIndex,
		Queue:              c.queue.Tracks(),
		QueueIndex:         c.queueIndexLocked(),
		QueueOwner:         c.queue.Owner(),
		Suggestions:        append([]model.Track(nil), c.suggestions...),
		SuggestionsLoading: c.suggestionsLoading,
		Crossfade:          c.crossfade,
		StopAt:             c.stopAt,
		PendingStopAt:      c.pendingStopAt,
		SleepAtEnd:         c.sleepAtEnd,
	}
	if c.current != nil {
		t := *c.current
		s.Current = &t
	}
	if !c.sleepAt.IsZero() {
		at := c.sleepAt
		s.SleepAt = &at
	}
	return s
}

func (c *Controller) isPlayingLocked() bool {
	return c.phase == model.PhasePlaying || c.phase == model.PhaseBuffering
}

// WaitLoaded blocks until the in-flight load resolves, successfully or not.
func (c *Controller) WaitLoaded(ctx context.Context) error {
	c.mu.Lock()
	ch := c.loadDone
	c.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ========== Playback commands ==========

// PlayManual plays a track chosen directly by the user. The queue is reset
// and an up-next continuation is fetched once playback starts. A stopAt
// greater than start is applied once the track is playing.
func (c *Controller) PlayManual(track model.Track, start, stopAt float64) error {
	if !track.Playable() {
		return ErrNotPlayable
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.loading {
		logger.Debug("play dropped, load in progress",
			logger.String("session", c.opts.SessionID), logger.String("mediaId", track.MediaID))
		return ErrLoadInProgress
	}

	if start < 0 {
		start = 0
	}
	c.queue.Reset()
	c.clearSuggestionsLocked()
	c.stopAt = 0
	c.pendingStopAt = 0
	if stopAt > start {
		c.pendingStopAt = stopAt
	}

	c.recordPlay(track)
	c.beginLoadLocked(track, start, loadManual)
	return nil
}

// PlayFromQueue plays the queue entry at index.
func (c *Controller) PlayFromQueue(index int, start float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.playFromQueueLocked(index, start)
}

func (c *Controller) playFromQueueLocked(index int, start float64) error {
	if c.loading {
		return ErrLoadInProgress
	}
	t, ok := c.queue.At(index)
	if !ok {
		return fmt.Errorf("play queue entry %d: %w", index, ErrIndexOutOfRange)
	}
	if !t.Playable() {
		return ErrNotPlayable
	}
	if start < 0 {
		start = 0
	}

	_ = c.queue.SetCursor(index)
	c.stopAt = 0
	c.pendingStopAt = 0
	c.clearSuggestionsLocked()

	c.recordPlay(t)
	c.beginLoadLocked(t, start, loadQueue)
	return nil
}

// PlayPlaylist installs a user-curated list verbatim and plays from
// startIndex, which addresses the list as given. An unplayable start entry
// moves forward to the next playable one. No continuation is fetched.
func (c *Controller) PlayPlaylist(tracks []model.Track, startIndex int, owner model.QueueOwner) error {
	if len(tracks) == 0 {
		return ErrNotPlayable
	}
	if startIndex < 0 || startIndex >= len(tracks) {
		return fmt.Errorf("playlist start %d of %d: %w", startIndex, len(tracks), ErrIndexOutOfRange)
	}
	start, ok := nextPlayable(tracks, startIndex)
	if !ok {
		return ErrNotPlayable
	}
	if owner == model.QueueOwnerNone || owner == model.QueueOwnerContinuation {
		owner = model.QueueOwnerPlaylist
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.loading {
		return ErrLoadInProgress
	}

	c.queue.Replace(tracks, -1, owner)
	return c.playFromQueueLocked(start, 0)
}

// Enqueue appends a track to the queue. With no queue the current track, if
// any, becomes its first entry.
func (c *Controller) Enqueue(track model.Track) error {
	if !track.Playable() {
		return ErrNotPlayable
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	if c.queue.Len() == 0 {
		if c.current != nil {
			c.queue.Replace([]model.Track{*c.current, track}, 0, model.QueueOwnerUser)
		} else {
			c.queue.Replace([]model.Track{track}, -1, model.QueueOwnerUser)
		}
	} else {
		c.queue.Append(track)
	}
	c.notifyLocked()
	return nil
}

// TogglePlayPause flips between playing and paused. It does nothing while a
// load is in flight or when no track is loaded.
func (c *Controller) TogglePlayPause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.loading || c.player == nil {
		return nil
	}
	if c.isPlayingLocked() {
		c.pauseLocked()
	} else {
		c.resumeLocked()
	}
	return nil
}

// Pause pauses playback if playing.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.loading || c.player == nil || !c.isPlayingLocked() {
		return nil
	}
	c.pauseLocked()
	return nil
}

// Resume resumes playback if paused or ended.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.loading || c.player == nil || c.isPlayingLocked() {
		return nil
	}
	c.resumeLocked()
	return nil
}

// pauseLocked marks the session paused without waiting for the player.
func (c *Controller) pauseLocked() {
	if err := c.player.Pause(); err != nil {
		logger.Warn("player pause failed", logger.String("session", c.opts.SessionID), logger.ErrorField(err))
	}
	c.phase = model.PhasePaused
	c.mediaStateLocked()
	c.notifyLocked()
}

func (c *Controller) resumeLocked() {
	if err := c.player.Play(); err != nil {
		logger.Warn("player play failed", logger.String("session", c.opts.SessionID), logger.ErrorField(err))
	}
}

// Seek moves the playhead, clamped to [0, duration].
func (c *Controller) Seek(t float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ErrNoTrack
	}
	if c.loading {
		return ErrLoadInProgress
	}
	c.seekLocked(t)
	return nil
}

func (c *Controller) seekLocked(t float64) {
	if t < 0 {
		t = 0
	}
	if c.duration > 0 && t > c.duration {
		t = c.duration
	}
	if c.player != nil {
		if err := c.player.SeekTo(t); err != nil {
			logger.Warn("player seek failed", logger.String("session", c.opts.SessionID), logger.ErrorField(err))
		}
	}
	c.position = t
	c.lyricIndex = FindLyricIndex(c.lyricLines, secondsToMs(t))

	// back out of the crossfade window
	if c.fadeOutStarted && (c.crossfade == 0 || c.duration-t > float64(c.crossfade)) {
		c.cancelFadeOutLocked()
		c.fadeOutStarted = false
		c.applyVolumeLocked()
	}
	c.mediaPositionLocked()
	c.notifyLocked()
}

// SetVolume sets the configured volume, clamped to 0..100. Zero mutes.
func (c *Controller) SetVolume(v int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.volume = lo.Clamp(v, 0, 100)
	c.cancelFadeInLocked()
	if c.fadeOut == nil {
		c.applyVolumeLocked()
	}
	c.notifyLocked()
}

// applyVolumeLocked pushes the configured volume to the player.
func (c *Controller) applyVolumeLocked() {
	if c.player == nil {
		return
	}
	var err error
	if c.volume == 0 {
		err = c.player.Mute()
	} else {
		if err = c.player.Unmute(); err == nil {
			err = c.player.SetVolume(c.volume)
		}
	}
	if err != nil {
		logger.Debug("player volume failed", logger.String("session", c.opts.SessionID), logger.ErrorField(err))
	}
}

// queueIndexLocked is the active entry's index, or -1 once it was removed.
func (c *Controller) queueIndexLocked() int {
	if c.queue.Detached() {
		return -1
	}
	return c.queue.Cursor()
}

// PlayNext advances to the next playable queue entry. At the end of the
// queue it does nothing.
func (c *Controller) PlayNext() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return ErrLoadInProgress
	}
	next, ok := c.queue.Next()
	if !ok {
		return nil
	}
	return c.playFromQueueLocked(next, 0)
}

// PlayPrev restarts the track when past the restart threshold, otherwise
// moves to the previous queue entry, otherwise restarts.
func (c *Controller) PlayPrev() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return ErrLoadInProgress
	}
	if c.current == nil {
		return nil
	}
	if c.position <= c.opts.RestartThreshold {
		if prev, ok := c.queue.Prev(); ok {
			return c.playFromQueueLocked(prev, 0)
		}
	}
	c.seekLocked(0)
	return nil
}

// RemoveFromQueue removes the entry at index. Playback is unaffected.
func (c *Controller) RemoveFromQueue(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.queue.Remove(index); err != nil {
		return err
	}
	c.notifyLocked()
	return nil
}

// MoveInQueue moves the entry at from to index to.
func (c *Controller) MoveInQueue(from, to int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.queue.Move(from, to); err != nil {
		return err
	}
	c.notifyLocked()
	return nil
}

// SetCrossfade sets the fade length in seconds, clamped to 0..MaxCrossfade.
// Zero cancels any fade in progress.
func (c *Controller) SetCrossfade(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.crossfade = lo.Clamp(seconds, 0, MaxCrossfade)
	if c.crossfade == 0 {
		c.cancelFadesLocked()
		c.fadeOutStarted = false
		c.applyVolumeLocked()
	}
	c.notifyLocked()
}

// AcceptSuggestion turns the post-queue suggestions into the queue and plays
// the one at index.
func (c *Controller) AcceptSuggestion(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.loading {
		return ErrLoadInProgress
	}
	if index < 0 || index >= len(c.suggestions) {
		return fmt.Errorf("accept suggestion %d: %w", index, ErrIndexOutOfRange)
	}
	c.queue.Replace(c.suggestions, -1, model.QueueOwnerContinuation)
	return c.playFromQueueLocked(index, 0)
}

// DismissSuggestions clears the post-queue suggestions.
func (c *Controller) DismissSuggestions() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearSuggestionsLocked()
	c.notifyLocked()
}

func (c *Controller) clearSuggestionsLocked() {
	c.suggestions = nil
	c.suggestionsLoading = false
}

// Stop pauses the player and returns the session to idle. The player
// instance is kept for the next load.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	c.loadGen++
	c.cancelFadesLocked()
	c.fadeOutStarted = false
	c.cancelLyricsLocked()
	c.clearSleepLocked()

	if c.player != nil && c.current != nil {
		if err := c.player.Pause(); err != nil {
			logger.Debug("player pause on stop failed", logger.String("session", c.opts.SessionID), logger.ErrorField(err))
		}
		c.applyVolumeLocked()
	}

	c.current = nil
	c.queue.Reset()
	c.clearSuggestionsLocked()
	c.resetLyricsLocked()
	c.position = 0
	c.duration = 0
	c.ready = false
	c.stopAt = 0
	c.pendingStopAt = 0
	c.pending = nil
	c.loading = false
	c.awaitingStart = false
	c.closeLoadDoneLocked()
	c.phase = model.PhaseIdle

	c.mediaStateLocked()
	c.notifyLocked()
}

// Close stops playback, destroys the player and ends the run loop.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.stopLocked()
	c.closed = true
	var err error
	if c.player != nil {
		err = c.player.Destroy()
		c.player = nil
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	return err
}

// ========== History ==========

func (c *Controller) recordPlay(t model.Track) {
	h := c.opts.History
	if h == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.RecordPlay(ctx, t); err != nil {
			logger.Warn("record play failed", logger.String("mediaId", t.MediaID), logger.ErrorField(err))
		}
	}()
}

func (c *Controller) recordCompletion(t model.Track) {
	h := c.opts.History
	if h == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.RecordCompletion(ctx, t); err != nil {
			logger.Warn("record completion failed", logger.String("mediaId", t.MediaID), logger.ErrorField(err))
		}
	}()
}
