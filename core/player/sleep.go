package player

import (
	"time"

	"Bt1QPlayer/logger"
)

// SetSleepTimer pauses playback once d has elapsed. A new timer replaces the
// previous one.
func (c *Controller) SetSleepTimer(d time.Duration) error {
	if d <= 0 {
		return ErrInvalidSleep
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.clearSleepLocked()
	c.sleepSeq++
	seq := c.sleepSeq
	c.sleepAt = time.Now().Add(d)
	c.sleepTimer = time.AfterFunc(d, func() { c.sleepFired(seq) })

	logger.Info("sleep timer set", logger.String("session", c.opts.SessionID), logger.Duration("after", d))
	c.notifyLocked()
	return nil
}

// SetSleepAtTrackEnd stops auto-advance after the current track.
func (c *Controller) SetSleepAtTrackEnd(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		// replaces a running sleep timer
		c.clearSleepLocked()
	}
	c.sleepAtEnd = on
	c.notifyLocked()
}

// CancelSleep clears both sleep modes.
func (c *Controller) CancelSleep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearSleepLocked()
	c.notifyLocked()
}

func (c *Controller) clearSleepLocked() {
	if c.sleepTimer != nil {
		c.sleepTimer.Stop()
		c.sleepTimer = nil
	}
	c.sleepSeq++
	c.sleepAt = time.Time{}
	c.sleepAtEnd = false
}

func (c *Controller) sleepFired(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.sleepSeq {
		return
	}
	c.sleepTimer = nil
	c.sleepAt = time.Time{}

	if c.player != nil && c.current != nil && c.isPlayingLocked() {
		c.cancelFadesLocked()
		c.fadeOutStarted = false
		c.pauseLocked()
		c.applyVolumeLocked()
	}
	logger.Info("sleep timer fired", logger.String("session", c.opts.SessionID))
	c.notifyLocked()
}
