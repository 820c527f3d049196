package player

import (
	"fmt"

	"Bt1QPlayer/model"
)

// Queue is an ordered track list with a cursor on the active entry. Entries
// are addressed by index only; the same track may appear more than once.
type Queue struct {
	tracks []model.Track
	cursor int
	// detached is set once the active entry has been removed. The cursor
	// then sits on the entry before the gap, so the next entry is the one
	// that followed the removed track.
	detached bool
	owner    model.QueueOwner
}

// NewQueue returns an empty queue with no active entry.
func NewQueue() Queue {
	return Queue{cursor: -1}
}

// Reset empties the queue and clears its owner.
func (q *Queue) Reset() {
	q.tracks = nil
	q.cursor = -1
	q.detached = false
	q.owner = model.QueueOwnerNone
}

// Replace installs tracks verbatim. A cursor outside the list becomes -1.
func (q *Queue) Replace(tracks []model.Track, cursor int, owner model.QueueOwner) {
	q.tracks = append([]model.Track(nil), tracks...)
	q.owner = owner
	if cursor < 0 || cursor >= len(q.tracks) {
		cursor = -1
	}
	q.cursor = cursor
	q.detached = false
}

func (q *Queue) Len() int                { return len(q.tracks) }
func (q *Queue) Cursor() int             { return q.cursor }
func (q *Queue) Owner() model.QueueOwner { return q.owner }

// Detached reports whether the active entry was removed from the list.
func (q *Queue) Detached() bool { return q.detached }

// At returns the track at index i.
func (q *Queue) At(i int) (model.Track, bool) {
	if i < 0 || i >= len(q.tracks) {
		return model.Track{}, false
	}
	return q.tracks[i], true
}

// Next returns the first playable entry after the cursor.
func (q *Queue) Next() (int, bool) {
	return nextPlayable(q.tracks, q.cursor+1)
}

// Prev returns the nearest playable entry before the active one. With a
// detached cursor the entry before the gap counts.
func (q *Queue) Prev() (int, bool) {
	from := q.cursor - 1
	if q.detached {
		from = q.cursor
	}
	for i := from; i >= 0 && i < len(q.tracks); i-- {
		if q.tracks[i].Playable() {
			return i, true
		}
	}
	return -1, false
}

// HasNext reports whether a playable entry exists after the cursor.
func (q *Queue) HasNext() bool {
	_, ok := q.Next()
	return ok
}

// nextPlayable returns the first playable track at or after index from.
func nextPlayable(tracks []model.Track, from int) (int, bool) {
	for i := max(from, 0); i < len(tracks); i++ {
		if tracks[i].Playable() {
			return i, true
		}
	}
	return -1, false
}

// SetCursor points the cursor at index i.
func (q *Queue) SetCursor(i int) error {
	if i < 0 || i >= len(q.tracks) {
		return fmt.Errorf("set cursor %d of %d: %w", i, len(q.tracks), ErrIndexOutOfRange)
	}
	q.cursor = i
	q.detached = false
	return nil
}

// Append adds a track at the end without moving the cursor.
func (q *Queue) Append(t model.Track) {
	q.tracks = append(q.tracks, t)
}

// Tracks returns a copy of the list.
func (q *Queue) Tracks() []model.Track {
	return append([]model.Track(nil), q.tracks...)
}

// Remove deletes the entry at index i. The cursor keeps pointing at the same
// logical entry. Removing the active entry detaches the cursor onto the
// entry before it (-1 at the head), so advancing lands on the entry that
// followed the removed one.
func (q *Queue) Remove(i int) error {
	if i < 0 || i >= len(q.tracks) {
		return fmt.Errorf("remove %d of %d: %w", i, len(q.tracks), ErrIndexOutOfRange)
	}
	q.tracks = append(q.tracks[:i], q.tracks[i+1:]...)

	switch {
	case q.cursor < 0:
	case i < q.cursor:
		q.cursor--
	case i == q.cursor:
		q.cursor = i - 1
		q.detached = true
	}
	if len(q.tracks) == 0 {
		q.cursor = -1
		q.detached = false
	}
	return nil
}

// Move relocates the entry at from to index to, shifting the entries in
// between. The cursor follows its logical entry.
func (q *Queue) Move(from, to int) error {
	n := len(q.tracks)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("move %d->%d of %d: %w", from, to, n, ErrIndexOutOfRange)
	}
	if from == to {
		return nil
	}

	t := q.tracks[from]
	q.tracks = append(q.tracks[:from], q.tracks[from+1:]...)
	q.tracks = append(q.tracks[:to], append([]model.Track{t}, q.tracks[to:]...)...)

	switch {
	case q.cursor < 0:
	case q.cursor == from:
		q.cursor = to
	case from < q.cursor && to >= q.cursor:
		q.cursor--
	case from > q.cursor && to <= q.cursor:
		q.cursor++
	}
	return nil
}
