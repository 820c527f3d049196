package player

import (
	"fmt"
	"math/rand"
	"testing"

	"Bt1QPlayer/model"
)

func tracksN(n int) []model.Track {
	out := make([]model.Track, n)
	for i := range out {
		out[i] = model.Track{ID: fmt.Sprintf("t%d", i), MediaID: fmt.Sprintf("m%d", i), Title: fmt.Sprintf("Track %d", i)}
	}
	return out
}

func TestQueue_RemoveBeforeCursor(t *testing.T) {
	q := NewQueue()
	q.Replace(tracksN(5), 3, model.QueueOwnerUser)

	if err := q.Remove(1); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if q.Cursor() != 2 {
		t.Errorf("Expected cursor 2, got %d", q.Cursor())
	}
	cur, _ := q.At(q.Cursor())
	if cur.ID != "t3" {
		t.Errorf("Expected cursor on t3, got %s", cur.ID)
	}
}

func TestQueue_RemoveCursorEntry(t *testing.T) {
	q := NewQueue()
	q.Replace(tracksN(3), 2, model.QueueOwnerUser)

	_ = q.Remove(2)
	if q.Cursor() != 1 || !q.Detached() {
		t.Errorf("Expected cursor detached onto the previous entry, got %d", q.Cursor())
	}
	if q.HasNext() {
		t.Error("Removing the last entry leaves nothing to advance to")
	}

	_ = q.Remove(0)
	_ = q.Remove(0)
	if q.Len() != 0 || q.Cursor() != -1 {
		t.Errorf("Expected empty queue with cursor -1, got len=%d cursor=%d", q.Len(), q.Cursor())
	}
}

func TestQueue_RemoveOutOfRange(t *testing.T) {
	q := NewQueue()
	q.Replace(tracksN(2), 0, model.QueueOwnerUser)
	if err := q.Remove(5); err == nil {
		t.Error("Expected error for out of range remove")
	}
}

func TestQueue_MoveCases(t *testing.T) {
	tests := []struct {
		name     string
		cursor   int
		from, to int
		want     int
	}{
		{"cursor moved forward", 1, 1, 3, 3},
		{"cursor moved back", 3, 3, 0, 0},
		{"entry crosses cursor forward", 2, 0, 4, 1},
		{"entry crosses cursor back", 2, 4, 0, 3},
		{"entry lands on cursor from before", 2, 0, 2, 1},
		{"entry lands on cursor from after", 2, 4, 2, 3},
		{"unrelated move after cursor", 1, 3, 4, 1},
		{"unrelated move before cursor", 4, 0, 2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue()
			q.Replace(tracksN(5), tt.cursor, model.QueueOwnerUser)
			before, _ := q.At(tt.cursor)

			if err := q.Move(tt.from, tt.to); err != nil {
				t.Fatalf("Move failed: %v", err)
			}
			if q.Cursor() != tt.want {
				t.Errorf("Expected cursor %d, got %d", tt.want, q.Cursor())
			}
			after, _ := q.At(q.Cursor())
			if after.ID != before.ID {
				t.Errorf("Cursor entry changed from %s to %s", before.ID, after.ID)
			}
		})
	}
}

func TestQueue_DuplicatesAddressedByIndex(t *testing.T) {
	a := model.Track{ID: "a", MediaID: "a"}
	b := model.Track{ID: "b", MediaID: "b"}
	q := NewQueue()
	q.Replace([]model.Track{a, b, a}, 2, model.QueueOwnerUser)

	_ = q.Remove(0)
	if q.Len() != 2 || q.Cursor() != 1 {
		t.Fatalf("Expected len 2 cursor 1, got len=%d cursor=%d", q.Len(), q.Cursor())
	}
	cur, _ := q.At(1)
	if cur.ID != "a" {
		t.Errorf("Expected duplicate a to remain current, got %s", cur.ID)
	}
}

// Random remove/move sequences must keep the cursor on the same logical
// entry unless that entry itself was removed.
func TestQueue_CursorFollowsEntry(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		n := 2 + rng.Intn(8)
		q := NewQueue()
		q.Replace(tracksN(n), rng.Intn(n), model.QueueOwnerUser)

		for step := 0; step < 20 && q.Len() > 0; step++ {
			cur, _ := q.At(q.Cursor())
			oldCursor := q.Cursor()
			follower, hasFollower := q.At(oldCursor + 1)

			if rng.Intn(2) == 0 {
				i := rng.Intn(q.Len())
				if err := q.Remove(i); err != nil {
					t.Fatalf("round %d: Remove(%d) failed: %v", round, i, err)
				}
				if q.Len() == 0 {
					if q.Cursor() != -1 {
						t.Fatalf("round %d: expected cursor -1 on empty queue, got %d", round, q.Cursor())
					}
					break
				}
				if i == oldCursor {
					if q.Cursor() != i-1 || !q.Detached() {
						t.Fatalf("round %d: removed cursor entry %d, expected detached cursor %d, got %d", round, i, i-1, q.Cursor())
					}
					next, ok := q.Next()
					if ok != hasFollower {
						t.Fatalf("round %d: next exists %v, follower exists %v", round, ok, hasFollower)
					}
					if ok {
						if got, _ := q.At(next); got.ID != follower.ID {
							t.Fatalf("round %d: expected next %s, got %s", round, follower.ID, got.ID)
						}
					}
					_ = q.SetCursor(rng.Intn(q.Len()))
					continue
				}
			} else {
				from, to := rng.Intn(q.Len()), rng.Intn(q.Len())
				if err := q.Move(from, to); err != nil {
					t.Fatalf("round %d: Move(%d,%d) failed: %v", round, from, to, err)
				}
			}

			if q.Cursor() < 0 || q.Cursor() >= q.Len() {
				t.Fatalf("round %d: cursor %d out of range for len %d", round, q.Cursor(), q.Len())
			}
			got, _ := q.At(q.Cursor())
			if got.ID != cur.ID {
				t.Fatalf("round %d step %d: cursor moved from %s to %s", round, step, cur.ID, got.ID)
			}
		}
	}
}

func TestQueue_HasNext(t *testing.T) {
	q := NewQueue()
	if q.HasNext() {
		t.Error("Empty queue should not have next")
	}
	q.Replace(tracksN(2), 0, model.QueueOwnerUser)
	if !q.HasNext() {
		t.Error("Expected next at cursor 0 of 2")
	}
	_ = q.SetCursor(1)
	if q.HasNext() {
		t.Error("Expected no next at last entry")
	}
}

func TestQueue_RemoveCursorAdvancesToFollower(t *testing.T) {
	tests := []struct {
		name     string
		cursor   int
		remove   int
		wantNext string
		wantPrev string
	}{
		{"middle", 1, 1, "t2", "t0"},
		{"head", 0, 0, "t1", ""},
		{"tail", 2, 2, "", "t1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue()
			q.Replace(tracksN(3), tt.cursor, model.QueueOwnerPlaylist)
			if err := q.Remove(tt.remove); err != nil {
				t.Fatalf("Remove failed: %v", err)
			}

			next := ""
			if i, ok := q.Next(); ok {
				tr, _ := q.At(i)
				next = tr.ID
			}
			prev := ""
			if i, ok := q.Prev(); ok {
				tr, _ := q.At(i)
				prev = tr.ID
			}
			if next != tt.wantNext || prev != tt.wantPrev {
				t.Errorf("Expected next %q prev %q, got %q %q", tt.wantNext, tt.wantPrev, next, prev)
			}
		})
	}
}

func TestQueue_NextPrevSkipUnplayable(t *testing.T) {
	tracks := tracksN(5)
	tracks[1].MediaID = ""
	tracks[3].MediaID = ""

	q := NewQueue()
	q.Replace(tracks, 2, model.QueueOwnerPlaylist)

	if i, ok := q.Next(); !ok || i != 4 {
		t.Errorf("Expected next 4, got %d %v", i, ok)
	}
	if i, ok := q.Prev(); !ok || i != 0 {
		t.Errorf("Expected prev 0, got %d %v", i, ok)
	}

	_ = q.SetCursor(4)
	if q.HasNext() {
		t.Error("Expected no next at the tail")
	}
	tracks[4].MediaID = ""
	q.Replace(tracks, 2, model.QueueOwnerPlaylist)
	if q.HasNext() {
		t.Error("Unplayable entries must not count as next")
	}
}

func TestQueue_SetCursorReattaches(t *testing.T) {
	q := NewQueue()
	q.Replace(tracksN(3), 1, model.QueueOwnerUser)
	_ = q.Remove(1)
	if !q.Detached() {
		t.Fatal("Expected detached cursor")
	}
	_ = q.SetCursor(1)
	if q.Detached() || q.Cursor() != 1 {
		t.Errorf("Expected attached cursor 1, got %d detached=%v", q.Cursor(), q.Detached())
	}
}
