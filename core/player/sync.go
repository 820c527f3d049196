package player

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"Bt1QPlayer/model"
)

// FindLyricIndex returns the line active at posMs, or -1. A line whose
// [start, end) window contains the position wins; otherwise the last line
// that started at or before it is held.
func FindLyricIndex(lines []model.LyricLine, posMs int64) int {
	if posMs < 0 || len(lines) == 0 {
		return -1
	}
	for i, l := range lines {
		if posMs >= l.StartMs && posMs < l.EndMs {
			return i
		}
	}
	return sort.Search(len(lines), func(i int) bool {
		return lines[i].StartMs > posMs
	}) - 1
}

func secondsToMs(s float64) int64 {
	return int64(math.Round(s * 1000))
}

var trailingGroup = regexp.MustCompile(`\s*[\(\[][^\(\)\[\]]*[\)\]]\s*$`)

// CleanTitle strips trailing "(Live)", "[Remastered]" and " - Radio Edit"
// style decorations before a lyrics lookup.
func CleanTitle(title string) string {
	s := strings.TrimSpace(title)
	for {
		next := trailingGroup.ReplaceAllString(s, "")
		if i := strings.LastIndex(next, " - "); i > 0 {
			next = next[:i]
		}
		next = strings.TrimSpace(next)
		if next == "" || next == s {
			break
		}
		s = next
	}
	return s
}
