package lyrics

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"Bt1QPlayer/model"
)

// lastLineMs is how long the final line stays active when nothing follows it.
const lastLineMs = 5000

var lrcTag = regexp.MustCompile(`\[(\d{1,3}):(\d{1,2})(?:[.:](\d{1,3}))?\]`)

// ParseLRC converts an LRC document into timed lines. A line carrying several
// timestamps is emitted once per timestamp; metadata tags are skipped.
func ParseLRC(doc string) []model.LyricLine {
	var lines []model.LyricLine
	for _, raw := range strings.Split(doc, "\n") {
		raw = strings.TrimSpace(raw)
		tags := lrcTag.FindAllStringSubmatchIndex(raw, -1)
		if len(tags) == 0 {
			continue
		}
		text := strings.TrimSpace(raw[tags[len(tags)-1][1]:])
		for _, m := range tags {
			mins, _ := strconv.Atoi(raw[m[2]:m[3]])
			secs, _ := strconv.Atoi(raw[m[4]:m[5]])
			var frac int64
			if m[6] >= 0 {
				f := raw[m[6]:m[7]]
				n, _ := strconv.Atoi(f)
				switch len(f) {
				case 1:
					frac = int64(n) * 100
				case 2:
					frac = int64(n) * 10
				default:
					frac = int64(n)
				}
			}
			start := int64(mins)*60000 + int64(secs)*1000 + frac
			lines = append(lines, model.LyricLine{StartMs: start, Text: text})
		}
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].StartMs < lines[j].StartMs })
	for i := range lines {
		lines[i].ID = strconv.Itoa(i)
		if i+1 < len(lines) {
			lines[i].EndMs = lines[i+1].StartMs
		} else {
			lines[i].EndMs = lines[i].StartMs + lastLineMs
		}
	}
	return lines
}

// Normalize sorts lines by start time, fills missing ids and repairs
// windows whose end precedes their start.
func Normalize(lines []model.LyricLine) []model.LyricLine {
	if len(lines) == 0 {
		return nil
	}
	out := append([]model.LyricLine(nil), lines...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartMs < out[j].StartMs })
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = strconv.Itoa(i)
		}
		if out[i].EndMs >= out[i].StartMs {
			continue
		}
		if i+1 < len(out) {
			out[i].EndMs = out[i+1].StartMs
		} else {
			out[i].EndMs = out[i].StartMs + lastLineMs
		}
	}
	return out
}
