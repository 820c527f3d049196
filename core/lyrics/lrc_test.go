package lyrics

import (
	"testing"

	"Bt1QPlayer/model"
)

func TestParseLRC(t *testing.T) {
	doc := `[ar:Someone]
[ti:Something]
[00:12.34]line one
[00:05.5][00:20.000]chorus

[01:02]late`

	lines := ParseLRC(doc)
	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines, got %d: %+v", len(lines), lines)
	}

	want := []struct {
		start int64
		text  string
	}{
		{5500, "chorus"},
		{12340, "line one"},
		{20000, "chorus"},
		{62000, "late"},
	}
	for i, w := range want {
		if lines[i].StartMs != w.start || lines[i].Text != w.text {
			t.Errorf("line %d: got %d %q, want %d %q", i, lines[i].StartMs, lines[i].Text, w.start, w.text)
		}
	}
	if lines[0].EndMs != lines[1].StartMs {
		t.Errorf("Expected end to match next start")
	}
	if lines[3].EndMs <= lines[3].StartMs {
		t.Errorf("Expected last line to have a positive window")
	}
}

func TestNormalize(t *testing.T) {
	in := []model.LyricLine{
		{ID: "x", StartMs: 3000, EndMs: 1000, Text: "c"},
		{StartMs: 0, EndMs: 1000, Text: "a"},
		{StartMs: 1000, EndMs: 0, Text: "b"},
	}
	out := Normalize(in)

	if out[0].Text != "a" || out[1].Text != "b" || out[2].Text != "c" {
		t.Fatalf("Expected sorted lines, got %+v", out)
	}
	if out[1].EndMs != 3000 {
		t.Errorf("Expected repaired end 3000, got %d", out[1].EndMs)
	}
	if out[2].EndMs <= out[2].StartMs {
		t.Errorf("Expected repaired last window")
	}
	if out[2].ID != "x" || out[0].ID == "" {
		t.Errorf("Expected ids kept or filled, got %q %q", out[2].ID, out[0].ID)
	}
	if in[0].Text != "c" {
		t.Errorf("Normalize must not modify its input")
	}
}
