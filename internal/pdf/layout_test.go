package pdf

import (
	"strings"
	"testing"
)

func TestAssembleLinesOrdersTopDown(t *testing.T) {
	chunks := []chunk{
		{X: 10, Y: 100, W: 30, S: "bottom"},
		{X: 10, Y: 700, W: 30, S: "top"},
		{X: 45, Y: 700, W: 30, S: "right"},
	}
	lines := assembleLines(chunks)
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if got := lines[0].text(); got != "top right" {
		t.Errorf("first line = %q, want %q", got, "top right")
	}
	if got := lines[1].text(); got != "bottom" {
		t.Errorf("second line = %q, want %q", got, "bottom")
	}
}

func TestDetectColumns(t *testing.T) {
	pageWidth := 600.0
	single := []chunk{
		{X: 50, Y: 700, W: 20, S: "a"},
		{X: 80, Y: 650, W: 20, S: "b"},
	}
	if detectColumns(single, pageWidth) {
		t.Error("single-column page detected as multi-column")
	}

	double := []chunk{
		{X: 50, Y: 700, W: 20, S: "left"},
		{X: 60, Y: 650, W: 20, S: "left2"},
		{X: 400, Y: 700, W: 20, S: "right"},
		{X: 410, Y: 650, W: 20, S: "right2"},
	}
	if !detectColumns(double, pageWidth) {
		t.Error("two-column page not detected")
	}
}

func TestPageTextFromChunksColumnOrder(t *testing.T) {
	pageWidth := 600.0
	chunks := []chunk{
		{X: 400, Y: 700, W: 20, S: "R1"},
		{X: 50, Y: 700, W: 20, S: "L1"},
		{X: 400, Y: 650, W: 20, S: "R2"},
		{X: 50, Y: 650, W: 20, S: "L2"},
	}
	got := pageTextFromChunks(chunks, pageWidth)
	wantOrder := []string{"L1", "L2", "R1", "R2"}
	idx := -1
	for _, token := range wantOrder {
		next := strings.Index(got, token)
		if next < idx {
			t.Fatalf("reading order wrong: %q", got)
		}
		idx = next
	}
}
