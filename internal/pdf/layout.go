package pdf

import (
	"sort"
	"strings"
)

// chunk is one positioned text run on a page.
type chunk struct {
	X, Y, W float64
	S       string
}

// line is a horizontal row of chunks sharing a baseline.
type line struct {
	Y      float64
	Chunks []chunk
}

const yTolerance = 2.0

// assembleLines groups chunks into baselines, top of page first. PDF user
// space has Y growing upward, so lines sort by descending Y.
func assembleLines(chunks []chunk) []line {
	if len(chunks) == 0 {
		return nil
	}
	sorted := make([]chunk, len(chunks))
	copy(sorted, chunks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if diff := sorted[i].Y - sorted[j].Y; diff > yTolerance || diff < -yTolerance {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []line
	for _, c := range sorted {
		if n := len(lines); n > 0 && lines[n-1].Y-c.Y <= yTolerance {
			lines[n-1].Chunks = append(lines[n-1].Chunks, c)
			continue
		}
		lines = append(lines, line{Y: c.Y, Chunks: []chunk{c}})
	}
	return lines
}

func (l line) text() string {
	var b strings.Builder
	for i, c := range l.Chunks {
		if i > 0 {
			prev := l.Chunks[i-1]
			if c.X-(prev.X+prev.W) > 1.0 {
				b.WriteByte(' ')
			}
		}
		b.WriteString(c.S)
	}
	return strings.TrimRight(b.String(), " ")
}

// detectColumns reports whether the chunk X centers split into two groups
// separated by a gap wider than 10% of the page width.
func detectColumns(chunks []chunk, pageWidth float64) bool {
	if len(chunks) < 2 || pageWidth <= 0 {
		return false
	}
	centers := make([]float64, 0, len(chunks))
	for _, c := range chunks {
		if c.W > 50 {
			continue // wide runs span columns; they don't vote
		}
		centers = append(centers, c.X+c.W/2)
	}
	if len(centers) < 2 {
		return false
	}
	sort.Float64s(centers)
	for i := 1; i < len(centers); i++ {
		if centers[i]-centers[i-1] > pageWidth*0.1 {
			return true
		}
	}
	return false
}

// pageTextFromChunks reconstructs reading order. Two-column pages emit the
// left column top-to-bottom, then the right.
func pageTextFromChunks(chunks []chunk, pageWidth float64) string {
	if len(chunks) == 0 {
		return ""
	}
	if !detectColumns(chunks, pageWidth) {
		return joinLines(assembleLines(chunks))
	}

	mid := pageWidth / 2
	var left, right []chunk
	for _, c := range chunks {
		if c.X+c.W/2 < mid {
			left = append(left, c)
		} else {
			right = append(right, c)
		}
	}
	parts := make([]string, 0, 2)
	if s := joinLines(assembleLines(left)); s != "" {
		parts = append(parts, s)
	}
	if s := joinLines(assembleLines(right)); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

func joinLines(lines []line) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.text())
	}
	return b.String()
}
