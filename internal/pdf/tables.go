package pdf

import (
	"fmt"

	"github.com/rpger/content-extractor/internal/model"
)

const (
	minTableRows = 3 // header plus at least two data rows
	minTableCols = 2
	xAlignSlack  = 4.0
)

// detectTables finds column-aligned runs of lines and lifts them into
// tables. A candidate block is a maximal run of consecutive lines that all
// have at least minTableCols cells whose X starts align with the first line
// of the run.
func detectTables(lines []line, page int) []model.Table {
	var tables []model.Table
	i := 0
	for i < len(lines) {
		if len(lines[i].Chunks) < minTableCols {
			i++
			continue
		}
		anchor := cellStarts(lines[i])
		j := i + 1
		for j < len(lines) && aligned(anchor, cellStarts(lines[j])) {
			j++
		}
		if j-i >= minTableRows {
			tables = append(tables, buildTable(lines[i:j], page, len(tables)))
			i = j
			continue
		}
		i++
	}
	return tables
}

func cellStarts(l line) []float64 {
	starts := make([]float64, len(l.Chunks))
	for i, c := range l.Chunks {
		starts[i] = c.X
	}
	return starts
}

// aligned reports whether two rows share the same column structure.
func aligned(anchor, starts []float64) bool {
	if len(starts) != len(anchor) || len(starts) < minTableCols {
		return false
	}
	for i := range anchor {
		diff := anchor[i] - starts[i]
		if diff > xAlignSlack || diff < -xAlignSlack {
			return false
		}
	}
	return true
}

func buildTable(rows []line, page, ordinal int) model.Table {
	t := model.Table{
		ID:      fmt.Sprintf("p%d_t%d", page, ordinal),
		Page:    page,
		Ordinal: ordinal,
	}
	for _, c := range rows[0].Chunks {
		t.Headers = append(t.Headers, c.S)
	}
	for _, row := range rows[1:] {
		cells := make([]string, len(row.Chunks))
		for i, c := range row.Chunks {
			cells[i] = c.S
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}
