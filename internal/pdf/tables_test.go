package pdf

import "testing"

func row(y float64, cells ...string) line {
	l := line{Y: y}
	x := 50.0
	for _, c := range cells {
		l.Chunks = append(l.Chunks, chunk{X: x, Y: y, W: 40, S: c})
		x += 100
	}
	return l
}

func TestDetectTables(t *testing.T) {
	lines := []line{
		row(700, "Weapon Damage Table"),
		row(680, "Weapon", "Damage", "Weight"),
		row(660, "Dagger", "1d4", "1"),
		row(640, "Longsword", "1d8", "4"),
		row(620, "prose resumes here"),
	}
	tables := detectTables(lines, 7)
	if len(tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(tables))
	}
	tbl := tables[0]
	if tbl.Page != 7 || tbl.Ordinal != 0 {
		t.Errorf("locator = (%d,%d), want (7,0)", tbl.Page, tbl.Ordinal)
	}
	if len(tbl.Headers) != 3 || tbl.Headers[0] != "Weapon" {
		t.Errorf("headers = %v", tbl.Headers)
	}
	if len(tbl.Rows) != 2 || tbl.Rows[1][1] != "1d8" {
		t.Errorf("rows = %v", tbl.Rows)
	}
}

func TestDetectTablesIgnoresProse(t *testing.T) {
	lines := []line{
		row(700, "Just a paragraph of flowing text"),
		row(680, "with single-cell lines"),
		row(660, "and no column alignment"),
	}
	if tables := detectTables(lines, 1); len(tables) != 0 {
		t.Fatalf("tables = %v, want none", tables)
	}
}

func TestDetectTablesNeedsThreeAlignedRows(t *testing.T) {
	lines := []line{
		row(700, "Name", "Value"),
		row(680, "a", "1"),
	}
	if tables := detectTables(lines, 1); len(tables) != 0 {
		t.Fatalf("two-row block should not be a table, got %v", tables)
	}
}
