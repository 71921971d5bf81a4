package pipeline

import (
	"testing"

	"github.com/rpger/content-extractor/internal/model"
)

func TestReorderBufferEmitsInOrder(t *testing.T) {
	buf := newReorderBuffer(1, 4)
	sec := func(page int) []model.Section {
		return []model.Section{{Page: page, Ordinal: 0}}
	}

	if got := buf.add(3, sec(3)); len(got) != 0 {
		t.Fatalf("page 3 emitted early: %v", got)
	}
	if got := buf.add(2, sec(2)); len(got) != 0 {
		t.Fatalf("page 2 emitted early: %v", got)
	}
	got := buf.add(1, sec(1))
	if len(got) != 3 || got[0].Page != 1 || got[1].Page != 2 || got[2].Page != 3 {
		t.Fatalf("drain after page 1 = %v", got)
	}
	got = buf.add(4, sec(4))
	if len(got) != 1 || got[0].Page != 4 {
		t.Fatalf("page 4 = %v", got)
	}
	if !buf.drained() {
		t.Fatal("buffer not drained")
	}
}

func TestReorderBufferHandlesEmptyPages(t *testing.T) {
	buf := newReorderBuffer(1, 3)
	buf.add(2, nil)
	got := buf.add(1, []model.Section{{Page: 1}})
	if len(got) != 1 {
		t.Fatalf("got %v", got)
	}
	got = buf.add(3, []model.Section{{Page: 3}})
	if len(got) != 1 || got[0].Page != 3 {
		t.Fatalf("got %v", got)
	}
	if !buf.drained() {
		t.Fatal("not drained")
	}
}
