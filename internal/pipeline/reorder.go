package pipeline

import "github.com/rpger/content-extractor/internal/model"

// reorderBuffer accepts sections completed out of order by the page
// workers and drains them in (page, ordinal) order.
type reorderBuffer struct {
	pending  map[int][]model.Section // keyed by page
	nextPage int
	lastPage int
}

func newReorderBuffer(firstPage, lastPage int) *reorderBuffer {
	return &reorderBuffer{
		pending:  make(map[int][]model.Section),
		nextPage: firstPage,
		lastPage: lastPage,
	}
}

// add offers a page's sections (already ordinal-ordered within the page)
// and returns every section that is now ready to emit in order.
func (r *reorderBuffer) add(page int, sections []model.Section) []model.Section {
	r.pending[page] = sections
	var ready []model.Section
	for {
		secs, ok := r.pending[r.nextPage]
		if !ok {
			break
		}
		ready = append(ready, secs...)
		delete(r.pending, r.nextPage)
		r.nextPage++
		if r.nextPage > r.lastPage {
			break
		}
	}
	return ready
}

// drained reports whether every page up to lastPage has been emitted.
func (r *reorderBuffer) drained() bool {
	return r.nextPage > r.lastPage && len(r.pending) == 0
}
