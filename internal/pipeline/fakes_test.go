package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/rpger/content-extractor/internal/common"
	"github.com/rpger/content-extractor/internal/docstore"
	"github.com/rpger/content-extractor/internal/model"
	"github.com/rpger/content-extractor/internal/pdf"
	"github.com/rpger/content-extractor/internal/vectorstore"
)

// fakeOpener serves a fixed set of page texts regardless of the blob.
type fakeOpener struct {
	pages []string
}

func (f *fakeOpener) Open(ctx context.Context, blob []byte, name string) (pdf.Document, error) {
	if len(f.pages) == 0 {
		return nil, common.Errorf(common.CodePDFEmpty, "%s: zero pages", name)
	}
	return &fakeDoc{pages: f.pages}, nil
}

type fakeDoc struct {
	pages []string
}

func (d *fakeDoc) Metadata() pdf.Metadata { return pdf.Metadata{PageCount: len(d.pages)} }
func (d *fakeDoc) PageCount() int         { return len(d.pages) }

func (d *fakeDoc) PageText(ctx context.Context, i int) (pdf.PageText, error) {
	if i < 1 || i > len(d.pages) {
		return pdf.PageText{}, common.Errorf(common.CodePageFailed, "page %d", i)
	}
	return pdf.PageText{Text: d.pages[i-1]}, nil
}

func (d *fakeDoc) PageTables(ctx context.Context, i int) ([]model.Table, error) {
	return nil, nil
}

func (d *fakeDoc) FirstPagesText(ctx context.Context, n, maxChars int) (string, bool, error) {
	if n > len(d.pages) {
		n = len(d.pages)
	}
	joined := strings.Join(d.pages[:n], "\n\f\n")
	if maxChars > 0 && len(joined) > maxChars {
		return joined[:maxChars], true, nil
	}
	return joined, false, nil
}

func (d *fakeDoc) Close() error { return nil }

// fakeVectors records upserts in memory.
type fakeVectors struct {
	mu          sync.Mutex
	fail        bool
	collections map[string][]vectorstore.Record
}

func newFakeVectors() *fakeVectors {
	return &fakeVectors{collections: make(map[string][]vectorstore.Record)}
}

func (f *fakeVectors) EnsureCollection(ctx context.Context, name string) error {
	if f.fail {
		return common.Errorf(common.CodeStoreUnreachable, "vector store offline")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.collections[name]; !ok {
		f.collections[name] = nil
	}
	return nil
}

func (f *fakeVectors) UpsertSections(ctx context.Context, name string, records []vectorstore.Record) error {
	if f.fail {
		return common.Errorf(common.CodeStoreUnreachable, "vector store offline")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[name] = append(f.collections[name], records...)
	return nil
}

func (f *fakeVectors) ListCollections(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for name := range f.collections {
		out = append(out, name)
	}
	return out, nil
}

func (f *fakeVectors) Sample(ctx context.Context, name string, limit int) ([]vectorstore.Sampled, error) {
	return nil, nil
}

func (f *fakeVectors) Count(ctx context.Context, name string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.collections[name]), nil
}

func (f *fakeVectors) Ping(ctx context.Context) error {
	if f.fail {
		return common.Errorf(common.CodeStoreUnreachable, "vector store offline")
	}
	return nil
}

func (f *fakeVectors) records(name string) []vectorstore.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]vectorstore.Record, len(f.collections[name]))
	copy(out, f.collections[name])
	return out
}

// fakeDocs records inserted documents in memory.
type fakeDocs struct {
	mu          sync.Mutex
	fail        bool
	wholeDocs   map[string][]model.Artifact
	splitCounts map[string]int
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{
		wholeDocs:   make(map[string][]model.Artifact),
		splitCounts: make(map[string]int),
	}
}

func (f *fakeDocs) EnsureCollection(ctx context.Context, name string) error {
	if f.fail {
		return common.Errorf(common.CodeStoreUnreachable, "document store offline")
	}
	return nil
}

func (f *fakeDocs) InsertWhole(ctx context.Context, name string, artifact model.Artifact, folder string) (string, error) {
	if f.fail {
		return "", common.Errorf(common.CodeStoreUnreachable, "document store offline")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wholeDocs[name] = append(f.wholeDocs[name], artifact)
	return "doc1", nil
}

func (f *fakeDocs) InsertSplit(ctx context.Context, name string, artifact model.Artifact, folder string) ([]string, error) {
	if f.fail {
		return nil, common.Errorf(common.CodeStoreUnreachable, "document store offline")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.splitCounts[name] += len(artifact.Sections)
	ids := make([]string, len(artifact.Sections))
	return ids, nil
}

func (f *fakeDocs) PageThrough(ctx context.Context, name string, offset, limit int, filter map[string]any) (docstore.Page, error) {
	return docstore.Page{}, nil
}

func (f *fakeDocs) SearchText(ctx context.Context, name, query string, limit int) ([]map[string]any, error) {
	return nil, nil
}

func (f *fakeDocs) ListCollections(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeDocs) Ping(ctx context.Context) error {
	if f.fail {
		return common.Errorf(common.CodeStoreUnreachable, "document store offline")
	}
	return nil
}

var (
	_ vectorstore.Store = (*fakeVectors)(nil)
	_ docstore.Store    = (*fakeDocs)(nil)
)
