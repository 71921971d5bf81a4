package pdf

import (
	"context"

	"github.com/rpger/content-extractor/internal/model"
)

// Metadata is the document-info dictionary. Missing fields are empty
// strings, never errors.
type Metadata struct {
	Title     string
	Author    string
	Subject   string
	Keywords  string
	PageCount int
}

// PageText is the text of one page, with the OCR fallback marked.
type PageText struct {
	Text          string
	OCRUsed       bool
	OCRConfidence float64 // only meaningful when OCRUsed
}

// Document is an open PDF handle.
type Document interface {
	Metadata() Metadata
	PageCount() int
	// PageText returns the native text layer for page i (1-based), falling
	// back to rasterize+OCR when the page has none.
	PageText(ctx context.Context, i int) (PageText, error)
	// PageTables returns zero or more detected tables; an empty list is not
	// an error.
	PageTables(ctx context.Context, i int) ([]model.Table, error)
	// FirstPagesText concatenates the first n page texts bounded to maxChars;
	// the bool reports truncation.
	FirstPagesText(ctx context.Context, n, maxChars int) (string, bool, error)
	Close() error
}

// Opener opens a document from bytes.
type Opener interface {
	Open(ctx context.Context, blob []byte, name string) (Document, error)
}
