package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	ledongthuc "github.com/ledongthuc/pdf"

	"github.com/rpger/content-extractor/internal/common"
	"github.com/rpger/content-extractor/internal/model"
)

// Facade opens PDF blobs using the native text layer, with a rasterize+OCR
// fallback for pages that have none.
type Facade struct {
	ocr    *ocrFallback
	logger *slog.Logger
}

// NewFacade builds the default opener. ocr may be nil, in which case pages
// without a text layer report ocr_unavailable.
func NewFacade(ocr *OCRConfig, logger *slog.Logger) *Facade {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Facade{logger: logger}
	if ocr != nil {
		f.ocr = newOCRFallback(*ocr, execRunner{}, logger)
	}
	return f
}

// Open implements Opener.
func (f *Facade) Open(ctx context.Context, blob []byte, name string) (Document, error) {
	if len(blob) == 0 {
		return nil, common.Errorf(common.CodePDFEmpty, "%s: empty upload", name)
	}
	reader, err := openReader(blob)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "encrypt") {
			return nil, common.NewAppError(common.CodePDFEncrypted, name, err)
		}
		return nil, common.NewAppError(common.CodePDFUnreadable, name, err)
	}
	if reader.NumPage() == 0 {
		return nil, common.Errorf(common.CodePDFEmpty, "%s: zero pages", name)
	}
	return &document{
		name:   name,
		blob:   blob,
		reader: reader,
		ocr:    f.ocr,
		logger: f.logger,
	}, nil
}

// openReader isolates the third-party parser, which panics on some
// structurally corrupt inputs.
func openReader(blob []byte) (r *ledongthuc.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parse pdf: %v", rec)
		}
	}()
	return ledongthuc.NewReader(bytes.NewReader(blob), int64(len(blob)))
}

type document struct {
	name   string
	blob   []byte
	reader *ledongthuc.Reader
	ocr    *ocrFallback
	logger *slog.Logger

	once sync.Once
	meta Metadata
}

func (d *document) Metadata() Metadata {
	d.once.Do(func() {
		d.meta = Metadata{PageCount: d.reader.NumPage()}
		info := d.reader.Trailer().Key("Info")
		if !info.IsNull() {
			d.meta.Title = info.Key("Title").RawString()
			d.meta.Author = info.Key("Author").RawString()
			d.meta.Subject = info.Key("Subject").RawString()
			d.meta.Keywords = info.Key("Keywords").RawString()
		}
	})
	return d.meta
}

func (d *document) PageCount() int {
	return d.reader.NumPage()
}

func (d *document) PageText(ctx context.Context, i int) (PageText, error) {
	if i < 1 || i > d.reader.NumPage() {
		return PageText{}, common.Errorf(common.CodePageFailed, "page %d out of range", i)
	}
	chunks, width, err := d.pageChunks(i)
	if err == nil && len(chunks) > 0 {
		return PageText{Text: pageTextFromChunks(chunks, width)}, nil
	}

	// No native text layer; rasterize and OCR.
	if d.ocr == nil || !d.ocr.available() {
		return PageText{}, common.Errorf(common.CodeOCRUnavailable, "%s page %d has no text layer", d.name, i)
	}
	text, conf, ocrErr := d.ocr.pageText(ctx, d.blob, i)
	if ocrErr != nil {
		if common.HasCode(ocrErr, common.CodeOCRUnavailable) {
			return PageText{}, ocrErr
		}
		return PageText{}, common.NewAppError(common.CodePageFailed, fmt.Sprintf("%s page %d", d.name, i), ocrErr)
	}
	return PageText{Text: text, OCRUsed: true, OCRConfidence: conf}, nil
}

func (d *document) PageTables(ctx context.Context, i int) ([]model.Table, error) {
	if i < 1 || i > d.reader.NumPage() {
		return nil, common.Errorf(common.CodePageFailed, "page %d out of range", i)
	}
	chunks, _, err := d.pageChunks(i)
	if err != nil || len(chunks) == 0 {
		// OCR output carries no geometry; no tables from raster pages.
		return nil, nil
	}
	return detectTables(assembleLines(chunks), i), nil
}

func (d *document) FirstPagesText(ctx context.Context, n, maxChars int) (string, bool, error) {
	if n > d.reader.NumPage() {
		n = d.reader.NumPage()
	}
	var b strings.Builder
	truncated := false
	for i := 1; i <= n; i++ {
		pt, err := d.PageText(ctx, i)
		if err != nil {
			// Identification text is best-effort; a bad page contributes
			// nothing.
			d.logger.Debug("pdf.first_pages.page_skipped", "page", i, "error", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(pt.Text)
		if maxChars > 0 && b.Len() >= maxChars {
			truncated = true
			break
		}
	}
	text := b.String()
	if maxChars > 0 && len(text) > maxChars {
		text = text[:maxChars]
		truncated = true
	}
	return text, truncated, nil
}

func (d *document) Close() error {
	return nil
}

// pageChunks extracts positioned text runs and the page width.
func (d *document) pageChunks(i int) (chunks []chunk, width float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d content: %v", i, rec)
		}
	}()
	page := d.reader.Page(i)
	if page.V.IsNull() {
		return nil, 0, fmt.Errorf("page %d missing", i)
	}
	box := page.V.Key("MediaBox")
	if !box.IsNull() {
		width = box.Index(2).Float64() - box.Index(0).Float64()
	}
	content := page.Content()
	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		chunks = append(chunks, chunk{X: t.X, Y: t.Y, W: t.W, S: t.S})
	}
	return chunks, width, nil
}
