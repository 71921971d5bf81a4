package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rpger/content-extractor/internal/common"
)

// OCRConfig configures the rasterize+OCR fallback.
type OCRConfig struct {
	Pdftoppm      string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string
	DPI           int // rasterization DPI, default 300
}

type ocrFallback struct {
	cfg    OCRConfig
	runner Runner
	logger *slog.Logger
}

func newOCRFallback(cfg OCRConfig, runner Runner, logger *slog.Logger) *ocrFallback {
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &ocrFallback{cfg: cfg, runner: runner, logger: logger}
}

func (o *ocrFallback) available() bool {
	if _, err := exec.LookPath(o.cfg.Pdftoppm); err != nil {
		return false
	}
	if _, err := exec.LookPath(o.cfg.Tesseract); err != nil {
		return false
	}
	return true
}

// pageText rasterizes a single page and runs tesseract over it.
func (o *ocrFallback) pageText(ctx context.Context, blob []byte, page int) (string, float64, error) {
	if !o.available() {
		return "", 0, common.Errorf(common.CodeOCRUnavailable, "pdftoppm/tesseract not on PATH")
	}

	tmpDir, err := os.MkdirTemp("", "rpger-ocr-*")
	if err != nil {
		return "", 0, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			o.logger.Warn("ocr.tmpdir.remove_failed", "dir", tmpDir, "error", err)
		}
	}()

	pdfPath := filepath.Join(tmpDir, "doc.pdf")
	if err := os.WriteFile(pdfPath, blob, 0o600); err != nil {
		return "", 0, err
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -f N -l N -r 300 -png doc.pdf <tmp/page>
	_, errb, err := o.runner.Run(ctx, o.cfg.Pdftoppm,
		"-f", fmt.Sprintf("%d", page), "-l", fmt.Sprintf("%d", page),
		"-r", fmt.Sprintf("%d", o.cfg.DPI), "-png", pdfPath, prefix)
	if err != nil {
		return "", 0, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", 0, fmt.Errorf("pdftoppm produced no image for page %d", page)
	}

	text, err := o.tesseract(ctx, matches[0])
	if err != nil {
		return "", 0, err
	}
	return text, ocrHeuristicConfidence(text), nil
}

func (o *ocrFallback) tesseract(ctx context.Context, img string) (string, error) {
	args := []string{img, "stdout", "-l", o.cfg.TesseractLang}
	if o.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", o.cfg.TessdataDir)
	}
	args = append(args, "--psm", "6")
	out, errb, err := o.runner.Run(ctx, o.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

// ocrHeuristicConfidence estimates decode quality from text shape: the
// share of alphabetic tokens, the token count and the overall text length.
func ocrHeuristicConfidence(txt string) float64 {
	fields := strings.Fields(txt)
	if len(fields) == 0 {
		return 0
	}
	alpha := 0
	for _, f := range fields {
		ok := true
		for _, r := range f {
			if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && r != '\'' && r != '-' && r != ',' && r != '.' {
				ok = false
				break
			}
		}
		if ok {
			alpha++
		}
	}
	score := 0.2 + 0.6*float64(alpha)/float64(len(fields))
	if len(fields) > 40 {
		score += 0.1
	}
	if len(txt) > 500 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
