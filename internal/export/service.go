// Package export writes extraction artifacts to disk as JSON plus an XLSX
// workbook for review.
package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rpger/content-extractor/internal/model"
)

// Service renders artifacts for the CLI --out flag.
type Service struct {
	logger *slog.Logger
}

// NewService builds the export service.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// WriteArtifact writes <base>.json and <base>.xlsx under dir and returns
// the written paths.
func (s *Service) WriteArtifact(dir string, artifact *model.Artifact) ([]string, error) {
	start := time.Now()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	base := exportBase(artifact)

	jsonPath := filepath.Join(dir, base+".json")
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal artifact: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write json: %w", err)
	}

	xlsxPath := filepath.Join(dir, base+".xlsx")
	workbook, err := s.buildWorkbook(artifact)
	if err != nil {
		return nil, err
	}
	if err := workbook.SaveAs(xlsxPath); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}

	s.logger.Info("export.ok",
		"dir", dir, "base", base,
		"sections", len(artifact.Sections),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return []string{jsonPath, xlsxPath}, nil
}

func (s *Service) buildWorkbook(artifact *model.Artifact) (*excelize.File, error) {
	f := excelize.NewFile()

	const sections = "Sections"
	if _, err := f.NewSheet(sections); err != nil {
		return nil, err
	}
	headers := []string{"Page", "Ordinal", "Category", "Confidence", "Words", "Has Table", "Text"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sections, cell, h); err != nil {
			return nil, err
		}
	}
	for row, sec := range artifact.Sections {
		text := sec.EnhancedText
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		values := []any{sec.Page, sec.Ordinal, sec.Category, sec.CategoryConfidence, sec.WordCount(), sec.HasTable, text}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sections, cell, v); err != nil {
				return nil, err
			}
		}
	}

	const summary = "Summary"
	if _, err := f.NewSheet(summary); err != nil {
		return nil, err
	}
	rows := [][]any{
		{"Source", artifact.SourceName},
		{"Game", artifact.Verdict.Game},
		{"Edition", artifact.Verdict.Edition},
		{"Book", artifact.Verdict.BookCode},
		{"Kind", string(artifact.Verdict.Kind)},
		{"Derivation", string(artifact.Verdict.Derivation)},
		{"Pages", artifact.Summary.Pages},
		{"Sections", artifact.Summary.Sections},
		{"Words", artifact.Summary.Words},
		{"Tables", artifact.Summary.Tables},
		{"Overall Confidence", artifact.Confidence.Overall},
		{"Grade", artifact.Confidence.Grade},
		{"Quality Before", artifact.Quality.BeforeScore},
		{"Quality After", artifact.Quality.AfterScore},
	}
	categories := make([]string, 0, len(artifact.Summary.ByCategory))
	for cat := range artifact.Summary.ByCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	for _, cat := range categories {
		rows = append(rows, []any{"Category: " + cat, artifact.Summary.ByCategory[cat]})
	}
	for r, pair := range rows {
		for c, v := range pair {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(summary, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	idx, err := f.GetSheetIndex(sections)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	return f, nil
}

func exportBase(artifact *model.Artifact) string {
	base := artifact.Verdict.CollectionName()
	if strings.TrimSpace(base) == "__" || base == "" {
		base = strings.TrimSuffix(filepath.Base(artifact.SourceName), filepath.Ext(artifact.SourceName))
	}
	return base
}
