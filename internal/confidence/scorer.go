package confidence

import (
	"strings"

	"github.com/rpger/content-extractor/internal/enhance"
	"github.com/rpger/content-extractor/internal/model"
)

// Inputs collects what the scorer needs from the completed extraction.
type Inputs struct {
	Sections    []model.Section
	PageCount   int
	FailedPages int
	Quality     model.QualityMetrics
}

// Score computes the sub-scores and the weighted overall grade. Weights are
// 0.4 text, 0.3 layout, 0.2 ocr, 0.1 table.
func Score(in Inputs) model.ConfidenceRecord {
	rec := model.ConfidenceRecord{
		Text:   textScore(in),
		Layout: layoutScore(in.Sections),
		OCR:    ocrScore(in.Sections),
		Table:  tableScore(in.Sections),
	}
	rec.Overall = 0.4*rec.Text + 0.3*rec.Layout + 0.2*rec.OCR + 0.1*rec.Table
	rec.Grade = enhance.Grade(rec.Overall)
	return rec
}

// textScore blends dictionary coverage (the enhancer's after-score) with
// the page extraction success rate.
func textScore(in Inputs) float64 {
	successRate := 1.0
	if in.PageCount > 0 {
		successRate = float64(in.PageCount-in.FailedPages) / float64(in.PageCount)
	}
	return clamp(0.7*in.Quality.AfterScore + 0.3*100*successRate)
}

// layoutScore rates heading and paragraph density across sections.
func layoutScore(sections []model.Section) float64 {
	if len(sections) == 0 {
		return 0
	}
	structured := 0
	for _, s := range sections {
		text := s.EnhancedText
		if text == "" {
			text = s.RawText
		}
		if strings.Contains(text, "\n\n") || hasHeadingLine(text) {
			structured++
		}
	}
	return clamp(100 * float64(structured) / float64(len(sections)))
}

// ocrScore averages the per-page OCR confidences where OCR was used; pages
// extracted natively are left out of the average, and with no OCR pages at
// all the score is 100.
func ocrScore(sections []model.Section) float64 {
	ocrPages := 0
	sum := 0.0
	for _, s := range sections {
		if s.OCRUsed {
			ocrPages++
			sum += s.OCRConfidence
		}
	}
	if ocrPages == 0 {
		return 100
	}
	return clamp(100 * sum / float64(ocrPages))
}

// tableScore is the fraction of detected tables passing the rectangular
// shape heuristic.
func tableScore(sections []model.Section) float64 {
	total, rectangular := 0, 0
	for _, s := range sections {
		for _, t := range s.Tables {
			total++
			if isRectangular(t) {
				rectangular++
			}
		}
	}
	if total == 0 {
		return 100
	}
	return clamp(100 * float64(rectangular) / float64(total))
}

// isRectangular requires every row to have the header's column count.
func isRectangular(t model.Table) bool {
	if len(t.Headers) < 2 || len(t.Rows) == 0 {
		return false
	}
	for _, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return false
		}
	}
	return true
}

func hasHeadingLine(text string) bool {
	for _, l := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" || len(trimmed) > 60 {
			continue
		}
		uppers, letters := 0, 0
		for _, r := range trimmed {
			if r >= 'A' && r <= 'Z' {
				uppers++
				letters++
			} else if r >= 'a' && r <= 'z' {
				letters++
			}
		}
		if letters >= 4 && uppers*2 > letters {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
