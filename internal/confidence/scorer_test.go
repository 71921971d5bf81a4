package confidence

import (
	"testing"

	"github.com/rpger/content-extractor/internal/model"
)

func TestScoreCleanNativeDocument(t *testing.T) {
	sections := []model.Section{
		{Page: 1, EnhancedText: "COMBAT\n\nThe attack roll determines success."},
		{Page: 2, EnhancedText: "MAGIC\n\nSpells are memorized daily."},
	}
	rec := Score(Inputs{
		Sections:  sections,
		PageCount: 2,
		Quality:   model.QualityMetrics{AfterScore: 90},
	})
	if rec.OCR != 100 {
		t.Errorf("ocr = %v, want 100 for native pages", rec.OCR)
	}
	if rec.Table != 100 {
		t.Errorf("table = %v, want 100 with no tables", rec.Table)
	}
	if rec.Layout != 100 {
		t.Errorf("layout = %v, want 100", rec.Layout)
	}
	if rec.Grade != "A" && rec.Grade != "B" {
		t.Errorf("grade = %s (overall %v), want A or B", rec.Grade, rec.Overall)
	}
}

func TestScoreAveragesOCRPages(t *testing.T) {
	sections := []model.Section{
		{Page: 1, OCRUsed: true, OCRConfidence: 0.5},
		{Page: 2, OCRUsed: true, OCRConfidence: 0.9},
		{Page: 3}, // native
	}
	rec := Score(Inputs{Sections: sections, PageCount: 3})
	if rec.OCR != 70 {
		t.Errorf("ocr = %v, want 70", rec.OCR)
	}
}

func TestScoreTableRectangularity(t *testing.T) {
	good := model.Table{Headers: []string{"a", "b"}, Rows: [][]string{{"1", "2"}, {"3", "4"}}}
	ragged := model.Table{Headers: []string{"a", "b"}, Rows: [][]string{{"1"}, {"3", "4"}}}
	sections := []model.Section{
		{Page: 1, Tables: []model.Table{good, ragged}},
	}
	rec := Score(Inputs{Sections: sections, PageCount: 1})
	if rec.Table != 50 {
		t.Errorf("table = %v, want 50", rec.Table)
	}
}

func TestScoreFailedPagesLowerText(t *testing.T) {
	full := Score(Inputs{PageCount: 10, FailedPages: 0, Quality: model.QualityMetrics{AfterScore: 80}})
	degraded := Score(Inputs{PageCount: 10, FailedPages: 5, Quality: model.QualityMetrics{AfterScore: 80}})
	if degraded.Text >= full.Text {
		t.Errorf("failed pages did not lower text score: %v >= %v", degraded.Text, full.Text)
	}
}
