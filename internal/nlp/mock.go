package nlp

import (
	"context"
	"fmt"

	"github.com/straypaws/backend/internal/models"
	"github.com/straypaws/backend/internal/utils"
)

// MockAnalyzer produces deterministic scores derived from the report text.
// Used when no analysis service URL is configured, so the alert pipeline
// stays exercisable in local development.
type MockAnalyzer struct {
	ModelVersion string
}

var _ Analyzer = MockAnalyzer{}

func (m MockAnalyzer) AnalyzeReport(ctx context.Context, text, language string) (*models.ReportAnalysis, error) {
	h := utils.HashStringToUint64(text)

	categories := []string{"general sighting", "injury case", "bite incident", "health concern", "cruelty report"}
	sentiments := []string{"negative", "neutral", "positive"}
	scores := []float64{0.2, 0.45, 0.6, 0.75, 0.9}

	category := categories[h%uint64(len(categories))]
	sentiment := sentiments[(h/7)%uint64(len(sentiments))]
	score := scores[(h/13)%uint64(len(scores))]

	var symptoms []string
	if category == "injury case" || category == "health concern" {
		symptoms = []string{"limping", "open wound"}
	}

	return &models.ReportAnalysis{
		Category:     category,
		Confidence:   0.8,
		Sentiment:    sentiment,
		Summary:      fmt.Sprintf("Auto-summary (%s): %s", m.ModelVersion, truncate(text, 80)),
		UrgencyScore: score,
		Entities: models.ExtractedEntities{
			Symptoms: symptoms,
		},
	}, nil
}

func (m MockAnalyzer) CheckHealth(ctx context.Context) Health {
	return Health{Reachable: true}
}

func (m MockAnalyzer) Status() Status {
	return Status{Enabled: true, ServiceURL: "mock://" + m.ModelVersion}
}

func (m MockAnalyzer) ResetCircuit() {}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
