package service

import (
	"fmt"
	"strings"

	"github.com/straypaws/backend/internal/models"
)

const maxNotesFallback = 150

// Classification is what the classifier derives from one analysis result.
// Priority is fixed at creation time and never recomputed afterward.
type Classification struct {
	Priority models.Priority
	Type     models.AlertType
	Title    string
	Message  string
	Tags     []string
}

var categoryAlertTypes = map[string]models.AlertType{
	"bite incident":    models.AlertTypeBite,
	"injury case":      models.AlertTypeInjury,
	"cruelty report":   models.AlertTypeCruelty,
	"health concern":   models.AlertTypeHealthConcern,
	"adoption request": models.AlertTypeHighPriority,
	"general sighting": models.AlertTypeHighPriority,
}

// DeterminePriority maps an urgency score to a priority tier. Boundary
// values belong to the higher band.
func DeterminePriority(score float64) models.Priority {
	switch {
	case score >= 0.85:
		return models.PriorityCritical
	case score >= 0.70:
		return models.PriorityHigh
	case score >= 0.40:
		return models.PriorityNormal
	default:
		return models.PriorityLow
	}
}

// AlertTypeForCategory looks up the alert type for an analysis category.
// Unmapped categories land in the high_priority bucket.
func AlertTypeForCategory(category string) models.AlertType {
	if t, ok := categoryAlertTypes[category]; ok {
		return t
	}
	return models.AlertTypeHighPriority
}

// GenerateContent builds the human-readable title and message for an alert.
func GenerateContent(dog models.Dog, analysis models.ReportAnalysis) (title, message string) {
	location := dog.Zone
	if location == "" {
		location = dog.Address
	}
	if location == "" {
		location = "Unknown location"
	}

	score := analysis.UrgencyScore
	switch {
	case score >= 0.85:
		title = fmt.Sprintf("🚨 CRITICAL: %s in %s", analysis.Category, location)
	case score >= 0.70:
		title = fmt.Sprintf("⚠️ URGENT: %s in %s", analysis.Category, location)
	default:
		title = fmt.Sprintf("%s reported in %s", analysis.Category, location)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s reported in %s. ", dog.Label(), location)
	if analysis.Summary != "" {
		b.WriteString(analysis.Summary)
	} else if dog.HealthNotes != "" {
		b.WriteString(truncateRunes(dog.HealthNotes, maxNotesFallback))
	}
	if len(analysis.Entities.Symptoms) > 0 {
		fmt.Fprintf(&b, " Symptoms: %s.", strings.Join(analysis.Entities.Symptoms, ", "))
	}
	return title, b.String()
}

// ExtractTags derives metadata tags from the case record and analysis.
func ExtractTags(dog models.Dog, analysis models.ReportAnalysis) []string {
	var tags []string
	if analysis.Sentiment == "negative" {
		tags = append(tags, "negative_sentiment")
	}
	if dog.IsInjured {
		tags = append(tags, "injured")
	}
	if dog.IsAggressive {
		tags = append(tags, "aggressive")
	}
	for _, symptom := range analysis.Entities.Symptoms {
		tags = append(tags, "symptom_"+slug(symptom))
	}
	return tags
}

// Classify is the single entry point run by the alert pipeline. Pure; no I/O.
func Classify(dog models.Dog, analysis models.ReportAnalysis) Classification {
	title, message := GenerateContent(dog, analysis)
	return Classification{
		Priority: DeterminePriority(analysis.UrgencyScore),
		Type:     AlertTypeForCategory(analysis.Category),
		Title:    title,
		Message:  message,
		Tags:     ExtractTags(dog, analysis),
	}
}

func slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
