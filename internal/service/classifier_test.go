package service

import (
	"strings"
	"testing"

	"github.com/straypaws/backend/internal/models"
)

func TestDeterminePriorityBands(t *testing.T) {
	cases := []struct {
		score float64
		want  models.Priority
	}{
		{0.0, models.PriorityLow},
		{0.39, models.PriorityLow},
		{0.4, models.PriorityNormal},
		{0.69, models.PriorityNormal},
		{0.7, models.PriorityHigh},
		{0.84, models.PriorityHigh},
		{0.85, models.PriorityCritical},
		{1.0, models.PriorityCritical},
	}
	for _, tc := range cases {
		if got := DeterminePriority(tc.score); got != tc.want {
			t.Fatalf("score %.2f: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}

func TestAlertTypeForCategory(t *testing.T) {
	cases := map[string]models.AlertType{
		"bite incident":      models.AlertTypeBite,
		"injury case":        models.AlertTypeInjury,
		"cruelty report":     models.AlertTypeCruelty,
		"health concern":     models.AlertTypeHealthConcern,
		"adoption request":   models.AlertTypeHighPriority,
		"general sighting":   models.AlertTypeHighPriority,
		"something unmapped": models.AlertTypeHighPriority,
	}
	for category, want := range cases {
		if got := AlertTypeForCategory(category); got != want {
			t.Fatalf("category %q: expected %s, got %s", category, want, got)
		}
	}
}

func TestClassifyCriticalInjuryScenario(t *testing.T) {
	dog := models.Dog{DogID: "DOG_42", Name: "Rex", Zone: "North Park"}
	analysis := models.ReportAnalysis{
		Category:     "injury case",
		UrgencyScore: 0.9,
		Summary:      "Dog hit by a car, bleeding heavily.",
	}

	cls := Classify(dog, analysis)
	if cls.Priority != models.PriorityCritical {
		t.Fatalf("expected critical priority, got %s", cls.Priority)
	}
	if cls.Type != models.AlertTypeInjury {
		t.Fatalf("expected injury type, got %s", cls.Type)
	}
	if !strings.Contains(cls.Title, "CRITICAL") {
		t.Fatalf("expected critical marker in title, got %q", cls.Title)
	}
	if !strings.Contains(cls.Title, "North Park") {
		t.Fatalf("expected zone in title, got %q", cls.Title)
	}
	if !strings.Contains(cls.Message, "Rex") || !strings.Contains(cls.Message, "bleeding heavily") {
		t.Fatalf("unexpected message: %q", cls.Message)
	}
}

func TestGenerateContentHighBand(t *testing.T) {
	dog := models.Dog{DogID: "DOG_7", Zone: "Harbor"}
	title, _ := GenerateContent(dog, models.ReportAnalysis{Category: "bite incident", UrgencyScore: 0.75})
	if !strings.Contains(title, "URGENT") || !strings.Contains(title, "Harbor") {
		t.Fatalf("unexpected high-band title: %q", title)
	}
}

func TestGenerateContentPlainTitleAndNotesFallback(t *testing.T) {
	dog := models.Dog{
		DogID:       "DOG_9",
		Zone:        "Eastside",
		HealthNotes: strings.Repeat("x", 200),
	}
	title, message := GenerateContent(dog, models.ReportAnalysis{Category: "general sighting", UrgencyScore: 0.2})
	if strings.Contains(title, "CRITICAL") || strings.Contains(title, "URGENT") {
		t.Fatalf("low band should get a plain title, got %q", title)
	}
	// summary absent: message falls back to notes truncated to 150 runes
	if !strings.Contains(message, strings.Repeat("x", 150)) {
		t.Fatalf("expected truncated notes in message")
	}
	if strings.Contains(message, strings.Repeat("x", 151)) {
		t.Fatalf("notes fallback not truncated")
	}
}

func TestGenerateContentAppendsSymptoms(t *testing.T) {
	dog := models.Dog{DogID: "DOG_3", Zone: "Midtown"}
	analysis := models.ReportAnalysis{
		Category:     "health concern",
		UrgencyScore: 0.5,
		Summary:      "Dog looks sick.",
		Entities:     models.ExtractedEntities{Symptoms: []string{"limping", "open wound"}},
	}
	_, message := GenerateContent(dog, analysis)
	if !strings.Contains(message, "Symptoms: limping, open wound.") {
		t.Fatalf("expected symptom sentence, got %q", message)
	}
}

func TestExtractTags(t *testing.T) {
	dog := models.Dog{IsInjured: true, IsAggressive: true}
	analysis := models.ReportAnalysis{
		Sentiment: "negative",
		Entities:  models.ExtractedEntities{Symptoms: []string{"Open Wound"}},
	}

	tags := ExtractTags(dog, analysis)
	want := []string{"negative_sentiment", "injured", "aggressive", "symptom_open_wound"}
	if len(tags) != len(want) {
		t.Fatalf("expected %d tags, got %v", len(want), tags)
	}
	for i, tag := range want {
		if tags[i] != tag {
			t.Fatalf("expected tag %q at %d, got %v", tag, i, tags)
		}
	}
}

func TestExtractTagsEmpty(t *testing.T) {
	if tags := ExtractTags(models.Dog{}, models.ReportAnalysis{Sentiment: "positive"}); len(tags) != 0 {
		t.Fatalf("expected no tags, got %v", tags)
	}
}
