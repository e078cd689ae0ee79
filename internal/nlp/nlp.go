package nlp

import (
	"context"
	"time"

	"github.com/straypaws/backend/internal/models"
)

// Analyzer scores free-text field reports. Implementations must return the
// typed errors from errors.go rather than raw transport errors so callers
// can decide whether to degrade, skip, or fail.
type Analyzer interface {
	AnalyzeReport(ctx context.Context, text, language string) (*models.ReportAnalysis, error)
	CheckHealth(ctx context.Context) Health
	Status() Status
	ResetCircuit()
}

// Health is the result of probing the analysis service.
type Health struct {
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

// Status exposes client configuration and breaker state for operational
// visibility.
type Status struct {
	Enabled          bool          `json:"enabled"`
	CircuitOpen      bool          `json:"circuit_open"`
	FailureCount     int           `json:"failure_count"`
	CircuitOpenUntil time.Time     `json:"circuit_open_until"`
	ServiceURL       string        `json:"service_url"`
	Timeout          time.Duration `json:"timeout"`
	MaxRetries       int           `json:"max_retries"`
}
