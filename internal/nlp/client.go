package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/straypaws/backend/internal/models"
)

// breaker holds the circuit state shared by all callers of one client.
// Last-writer-wins is fine here; the breaker is a heuristic, not a lock.
type breaker struct {
	mu           sync.Mutex
	failureCount int
	openUntil    time.Time
}

func (b *breaker) isOpen(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Before(b.openUntil)
}

func (b *breaker) recordSuccess() {
	b.mu.Lock()
	b.failureCount = 0
	b.mu.Unlock()
}

// recordFailure counts one exhausted call and reports whether the circuit
// just opened.
func (b *breaker) recordFailure(threshold int, cooldown time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount++
	if b.failureCount >= threshold {
		b.openUntil = time.Now().Add(cooldown)
		return true
	}
	return false
}

func (b *breaker) reset() {
	b.mu.Lock()
	b.failureCount = 0
	b.openUntil = time.Time{}
	b.mu.Unlock()
}

func (b *breaker) snapshot() (int, time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount, b.openUntil
}

type Config struct {
	BaseURL          string
	Enabled          bool
	Timeout          time.Duration
	MaxRetries       int
	RetryBaseDelay   time.Duration
	FailureThreshold int
	OpenDuration     time.Duration
}

// Client calls the external analysis service with bounded retry and a
// circuit breaker. Safe for concurrent use; one caller's backoff never
// stalls another's request.
type Client struct {
	cfg     Config
	http    *http.Client
	logger  zerolog.Logger
	breaker breaker
}

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 300 * time.Millisecond
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.OpenDuration <= 0 {
		cfg.OpenDuration = time.Minute
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "nlp").Logger(),
	}
}

type analyzeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type analyzeResponse struct {
	Category     string  `json:"category"`
	Confidence   float64 `json:"confidence"`
	Sentiment    string  `json:"sentiment"`
	Summary      string  `json:"summary"`
	UrgencyScore float64 `json:"urgency_score"`
	Entities     struct {
		Locations []string `json:"locations"`
		Symptoms  []string `json:"symptoms"`
	} `json:"entities"`
}

func (c *Client) AnalyzeReport(ctx context.Context, text, language string) (*models.ReportAnalysis, error) {
	if !c.cfg.Enabled {
		return nil, ErrDisabled
	}
	if language == "" {
		language = "en"
	}

	if c.breaker.isOpen(time.Now()) {
		// Fail fast with no network attempt. A CheckHealth probe (or the
		// cooldown lapsing) is what closes the circuit again.
		return nil, ErrCircuitOpen
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.cfg.RetryBaseDelay * (1 << (attempt - 1))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, &TransientError{Err: ctx.Err()}
			case <-timer.C:
			}
		}

		result, err := c.analyzeOnce(ctx, text, language)
		if err == nil {
			c.breaker.recordSuccess()
			return result, nil
		}
		lastErr = err

		var pe *PermanentError
		if errors.As(err, &pe) {
			break
		}
	}

	if c.breaker.recordFailure(c.cfg.FailureThreshold, c.cfg.OpenDuration) {
		c.logger.Warn().
			Dur("cooldown", c.cfg.OpenDuration).
			Msg("failure threshold reached, circuit opened")
	}
	return nil, lastErr
}

func (c *Client) analyzeOnce(ctx context.Context, text, language string) (*models.ReportAnalysis, error) {
	body, _ := json.Marshal(analyzeRequest{Text: text, Language: language})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/nlp/analyze-report", bytes.NewReader(body))
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, &TransientError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &PermanentError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var r analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, &TransientError{Err: err}
	}

	return &models.ReportAnalysis{
		Category:     r.Category,
		Confidence:   r.Confidence,
		Sentiment:    r.Sentiment,
		Summary:      r.Summary,
		UrgencyScore: clampScore(r.UrgencyScore),
		Entities: models.ExtractedEntities{
			Locations: r.Entities.Locations,
			Symptoms:  r.Entities.Symptoms,
		},
	}, nil
}

func (c *Client) CheckHealth(ctx context.Context) Health {
	if !c.cfg.Enabled {
		return Health{Reachable: false}
	}

	probeCtx, cancel := context.WithTimeout(ctx, minDuration(c.cfg.Timeout, 3*time.Second))
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return Health{Reachable: false, Error: err.Error()}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Health{Reachable: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Health{Reachable: false, Error: resp.Status}
	}

	if c.breaker.isOpen(time.Now()) {
		c.logger.Info().Msg("analysis service healthy, resetting circuit breaker")
		c.breaker.reset()
	}
	return Health{Reachable: true}
}

func (c *Client) Status() Status {
	failures, openUntil := c.breaker.snapshot()
	return Status{
		Enabled:          c.cfg.Enabled,
		CircuitOpen:      time.Now().Before(openUntil),
		FailureCount:     failures,
		CircuitOpenUntil: openUntil,
		ServiceURL:       c.cfg.BaseURL,
		Timeout:          c.cfg.Timeout,
		MaxRetries:       c.cfg.MaxRetries,
	}
}

// ResetCircuit clears breaker state. Exposed for the admin endpoint and
// for tests.
func (c *Client) ResetCircuit() {
	c.logger.Info().Msg("circuit breaker reset")
	c.breaker.reset()
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
