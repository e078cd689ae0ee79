package nlp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const analysisBody = `{
	"category": "injury case",
	"confidence": 0.92,
	"sentiment": "negative",
	"summary": "dog hit by a car near the market",
	"urgency_score": 0.9,
	"entities": {"locations": ["market"], "symptoms": ["bleeding"]}
}`

// analysisServer counts requests and serves the configured status codes in
// order, repeating the last one once the script runs out. It stamps each
// attempt's arrival time so tests can assert on retry spacing.
type analysisServer struct {
	calls  atomic.Int64
	mu     sync.Mutex
	stamps []time.Time
	script []int
	srv    *httptest.Server
}

func newAnalysisServer(script ...int) *analysisServer {
	a := &analysisServer{script: script}
	a.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		a.mu.Lock()
		a.stamps = append(a.stamps, time.Now())
		a.mu.Unlock()
		n := int(a.calls.Add(1)) - 1
		code := a.script[len(a.script)-1]
		if n < len(a.script) {
			code = a.script[n]
		}
		if code == http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(analysisBody))
			return
		}
		w.WriteHeader(code)
	}))
	return a
}

func (a *analysisServer) attemptTimes() []time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]time.Time(nil), a.stamps...)
}

func (a *analysisServer) client(cfg Config) *Client {
	cfg.BaseURL = a.srv.URL
	cfg.Enabled = true
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = time.Millisecond
	}
	return NewClient(cfg, zerolog.Nop())
}

func TestAnalyzeReportSuccess(t *testing.T) {
	srv := newAnalysisServer(http.StatusOK)
	defer srv.srv.Close()
	c := srv.client(Config{})

	got, err := c.AnalyzeReport(context.Background(), "dog hit by a car", "")
	if err != nil {
		t.Fatalf("AnalyzeReport: %v", err)
	}
	if got.Category != "injury case" || got.UrgencyScore != 0.9 {
		t.Fatalf("unexpected analysis: %+v", got)
	}
	if len(got.Entities.Symptoms) != 1 || got.Entities.Symptoms[0] != "bleeding" {
		t.Fatalf("entities not decoded: %+v", got.Entities)
	}
}

func TestAnalyzeReportDisabled(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1", Enabled: false}, zerolog.Nop())
	if _, err := c.AnalyzeReport(context.Background(), "text", "en"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestAnalyzeReportRetriesServerErrors(t *testing.T) {
	srv := newAnalysisServer(http.StatusInternalServerError, http.StatusBadGateway, http.StatusOK)
	defer srv.srv.Close()
	c := srv.client(Config{MaxRetries: 2})

	if _, err := c.AnalyzeReport(context.Background(), "text", "en"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if n := srv.calls.Load(); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
	if got := c.Status().FailureCount; got != 0 {
		t.Fatalf("success must reset the failure count, got %d", got)
	}
}

func TestAnalyzeReportBackoffGrows(t *testing.T) {
	srv := newAnalysisServer(http.StatusInternalServerError)
	defer srv.srv.Close()
	base := 15 * time.Millisecond
	c := srv.client(Config{MaxRetries: 2, RetryBaseDelay: base})

	if _, err := c.AnalyzeReport(context.Background(), "text", "en"); err == nil {
		t.Fatalf("expected exhaustion failure")
	}

	stamps := srv.attemptTimes()
	if len(stamps) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(stamps))
	}
	first := stamps[1].Sub(stamps[0])
	second := stamps[2].Sub(stamps[1])
	if first < base {
		t.Fatalf("first retry delay %s below base %s", first, base)
	}
	if second <= first {
		t.Fatalf("retry delays must grow: %s then %s", first, second)
	}
}

func TestAnalyzeReportRetriesRateLimit(t *testing.T) {
	srv := newAnalysisServer(http.StatusTooManyRequests, http.StatusOK)
	defer srv.srv.Close()
	c := srv.client(Config{MaxRetries: 2})

	if _, err := c.AnalyzeReport(context.Background(), "text", "en"); err != nil {
		t.Fatalf("429 should be retried, got %v", err)
	}
	if n := srv.calls.Load(); n != 2 {
		t.Fatalf("expected 2 attempts, got %d", n)
	}
}

func TestAnalyzeReportClientErrorNotRetried(t *testing.T) {
	srv := newAnalysisServer(http.StatusBadRequest)
	defer srv.srv.Close()
	c := srv.client(Config{MaxRetries: 3})

	_, err := c.AnalyzeReport(context.Background(), "text", "en")
	var pe *PermanentError
	if !errors.As(err, &pe) || pe.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected PermanentError(400), got %v", err)
	}
	if n := srv.calls.Load(); n != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", n)
	}
}

func TestCircuitOpensAfterThresholdAndFailsFast(t *testing.T) {
	srv := newAnalysisServer(http.StatusInternalServerError)
	defer srv.srv.Close()
	c := srv.client(Config{MaxRetries: 0, FailureThreshold: 3, OpenDuration: time.Minute})

	for i := 0; i < 3; i++ {
		if _, err := c.AnalyzeReport(context.Background(), "text", "en"); err == nil {
			t.Fatalf("call %d: expected failure", i+1)
		}
	}
	if st := c.Status(); !st.CircuitOpen || st.FailureCount != 3 {
		t.Fatalf("circuit should be open after 3 failures: %+v", st)
	}

	before := srv.calls.Load()
	start := time.Now()
	_, err := c.AnalyzeReport(context.Background(), "text", "en")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if srv.calls.Load() != before {
		t.Fatalf("open circuit must not reach the network")
	}
	if elapsed > 10*time.Millisecond {
		t.Fatalf("open-circuit rejection took %s", elapsed)
	}
}

func TestCircuitClosesAfterCooldown(t *testing.T) {
	srv := newAnalysisServer(http.StatusInternalServerError, http.StatusOK)
	defer srv.srv.Close()
	c := srv.client(Config{MaxRetries: 0, FailureThreshold: 1, OpenDuration: 20 * time.Millisecond})

	if _, err := c.AnalyzeReport(context.Background(), "text", "en"); err == nil {
		t.Fatalf("expected first call to fail")
	}
	if _, err := c.AnalyzeReport(context.Background(), "text", "en"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen during cooldown, got %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	if _, err := c.AnalyzeReport(context.Background(), "text", "en"); err != nil {
		t.Fatalf("expected success after cooldown, got %v", err)
	}
}

func TestHealthyProbeResetsOpenCircuit(t *testing.T) {
	srv := newAnalysisServer(http.StatusInternalServerError)
	defer srv.srv.Close()
	c := srv.client(Config{MaxRetries: 0, FailureThreshold: 1, OpenDuration: time.Hour})

	c.AnalyzeReport(context.Background(), "text", "en")
	if !c.Status().CircuitOpen {
		t.Fatalf("circuit should be open")
	}

	h := c.CheckHealth(context.Background())
	if !h.Reachable {
		t.Fatalf("health probe should succeed: %+v", h)
	}
	if st := c.Status(); st.CircuitOpen || st.FailureCount != 0 {
		t.Fatalf("healthy probe must close the circuit: %+v", st)
	}
}

func TestResetCircuit(t *testing.T) {
	srv := newAnalysisServer(http.StatusInternalServerError)
	defer srv.srv.Close()
	c := srv.client(Config{MaxRetries: 0, FailureThreshold: 1, OpenDuration: time.Hour})

	c.AnalyzeReport(context.Background(), "text", "en")
	c.ResetCircuit()
	if st := c.Status(); st.CircuitOpen || st.FailureCount != 0 {
		t.Fatalf("reset left breaker state behind: %+v", st)
	}
}

func TestTransportErrorIsTransient(t *testing.T) {
	// Closed port: dial fails immediately.
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1", Enabled: true, MaxRetries: 0, RetryBaseDelay: time.Millisecond}, zerolog.Nop())
	_, err := c.AnalyzeReport(context.Background(), "text", "en")
	if err == nil || !Unavailable(err) {
		t.Fatalf("transport failure should report as unavailable, got %v", err)
	}
}

func TestUnavailableClassification(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{ErrDisabled, true},
		{ErrCircuitOpen, true},
		{&TransientError{StatusCode: 503}, true},
		{&PermanentError{StatusCode: 400}, false},
		{errors.New("other"), false},
	}
	for _, tc := range cases {
		if got := Unavailable(tc.err); got != tc.want {
			t.Fatalf("Unavailable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
