package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/straypaws/backend/internal/db"
	"github.com/straypaws/backend/internal/models"
)

// Age an alert may sit in pending before a sweep escalates it.
var escalationThresholds = map[models.Priority]time.Duration{
	models.PriorityCritical: 5 * time.Minute,
	models.PriorityHigh:     15 * time.Minute,
	models.PriorityNormal:   30 * time.Minute,
}

func escalationThreshold(p models.Priority) time.Duration {
	if d, ok := escalationThresholds[p]; ok {
		return d
	}
	return escalationThresholds[models.PriorityNormal]
}

// EscalationStore is the persistence surface one sweep needs.
type EscalationStore interface {
	ListEscalatable(ctx context.Context) ([]models.Alert, error)
	FirstActiveCoordinator(ctx context.Context, orgID string, roles []string) (models.User, error)
	UpdateAlertLifecycle(ctx context.Context, a *models.Alert) error
}

// Escalator periodically escalates alerts stuck in pending past their
// priority's deadline. One alert's failure never aborts the sweep.
type Escalator struct {
	Store      EscalationStore
	Dispatcher *Dispatcher
	Logger     zerolog.Logger
}

// Start runs the sweep every interval until ctx is cancelled. It returns
// immediately; the sweep never blocks alert creation traffic.
func (e *Escalator) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		e.Logger.Info().Dur("interval", interval).Msg("escalation sweep started")
		for {
			select {
			case <-ctx.Done():
				e.Logger.Info().Msg("escalation sweep stopped")
				return
			case <-ticker.C:
				if _, err := e.RunOnce(ctx); err != nil {
					e.Logger.Error().Err(err).Msg("escalation sweep failed")
				}
			}
		}
	}()
}

// RunOnce performs a single sweep and reports how many alerts escalated.
// Exposed so tests and operators can drive the sweep deterministically.
func (e *Escalator) RunOnce(ctx context.Context) (int, error) {
	alerts, err := e.Store.ListEscalatable(ctx)
	if err != nil {
		return 0, err
	}

	escalated := 0
	for i := range alerts {
		ok, err := e.processAlert(ctx, &alerts[i])
		if err != nil {
			e.Logger.Error().
				Err(err).
				Str("alert_id", alerts[i].AlertID).
				Msg("escalation failed, continuing sweep")
			continue
		}
		if ok {
			escalated++
		}
	}
	return escalated, nil
}

func (e *Escalator) processAlert(ctx context.Context, alert *models.Alert) (bool, error) {
	age := time.Since(alert.CreatedAt)
	if age <= escalationThreshold(alert.Priority) {
		return false, nil
	}

	coordinator, err := e.Store.FirstActiveCoordinator(ctx, alert.Organization, coordinatorRoles)
	if errors.Is(err, db.ErrNotFound) {
		// No one to escalate to; leave the alert for the next sweep.
		return false, nil
	}
	if err != nil {
		return false, err
	}

	alert.Escalate(coordinator.ID, alert.EscalationLevel+1)
	if err := e.Store.UpdateAlertLifecycle(ctx, alert); err != nil {
		return false, &PersistenceError{Op: "escalate alert", Err: err}
	}

	e.Dispatcher.BroadcastEscalated(ctx, alert)
	e.Logger.Info().
		Str("alert_id", alert.AlertID).
		Int("level", alert.EscalationLevel).
		Str("escalated_to", coordinator.ID).
		Msg("alert escalated")
	return true, nil
}
