package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/straypaws/backend/internal/models"
)

// AlertStore is the persistence surface the alert pipeline needs. *db.Store
// implements it; tests use an in-memory fake.
type AlertStore interface {
	CreateAlert(ctx context.Context, a *models.Alert) error
	UpdateAlertLifecycle(ctx context.Context, a *models.Alert) error
	GetAlert(ctx context.Context, alertID string) (*models.Alert, error)
	GetUser(ctx context.Context, id string) (models.User, error)
}

// PersistenceError marks a failed alert write. It always propagates to the
// caller of alert creation: an alert that was not persisted is never
// broadcast.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("alerts: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// AlertService owns alert creation and lifecycle transitions. Alerts are
// created only by the classifier pipeline, never directly by users.
type AlertService struct {
	Store      AlertStore
	Resolver   *RecipientResolver
	Dispatcher *Dispatcher
	Logger     zerolog.Logger
}

// CreateFromAnalysis runs the full pipeline for one scored report:
// classify, persist, resolve recipients, broadcast. The call returns once
// the alert is durably created; broadcasting happens in the background.
func (s *AlertService) CreateFromAnalysis(ctx context.Context, dog models.Dog, analysis models.ReportAnalysis) (*models.Alert, error) {
	analysis.UrgencyScore = clampUnit(analysis.UrgencyScore)
	cls := Classify(dog, analysis)

	now := time.Now().UTC()
	alert := &models.Alert{
		AlertID:      models.NewAlertID(),
		DogID:        dog.ID,
		Type:         cls.Type,
		Priority:     cls.Priority,
		UrgencyScore: analysis.UrgencyScore,
		Analysis:     analysis,
		Title:        cls.Title,
		Message:      cls.Message,
		Location:     dog.Location,
		Zone:         dog.Zone,
		Address:      dog.Address,
		Organization: dog.Organization,
		ReportedBy:   dog.ReportedBy,
		Status:       models.StatusPending,
		Source:       models.SourceAuto,
		AutoFlagged:  true,
		Tags:         cls.Tags,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.CreateAlert(ctx, alert); err != nil {
		return nil, &PersistenceError{Op: "create alert", Err: err}
	}

	recipients := s.Resolver.Resolve(ctx, alert, dog)
	s.Logger.Info().
		Str("alert_id", alert.AlertID).
		Str("priority", string(alert.Priority)).
		Float64("urgency", alert.UrgencyScore).
		Int("recipients", recipients.TotalCount).
		Msg("alert created")

	go s.broadcastCreated(context.WithoutCancel(ctx), alert, dog)

	return alert, nil
}

// broadcastCreated publishes the new alert and records the notification.
// Runs detached from the creating request.
func (s *AlertService) broadcastCreated(ctx context.Context, alert *models.Alert, dog models.Dog) {
	reporter, err := s.Store.GetUser(ctx, dog.ReportedBy)
	if err != nil {
		s.Logger.Warn().Err(err).Str("alert_id", alert.AlertID).Msg("reporter lookup failed")
		reporter = models.User{ID: dog.ReportedBy}
	}

	s.Dispatcher.BroadcastNew(ctx, alert, dog, reporter)

	alert.MarkNotified()
	if err := s.Store.UpdateAlertLifecycle(ctx, alert); err != nil {
		s.Logger.Error().Err(err).Str("alert_id", alert.AlertID).Msg("notification bookkeeping failed")
	}
}

// Acknowledge marks the alert as seen and broadcasts the transition.
func (s *AlertService) Acknowledge(ctx context.Context, alertID, actorID string) (*models.Alert, error) {
	alert, err := s.Store.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}

	alert.Acknowledge(actorID)
	if err := s.Store.UpdateAlertLifecycle(ctx, alert); err != nil {
		return nil, &PersistenceError{Op: "acknowledge alert", Err: err}
	}

	s.Dispatcher.BroadcastAcknowledged(ctx, alert)
	return alert, nil
}

// Assign hands the alert to assigneeID. An unacknowledged alert is
// implicitly acknowledged by the assigning actor.
func (s *AlertService) Assign(ctx context.Context, alertID, actorID, assigneeID string) (*models.Alert, error) {
	alert, err := s.Store.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}

	alert.Assign(actorID, assigneeID)
	if err := s.Store.UpdateAlertLifecycle(ctx, alert); err != nil {
		return nil, &PersistenceError{Op: "assign alert", Err: err}
	}

	s.Dispatcher.BroadcastAssigned(ctx, alert)
	return alert, nil
}

// Resolve closes the alert with optional notes.
func (s *AlertService) Resolve(ctx context.Context, alertID, actorID, notes string) (*models.Alert, error) {
	alert, err := s.Store.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}

	alert.Resolve(actorID, notes)
	if err := s.Store.UpdateAlertLifecycle(ctx, alert); err != nil {
		return nil, &PersistenceError{Op: "resolve alert", Err: err}
	}

	s.Dispatcher.BroadcastResolved(ctx, alert)
	return alert, nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
