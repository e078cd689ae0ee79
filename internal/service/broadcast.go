package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/straypaws/backend/internal/models"
	"github.com/straypaws/backend/internal/realtime"
)

// Event names. Exact strings are a compatibility contract with the socket
// gateway and the dashboard/mobile clients.
const (
	EventAlertNew          = "alert.new"
	EventAlertCritical     = "alert.critical"
	EventAlertHighPriority = "alert.high_priority"
	EventAlertZone         = "alert.zone"
	EventAlertAcknowledged = "alert.acknowledged"
	EventAlertAssigned     = "alert.assigned"
	EventAlertResolved     = "alert.resolved"
	EventAlertEscalated    = "alert.escalated"
)

type DogSummary struct {
	ID     string   `json:"id"`
	DogID  string   `json:"dog_id"`
	Name   string   `json:"name"`
	Images []string `json:"images"`
}

type LocationPayload struct {
	Coordinates [2]float64 `json:"coordinates"`
	Zone        string     `json:"zone"`
	Address     string     `json:"address,omitempty"`
}

type ReporterPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AlertPayload is the normalized projection broadcast over real-time
// channels. It never exposes the raw persisted record.
type AlertPayload struct {
	AlertID      string                `json:"alertId"`
	Dog          DogSummary            `json:"dog"`
	Type         models.AlertType      `json:"type"`
	Priority     models.Priority       `json:"priority"`
	UrgencyScore float64               `json:"urgencyScore"`
	Title        string                `json:"title"`
	Message      string                `json:"message"`
	Location     LocationPayload       `json:"location"`
	Analysis     models.ReportAnalysis `json:"nlpAnalysis"`
	ReportedBy   ReporterPayload       `json:"reportedBy"`
	Organization string                `json:"organization"`
	Status       models.AlertStatus    `json:"status"`
	Tags         []string              `json:"tags,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
}

func BuildPayload(alert *models.Alert, dog models.Dog, reporter models.User) AlertPayload {
	images := dog.Images
	if images == nil {
		images = []string{}
	}
	return AlertPayload{
		AlertID: alert.AlertID,
		Dog: DogSummary{
			ID:     dog.ID,
			DogID:  dog.DogID,
			Name:   dog.Name,
			Images: images,
		},
		Type:         alert.Type,
		Priority:     alert.Priority,
		UrgencyScore: alert.UrgencyScore,
		Title:        alert.Title,
		Message:      alert.Message,
		Location: LocationPayload{
			Coordinates: alert.Location.Coordinates(),
			Zone:        alert.Zone,
			Address:     alert.Address,
		},
		Analysis:     alert.Analysis,
		ReportedBy:   ReporterPayload{ID: reporter.ID, Name: reporter.DisplayName()},
		Organization: alert.Organization,
		Status:       alert.Status,
		Tags:         alert.Tags,
		CreatedAt:    alert.CreatedAt,
	}
}

// Dispatcher publishes alert events with per-priority fan-out rules.
// Publishing is best-effort: failures are logged, never propagated.
type Dispatcher struct {
	Publisher realtime.Publisher
	Logger    zerolog.Logger
}

// BroadcastNew publishes a freshly created alert: always to the org
// channel, to the zone channel when the alert has a zone, and to the
// global channel for high/critical cases. The two global categories are
// distinct, not cumulative.
func (d *Dispatcher) BroadcastNew(ctx context.Context, alert *models.Alert, dog models.Dog, reporter models.User) {
	payload := BuildPayload(alert, dog, reporter)

	if alert.Organization != "" {
		d.publish(ctx, realtime.OrgChannel(alert.Organization), EventAlertNew, payload)
	}

	if alert.Priority == models.PriorityCritical || alert.UrgencyScore >= 0.85 {
		d.publish(ctx, realtime.GlobalChannel, EventAlertCritical, payload)
		d.Logger.Info().Str("alert_id", alert.AlertID).Msg("critical alert broadcast globally")
	} else if alert.Priority == models.PriorityHigh || alert.UrgencyScore >= 0.70 {
		d.publish(ctx, realtime.GlobalChannel, EventAlertHighPriority, payload)
		d.Logger.Info().Str("alert_id", alert.AlertID).Msg("high priority alert broadcast globally")
	}

	if alert.Zone != "" {
		d.publish(ctx, realtime.ZoneChannel(alert.Zone), EventAlertZone, payload)
	}
}

func (d *Dispatcher) BroadcastAcknowledged(ctx context.Context, alert *models.Alert) {
	d.publishOrg(ctx, alert, EventAlertAcknowledged, map[string]any{
		"alertId":        alert.AlertID,
		"acknowledgedBy": alert.AcknowledgedBy,
		"acknowledgedAt": alert.AcknowledgedAt,
	})
}

func (d *Dispatcher) BroadcastAssigned(ctx context.Context, alert *models.Alert) {
	d.publishOrg(ctx, alert, EventAlertAssigned, map[string]any{
		"alertId":    alert.AlertID,
		"assignedTo": alert.AssignedTo,
		"assignedAt": alert.AssignedAt,
	})
}

func (d *Dispatcher) BroadcastResolved(ctx context.Context, alert *models.Alert) {
	d.publishOrg(ctx, alert, EventAlertResolved, map[string]any{
		"alertId":         alert.AlertID,
		"resolvedBy":      alert.ResolvedBy,
		"resolvedAt":      alert.ResolvedAt,
		"resolutionNotes": alert.ResolutionNotes,
	})
}

func (d *Dispatcher) BroadcastEscalated(ctx context.Context, alert *models.Alert) {
	d.publishOrg(ctx, alert, EventAlertEscalated, map[string]any{
		"alertId":         alert.AlertID,
		"escalationLevel": alert.EscalationLevel,
		"escalatedTo":     alert.EscalatedTo,
		"escalatedAt":     alert.EscalatedAt,
	})
}

func (d *Dispatcher) publishOrg(ctx context.Context, alert *models.Alert, event string, payload any) {
	if alert.Organization == "" {
		return
	}
	d.publish(ctx, realtime.OrgChannel(alert.Organization), event, payload)
}

func (d *Dispatcher) publish(ctx context.Context, channel, event string, payload any) {
	if err := d.Publisher.Publish(ctx, channel, event, payload); err != nil {
		d.Logger.Error().
			Err(err).
			Str("channel", channel).
			Str("event", event).
			Msg("broadcast failed")
	}
}
