package models

import (
	"fmt"
	"math/rand"
	"time"
)

type AlertType string

const (
	AlertTypeEmergency     AlertType = "emergency"
	AlertTypeHighPriority  AlertType = "high_priority"
	AlertTypeUrgent        AlertType = "urgent"
	AlertTypeInjury        AlertType = "injury"
	AlertTypeBite          AlertType = "bite"
	AlertTypeCruelty       AlertType = "cruelty"
	AlertTypeHealthConcern AlertType = "health_concern"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type AlertStatus string

const (
	StatusPending      AlertStatus = "pending"
	StatusAcknowledged AlertStatus = "acknowledged"
	StatusInProgress   AlertStatus = "in_progress"
	StatusResolved     AlertStatus = "resolved"
	StatusEscalated    AlertStatus = "escalated"
	StatusCancelled    AlertStatus = "cancelled"
)

// MaxEscalationLevel caps re-escalation of one alert. 0 = never escalated.
const MaxEscalationLevel = 3

const (
	SourceAuto   = "nlp_auto"
	SourceManual = "manual"
	SourceSystem = "system"
)

// ResponseTimes holds milliseconds from alert creation to each lifecycle
// milestone. They are derived from the timestamps that produced them and
// recomputed whenever the timestamp changes.
type ResponseTimes struct {
	Acknowledged *int64 `json:"acknowledged,omitempty"`
	Assigned     *int64 `json:"assigned,omitempty"`
	Resolved     *int64 `json:"resolved,omitempty"`
}

// Alert is the unit of operational attention. It references the dog case
// that produced it and carries an immutable snapshot of the analysis that
// triggered it. Mutation goes through the lifecycle methods only.
type Alert struct {
	AlertID      string         `json:"alert_id"`
	DogID        string         `json:"dog_id"`
	Type         AlertType      `json:"type"`
	Priority     Priority       `json:"priority"`
	UrgencyScore float64        `json:"urgency_score"`
	Analysis     ReportAnalysis `json:"analysis"`
	Title        string         `json:"title"`
	Message      string         `json:"message"`

	Location GeoPoint `json:"location"`
	Zone     string   `json:"zone"`
	Address  string   `json:"address,omitempty"`

	Organization string `json:"organization"`
	ReportedBy   string `json:"reported_by"`

	Status AlertStatus `json:"status"`

	AcknowledgedBy *string    `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`

	AssignedTo *string    `json:"assigned_to,omitempty"`
	AssignedAt *time.Time `json:"assigned_at,omitempty"`

	ResolvedBy      *string    `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`

	EscalationLevel int        `json:"escalation_level"`
	EscalatedTo     *string    `json:"escalated_to,omitempty"`
	EscalatedAt     *time.Time `json:"escalated_at,omitempty"`

	SocketNotified   bool       `json:"socket_notified"`
	SocketNotifiedAt *time.Time `json:"socket_notified_at,omitempty"`

	ResponseTime ResponseTimes `json:"response_time"`

	Source      string   `json:"source"`
	AutoFlagged bool     `json:"auto_flagged"`
	Tags        []string `json:"tags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAlertID generates a time+random alert identifier, e.g. ALERT_1714060800000_042.
func NewAlertID() string {
	return fmt.Sprintf("ALERT_%d_%03d", time.Now().UnixMilli(), rand.Intn(1000))
}

// Acknowledge marks the alert as seen by userID.
func (a *Alert) Acknowledge(userID string) {
	now := time.Now().UTC()
	a.Status = StatusAcknowledged
	a.AcknowledgedBy = &userID
	a.AcknowledgedAt = &now
	a.touch(now)
}

// Assign hands the alert to assigneeID and moves it to in_progress. An
// unacknowledged alert is implicitly acknowledged by the assigning actor;
// acknowledgment is backfilled rather than rejected.
func (a *Alert) Assign(actorID, assigneeID string) {
	now := time.Now().UTC()
	a.Status = StatusInProgress
	a.AssignedTo = &assigneeID
	a.AssignedAt = &now
	if a.AcknowledgedBy == nil {
		a.AcknowledgedBy = &actorID
		a.AcknowledgedAt = &now
	}
	a.touch(now)
}

// Resolve closes the alert.
func (a *Alert) Resolve(userID, notes string) {
	now := time.Now().UTC()
	a.Status = StatusResolved
	a.ResolvedBy = &userID
	a.ResolvedAt = &now
	if notes != "" {
		a.ResolutionNotes = notes
	}
	a.touch(now)
}

// Escalate routes the alert to userID at the given escalation level.
// Levels beyond MaxEscalationLevel clamp instead of erroring, so re-running
// an escalation is always safe.
func (a *Alert) Escalate(userID string, level int) {
	now := time.Now().UTC()
	a.Status = StatusEscalated
	a.EscalationLevel = min(level, MaxEscalationLevel)
	a.EscalatedTo = &userID
	a.EscalatedAt = &now
	a.touch(now)
}

// MarkNotified records the real-time broadcast for this alert.
func (a *Alert) MarkNotified() {
	now := time.Now().UTC()
	a.SocketNotified = true
	a.SocketNotifiedAt = &now
	a.touch(now)
}

// touch recomputes derived response times and bumps UpdatedAt. Response
// times are never stored independently of the timestamps behind them.
func (a *Alert) touch(now time.Time) {
	if a.AcknowledgedAt != nil && !a.CreatedAt.IsZero() {
		ms := a.AcknowledgedAt.Sub(a.CreatedAt).Milliseconds()
		a.ResponseTime.Acknowledged = &ms
	}
	if a.AssignedAt != nil && !a.CreatedAt.IsZero() {
		ms := a.AssignedAt.Sub(a.CreatedAt).Milliseconds()
		a.ResponseTime.Assigned = &ms
	}
	if a.ResolvedAt != nil && !a.CreatedAt.IsZero() {
		ms := a.ResolvedAt.Sub(a.CreatedAt).Milliseconds()
		a.ResponseTime.Resolved = &ms
	}
	a.UpdatedAt = now
}
