package models

import (
	"strings"
	"testing"
	"time"
)

func TestNewAlertIDFormat(t *testing.T) {
	id := NewAlertID()
	if !strings.HasPrefix(id, "ALERT_") {
		t.Fatalf("unexpected alert id: %s", id)
	}
	if parts := strings.Split(id, "_"); len(parts) != 3 || len(parts[2]) != 3 {
		t.Fatalf("expected ALERT_<ts>_<3-digit> shape, got %s", id)
	}
}

func TestAcknowledgeComputesResponseTime(t *testing.T) {
	a := &Alert{Status: StatusPending, CreatedAt: time.Now().UTC().Add(-2 * time.Second)}

	a.Acknowledge("user-1")
	if a.Status != StatusAcknowledged {
		t.Fatalf("expected acknowledged, got %s", a.Status)
	}
	if a.AcknowledgedBy == nil || *a.AcknowledgedBy != "user-1" {
		t.Fatalf("acknowledgedBy not recorded")
	}
	if a.ResponseTime.Acknowledged == nil || *a.ResponseTime.Acknowledged < 2000 {
		t.Fatalf("expected ack response time >= 2000ms, got %v", a.ResponseTime.Acknowledged)
	}
}

func TestAssignBackfillsAcknowledgment(t *testing.T) {
	a := &Alert{Status: StatusPending, CreatedAt: time.Now().UTC().Add(-time.Second)}

	a.Assign("actor-1", "worker-2")
	if a.Status != StatusInProgress {
		t.Fatalf("expected in_progress, got %s", a.Status)
	}
	if a.AssignedTo == nil || *a.AssignedTo != "worker-2" {
		t.Fatalf("assignee not recorded")
	}
	if a.AcknowledgedBy == nil || *a.AcknowledgedBy != "actor-1" {
		t.Fatalf("expected implicit acknowledgment by assigning actor")
	}
	if a.AcknowledgedAt == nil || a.AssignedAt == nil {
		t.Fatalf("expected both timestamps set")
	}
	if *a.ResponseTime.Acknowledged > *a.ResponseTime.Assigned {
		t.Fatalf("ack response time %d exceeds assign response time %d",
			*a.ResponseTime.Acknowledged, *a.ResponseTime.Assigned)
	}
}

func TestAssignKeepsExistingAcknowledgment(t *testing.T) {
	a := &Alert{Status: StatusPending, CreatedAt: time.Now().UTC()}
	a.Acknowledge("first")
	ackAt := *a.AcknowledgedAt

	a.Assign("second", "worker")
	if *a.AcknowledgedBy != "first" {
		t.Fatalf("assignment must not overwrite existing acknowledgment")
	}
	if !a.AcknowledgedAt.Equal(ackAt) {
		t.Fatalf("acknowledgment timestamp changed")
	}
}

func TestResolveRecordsNotes(t *testing.T) {
	a := &Alert{Status: StatusInProgress, CreatedAt: time.Now().UTC()}

	a.Resolve("vet-1", "treated on site")
	if a.Status != StatusResolved {
		t.Fatalf("expected resolved, got %s", a.Status)
	}
	if a.ResolutionNotes != "treated on site" {
		t.Fatalf("notes not recorded")
	}
	if a.ResponseTime.Resolved == nil {
		t.Fatalf("expected resolved response time")
	}
}

func TestEscalateClampsLevel(t *testing.T) {
	a := &Alert{Status: StatusPending, CreatedAt: time.Now().UTC()}

	a.Escalate("coord-1", 7)
	if a.Status != StatusEscalated {
		t.Fatalf("expected escalated, got %s", a.Status)
	}
	if a.EscalationLevel != MaxEscalationLevel {
		t.Fatalf("expected level clamped to %d, got %d", MaxEscalationLevel, a.EscalationLevel)
	}
	if a.EscalatedTo == nil || *a.EscalatedTo != "coord-1" {
		t.Fatalf("escalatedTo not recorded")
	}
}

func TestEscalatedAlertCanStillBeResolved(t *testing.T) {
	a := &Alert{Status: StatusPending, CreatedAt: time.Now().UTC()}
	a.Escalate("coord-1", 1)
	a.Acknowledge("worker-1")
	a.Resolve("worker-1", "")
	if a.Status != StatusResolved {
		t.Fatalf("escalated alert should be resolvable, got %s", a.Status)
	}
	if a.EscalationLevel != 1 {
		t.Fatalf("escalation level lost on resolve")
	}
}
