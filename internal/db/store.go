package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/straypaws/backend/internal/models"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// --- dogs ---

func (s *Store) GetDog(ctx context.Context, id string) (models.Dog, error) {
	var d models.Dog
	err := s.Pool.QueryRow(ctx, `SELECT id, dog_id, name, breed, color, lat, lng, zone, address,
		organization, reported_by, health_notes, is_injured, is_aggressive, images, created_at
		FROM dogs WHERE id = $1 OR dog_id = $1`, id).Scan(
		&d.ID, &d.DogID, &d.Name, &d.Breed, &d.Color, &d.Location.Lat, &d.Location.Lng,
		&d.Zone, &d.Address, &d.Organization, &d.ReportedBy, &d.HealthNotes,
		&d.IsInjured, &d.IsAggressive, &d.Images, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Dog{}, ErrNotFound
	}
	return d, err
}

// --- organizations ---

func (s *Store) GetOrganization(ctx context.Context, id string) (models.Organization, error) {
	var o models.Organization
	err := s.Pool.QueryRow(ctx, `SELECT id, name, type FROM organizations WHERE id = $1`, id).
		Scan(&o.ID, &o.Name, &o.Type)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Organization{}, ErrNotFound
	}
	return o, err
}

// --- users ---

const userColumns = `id, username, first_name, last_name, role, organization, assigned_zones, is_active, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Role,
		&u.Organization, &u.AssignedZones, &u.IsActive, &u.UpdatedAt)
	return u, err
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	u, err := scanUser(s.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

func (s *Store) ActiveUsersByOrgAndRoles(ctx context.Context, orgID string, roles []string) ([]models.User, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+userColumns+` FROM users
		WHERE organization = $1 AND is_active AND role = ANY($2)
		ORDER BY id`, orgID, roles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (s *Store) ActiveUsersByZoneAndRoles(ctx context.Context, zone string, roles []string) ([]models.User, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+userColumns+` FROM users
		WHERE $1 = ANY(assigned_zones) AND is_active AND role = ANY($2)
		ORDER BY id`, zone, roles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

// FirstActiveCoordinator returns one active user in the organization
// holding any of the given roles, or ErrNotFound.
func (s *Store) FirstActiveCoordinator(ctx context.Context, orgID string, roles []string) (models.User, error) {
	u, err := scanUser(s.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users
		WHERE organization = $1 AND is_active AND role = ANY($2)
		ORDER BY id LIMIT 1`, orgID, roles))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

func collectUsers(rows pgx.Rows) ([]models.User, error) {
	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// --- alerts ---

const alertColumns = `alert_id, dog_id, type, priority, urgency_score, analysis, title, message,
	lat, lng, zone, address, organization, reported_by, status,
	acknowledged_by, acknowledged_at, assigned_to, assigned_at,
	resolved_by, resolved_at, resolution_notes,
	escalation_level, escalated_to, escalated_at,
	socket_notified, socket_notified_at,
	response_ack_ms, response_assign_ms, response_resolve_ms,
	source, auto_flagged, tags, created_at, updated_at`

func (s *Store) CreateAlert(ctx context.Context, a *models.Alert) error {
	analysisJSON, err := json.Marshal(a.Analysis)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `INSERT INTO alerts (`+alertColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
		        $21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35)`,
		a.AlertID, a.DogID, a.Type, a.Priority, a.UrgencyScore, analysisJSON, a.Title, a.Message,
		a.Location.Lat, a.Location.Lng, a.Zone, a.Address, a.Organization, a.ReportedBy, a.Status,
		a.AcknowledgedBy, a.AcknowledgedAt, a.AssignedTo, a.AssignedAt,
		a.ResolvedBy, a.ResolvedAt, a.ResolutionNotes,
		a.EscalationLevel, a.EscalatedTo, a.EscalatedAt,
		a.SocketNotified, a.SocketNotifiedAt,
		a.ResponseTime.Acknowledged, a.ResponseTime.Assigned, a.ResponseTime.Resolved,
		a.Source, a.AutoFlagged, a.Tags, a.CreatedAt, a.UpdatedAt)
	return err
}

// UpdateAlertLifecycle writes the mutable lifecycle columns of one alert in
// a single statement, giving atomic per-alert transition semantics.
func (s *Store) UpdateAlertLifecycle(ctx context.Context, a *models.Alert) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE alerts SET
		status = $2,
		acknowledged_by = $3, acknowledged_at = $4,
		assigned_to = $5, assigned_at = $6,
		resolved_by = $7, resolved_at = $8, resolution_notes = $9,
		escalation_level = $10, escalated_to = $11, escalated_at = $12,
		socket_notified = $13, socket_notified_at = $14,
		response_ack_ms = $15, response_assign_ms = $16, response_resolve_ms = $17,
		updated_at = $18
		WHERE alert_id = $1`,
		a.AlertID, a.Status,
		a.AcknowledgedBy, a.AcknowledgedAt,
		a.AssignedTo, a.AssignedAt,
		a.ResolvedBy, a.ResolvedAt, a.ResolutionNotes,
		a.EscalationLevel, a.EscalatedTo, a.EscalatedAt,
		a.SocketNotified, a.SocketNotifiedAt,
		a.ResponseTime.Acknowledged, a.ResponseTime.Assigned, a.ResponseTime.Resolved,
		a.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	a, err := scanAlert(s.Pool.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE alert_id = $1`, alertID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// AlertFilter narrows ListAlerts. Zero values mean "any".
type AlertFilter struct {
	Organization string
	Status       string
	Priority     string
	Zone         string
	AssignedTo   string
	MinUrgency   float64
	Limit        int
	Skip         int
}

func (s *Store) ListAlerts(ctx context.Context, f AlertFilter) ([]models.Alert, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Skip < 0 {
		f.Skip = 0
	}

	query := `SELECT ` + alertColumns + ` FROM alerts`
	var args []any
	var wheres []string
	if f.Organization != "" {
		args = append(args, f.Organization)
		wheres = append(wheres, fmt.Sprintf("organization = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		wheres = append(wheres, fmt.Sprintf("priority = $%d", len(args)))
	}
	if f.Zone != "" {
		args = append(args, f.Zone)
		wheres = append(wheres, fmt.Sprintf("zone = $%d", len(args)))
	}
	if f.AssignedTo != "" {
		args = append(args, f.AssignedTo)
		wheres = append(wheres, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if f.MinUrgency > 0 {
		args = append(args, f.MinUrgency)
		wheres = append(wheres, fmt.Sprintf("urgency_score >= $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY urgency_score DESC, created_at DESC"
	query += " LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, f.Limit, f.Skip)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAlerts(rows)
}

// ListEscalatable returns pending alerts still below the escalation cap,
// the working set of one escalation sweep.
func (s *Store) ListEscalatable(ctx context.Context) ([]models.Alert, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+alertColumns+` FROM alerts
		WHERE status = $1 AND escalation_level < $2
		ORDER BY created_at`, models.StatusPending, models.MaxEscalationLevel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAlerts(rows)
}

type AlertStats struct {
	Total             int     `json:"total"`
	Pending           int     `json:"pending"`
	Acknowledged      int     `json:"acknowledged"`
	InProgress        int     `json:"in_progress"`
	Resolved          int     `json:"resolved"`
	Critical          int     `json:"critical"`
	High              int     `json:"high"`
	AvgUrgency        float64 `json:"avg_urgency"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
}

func (s *Store) GetAlertStats(ctx context.Context, orgID string) (AlertStats, error) {
	var st AlertStats
	err := s.Pool.QueryRow(ctx, `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'pending'),
		COUNT(*) FILTER (WHERE status = 'acknowledged'),
		COUNT(*) FILTER (WHERE status = 'in_progress'),
		COUNT(*) FILTER (WHERE status = 'resolved'),
		COUNT(*) FILTER (WHERE priority = 'critical'),
		COUNT(*) FILTER (WHERE priority = 'high'),
		COALESCE(AVG(urgency_score), 0),
		COALESCE(AVG(response_ack_ms), 0)
		FROM alerts WHERE organization = $1`, orgID).Scan(
		&st.Total, &st.Pending, &st.Acknowledged, &st.InProgress, &st.Resolved,
		&st.Critical, &st.High, &st.AvgUrgency, &st.AvgResponseTimeMs)
	return st, err
}

func collectAlerts(rows pgx.Rows) ([]models.Alert, error) {
	var out []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAlert(row pgx.Row) (*models.Alert, error) {
	var a models.Alert
	var analysisJSON []byte
	err := row.Scan(
		&a.AlertID, &a.DogID, &a.Type, &a.Priority, &a.UrgencyScore, &analysisJSON, &a.Title, &a.Message,
		&a.Location.Lat, &a.Location.Lng, &a.Zone, &a.Address, &a.Organization, &a.ReportedBy, &a.Status,
		&a.AcknowledgedBy, &a.AcknowledgedAt, &a.AssignedTo, &a.AssignedAt,
		&a.ResolvedBy, &a.ResolvedAt, &a.ResolutionNotes,
		&a.EscalationLevel, &a.EscalatedTo, &a.EscalatedAt,
		&a.SocketNotified, &a.SocketNotifiedAt,
		&a.ResponseTime.Acknowledged, &a.ResponseTime.Assigned, &a.ResponseTime.Resolved,
		&a.Source, &a.AutoFlagged, &a.Tags, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(analysisJSON) > 0 {
		if err := json.Unmarshal(analysisJSON, &a.Analysis); err != nil {
			return nil, err
		}
	}
	return &a, nil
}
