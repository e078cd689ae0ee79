package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/straypaws/backend/internal/models"
)

// Directory answers the user lookups recipient routing needs. Implemented
// by the pgx store; tests substitute an in-memory fake.
type Directory interface {
	ActiveUsersByOrgAndRoles(ctx context.Context, orgID string, roles []string) ([]models.User, error)
	ActiveUsersByZoneAndRoles(ctx context.Context, zone string, roles []string) ([]models.User, error)
}

var (
	orgMemberRoles   = []string{models.RoleFieldWorker, models.RoleNGOCoordinator, models.RoleVeterinarian}
	zoneWorkerRoles  = []string{models.RoleFieldWorker, models.RoleNGOCoordinator}
	coordinatorRoles = []string{models.RoleNGOCoordinator, models.RoleMunicipalAdmin, models.RoleSystemAdmin}
)

// Routing keeps the per-category breakdown for observability; only the
// deduplicated union is used for delivery.
type Routing struct {
	Organization []string `json:"organization"`
	Zone         []string `json:"zone"`
	Coordinators []string `json:"coordinators"`
}

type RecipientSet struct {
	UserIDs    []string `json:"user_ids"`
	Routing    Routing  `json:"routing"`
	TotalCount int      `json:"total_count"`
}

type RecipientResolver struct {
	Directory Directory
	Logger    zerolog.Logger
}

// Resolve computes who should be notified about the alert. A failed lookup
// degrades to an empty recipient set; alert creation never fails because
// routing failed.
func (r *RecipientResolver) Resolve(ctx context.Context, alert *models.Alert, dog models.Dog) RecipientSet {
	var routing Routing

	if dog.Organization != "" {
		members, err := r.Directory.ActiveUsersByOrgAndRoles(ctx, dog.Organization, orgMemberRoles)
		if err != nil {
			return r.degraded(alert, err)
		}
		routing.Organization = userIDs(members)
	}

	if dog.Zone != "" {
		workers, err := r.Directory.ActiveUsersByZoneAndRoles(ctx, dog.Zone, zoneWorkerRoles)
		if err != nil {
			return r.degraded(alert, err)
		}
		routing.Zone = userIDs(workers)
	}

	if alert.Priority == models.PriorityCritical || alert.UrgencyScore >= 0.85 {
		coordinators, err := r.Directory.ActiveUsersByOrgAndRoles(ctx, dog.Organization, coordinatorRoles)
		if err != nil {
			return r.degraded(alert, err)
		}
		routing.Coordinators = userIDs(coordinators)
	}

	union := dedupe(routing.Organization, routing.Zone, routing.Coordinators)
	return RecipientSet{
		UserIDs:    union,
		Routing:    routing,
		TotalCount: len(union),
	}
}

func (r *RecipientResolver) degraded(alert *models.Alert, err error) RecipientSet {
	r.Logger.Warn().
		Err(err).
		Str("alert_id", alert.AlertID).
		Msg("recipient lookup failed, delivering to empty set")
	return RecipientSet{UserIDs: []string{}}
}

func userIDs(users []models.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

// dedupe unions the id lists preserving first-seen order.
func dedupe(lists ...[]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
