package models

import (
	"strings"
	"time"
)

// User roles. Routing rules in internal/service key off these.
const (
	RoleFieldWorker    = "field_worker"
	RoleNGOCoordinator = "ngo_coordinator"
	RoleVeterinarian   = "veterinarian"
	RoleMunicipalAdmin = "municipal_admin"
	RoleSystemAdmin    = "system_admin"
	RoleReporter       = "reporter"
)

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Coordinates returns the [longitude, latitude] pair used on the wire.
func (p GeoPoint) Coordinates() [2]float64 {
	return [2]float64{p.Lng, p.Lat}
}

type Dog struct {
	ID           string    `json:"id"`
	DogID        string    `json:"dog_id"`
	Name         string    `json:"name"`
	Breed        string    `json:"breed,omitempty"`
	Color        string    `json:"color,omitempty"`
	Location     GeoPoint  `json:"location"`
	Zone         string    `json:"zone"`
	Address      string    `json:"address"`
	Organization string    `json:"organization"`
	ReportedBy   string    `json:"reported_by"`
	HealthNotes  string    `json:"health_notes,omitempty"`
	IsInjured    bool      `json:"is_injured"`
	IsAggressive bool      `json:"is_aggressive"`
	Images       []string  `json:"images,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Label returns the human-readable identifier used in alert messages.
func (d Dog) Label() string {
	if d.Name != "" {
		return d.Name
	}
	if d.DogID != "" {
		return d.DogID
	}
	return "Dog"
}

type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Role          string    `json:"role"`
	Organization  string    `json:"organization"`
	AssignedZones []string  `json:"assigned_zones"`
	IsActive      bool      `json:"is_active"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ExtractedEntities is the entity set the analysis service pulls out
// of free-text report notes.
type ExtractedEntities struct {
	Locations []string `json:"locations"`
	Symptoms  []string `json:"symptoms"`
}

// ReportAnalysis is the result of one analyze call. Alerts embed an
// immutable copy of it, never a live reference.
type ReportAnalysis struct {
	Category     string            `json:"category"`
	Confidence   float64           `json:"confidence"`
	Sentiment    string            `json:"sentiment"`
	Summary      string            `json:"summary"`
	UrgencyScore float64           `json:"urgency_score"`
	Entities     ExtractedEntities `json:"entities"`
}
