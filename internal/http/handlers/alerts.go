package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/straypaws/backend/internal/db"
)

// @Summary List alerts
// @Description Alerts filtered by organization, status, priority, zone, assignee, urgency
// @Tags alerts
// @Produce json
// @Param organization query string false "organization id"
// @Param status query string false "alert status"
// @Param priority query string false "priority tier"
// @Param zone query string false "zone name"
// @Param min_urgency query number false "minimum urgency score"
// @Success 200 {object} map[string]any
// @Router /api/alerts [get]
func (h *Handler) AlertsList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	minUrgency, _ := strconv.ParseFloat(c.DefaultQuery("min_urgency", "0"), 64)

	filter := db.AlertFilter{
		Organization: c.Query("organization"),
		Status:       c.Query("status"),
		Priority:     c.Query("priority"),
		Zone:         c.Query("zone"),
		AssignedTo:   c.Query("assigned_to"),
		MinUrgency:   minUrgency,
		Limit:        limit,
		Skip:         skip,
	}

	alerts, err := h.Store.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list alerts", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(alerts), "data": alerts})
}

// @Summary Get alert by id
// @Tags alerts
// @Produce json
// @Param id path string true "alert id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/alerts/{id} [get]
func (h *Handler) AlertGet(c *gin.Context) {
	alert, err := h.Store.GetAlert(c.Request.Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Alert not found", nil)
		return
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load alert", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alert})
}

// @Summary Alert statistics for an organization
// @Tags alerts
// @Produce json
// @Param organization query string true "organization id"
// @Success 200 {object} map[string]any
// @Router /api/alerts/stats [get]
func (h *Handler) AlertStats(c *gin.Context) {
	orgID := c.Query("organization")
	if orgID == "" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "organization is required", nil)
		return
	}
	org, err := h.Store.GetOrganization(c.Request.Context(), orgID)
	if errors.Is(err, db.ErrNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Organization not found", nil)
		return
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load organization", err.Error())
		return
	}
	stats, err := h.Store.GetAlertStats(c.Request.Context(), orgID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to compute stats", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"organization": org, "stats": stats}})
}

type acknowledgeRequest struct {
	ActorID string `json:"actor_id" validate:"required"`
}

// @Summary Acknowledge alert
// @Tags alerts
// @Accept json
// @Produce json
// @Param id path string true "alert id"
// @Success 200 {object} map[string]any
// @Router /api/alerts/{id}/acknowledge [post]
func (h *Handler) AlertAcknowledge(c *gin.Context) {
	var req acknowledgeRequest
	if !h.bind(c, &req) {
		return
	}

	alert, err := h.Alerts.Acknowledge(c.Request.Context(), c.Param("id"), req.ActorID)
	if !h.writeLifecycleError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Alert acknowledged", "data": alert})
}

type assignRequest struct {
	ActorID    string `json:"actor_id" validate:"required"`
	AssigneeID string `json:"assignee_id" validate:"required"`
}

// @Summary Assign alert
// @Tags alerts
// @Accept json
// @Produce json
// @Param id path string true "alert id"
// @Success 200 {object} map[string]any
// @Router /api/alerts/{id}/assign [post]
func (h *Handler) AlertAssign(c *gin.Context) {
	var req assignRequest
	if !h.bind(c, &req) {
		return
	}

	alert, err := h.Alerts.Assign(c.Request.Context(), c.Param("id"), req.ActorID, req.AssigneeID)
	if !h.writeLifecycleError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Alert assigned", "data": alert})
}

type resolveRequest struct {
	ActorID string `json:"actor_id" validate:"required"`
	Notes   string `json:"notes"`
}

// @Summary Resolve alert
// @Tags alerts
// @Accept json
// @Produce json
// @Param id path string true "alert id"
// @Success 200 {object} map[string]any
// @Router /api/alerts/{id}/resolve [post]
func (h *Handler) AlertResolve(c *gin.Context) {
	var req resolveRequest
	if !h.bind(c, &req) {
		return
	}

	alert, err := h.Alerts.Resolve(c.Request.Context(), c.Param("id"), req.ActorID, req.Notes)
	if !h.writeLifecycleError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Alert resolved", "data": alert})
}

// bind decodes and validates a JSON body, writing the error response
// itself. Returns false when the request was rejected.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err.Error())
		return false
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Validation failed", err.Error())
		return false
	}
	return true
}

// writeLifecycleError maps lifecycle transition errors. Returns false when
// a response was written.
func (h *Handler) writeLifecycleError(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, db.ErrNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Alert not found", nil)
		return false
	}
	writeError(c, http.StatusInternalServerError, "DB_ERROR", "Alert update failed", err.Error())
	return false
}
