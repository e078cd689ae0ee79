package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/straypaws/backend/internal/db"
	"github.com/straypaws/backend/internal/nlp"
)

type analyzeReportRequest struct {
	Text     string `json:"text" validate:"required"`
	Language string `json:"language"`
}

// @Summary Analyze a field report and raise an alert
// @Description Scores the report text with the analysis service and, on success, creates and broadcasts an alert for the dog case. Degrades to 202 when analysis is unavailable.
// @Tags reports
// @Accept json
// @Produce json
// @Param dogId path string true "dog case id"
// @Success 201 {object} map[string]any
// @Success 202 {object} map[string]any
// @Router /api/reports/{dogId}/analyze [post]
func (h *Handler) ReportAnalyze(c *gin.Context) {
	var req analyzeReportRequest
	if !h.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	dog, err := h.Store.GetDog(ctx, c.Param("dogId"))
	if errors.Is(err, db.ErrNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Dog case not found", nil)
		return
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load dog case", err.Error())
		return
	}

	analysis, err := h.NLP.AnalyzeReport(ctx, req.Text, req.Language)
	if nlp.Unavailable(err) {
		// Proceed-without-AI signal: the report stands, no alert is raised.
		c.JSON(http.StatusAccepted, gin.H{
			"analysis": "skipped",
			"reason":   err.Error(),
		})
		return
	}
	if err != nil {
		writeError(c, http.StatusBadGateway, "ANALYSIS_FAILED", "Analysis service rejected the report", err.Error())
		return
	}

	alert, err := h.Alerts.CreateFromAnalysis(ctx, dog, *analysis)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "ALERT_PERSIST_FAILED", "Alert could not be saved", err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"analysis": analysis, "alert": alert})
}
