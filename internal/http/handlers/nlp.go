package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Analysis client status
// @Description Breaker state, failure count, and configured timeouts, plus a live health probe.
// @Tags nlp
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/nlp/status [get]
func (h *Handler) NLPStatus(c *gin.Context) {
	status := h.NLP.Status()
	health := h.NLP.CheckHealth(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"status":          status,
			"service_healthy": health.Reachable,
		},
	})
}

// @Summary Reset the analysis circuit breaker
// @Tags nlp
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/nlp/reset-circuit [post]
func (h *Handler) NLPResetCircuit(c *gin.Context) {
	h.NLP.ResetCircuit()
	health := h.NLP.CheckHealth(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"message": "Circuit breaker reset",
		"data": gin.H{
			"circuit_open":    false,
			"service_healthy": health.Reachable,
		},
	})
}

// @Summary Run one escalation sweep now
// @Tags alerts
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/escalations/run [post]
func (h *Handler) EscalationRun(c *gin.Context) {
	escalated, err := h.Escalator.RunOnce(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "SWEEP_FAILED", "Escalation sweep failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"escalated": escalated})
}
