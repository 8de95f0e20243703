package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opsdeck/opsdeck/internal/service"
)

// AnalyticsHandler serves the aggregate usage summary endpoint.
type AnalyticsHandler struct {
	svc *service.AdminService
	now func() time.Time
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(svc *service.AdminService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc, now: time.Now}
}

// SummaryResponse wraps the snapshot with its reference instant.
type SummaryResponse struct {
	Summary   *service.Summary `json:"summary"`
	Timestamp time.Time        `json:"timestamp"`
}

// GetSummary godoc
// @Summary Aggregate usage statistics
// @Tags superadmin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SummaryResponse
// @Failure 500 {object} ErrorResponse
// @Router /superadmin/analytics/summary [get]
func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
	now := h.now().UTC()
	summary, err := h.svc.Summarize(now)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{Summary: summary, Timestamp: now})
}
