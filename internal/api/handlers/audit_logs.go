package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opsdeck/opsdeck/internal/audit"
	"github.com/opsdeck/opsdeck/internal/models"
)

// AuditHandler serves the audit trail query endpoint.
type AuditHandler struct {
	recorder *audit.Recorder
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(recorder *audit.Recorder) *AuditHandler {
	return &AuditHandler{recorder: recorder}
}

// AuditListResponse is the paginated audit trail envelope.
type AuditListResponse struct {
	Logs       []audit.Entry     `json:"logs"`
	Pagination models.Pagination `json:"pagination"`
}

// ListAuditLogs godoc
// @Summary Query the audit trail
// @Tags superadmin
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param action query string false "Filter by action kind"
// @Param userId query int false "Filter by acting account"
// @Param startDate query string false "RFC 3339 lower bound"
// @Param endDate query string false "RFC 3339 upper bound"
// @Success 200 {object} AuditListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /superadmin/audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	filters := audit.Filters{
		Page:   intQuery(c, "page", 1),
		Limit:  intQuery(c, "limit", audit.DefaultLimit),
		Action: models.AuditAction(c.Query("action")),
	}

	if raw := c.Query("userId"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			filters.ActorID = uint(id)
		}
	}
	if raw := c.Query("startDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "startDate must be RFC 3339"})
			return
		}
		filters.Start = t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "endDate must be RFC 3339"})
			return
		}
		filters.End = t
	}

	logs, pagination, err := h.recorder.Query(filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuditListResponse{Logs: logs, Pagination: pagination})
}
