package handler

import (
	"net/http"

	"anoa.com/eduachieve/internal/service"
	"anoa.com/eduachieve/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SummaryHandler struct {
	report service.ReportService
}

func NewSummaryHandler(report service.ReportService) *SummaryHandler {
	return &SummaryHandler{report: report}
}

// GetSummary serves the achievements/points/ranks fan-out for dashboards.
func (h *SummaryHandler) GetSummary(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID pengguna tidak valid"})
		return
	}

	summary, err := h.report.Summary(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

// GetMySummary is the same fan-out for the authenticated user.
func (h *SummaryHandler) GetMySummary(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	summary, err := h.report.Summary(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}
