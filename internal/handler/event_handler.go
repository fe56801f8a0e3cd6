package handler

import (
	"net/http"

	"anoa.com/eduachieve/internal/dto"
	"anoa.com/eduachieve/internal/service"
	"anoa.com/eduachieve/pkg/apperror"
	"anoa.com/eduachieve/pkg/response"
	"anoa.com/eduachieve/pkg/validator"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	engine  service.AchievementService
	limiter *service.EventRateLimiter
}

func NewEventHandler(engine service.AchievementService, limiter *service.EventRateLimiter) *EventHandler {
	return &EventHandler{engine: engine, limiter: limiter}
}

// SubmitEvent ingests one activity event for the authenticated user and
// responds with the badges it newly awarded (possibly none).
func (h *EventHandler) SubmitEvent(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.ActivityEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	allowed, err := h.limiter.Allow(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if !allowed {
		response.ResponseError(c, apperror.ErrRateLimitExceeded)
		return
	}

	awarded, err := h.engine.Evaluate(c.Request.Context(), userID, req.Type, req.Payload, &req.Stats)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if awarded == nil {
		awarded = []dto.AwardedBadge{}
	}
	c.JSON(http.StatusOK, gin.H{"awarded": awarded})
}
