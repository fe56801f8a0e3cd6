package handler

import (
	"net/http"

	"anoa.com/eduachieve/internal/dto"
	"anoa.com/eduachieve/internal/service"
	"anoa.com/eduachieve/pkg/response"
	"anoa.com/eduachieve/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth service.AuthService
}

func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
