package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jsinglet/mrva_go_server/internal/model/dto"
	"github.com/jsinglet/mrva_go_server/internal/pkg/response"
	"github.com/jsinglet/mrva_go_server/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Token API Key 换取 JWT
// POST /api/v1/auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.ExchangeToken(req.APIKey)
	if err != nil {
		switch err {
		case service.ErrInvalidAPIKey:
			response.AuthError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}
