package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/havenline/haven-backend/internal/http/response"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
	"github.com/havenline/haven-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := ah.authService.Register(dbctx.Context{Ctx: c.Request.Context()}, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"user":  result.User,
		"token": result.Token,
	})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := ah.authService.Login(dbctx.Context{Ctx: c.Request.Context()}, req.Email, req.Password)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
		return
	}
	response.RespondOK(c, gin.H{
		"user":  result.User,
		"token": result.Token,
	})
}
