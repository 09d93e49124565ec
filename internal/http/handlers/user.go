package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/havenline/haven-backend/internal/http/response"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
	"github.com/havenline/haven-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
	user, err := uh.userService.GetMe(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, user)
}
