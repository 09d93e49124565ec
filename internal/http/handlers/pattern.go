package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/havenline/haven-backend/internal/http/response"
	"github.com/havenline/haven-backend/internal/pkg/ctxutil"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
	pkgerr "github.com/havenline/haven-backend/internal/pkg/errors"
	"github.com/havenline/haven-backend/internal/services"
)

type PatternHandler struct {
	patternService services.PatternService
}

func NewPatternHandler(patternService services.PatternService) *PatternHandler {
	return &PatternHandler{patternService: patternService}
}

// ListMine returns the caller's significant patterns: confident enough and
// recently reinforced.
func (ph *PatternHandler) ListMine(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		respondServiceError(c, pkgerr.ErrUnauthorized)
		return
	}
	patterns, err := ph.patternService.GetUserPatterns(dbctx.Context{Ctx: c.Request.Context()}, rd.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"patterns": patterns})
}
