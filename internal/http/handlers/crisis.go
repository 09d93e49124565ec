package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/havenline/haven-backend/internal/http/response"
	"github.com/havenline/haven-backend/internal/pkg/ctxutil"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
	pkgerr "github.com/havenline/haven-backend/internal/pkg/errors"
	"github.com/havenline/haven-backend/internal/services"
)

type CrisisHandler struct {
	crisisService       services.CrisisService
	conversationService services.ConversationService
}

func NewCrisisHandler(crisisService services.CrisisService, conversationService services.ConversationService) *CrisisHandler {
	return &CrisisHandler{crisisService: crisisService, conversationService: conversationService}
}

func (ch *CrisisHandler) ListByConversation(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		respondServiceError(c, pkgerr.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid conversation id"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	conversation, err := ch.conversationService.GetConversation(dbc, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if conversation.UserID != rd.UserID {
		respondServiceError(c, pkgerr.ErrNotFound)
		return
	}
	events, err := ch.crisisService.ListByConversation(dbc, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"crisis_events": events})
}

func (ch *CrisisHandler) Record(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		respondServiceError(c, pkgerr.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid conversation id"))
		return
	}
	var req struct {
		Severity    string `json:"severity"`
		ActionTaken string `json:"action_taken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	conversation, err := ch.conversationService.GetConversation(dbc, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if conversation.UserID != rd.UserID {
		respondServiceError(c, pkgerr.ErrNotFound)
		return
	}
	event, err := ch.crisisService.RecordEvent(dbc, id, rd.UserID, req.Severity, req.ActionTaken)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, event)
}

func (ch *CrisisHandler) ListUnresolved(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		respondServiceError(c, pkgerr.ErrUnauthorized)
		return
	}
	events, err := ch.crisisService.ListUnresolvedByUser(dbctx.Context{Ctx: c.Request.Context()}, rd.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"crisis_events": events})
}

func (ch *CrisisHandler) Resolve(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		respondServiceError(c, pkgerr.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid event id"))
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	event, err := ch.crisisService.GetEvent(dbc, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if event.UserID != rd.UserID {
		respondServiceError(c, pkgerr.ErrNotFound)
		return
	}
	if err := ch.crisisService.ResolveEvent(dbc, id, req.Notes); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
