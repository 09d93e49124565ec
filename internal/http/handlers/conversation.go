package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/havenline/haven-backend/internal/domain"
	"github.com/havenline/haven-backend/internal/http/response"
	"github.com/havenline/haven-backend/internal/pkg/ctxutil"
	"github.com/havenline/haven-backend/internal/pkg/dbctx"
	pkgerr "github.com/havenline/haven-backend/internal/pkg/errors"
	"github.com/havenline/haven-backend/internal/services"
)

type ConversationHandler struct {
	conversationService services.ConversationService
	summaryService      services.SummaryService
	userService         services.UserService
}

func NewConversationHandler(
	conversationService services.ConversationService,
	summaryService services.SummaryService,
	userService services.UserService,
) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		summaryService:      summaryService,
		userService:         userService,
	}
}

func (ch *ConversationHandler) Create(c *gin.Context) {
	var req struct {
		ExternalAuthID string `json:"external_auth_id"`
	}
	// Body is optional; default to the caller's own identity.
	_ = c.ShouldBindJSON(&req)

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	externalAuthID := req.ExternalAuthID
	if externalAuthID == "" {
		me, err := ch.userService.GetMe(dbc)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		externalAuthID = me.ExternalAuthID
	}

	conversation, err := ch.conversationService.CreateConversation(dbc, externalAuthID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondCreated(c, conversation)
}

func (ch *ConversationHandler) List(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		respondServiceError(c, pkgerr.ErrUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	conversations, err := ch.conversationService.ListByUser(dbctx.Context{Ctx: c.Request.Context()}, rd.UserID, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"conversations": conversations})
}

func (ch *ConversationHandler) Get(c *gin.Context) {
	conversation, ok := ch.loadOwned(c)
	if !ok {
		return
	}
	response.RespondOK(c, conversation)
}

func (ch *ConversationHandler) SendMessage(c *gin.Context) {
	conversation, ok := ch.loadOwned(c)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := ch.conversationService.SendMessage(dbctx.Context{Ctx: c.Request.Context()}, conversation.ID, req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, result)
}

func (ch *ConversationHandler) ListMessages(c *gin.Context) {
	conversation, ok := ch.loadOwned(c)
	if !ok {
		return
	}
	messages, err := ch.conversationService.ListMessages(dbctx.Context{Ctx: c.Request.Context()}, conversation.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"messages": messages})
}

func (ch *ConversationHandler) UpdateStatus(c *gin.Context) {
	conversation, ok := ch.loadOwned(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
		// Optional; only consulted when the transition enters completed.
		Summary string `json:"summary"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	updated, err := ch.conversationService.UpdateStatus(dbctx.Context{Ctx: c.Request.Context()}, conversation.ID, req.Status, req.Summary)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, updated)
}

func (ch *ConversationHandler) GetSummary(c *gin.Context) {
	conversation, ok := ch.loadOwned(c)
	if !ok {
		return
	}
	summary, err := ch.summaryService.GetLatest(dbctx.Context{Ctx: c.Request.Context()}, conversation.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, summary)
}

func (ch *ConversationHandler) RegenerateSummary(c *gin.Context) {
	conversation, ok := ch.loadOwned(c)
	if !ok {
		return
	}
	row, result, err := ch.summaryService.GenerateAndPersist(dbctx.Context{Ctx: c.Request.Context()}, conversation.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"summary": row,
		"source":  result.Source,
	})
}

// DetectState classifies a message without persisting anything. Useful for
// client-side previews and diagnostics.
func (ch *ConversationHandler) DetectState(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, ch.conversationService.DetectEmotionalState(req.Message))
}

// loadOwned resolves :id and enforces that the conversation belongs to the
// authenticated user. Foreign conversations read as not found.
func (ch *ConversationHandler) loadOwned(c *gin.Context) (*types.Conversation, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		respondServiceError(c, pkgerr.ErrUnauthorized)
		return nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid conversation id"))
		return nil, false
	}
	conversation, err := ch.conversationService.GetConversation(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	if conversation.UserID != rd.UserID {
		respondServiceError(c, pkgerr.ErrNotFound)
		return nil, false
	}
	return conversation, true
}
