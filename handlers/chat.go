package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"chat-api/chat"
	"chat-api/middleware"
	"chat-api/models"
	"chat-api/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatHandler handles chat-related HTTP requests.
type ChatHandler struct {
	store        store.ConversationStore
	orchestrator *chat.Orchestrator
	timeout      time.Duration
	logger       *zap.Logger
}

// NewChatHandler creates a new chat handler. timeout bounds the whole chat
// pipeline for one request.
func NewChatHandler(st store.ConversationStore, orch *chat.Orchestrator, timeout time.Duration, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		store:        st,
		orchestrator: orch,
		timeout:      timeout,
		logger:       logger,
	}
}

// SendMessage handles POST /api/chat/ai: it validates the request, runs the
// orchestration pipeline under the request budget, and responds with the
// assistant's turn or a classified failure.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, chatID, prompt, err := h.validateChatRequest(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	reply, err := h.orchestrator.SendMessage(ctx, userID, chatID, prompt)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": reply.Payload()})
}

// validateChatRequest gates the pipeline: principal presence first, then
// prompt well-formedness, before any store or network access. An unparseable
// chat id is indistinguishable from a missing conversation.
func (h *ChatHandler) validateChatRequest(c *gin.Context) (string, uuid.UUID, string, error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		return "", uuid.Nil, "", chat.ErrUnauthenticated
	}

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", uuid.Nil, "", chat.ErrEmptyPrompt
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", uuid.Nil, "", chat.ErrEmptyPrompt
	}

	chatID, err := uuid.Parse(req.ChatID)
	if err != nil {
		return "", uuid.Nil, "", store.ErrNotFound
	}
	return userID, chatID, prompt, nil
}

// CreateConversation handles POST /api/conversations.
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.fail(c, chat.ErrUnauthenticated)
		return
	}

	var req models.CreateConversationRequest
	_ = c.ShouldBindJSON(&req) // title is optional

	conv, err := h.store.Create(c.Request.Context(), userID, req.Title)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

// ListConversations handles GET /api/conversations.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.fail(c, chat.ErrUnauthenticated)
		return
	}

	conversations, err := h.store.List(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// GetConversation handles GET /api/conversations/:id.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.fail(c, chat.ErrUnauthenticated)
		return
	}
	id, err := conversationID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	conv, err := h.store.Load(c.Request.Context(), id, userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// RenameConversation handles PUT /api/conversations/:id.
func (h *ChatHandler) RenameConversation(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.fail(c, chat.ErrUnauthenticated)
		return
	}
	id, err := conversationID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var req models.RenameConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Title cannot be empty."})
		return
	}

	if err := h.store.Rename(c.Request.Context(), id, userID, req.Title); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversation renamed"})
}

// DeleteConversation handles DELETE /api/conversations/:id.
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.fail(c, chat.ErrUnauthenticated)
		return
	}
	id, err := conversationID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.store.Delete(c.Request.Context(), id, userID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversation deleted"})
}

// conversationID parses the :id path parameter. An unparseable id maps to
// NotFound, same as a missing conversation.
func conversationID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, store.ErrNotFound
	}
	return id, nil
}

// fail logs the failure with full cause detail and writes the classified
// outcome.
func (h *ChatHandler) fail(c *gin.Context, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.Int("status", status),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	} else {
		h.logger.Warn("request rejected",
			zap.Int("status", status),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, body)
}
