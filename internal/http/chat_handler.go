package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aegis-ledger/internal/service"
	"aegis-ledger/internal/store"
)

// ChatHandler mantiene dependencias para el endpoint de envio de turnos.
type ChatHandler struct {
	logger *zap.Logger
	conv   *service.ConversationService
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(logger *zap.Logger, conv *service.ConversationService) *ChatHandler {
	return &ChatHandler{logger: logger, conv: conv}
}

// SubmitMessage maneja POST /api/sessions/:id/messages.
func (h *ChatHandler) SubmitMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid submit message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.conv.Submit(c.Request.Context(), c.Param("id"), req.Content, GetRole(c))
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "message empty"})
		return
	case errors.Is(err, service.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "submission already in flight"})
		return
	case errors.Is(err, store.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	case err != nil:
		h.logger.Error("submit message failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process message"})
		return
	}

	c.JSON(http.StatusCreated, result)
}
