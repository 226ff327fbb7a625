package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aegis-ledger/internal/service"
	"aegis-ledger/internal/store"
)

// LedgerHandler mantiene dependencias para endpoints de sesiones,
// export y perfil.
type LedgerHandler struct {
	logger   *zap.Logger
	sessions *store.SessionStore
	bridge   *service.PersistenceBridge
}

// NewLedgerHandler crea una instancia de LedgerHandler con dependencias necesarias.
func NewLedgerHandler(logger *zap.Logger, sessions *store.SessionStore, bridge *service.PersistenceBridge) *LedgerHandler {
	return &LedgerHandler{
		logger:   logger,
		sessions: sessions,
		bridge:   bridge,
	}
}

// Health maneja GET /healthz.
func (h *LedgerHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateSession maneja POST /api/sessions.
func (h *LedgerHandler) CreateSession(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	// El cuerpo es opcional: sin nombre se usa la etiqueta por defecto.
	_ = c.ShouldBindJSON(&req)

	session := h.sessions.Create(req.Name)
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// ListSessions maneja GET /api/sessions.
func (h *LedgerHandler) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessions":          h.sessions.Sessions(),
		"active_session_id": h.sessions.ActiveID(),
	})
}

// GetSession maneja GET /api/sessions/:id.
func (h *LedgerHandler) GetSession(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if errors.Is(err, store.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// RenameSession maneja PATCH /api/sessions/:id.
func (h *LedgerHandler) RenameSession(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid rename session request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.sessions.Rename(c.Param("id"), req.Name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	session, _ := h.sessions.Get(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// ActivateSession maneja POST /api/sessions/:id/activate.
func (h *LedgerHandler) ActivateSession(c *gin.Context) {
	if err := h.sessions.SetActive(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active_session_id": c.Param("id")})
}

// DeleteSession maneja DELETE /api/sessions/:id.
func (h *LedgerHandler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	// El store garantiza exactamente una activa tras el borrado.
	c.JSON(http.StatusOK, gin.H{"active_session_id": h.sessions.ActiveID()})
}

// Export maneja GET /api/export: descarga el volcado completo del ledger.
func (h *LedgerHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	data, filename, err := h.bridge.Export(
		h.sessions.Snapshot(),
		h.bridge.UserName(ctx),
		time.Now().UTC(),
	)
	if err != nil {
		h.logger.Error("export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not export sessions"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

// GetUserName maneja GET /api/profile/name.
func (h *LedgerHandler) GetUserName(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"name": h.bridge.UserName(c.Request.Context())})
}

// SetUserName maneja PUT /api/profile/name.
func (h *LedgerHandler) SetUserName(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid set name request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	h.bridge.SetUserName(c.Request.Context(), req.Name)
	c.JSON(http.StatusOK, gin.H{"name": req.Name})
}
