package chat

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"journal-backend/internal/shared/server/middleware"
	"journal-backend/internal/shared/server/respond"
	"journal-backend/internal/usage"
)

// Handler wires HTTP handlers to the chat service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.sendMessage)
	rg.POST("/chat/stream", h.streamMessage)
	rg.GET("/chat/history", h.history)
	rg.DELETE("/chat/history", h.clearHistory)
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	reply, err := h.Svc.Send(c.Request.Context(), userID, req.Message)
	if err != nil {
		h.writeSendError(c, err)
		return
	}

	respond.JSON(c, http.StatusOK, reply)
}

func (h *Handler) streamMessage(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	fragments, err := h.Svc.SendStream(c.Request.Context(), userID, req.Message)
	if err != nil {
		h.writeSendError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		fragment, ok := <-fragments
		if !ok {
			c.SSEvent("done", "")
			return false
		}
		c.SSEvent("message", fragment)
		return true
	})
}

func (h *Handler) history(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 50
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	msgs, err := h.Svc.History(c.Request.Context(), userID, limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch chat history", nil)
		return
	}

	respond.JSON(c, http.StatusOK, msgs)
}

func (h *Handler) clearHistory(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	n, err := h.Svc.Clear(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to clear chat history", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"deleted": n})
}

func (h *Handler) writeSendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "message is required", nil)
	case errors.Is(err, usage.ErrLimitReached):
		respond.Error(c, http.StatusTooManyRequests, "limit_reached", "You've reached your AI usage limit for this period.", []map[string]string{
			{"field": "usage", "issue": "limit_reached"},
		})
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to send message", nil)
	}
}
