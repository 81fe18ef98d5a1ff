package account

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"journal-backend/internal/shared/server/middleware"
	"journal-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the account service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches account routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.DELETE("/account/data", h.deleteData)
}

func (h *Handler) deleteData(c *gin.Context) {
	if isGuest, ok := c.Get("isGuest"); ok {
		if guest, ok2 := isGuest.(bool); ok2 && guest {
			respond.Error(c, http.StatusUnauthorized, "login_required", "Login required to delete account data", nil)
			return
		}
	}

	userID := middleware.UserIDFromContext(c)
	report, err := h.Svc.DeleteAllData(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete account data", nil)
		return
	}

	respond.JSON(c, http.StatusOK, report)
}
