package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"journal-backend/internal/shared/server/respond"
)

// Handler wires OTP login endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches OTP auth routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/otp/request", h.requestCode)
	rg.POST("/auth/otp/verify", h.verifyCode)
}

type requestCodeRequest struct {
	Email string `json:"email"`
}

func (h *Handler) requestCode(c *gin.Context) {
	var req requestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "email is required", nil)
		return
	}

	if err := h.Svc.RequestCode(c.Request.Context(), req.Email); err != nil {
		if strings.Contains(err.Error(), "invalid email") {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid email address", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to send login code", nil)
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{"sent": true})
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *Handler) verifyCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	token, user, err := h.Svc.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrCodeNotFound), errors.Is(err, ErrCodeInvalid):
			respond.Error(c, http.StatusUnauthorized, "invalid_code", "invalid email or code", nil)
		case errors.Is(err, ErrCodeExpired):
			respond.Error(c, http.StatusUnauthorized, "code_expired", "login code expired, request a new one", nil)
		case errors.Is(err, ErrTooManyTries):
			respond.Error(c, http.StatusTooManyRequests, "too_many_attempts", "too many attempts, request a new code", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to verify code", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}
