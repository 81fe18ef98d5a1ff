package uploads

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"journal-backend/internal/shared/server/middleware"
	"journal-backend/internal/shared/server/respond"
	"journal-backend/internal/shared/util"
)

const maxUploadSize = 5 << 20 // 5MB

// Handler wires HTTP handlers to the uploads service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/uploads/image", h.upload)
	rg.GET("/uploads/image", h.download)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	key, err := h.Svc.Upload(c.Request.Context(), userID, fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "only image files are accepted", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload image", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, gin.H{"key": key})
}

func (h *Handler) download(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	key := c.Query("key")
	if key == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "key is required", nil)
		return
	}

	// Keys are namespaced by hashed user ID; refuse cross-user reads.
	if !strings.HasPrefix(key, util.HashUserKey(userID)+"/") {
		respond.Error(c, http.StatusNotFound, "not_found", "image not found", nil)
		return
	}

	body, err := h.Svc.Open(c.Request.Context(), key)
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "image not found", nil)
		return
	}
	defer body.Close()

	c.Status(http.StatusOK)
	c.Header("Content-Type", "application/octet-stream")
	io.Copy(c.Writer, body)
}
