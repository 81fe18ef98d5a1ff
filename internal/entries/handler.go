package entries

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"journal-backend/internal/shared/server/middleware"
	"journal-backend/internal/shared/server/respond"
	"journal-backend/internal/usage"
)

// Handler wires HTTP handlers to the entries service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// requestContext carries the middleware request ID into the service so the
// analysis goroutine logs under the request that started it.
func requestContext(c *gin.Context) context.Context {
	return WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
}

// RegisterRoutes attaches entry routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/entries", h.createEntry)
	rg.GET("/entries", h.listEntries)
	rg.GET("/entries/:id", h.getEntry)
	rg.PUT("/entries/:id", h.updateEntry)
	rg.DELETE("/entries/:id", h.deleteEntry)
	rg.POST("/entries/:id/analyze", h.analyzeEntry)
	rg.POST("/entries/:id/suggest-tags", h.suggestTags)
}

type createEntryRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	EntryDate string `json:"entryDate"`
	ImageKey  string `json:"imageKey"`
}

type updateEntryRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	EntryDate *string `json:"entryDate"`
	ImageKey  *string `json:"imageKey"`
}

func (h *Handler) createEntry(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	in := CreateInput{
		Title:    req.Title,
		Content:  req.Content,
		ImageKey: req.ImageKey,
	}
	if req.EntryDate != "" {
		parsed, err := parseEntryDate(req.EntryDate)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "entryDate must be YYYY-MM-DD or RFC 3339", nil)
			return
		}
		in.EntryDate = parsed
	}

	entry, err := h.Svc.Create(requestContext(c), userID, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "content is required", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create entry", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, entryResponse(entry))
}

func (h *Handler) listEntries(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	filter := ListFilter{
		Mood:   c.Query("mood"),
		Tag:    c.Query("tag"),
		Search: c.Query("search"),
		Limit:  20,
	}
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			filter.Limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			filter.Offset = parsed
		}
	}

	list, err := h.Svc.List(requestContext(c), userID, filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list entries", nil)
		return
	}

	resp := make([]gin.H, 0, len(list))
	for _, entry := range list {
		resp = append(resp, entryResponse(entry))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) getEntry(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	entryID := c.Param("id")

	entry, err := h.Svc.Get(requestContext(c), userID, entryID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "entry not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch entry", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, entryResponse(entry))
}

func (h *Handler) updateEntry(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	entryID := c.Param("id")

	var req updateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	in := UpdateInput{
		Title:    req.Title,
		Content:  req.Content,
		ImageKey: req.ImageKey,
	}
	if req.EntryDate != nil {
		parsed, err := parseEntryDate(*req.EntryDate)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "entryDate must be YYYY-MM-DD or RFC 3339", nil)
			return
		}
		in.EntryDate = &parsed
	}

	entry, err := h.Svc.Update(requestContext(c), userID, entryID, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "entry not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "content cannot be empty", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update entry", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, entryResponse(entry))
}

func (h *Handler) deleteEntry(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	entryID := c.Param("id")

	if err := h.Svc.Delete(requestContext(c), userID, entryID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "entry not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete entry", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) analyzeEntry(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	entryID := c.Param("id")
	force := c.Query("force") == "true"

	entry, err := h.Svc.Reanalyze(requestContext(c), userID, entryID, force)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "entry not found", nil)
		case errors.Is(err, usage.ErrLimitReached):
			respond.Error(c, http.StatusTooManyRequests, "limit_reached", "You've reached your AI usage limit for this period.", []map[string]string{
				{"field": "usage", "issue": "limit_reached"},
			})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to analyze entry", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, entryResponse(entry))
}

func (h *Handler) suggestTags(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	entryID := c.Param("id")

	tags, err := h.Svc.SuggestTags(requestContext(c), userID, entryID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "entry not found", nil)
		case errors.Is(err, usage.ErrLimitReached):
			respond.Error(c, http.StatusTooManyRequests, "limit_reached", "You've reached your AI usage limit for this period.", []map[string]string{
				{"field": "usage", "issue": "limit_reached"},
			})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to suggest tags", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"tags": tags})
}

func entryResponse(entry Entry) gin.H {
	resp := gin.H{
		"id":        entry.ID,
		"title":     entry.Title,
		"content":   entry.Content,
		"entryDate": entry.EntryDate.Format("2006-01-02"),
		"wordCount": entry.WordCount,
		"createdAt": entry.CreatedAt,
		"updatedAt": entry.UpdatedAt,
	}
	if entry.ImageKey != "" {
		resp["imageKey"] = entry.ImageKey
	}
	if entry.Analysis != nil {
		resp["analysis"] = entry.Analysis
		resp["analyzedAt"] = entry.AnalyzedAt
	}
	return resp
}

func parseEntryDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
