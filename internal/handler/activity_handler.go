package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/renardhq/renard/internal/pkg/response"
	"github.com/renardhq/renard/internal/service"
)

type ActivityHandler struct {
	activities *service.ActivityService
}

func NewActivityHandler(activities *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// Create is the synchronous ingest+embed path. The record is always
// persisted; if embedding or indexing fails the response still carries the
// activity with processed=false plus a warning.
func (h *ActivityHandler) Create(c *gin.Context) {
	var req service.ActivityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request body")
		return
	}
	act, warning, err := h.activities.Create(c.Request.Context(), getUserID(c), req)
	if err != nil {
		handleError(c, err)
		return
	}
	body := gin.H{"activity": act}
	if warning != "" {
		body["warning"] = warning
	}
	response.Created(c, body)
}

func (h *ActivityHandler) List(c *gin.Context) {
	limit := parseUintQuery(c, "limit", 50)
	offset := parseUintQuery(c, "offset", 0)
	acts, err := h.activities.List(c.Request.Context(), getUserID(c), c.Query("teamId"), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"activities": acts, "count": len(acts)})
}

func (h *ActivityHandler) Get(c *gin.Context) {
	act, err := h.activities.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, act)
}

func (h *ActivityHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	hits, err := h.activities.Search(c.Request.Context(), getUserID(c), c.Query("teamId"), c.Query("query"), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	if hits == nil {
		hits = []service.SearchHit{}
	}
	response.Success(c, gin.H{"results": hits, "count": len(hits)})
}

func (h *ActivityHandler) Delete(c *gin.Context) {
	if err := h.activities.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func parseUintQuery(c *gin.Context, name string, fallback uint) uint {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return uint(value)
}
