package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/renardhq/renard/internal/pkg/response"
	"github.com/renardhq/renard/internal/service"
)

type ProcessingHandler struct {
	processor *service.ProcessorService
}

func NewProcessingHandler(processor *service.ProcessorService) *ProcessingHandler {
	return &ProcessingHandler{processor: processor}
}

func (h *ProcessingHandler) Queue(c *gin.Context) {
	queue, err := h.processor.Queue(c.Request.Context(), c.Query("teamId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, queue)
}

type triggerRequest struct {
	BatchSize int    `json:"batchSize"`
	Limit     int    `json:"limit"`
	TeamID    string `json:"teamId"`
}

// Trigger runs the batch processor synchronously with caller-supplied
// bounds. Admin only; may race a scheduled run, which is wasted work but
// not corruption since upsert and the processed flag are idempotent.
func (h *ProcessingHandler) Trigger(c *gin.Context) {
	var req triggerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "invalid", "invalid request body")
			return
		}
	}
	if req.BatchSize == 0 {
		req.BatchSize, _ = strconv.Atoi(c.Query("batchSize"))
	}
	if req.Limit == 0 {
		req.Limit, _ = strconv.Atoi(c.Query("limit"))
	}
	if req.TeamID == "" {
		req.TeamID = c.Query("teamId")
	}
	result, err := h.processor.ProcessPending(c.Request.Context(), service.ProcessOptions{
		BatchSize: req.BatchSize,
		Limit:     req.Limit,
		TeamID:    req.TeamID,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
