package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/renardhq/renard/internal/pkg/response"
	"github.com/renardhq/renard/internal/service"
)

// MessageHandler is the buffered ingest surface. Accepting a message means
// "durably recorded", not "searchable yet": embedding happens in the next
// batch run.
type MessageHandler struct {
	ingest *service.IngestService
}

func NewMessageHandler(ingest *service.IngestService) *MessageHandler {
	return &MessageHandler{ingest: ingest}
}

type batchMessagesRequest struct {
	Messages []service.ActivityInput `json:"messages"`
}

func (h *MessageHandler) Create(c *gin.Context) {
	var req service.ActivityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request body")
		return
	}
	act, err := h.ingest.CreateMessage(c.Request.Context(), getUserID(c), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, gin.H{"id": act.ID, "processed": act.Processed})
}

func (h *MessageHandler) CreateBatch(c *gin.Context) {
	var req batchMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request body")
		return
	}
	acts, err := h.ingest.CreateMessages(c.Request.Context(), getUserID(c), req.Messages)
	if err != nil {
		handleError(c, err)
		return
	}
	ids := make([]string, 0, len(acts))
	for _, act := range acts {
		ids = append(ids, act.ID)
	}
	response.Created(c, gin.H{"ids": ids, "count": len(ids), "processed": false})
}

func (h *MessageHandler) Stats(c *gin.Context) {
	stats, err := h.ingest.Stats(c.Request.Context(), getUserID(c), c.Query("teamId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}
