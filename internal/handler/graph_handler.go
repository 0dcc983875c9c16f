package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/renardhq/renard/internal/pkg/response"
	"github.com/renardhq/renard/internal/service"
)

type GraphHandler struct {
	graph *service.GraphService
}

func NewGraphHandler(graph *service.GraphService) *GraphHandler {
	return &GraphHandler{graph: graph}
}

func (h *GraphHandler) Get(c *gin.Context) {
	graph, err := h.graph.Build(c.Request.Context(), getUserID(c), c.Query("teamId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, graph)
}
