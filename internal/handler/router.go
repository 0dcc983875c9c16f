package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/renardhq/renard/internal/middleware"
)

type RouterDeps struct {
	Messages   *MessageHandler
	Activities *ActivityHandler
	Processing *ProcessingHandler
	Graph      *GraphHandler
	JWTSecret  []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	ingestGroup := authGroup.Group("")
	ingestGroup.Use(middleware.RateLimit(100 * time.Millisecond))
	ingestGroup.POST("/messages", deps.Messages.Create)
	ingestGroup.POST("/messages/batch", deps.Messages.CreateBatch)

	authGroup.GET("/messages/stats", deps.Messages.Stats)

	authGroup.POST("/activities", deps.Activities.Create)
	authGroup.GET("/activities", deps.Activities.List)
	authGroup.GET("/activities/search", deps.Activities.Search)
	authGroup.GET("/activities/:id", deps.Activities.Get)
	authGroup.DELETE("/activities/:id", deps.Activities.Delete)

	authGroup.GET("/processing/queue", deps.Processing.Queue)
	authGroup.POST("/processing/trigger", middleware.RequireAdmin(), deps.Processing.Trigger)

	authGroup.GET("/graph", deps.Graph.Get)
}
