package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter すべてのルートを登録したginエンジンを生成する
func NewRouter(trees *TreesHandler, mapHandler *MapHandler) *gin.Engine {
	router := gin.Default()

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "KrishHortus-App"})
	})

	api := router.Group("/api/v1")
	{
		api.GET("/trees", trees.ListTrees)
		api.GET("/trees/nearby", trees.NearbyTrees)
		api.GET("/trees/:id", trees.GetTree)
		api.POST("/trees", trees.CreateTree)
		api.PATCH("/trees/:id", trees.UpdateTree)
		api.DELETE("/trees/:id", trees.DeleteTree)
		api.POST("/trees/:id/verify", trees.VerifyTree)
		api.POST("/identify", trees.IdentifyTree)

		api.GET("/map/state", mapHandler.MapState)
		api.POST("/map/click", mapHandler.ClickMap)
		api.POST("/map/confirm", mapHandler.ConfirmPlacement)
		api.POST("/map/cancel", mapHandler.CancelPlacement)
		api.POST("/map/drag/cancel", mapHandler.CancelDrag)
		api.POST("/map/drag/:id", mapHandler.BeginDrag)
		api.POST("/map/drop", mapHandler.CompleteDrag)
		api.POST("/map/locate", mapHandler.LocateMe)
	}

	return router
}
