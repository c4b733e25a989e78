package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"KrishHortus-App/internal/application"
	"KrishHortus-App/internal/domain/model"
)

// MapHandler 地図ジェスチャーに関するHTTPハンドラー
// モバイルクライアントのジェスチャーをコントローラの状態機械へ中継する
type MapHandler struct {
	controller *application.MapInteractionController
}

// NewMapHandler MapHandlerの新しいインスタンスを作成
func NewMapHandler(controller *application.MapInteractionController) *MapHandler {
	return &MapHandler{controller: controller}
}

// MapState GET /map/state - 現在のジェスチャー状態とビューポート
func (h *MapHandler) MapState(c *gin.Context) {
	resp := gin.H{
		"state":    h.controller.State(),
		"viewport": h.controller.ViewportCenter(),
	}
	if coord, ok := h.controller.PendingCoordinate(); ok {
		resp["pendingCoordinate"] = coord
	}
	c.JSON(http.StatusOK, resp)
}

// ClickMap POST /map/click - 配置候補座標の記録
func (h *MapHandler) ClickMap(c *gin.Context) {
	var coord model.Coordinate
	if err := c.ShouldBindJSON(&coord); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	if err := h.controller.ClickMap(coord); err != nil {
		respondGestureError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": h.controller.State()})
}

// ConfirmPlacement POST /map/confirm - 配置の確定（作成を発行）
func (h *MapHandler) ConfirmPlacement(c *gin.Context) {
	var form model.TreeFormData
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	tree, err := h.controller.ConfirmPlacement(c.Request.Context(), &form)
	if err != nil {
		respondGestureError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tree)
}

// CancelPlacement POST /map/cancel - 配置の中止
func (h *MapHandler) CancelPlacement(c *gin.Context) {
	if err := h.controller.CancelPlacement(); err != nil {
		respondGestureError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": h.controller.State()})
}

// BeginDrag POST /map/drag/:id - マーカードラッグの開始
func (h *MapHandler) BeginDrag(c *gin.Context) {
	if err := h.controller.BeginMarkerDrag(c.Param("id")); err != nil {
		respondGestureError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": h.controller.State()})
}

// CompleteDrag POST /map/drop - ドロップ位置で座標更新を発行
func (h *MapHandler) CompleteDrag(c *gin.Context) {
	var coord model.Coordinate
	if err := c.ShouldBindJSON(&coord); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	tree, err := h.controller.CompleteMarkerDrag(c.Request.Context(), coord)
	if err != nil {
		respondGestureError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// CancelDrag POST /map/drag/cancel - ドラッグの中止
func (h *MapHandler) CancelDrag(c *gin.Context) {
	if err := h.controller.CancelMarkerDrag(); err != nil {
		respondGestureError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": h.controller.State()})
}

// LocateMe POST /map/locate - 現在地でビューポート中心を更新
// 位置が取れなくても既定の地域中心が返る（必ず描画可能）
func (h *MapHandler) LocateMe(c *gin.Context) {
	center := h.controller.LocateMe(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"viewport": center})
}

// respondGestureError ジェスチャー系エラーをHTTPステータスへ割り当てる
func respondGestureError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrGestureInProgress),
		errors.Is(err, application.ErrGestureStateMismatch):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "gesture_conflict",
			"message": err.Error(),
		})
	case errors.Is(err, model.ErrTreeNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": err.Error(),
		})
	case errors.Is(err, model.ErrInvalidCoordinate):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_coordinate",
			"message": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
	}
}
