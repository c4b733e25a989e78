package handler

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"KrishHortus-App/internal/application"
	"KrishHortus-App/internal/domain/model"
)

// TreesHandler 樹木コレクションに関するHTTPハンドラー
type TreesHandler struct {
	store    *application.TreeCollectionStore
	identify *application.TreeIdentificationService
}

// NewTreesHandler TreesHandlerの新しいインスタンスを作成
func NewTreesHandler(store *application.TreeCollectionStore, identify *application.TreeIdentificationService) *TreesHandler {
	return &TreesHandler{
		store:    store,
		identify: identify,
	}
}

// ListTrees GET /trees - 検索条件付きの一覧取得
func (h *TreesHandler) ListTrees(c *gin.Context) {
	params, err := parseSearchParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": err.Error(),
		})
		return
	}

	trees := h.store.Search(params)
	c.JSON(http.StatusOK, gin.H{
		"trees":         trees,
		"totalElements": len(trees),
	})
}

// GetTree GET /trees/:id - 単体取得
func (h *TreesHandler) GetTree(c *gin.Context) {
	tree, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Tree not found: " + c.Param("id"),
		})
		return
	}
	c.JSON(http.StatusOK, tree)
}

// createTreeRequest POST /trees のリクエストボディ
type createTreeRequest struct {
	model.TreeFormData
	Location model.Coordinate `json:"location"`
}

// CreateTree POST /trees - 樹木の作成
func (h *TreesHandler) CreateTree(c *gin.Context) {
	var req createTreeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	tree, err := h.store.Create(c.Request.Context(), &req.TreeFormData, req.Location)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCoordinate) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_coordinate",
				"message": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to create tree: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, tree)
}

// UpdateTree PATCH /trees/:id - 部分更新
func (h *TreesHandler) UpdateTree(c *gin.Context) {
	var upd model.TreeUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	tree, err := h.store.Update(c.Request.Context(), c.Param("id"), &upd)
	if err != nil {
		respondUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// DeleteTree DELETE /trees/:id - 削除（冪等）
func (h *TreesHandler) DeleteTree(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to delete tree: " + err.Error(),
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// NearbyTrees GET /trees/nearby - 中心座標と半径での近傍検索
func (h *TreesHandler) NearbyTrees(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	radius, radiusErr := strconv.ParseFloat(c.Query("radius"), 64)
	if latErr != nil || lngErr != nil || radiusErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": "lat, lng and radius query parameters are required",
		})
		return
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	center := model.Coordinate{Lat: lat, Lng: lng}
	trees, err := h.store.Nearby(c.Request.Context(), center, radius, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to search nearby trees: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, trees)
}

// VerifyTree POST /trees/:id/verify - 検証済みフラグを立てる
func (h *TreesHandler) VerifyTree(c *gin.Context) {
	tree, err := h.store.Verify(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// identifyRequest POST /identify のリクエストボディ（base64画像）
type identifyRequest struct {
	Image string `json:"image"`
}

// IdentifyTree POST /identify - AIによる樹種識別
func (h *TreesHandler) IdentifyTree(c *gin.Context) {
	var req identifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "image must be base64 encoded",
		})
		return
	}

	result := h.identify.Identify(c.Request.Context(), image)
	c.JSON(http.StatusOK, result)
}

// respondUpdateError 更新系エラーをHTTPステータスへ割り当てる
func respondUpdateError(c *gin.Context, err error) {
	switch {
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
			"message": "Failed to update tree: " + err.Error(),
		})
	}
}

// parseSearchParams クエリパラメータを検索条件へ変換する
func parseSearchParams(c *gin.Context) (*model.TreeSearchParams, error) {
	params := &model.TreeSearchParams{}

	if category := c.Query("category"); category != "" {
		treeCategory := model.TreeCategory(category)
		if !treeCategory.IsValid() {
			return nil, errors.New("invalid category: " + category)
		}
		params.Category = &treeCategory
	}
	params.Species = c.Query("species")
	params.Cell = c.Query("h3Index")

	if verifiedStr := c.Query("verified"); verifiedStr != "" {
		verified, err := strconv.ParseBool(verifiedStr)
		if err != nil {
			return nil, errors.New("invalid verified flag: " + verifiedStr)
		}
		params.Verified = &verified
	}

	latStr, lngStr, radiusStr := c.Query("lat"), c.Query("lng"), c.Query("radius")
	if latStr != "" || lngStr != "" || radiusStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lng, lngErr := strconv.ParseFloat(lngStr, 64)
		radius, radiusErr := strconv.ParseFloat(radiusStr, 64)
		if latErr != nil || lngErr != nil || radiusErr != nil {
			return nil, errors.New("lat, lng and radius must be provided together")
		}
		params.Center = &model.Coordinate{Lat: lat, Lng: lng}
		params.RadiusKm = radius
	}

	if sizeStr := c.Query("size"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size < 0 {
			return nil, errors.New("invalid size: " + sizeStr)
		}
		params.Size = size
		if pageStr := c.Query("page"); pageStr != "" {
			page, err := strconv.Atoi(pageStr)
			if err != nil || page < 0 {
				return nil, errors.New("invalid page: " + pageStr)
			}
			params.Page = page
		}
	}

	return params, nil
}
