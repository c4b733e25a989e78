package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"KrishHortus-App/internal/domain/model"
	"KrishHortus-App/internal/domain/repository"
)

// HTTPTreesRepository リモート樹木サービスのRESTクライアント実装
// 各操作は単一試行であり、失敗はすべて RemoteUnavailableError として返す
type HTTPTreesRepository struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPTreesRepository ベースURLからクライアントを生成する
func NewHTTPTreesRepository(baseURL string) repository.RemoteTreesStore {
	return &HTTPTreesRepository{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// treeListResponse 一覧取得APIのレスポンス
type treeListResponse struct {
	Trees []model.Tree `json:"trees"`
}

// createTreeRequest 作成APIのリクエスト
// 位置は座標のみを送信する（セルの真正な導出元として送らない）
type createTreeRequest struct {
	Name           string                     `json:"name"`
	ScientificName string                     `json:"scientificName"`
	LocalName      string                     `json:"localName,omitempty"`
	Category       model.TreeCategory         `json:"category"`
	Location       model.Coordinate           `json:"location"`
	Measurements   model.TreeMeasurements     `json:"measurements"`
	Photos         map[model.PhotoSlot]string `json:"photos,omitempty"`
	Metadata       model.TreeMetadata         `json:"metadata"`
	TaggedBy       string                     `json:"taggedBy"`
	IsAIGenerated  bool                       `json:"isAIGenerated"`
}

func (r *HTTPTreesRepository) List(ctx context.Context, params *model.TreeSearchParams) ([]model.Tree, error) {
	endpoint := r.baseURL + "/trees"
	if query := encodeSearchParams(params); query != "" {
		endpoint += "?" + query
	}

	var resp treeListResponse
	if err := r.doJSON(ctx, "GET", endpoint, nil, &resp); err != nil {
		return nil, &model.RemoteUnavailableError{Op: "list", Err: err}
	}
	return resp.Trees, nil
}

func (r *HTTPTreesRepository) GetByID(ctx context.Context, id string) (*model.Tree, error) {
	var tree model.Tree
	err := r.doJSON(ctx, "GET", r.baseURL+"/trees/"+url.PathEscape(id), nil, &tree)
	if err != nil {
		if isNotFound(err) {
			return nil, model.ErrTreeNotFound
		}
		return nil, &model.RemoteUnavailableError{Op: "get", Err: err}
	}
	return &tree, nil
}

func (r *HTTPTreesRepository) Create(ctx context.Context, tree *model.Tree) (*model.Tree, error) {
	payload := createTreeRequest{
		Name:           tree.Name,
		ScientificName: tree.ScientificName,
		LocalName:      tree.LocalName,
		Category:       tree.Category,
		Location:       tree.Location.Coordinate,
		Measurements:   tree.Measurements,
		Photos:         tree.Photos,
		Metadata:       tree.Metadata,
		TaggedBy:       tree.TaggedBy,
		IsAIGenerated:  tree.IsAIGenerated,
	}

	var created model.Tree
	if err := r.doJSON(ctx, "POST", r.baseURL+"/trees", payload, &created); err != nil {
		return nil, &model.RemoteUnavailableError{Op: "create", Err: err}
	}
	return &created, nil
}

func (r *HTTPTreesRepository) Update(ctx context.Context, id string, upd *model.TreeUpdate) (*model.Tree, error) {
	var updated model.Tree
	err := r.doJSON(ctx, "PATCH", r.baseURL+"/trees/"+url.PathEscape(id), upd, &updated)
	if err != nil {
		if isNotFound(err) {
			return nil, model.ErrTreeNotFound
		}
		return nil, &model.RemoteUnavailableError{Op: "update", Err: err}
	}
	return &updated, nil
}

func (r *HTTPTreesRepository) Delete(ctx context.Context, id string) error {
	err := r.doJSON(ctx, "DELETE", r.baseURL+"/trees/"+url.PathEscape(id), nil, nil)
	if err != nil {
		// 存在しないIDの削除は冪等に成功として扱う
		if isNotFound(err) {
			return nil
		}
		return &model.RemoteUnavailableError{Op: "delete", Err: err}
	}
	return nil
}

func (r *HTTPTreesRepository) Nearby(ctx context.Context, center model.Coordinate, radiusKm float64, limit int) ([]model.Tree, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(center.Lat, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(center.Lng, 'f', -1, 64))
	params.Set("radius", strconv.FormatFloat(radiusKm, 'f', -1, 64))
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var trees []model.Tree
	err := r.doJSON(ctx, "GET", r.baseURL+"/trees/nearby?"+params.Encode(), nil, &trees)
	if err != nil {
		return nil, &model.RemoteUnavailableError{Op: "nearby", Err: err}
	}
	return trees, nil
}

func (r *HTTPTreesRepository) Verify(ctx context.Context, id string) (*model.Tree, error) {
	var verified model.Tree
	err := r.doJSON(ctx, "POST", r.baseURL+"/trees/"+url.PathEscape(id)+"/verify", nil, &verified)
	if err != nil {
		if isNotFound(err) {
			return nil, model.ErrTreeNotFound
		}
		return nil, &model.RemoteUnavailableError{Op: "verify", Err: err}
	}
	return &verified, nil
}

// doJSON リクエストを実行し、2xx以外・デコード失敗をエラーとして返す
func (r *HTTPTreesRepository) doJSON(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストのシリアライズに失敗: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("リクエストの作成に失敗: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("APIリクエストに失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &httpStatusError{status: resp.StatusCode}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("JSONのパースに失敗: %w", err)
		}
	}
	return nil
}

type httpStatusError struct {
	status int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("APIからエラーステータスが返されました: %d", e.status)
}

func isNotFound(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.status == http.StatusNotFound
	}
	return false
}

// encodeSearchParams 検索条件をクエリパラメータに変換する
func encodeSearchParams(params *model.TreeSearchParams) string {
	if params == nil {
		return ""
	}

	values := url.Values{}
	if params.Category != nil {
		values.Set("category", string(*params.Category))
	}
	if params.Species != "" {
		values.Set("species", params.Species)
	}
	if params.Center != nil {
		values.Set("lat", strconv.FormatFloat(params.Center.Lat, 'f', -1, 64))
		values.Set("lng", strconv.FormatFloat(params.Center.Lng, 'f', -1, 64))
		values.Set("radius", strconv.FormatFloat(params.RadiusKm, 'f', -1, 64))
	}
	if params.Cell != "" {
		values.Set("h3Index", params.Cell)
	}
	if params.Verified != nil {
		values.Set("verified", strconv.FormatBool(*params.Verified))
	}
	if params.Size > 0 {
		values.Set("page", strconv.Itoa(params.Page))
		values.Set("size", strconv.Itoa(params.Size))
	}
	return values.Encode()
}
