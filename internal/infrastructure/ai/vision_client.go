package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// VisionClient はGoogle Vision APIとの通信を担当するクライアント
type VisionClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewVisionClient は新しいVisionClientインスタンスを作成
func NewVisionClient(apiKey string) *VisionClient {
	return &VisionClient{
		apiKey:  apiKey,
		baseURL: "https://vision.googleapis.com/v1/images:annotate",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// visionRequest はVision APIへのリクエスト構造体
type visionRequest struct {
	Requests []annotateRequest `json:"requests"`
}

type annotateRequest struct {
	Image    imageContent `json:"image"`
	Features []feature    `json:"features"`
}

type imageContent struct {
	Content string `json:"content"`
}

type feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

// visionResponse はVision APIからのレスポンス構造体
type visionResponse struct {
	Responses []annotateResponse `json:"responses"`
}

type annotateResponse struct {
	LabelAnnotations []labelAnnotation `json:"labelAnnotations"`
}

type labelAnnotation struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// ImageLabel は検出されたラベルとそのスコア
type ImageLabel struct {
	Description string
	Score       float64
}

// AnnotateImage は画像のラベル検出を実行する
func (c *VisionClient) AnnotateImage(ctx context.Context, image []byte) ([]ImageLabel, error) {
	req := visionRequest{
		Requests: []annotateRequest{
			{
				Image: imageContent{Content: base64.StdEncoding.EncodeToString(image)},
				Features: []feature{
					{Type: "LABEL_DETECTION", MaxResults: 15},
				},
			},
		},
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("リクエストのシリアライズに失敗: %w", err)
	}

	url := fmt.Sprintf("%s?key=%s", c.baseURL, c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("APIリクエストに失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API呼び出しエラー (status: %d): %s", resp.StatusCode, string(body))
	}

	var apiResp visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("JSONのパースに失敗: %w", err)
	}

	if len(apiResp.Responses) == 0 {
		return nil, fmt.Errorf("APIから有効なレスポンスが返されませんでした")
	}

	labels := make([]ImageLabel, 0, len(apiResp.Responses[0].LabelAnnotations))
	for _, annotation := range apiResp.Responses[0].LabelAnnotations {
		labels = append(labels, ImageLabel{
			Description: annotation.Description,
			Score:       annotation.Score,
		})
	}

	return labels, nil
}
