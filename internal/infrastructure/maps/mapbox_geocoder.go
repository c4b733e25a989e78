package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"KrishHortus-App/internal/domain/model"
	"KrishHortus-App/internal/domain/repository"
)

// MapboxAddressResolver Mapbox Geocoding APIを使用した逆ジオコーディングの実装
type MapboxAddressResolver struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

// NewMapboxAddressResolver 新しいリゾルバを生成する
func NewMapboxAddressResolver(accessToken string) repository.AddressResolver {
	return &MapboxAddressResolver{
		accessToken: accessToken,
		baseURL:     "https://api.mapbox.com/geocoding/v5/mapbox.places",
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Resolve 座標から住所文字列を取得する（単一試行・リトライなし）
func (m *MapboxAddressResolver) Resolve(ctx context.Context, coord model.Coordinate) (string, error) {
	params := url.Values{}
	params.Set("access_token", m.accessToken)
	reqURL := fmt.Sprintf("%s/%f,%f.json?%s", m.baseURL, coord.Lng, coord.Lat, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("リクエストの作成に失敗: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("逆ジオコーディングAPIリクエストに失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("逆ジオコーディングAPIからエラーステータスが返されました: %s", resp.Status)
	}

	var apiResp mapboxGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("JSONのパースに失敗: %w", err)
	}

	if len(apiResp.Features) == 0 || apiResp.Features[0].PlaceName == "" {
		return "", errors.New("該当する住所が見つかりませんでした")
	}

	return apiResp.Features[0].PlaceName, nil
}

// --- Mapbox Geocoding APIのレスポンスをパースするための構造体 ---

type mapboxGeocodeResponse struct {
	Features []mapboxFeature `json:"features"`
}

type mapboxFeature struct {
	PlaceName string `json:"place_name"`
}
