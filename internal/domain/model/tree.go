package model

import "time"

// Coordinate 緯度経度の不変値（latitude ∈ [-90, 90], longitude ∈ [-180, 180]）
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Equal 2つの座標が同一かどうかを判定
func (c Coordinate) Equal(other Coordinate) bool {
	return c.Lat == other.Lat && c.Lng == other.Lng
}

// TreeCategory 樹木の分類（農園・コミュニティ・苗圃）
type TreeCategory string

const (
	CategoryFarm      TreeCategory = "farm"
	CategoryCommunity TreeCategory = "community"
	CategoryNursery   TreeCategory = "nursery"
)

// IsValid カテゴリが定義済みの値かどうかを判定
func (c TreeCategory) IsValid() bool {
	switch c {
	case CategoryFarm, CategoryCommunity, CategoryNursery:
		return true
	}
	return false
}

// PhotoSlot 写真スロット名（tree | leaves | bark | fruit | flower）
type PhotoSlot string

const (
	PhotoSlotTree   PhotoSlot = "tree"
	PhotoSlotLeaves PhotoSlot = "leaves"
	PhotoSlotBark   PhotoSlot = "bark"
	PhotoSlotFruit  PhotoSlot = "fruit"
	PhotoSlotFlower PhotoSlot = "flower"
)

// TreeLocation 樹木の位置情報
// Cell は常に Coordinate から再導出される（単独で設定してはならない）
type TreeLocation struct {
	Coordinate
	Cell    string `json:"h3Index"`
	Address string `json:"address,omitempty"`
}

// TreeMeasurements 樹木の計測値（すべて任意・非負）
type TreeMeasurements struct {
	Height       *float64 `json:"height,omitempty"`
	TrunkWidth   *float64 `json:"trunkWidth,omitempty"`
	CanopySpread *float64 `json:"canopySpread,omitempty"`
}

// TreeTaxonomy 分類学情報
type TreeTaxonomy struct {
	Kingdom string `json:"kingdom,omitempty"`
	Family  string `json:"family,omitempty"`
	Genus   string `json:"genus,omitempty"`
	Species string `json:"species,omitempty"`
}

// TreeMetadata 樹木の付加情報
type TreeMetadata struct {
	Taxonomy            *TreeTaxonomy `json:"taxonomy,omitempty"`
	Uses                []string      `json:"uses,omitempty"`
	MedicinalBenefits   []string      `json:"medicinalBenefits,omitempty"`
	EcologicalRelevance string        `json:"ecologicalRelevance,omitempty"`
}

// Tree タグ付けされた樹木レコード
// ID と TaggedAt は作成時に確定し、以後変更されない
type Tree struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	ScientificName string               `json:"scientificName"`
	LocalName      string               `json:"localName,omitempty"`
	Category       TreeCategory         `json:"category"`
	Location       TreeLocation         `json:"location"`
	Measurements   TreeMeasurements     `json:"measurements"`
	Photos         map[PhotoSlot]string `json:"photos"`
	Metadata       TreeMetadata         `json:"metadata"`
	TaggedBy       string               `json:"taggedBy"`
	TaggedAt       time.Time            `json:"taggedAt"`
	IsAIGenerated  bool                 `json:"isAIGenerated"`
	IsVerified     bool                 `json:"isVerified"`
}

// TreeFormData 樹木作成フォームの入力値
type TreeFormData struct {
	Name           string               `json:"name"`
	ScientificName string               `json:"scientificName"`
	LocalName      string               `json:"localName,omitempty"`
	Category       TreeCategory         `json:"category"`
	Height         *float64             `json:"height,omitempty"`
	TrunkWidth     *float64             `json:"trunkWidth,omitempty"`
	CanopySpread   *float64             `json:"canopySpread,omitempty"`
	Photos         map[PhotoSlot]string `json:"photos,omitempty"`
	Metadata       *TreeMetadata        `json:"metadata,omitempty"`
	Notes          string               `json:"notes,omitempty"`
	TaggedBy       string               `json:"taggedBy"`
	IsAIGenerated  bool                 `json:"isAIGenerated,omitempty"`
}

// TreeUpdate 部分更新のフィールド列挙型パッチ
// Coordinate を含む場合、セルは適用時に解像度15で再計算される。
// IfCoordinate が設定されている場合、Address は現在の座標が一致するときのみ適用される
// （住所解決中に座標が再移動したときの古いパッチを破棄するため）
type TreeUpdate struct {
	Name           *string              `json:"name,omitempty"`
	ScientificName *string              `json:"scientificName,omitempty"`
	LocalName      *string              `json:"localName,omitempty"`
	Category       *TreeCategory        `json:"category,omitempty"`
	Coordinate     *Coordinate          `json:"coordinate,omitempty"`
	Address        *string              `json:"address,omitempty"`
	IfCoordinate   *Coordinate          `json:"ifCoordinate,omitempty"`
	Measurements   *TreeMeasurements    `json:"measurements,omitempty"`
	Photos         map[PhotoSlot]string `json:"photos,omitempty"`
	Metadata       *TreeMetadata        `json:"metadata,omitempty"`
	IsVerified     *bool                `json:"isVerified,omitempty"`
}

// TreeSearchParams 樹木検索の絞り込み条件
type TreeSearchParams struct {
	Category *TreeCategory
	Species  string
	Center   *Coordinate
	RadiusKm float64
	Cell     string
	Verified *bool
	Page     int
	Size     int
}
