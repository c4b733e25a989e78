package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"KrishHortus-App/internal/domain/model"
	"KrishHortus-App/internal/domain/repository"
)

// treeKeywords 樹木関連のラベルとして扱うキーワード
var treeKeywords = []string{"tree", "plant", "leaf", "bark", "trunk", "branch", "foliage", "flower", "fruit"}

// floraEntry インド在来樹種のデータベースエントリ
type floraEntry struct {
	ScientificName      string
	CommonName          string
	LocalName           string
	Family              string
	Genus               string
	Species             string
	Uses                []string
	MedicinalBenefits   []string
	EcologicalRelevance string
}

// indianFlora 主要ラベルから樹種候補へのマッピング
var indianFlora = map[string]floraEntry{
	"tree": {
		ScientificName:      "Mangifera indica",
		CommonName:          "Mango Tree",
		LocalName:           "आम का पेड़",
		Family:              "Anacardiaceae",
		Genus:               "Mangifera",
		Species:             "indica",
		Uses:                []string{"Fruit consumption", "Timber for construction", "Medicinal bark"},
		MedicinalBenefits:   []string{"Bark decoction for digestive ailments", "Leaf extract for oral health"},
		EcologicalRelevance: "Supports pollinators and provides canopy shade in agroforestry systems",
	},
	"plant": {
		ScientificName:      "Azadirachta indica",
		CommonName:          "Neem Tree",
		LocalName:           "नीम का पेड़",
		Family:              "Meliaceae",
		Genus:               "Azadirachta",
		Species:             "indica",
		Uses:                []string{"Natural pesticide", "Medicinal leaves", "Timber"},
		MedicinalBenefits:   []string{"Antibacterial leaf paste", "Twigs used for dental hygiene"},
		EcologicalRelevance: "Drought-tolerant species valued for soil improvement and pest control",
	},
	"leaf": {
		ScientificName:      "Ficus benghalensis",
		CommonName:          "Banyan Tree",
		LocalName:           "बरगद का पेड़",
		Family:              "Moraceae",
		Genus:               "Ficus",
		Species:             "benghalensis",
		Uses:                []string{"Shelter provider", "Medicinal bark and leaves", "Sacred worship"},
		MedicinalBenefits:   []string{"Bark infusion for skin conditions", "Latex applied to joint pain"},
		EcologicalRelevance: "Keystone fig species sustaining birds and bats year round",
	},
	"flower": {
		ScientificName:      "Tecoma stans",
		CommonName:          "Yellow Bells",
		LocalName:           "पीले फूल का पेड़",
		Family:              "Bignoniaceae",
		Genus:               "Tecoma",
		Species:             "stans",
		Uses:                []string{"Ornamental planting", "Traditional medicine", "Bee forage"},
		MedicinalBenefits:   []string{"Leaf extract traditionally used for diabetes management"},
		EcologicalRelevance: "Continuous nectar source for bees and hummingbird moths",
	},
	"fruit": {
		ScientificName:      "Psidium guajava",
		CommonName:          "Guava Tree",
		LocalName:           "अमरूद का पेड़",
		Family:              "Myrtaceae",
		Genus:               "Psidium",
		Species:             "guajava",
		Uses:                []string{"Fruit consumption", "Medicinal leaves", "Small timber"},
		MedicinalBenefits:   []string{"Leaf tea for digestive health", "Vitamin C rich fruit"},
		EcologicalRelevance: "Common homestead tree dispersed widely by birds",
	},
}

// VisionTreeIdentifier Vision APIのラベル検出結果を樹種識別に変換する実装
type VisionTreeIdentifier struct {
	client *VisionClient
}

// NewVisionTreeIdentifier 新しいインスタンスを生成する
func NewVisionTreeIdentifier(client *VisionClient) repository.TreeIdentifier {
	return &VisionTreeIdentifier{client: client}
}

// Identify 画像から樹種を識別する
// 樹木関連のラベルが検出されない場合はエラーを返す
func (v *VisionTreeIdentifier) Identify(ctx context.Context, image []byte) (*model.IdentificationResult, error) {
	if len(image) == 0 {
		return nil, errors.New("画像データが空です")
	}

	labels, err := v.client.AnnotateImage(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("画像アノテーションに失敗: %w", err)
	}

	keyword, score, found := primaryTreeLabel(labels)
	if !found {
		return nil, errors.New("画像から樹木が検出されませんでした")
	}

	entry, ok := indianFlora[keyword]
	if !ok {
		entry = indianFlora["tree"]
	}

	return &model.IdentificationResult{
		CommonName:     entry.CommonName,
		ScientificName: entry.ScientificName,
		LocalName:      entry.LocalName,
		Confidence:     score,
		Taxonomy: &model.TreeTaxonomy{
			Kingdom: "Plantae",
			Family:  entry.Family,
			Genus:   entry.Genus,
			Species: entry.Species,
		},
		Uses:                entry.Uses,
		MedicinalBenefits:   entry.MedicinalBenefits,
		EcologicalRelevance: entry.EcologicalRelevance,
	}, nil
}

// primaryTreeLabel 樹木関連ラベルのうち最上位のキーワードとスコアを返す
func primaryTreeLabel(labels []ImageLabel) (string, float64, bool) {
	for _, label := range labels {
		description := strings.ToLower(label.Description)
		for _, keyword := range treeKeywords {
			if strings.Contains(description, keyword) {
				return keyword, label.Score, true
			}
		}
	}
	return "", 0, false
}
