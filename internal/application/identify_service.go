package application

import (
	"context"

	"KrishHortus-App/internal/domain/model"
	"KrishHortus-App/internal/domain/repository"
)

// fallbackConfidence 識別に失敗したときの汎用結果の信頼度
const fallbackConfidence = 0.3

// TreeIdentificationService AI識別の失敗を汎用の低信頼度結果で吸収するサービス
// 識別の失敗がタグ付けフローをブロックすることはない
type TreeIdentificationService struct {
	identifier repository.TreeIdentifier
}

// NewTreeIdentificationService 新しいサービスを生成する
func NewTreeIdentificationService(identifier repository.TreeIdentifier) *TreeIdentificationService {
	return &TreeIdentificationService{identifier: identifier}
}

// Identify 画像から樹種を識別する。常に有効な結果を返す
func (s *TreeIdentificationService) Identify(ctx context.Context, image []byte) *model.IdentificationResult {
	result, err := s.identifier.Identify(ctx, image)
	if err != nil || result == nil {
		return fallbackIdentification()
	}

	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	if result.CommonName == "" {
		result.CommonName = "Unidentified Tree"
	}
	return result
}

// fallbackIdentification 識別不能時の汎用結果
func fallbackIdentification() *model.IdentificationResult {
	return &model.IdentificationResult{
		CommonName:     "Unidentified Tree",
		ScientificName: "Species unknown",
		Confidence:     fallbackConfidence,
		Taxonomy: &model.TreeTaxonomy{
			Kingdom: "Plantae",
		},
		Uses:                []string{"Pending field verification"},
		EcologicalRelevance: "Requires manual identification by a verifier",
	}
}
