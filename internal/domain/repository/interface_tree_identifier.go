package repository

import (
	"context"

	"KrishHortus-App/internal/domain/model"
)

// TreeIdentifier 画像からの樹種識別
// 失敗はエラーとして返し、呼び出し側が汎用の低信頼度結果で代替する
type TreeIdentifier interface {
	Identify(ctx context.Context, image []byte) (*model.IdentificationResult, error)
}
