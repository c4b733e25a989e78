package repository

import (
	"context"

	"KrishHortus-App/internal/domain/model"
)

// AddressResolver 逆ジオコーディングによる住所解決
// ベストエフォートであり、失敗時に呼び出し側は座標のフォーマット文字列で代替する
type AddressResolver interface {
	Resolve(ctx context.Context, coord model.Coordinate) (string, error)
}
