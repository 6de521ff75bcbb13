package repository

import (
	"context"

	"orderapp/internal/domain/model"
)

// 注文詳細の read-through キャッシュ。
// 真実のソースではないので、失敗しても呼び出し元の処理は止めない約束。
type OrderCache interface {
	// ヒットしたら (order, true)。ミスは (zero, false, nil)。
	Get(ctx context.Context, orderID int64) (model.Order, bool, error)

	// 注文のスナップショットを保存する（作成・更新時の write-through）。
	Set(ctx context.Context, order model.Order) error

	// エントリを削除する（論理削除時）。
	Invalidate(ctx context.Context, orderID int64) error
}
