package repository

import (
	"context"
	"errors"

	"orderapp/internal/domain/model"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

// 一覧の絞り込み条件。nil/空文字は「条件なし」。
type OrderListFilter struct {
	Status   model.OrderStatus
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	UserID   *int64
}

// 部分更新。nilのフィールドは変更しない。
// 更新できるのは customer_name / status / user_id だけ（商品明細は作成後不変）。
type OrderChanges struct {
	CustomerName *string
	Status       *model.OrderStatus
	UserID       *int64
}

func (c OrderChanges) Empty() bool {
	return c.CustomerName == nil && c.Status == nil && c.UserID == nil
}

// 注文の永続化（保存・取得）だけを約束。
type OrderRepository interface {
	// 注文・商品明細・関連を1トランザクションで作成する。
	// total_price はここで確定し、商品を含めた完全な注文を返す。
	Create(ctx context.Context, order model.Order, products []model.Product) (model.Order, error)

	// is_deleted=false の注文を1件取得。ownerID 指定時は所有者も一致させる。
	// 見つからなければ ErrNotFound。
	FindByID(ctx context.Context, orderID int64, ownerID *int64) (model.Order, error)

	// 条件に合う is_deleted=false の注文を商品付きで取得。
	List(ctx context.Context, f OrderListFilter) ([]model.Order, error)

	// 部分更新して再読込した注文を返す。
	Update(ctx context.Context, orderID int64, changes OrderChanges) (model.Order, error)

	// is_deleted=true にする。行は物理削除しない。
	SoftDelete(ctx context.Context, orderID int64) error
}
