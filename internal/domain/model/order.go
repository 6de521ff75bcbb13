package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// 閉じた選択肢（バリデーションとエラーメッセージで使う）
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusCancelled,
}

// ParseOrderStatus は入力を大文字に正規化して既知のステータスか確認する
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range OrderStatuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}

// OrderStatusNames はエラー文言用の有効なステータス一覧
func OrderStatusNames() []string {
	names := make([]string, 0, len(OrderStatuses))
	for _, s := range OrderStatuses {
		names = append(names, string(s))
	}
	return names
}

type Order struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64           `gorm:"not null;index" json:"user_id"`
	CustomerName string          `gorm:"type:varchar(255);not null" json:"customer_name"`
	Status       OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	Products     []Product       `gorm:"many2many:order_products" json:"products"`
	IsDeleted    bool            `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt    time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// ComputeTotal は Σ(unit_price × quantity)。
// 作成時に一度だけ確定するスナップショットで、以後は再計算しない。
func ComputeTotal(products []Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.UnitPrice.Mul(decimal.NewFromInt(p.Quantity)))
	}
	return total
}
