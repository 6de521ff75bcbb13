package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文に属する明細行。作成後は変更しない。
type Product struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	IsDeleted bool            `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
