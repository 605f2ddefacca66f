package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64 `gorm:"not null;index;constraint:OnDelete:CASCADE" json:"order_id"`
	// 注文済み商品は物理削除できない（PROTECT相当はproductsのsoft deleteで担保）
	ProductID int64 `gorm:"not null;index" json:"product_id"`
	Quantity  int64 `gorm:"not null" json:"quantity"`
	// 購入時点の価格スナップショット。商品の値上げ後も過去注文は変わらない。
	UnitPrice decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
