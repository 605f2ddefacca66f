package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// 決済ゲートウェイが返すintentのstatus
const (
	IntentStatusSucceeded             = "succeeded"
	IntentStatusProcessing            = "processing"
	IntentStatusRequiresPaymentMethod = "requires_payment_method"
	IntentStatusCanceled              = "canceled"
)

// intentのstatusを注文statusへ写す。未知のstatusはfailed（全域写像）。
func OrderStatusFromIntent(intentStatus string) OrderStatus {
	switch intentStatus {
	case IntentStatusSucceeded:
		return OrderStatusPaid
	case IntentStatusProcessing:
		return OrderStatusProcessing
	case IntentStatusRequiresPaymentMethod:
		return OrderStatusFailed
	case IntentStatusCanceled:
		return OrderStatusCancelled
	default:
		return OrderStatusFailed
	}
}

// paid/failed/cancelledは終端。再confirmしても遷移しない。
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusPaid, OrderStatusFailed, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

type Order struct {
	ID     int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64       `gorm:"not null;index" json:"user_id"`
	Status OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	// 明細subtotalの合計。作成時に確定してその後は不変。
	TotalAmount     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	PaymentIntentID *string         `gorm:"type:varchar(255);uniqueIndex" json:"payment_intent_id"`

	// 請求先スナップショット
	BillingName    string `gorm:"type:varchar(255);not null" json:"billing_name"`
	BillingEmail   string `gorm:"type:varchar(254);not null" json:"billing_email"`
	BillingPhone   string `gorm:"type:varchar(20)" json:"billing_phone"`
	BillingAddress string `gorm:"type:varchar(255)" json:"billing_address"`
	BillingCity    string `gorm:"type:varchar(100)" json:"billing_city"`
	BillingCountry string `gorm:"type:varchar(2);not null;default:'US'" json:"billing_country"`

	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
