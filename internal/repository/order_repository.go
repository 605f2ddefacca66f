package repository

import (
	"context"

	"app/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	// payment_intent_idで該当ユーザーの注文を行ロック付きで取得。
	// 他人の注文・未知のintentはErrNotFound。
	FindByPaymentIntentForUpdate(ctx context.Context, userID int64, paymentIntentID string) (model.Order, error)
}
