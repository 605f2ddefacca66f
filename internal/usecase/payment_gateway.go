package usecase

import (
	"context"
	"errors"
)

// 決済ゲートウェイが返すintent。statusはmodel.OrderStatusFromIntentで注文statusへ写す。
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

type CreateIntentInput struct {
	// 最小通貨単位（USDならセント）
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
	Description string
}

// 外部決済プロバイダの約束。
// 実装はinternal/infra/payment（Stripe）。キーは構築時に注入する。
type PaymentGateway interface {
	CreateIntent(ctx context.Context, in CreateIntentInput) (PaymentIntent, error)
	RetrieveIntent(ctx context.Context, paymentIntentID string) (PaymentIntent, error)
}

// プロバイダ側の拒否・到達不能。呼び出し側がリトライする前提で400系として返す。
type GatewayError struct {
	Message string
}

func (e *GatewayError) Error() string {
	return "payment gateway: " + e.Message
}

func AsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	ok := errors.As(err, &ge)
	return ge, ok
}
