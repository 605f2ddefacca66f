package payment

import (
	"context"
	"errors"

	"app/internal/usecase"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// StripeGateway はusecase.PaymentGatewayのStripe実装。
// APIキーはコンストラクタで受け取る（stripe.Keyのグローバルは使わない）。
type StripeGateway struct {
	api *client.API
}

// DI
func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, in usecase.CreateIntentInput) (usecase.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(in.AmountMinor),
		Currency:    stripe.String(in.Currency),
		Description: stripe.String(in.Description),
	}
	params.Context = ctx
	// ネットワーク再送で二重課金しないようにidempotency keyを付ける
	params.SetIdempotencyKey(uuid.NewString())
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return usecase.PaymentIntent{}, asGatewayError(err)
	}

	return usecase.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, paymentIntentID string) (usecase.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(paymentIntentID, params)
	if err != nil {
		return usecase.PaymentIntent{}, asGatewayError(err)
	}

	return usecase.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

// Stripeのエラーはユーザー向けメッセージだけ残してGatewayErrorに包む
func asGatewayError(err error) error {
	var sErr *stripe.Error
	if errors.As(err, &sErr) && sErr.Msg != "" {
		return &usecase.GatewayError{Message: sErr.Msg}
	}
	return &usecase.GatewayError{Message: err.Error()}
}
