package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/repository"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	tx       repo.TransactionManager
	users    repository.UserRepository
	profiles repository.ProfileRepository
	gateway  PaymentGateway

	currency     string
	reserveStock bool

	log *slog.Logger
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	gateway PaymentGateway,
	cfg config.Config,
	log *slog.Logger,
) *OrderUsecase {
	if log == nil {
		log = slog.Default()
	}
	return &OrderUsecase{
		tx:           tx,
		users:        users,
		profiles:     profiles,
		gateway:      gateway,
		currency:     cfg.StripeCurrency,
		reserveStock: cfg.CheckoutReserveStock,
		log:          log,
	}
}

type CreateOrderItemInput struct {
	ProductID int64
	Quantity  int64
}

type CreateOrderInput struct {
	Items   []CreateOrderItemInput
	Billing BillingDetails
	Notes   string
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	Status          string            `json:"status"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	PaymentIntentID string            `json:"payment_intent_id"`
	BillingName     string            `json:"billing_name"`
	BillingEmail    string            `json:"billing_email"`
	BillingPhone    string            `json:"billing_phone"`
	BillingAddress  string            `json:"billing_address"`
	BillingCity     string            `json:"billing_city"`
	BillingCountry  string            `json:"billing_country"`
	Notes           string            `json:"notes"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []OrderItemOutput `json:"items"`
}

type CreateOrderOutput struct {
	OrderOutput
	// ゲートウェイが返す秘密。クライアントはこれで決済を完了する。
	ClientSecret string `json:"client_secret"`
}

// CreateOrder は注文を作成して支払いintentを発行する。
//
// 1. 入力検証（空カートは400）
// 2. 請求先をプロフィール既定値で補完
// 3. 各商品を行ロック付きで取得して在庫を再検証（不足なら全体を中止）
// 4. ロック中の価格で合計を計算（クライアント申告の合計は使わない）
// 5. 合計をintentとしてゲートウェイに作成依頼（失敗なら注文は作らない）
// 6. Order+OrderItemsを同一トランザクションで保存
//
// ゲートウェイ呼び出しはトランザクション内（＝ロック保持中）に行う。
// intent作成後に保存が失敗するとゲートウェイ側に孤児intentが残るため、
// その場合は要照合としてERRORログを残す。
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (CreateOrderOutput, error) {
	if userID <= 0 {
		return CreateOrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(in.Items) == 0 {
		return CreateOrderOutput{}, NewHTTPError(http.StatusBadRequest, "items required")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return CreateOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
		}
		if it.Quantity < 1 {
			return CreateOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
	}
	if c := in.Billing.Country; c != "" && len(c) != 2 {
		return CreateOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid country")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return CreateOrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil || !user.IsActive {
		return CreateOrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//プロフィール未作成でも注文は可能（既定値で補完）
	profile, err := u.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return CreateOrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	billing := resolveBillingDetails(in.Billing, user, profile)

	var out CreateOrderOutput

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		type lockedLine struct {
			product   model.Product
			quantity  int64
			unitPrice decimal.Decimal
			subtotal  decimal.Decimal
		}

		//行ロック→在庫再検証→ロック中の価格でsubtotal確定
		total := decimal.Zero
		lines := make([]lockedLine, 0, len(in.Items))

		for _, it := range in.Items {
			p, err := r.Products().FindByIDForUpdate(ctx, it.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, fmt.Sprintf("Producto %d no existe", it.ProductID))
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			//不足なら全体を中止（部分注文は作らない）
			if p.Stock < it.Quantity {
				return NewHTTPError(http.StatusBadRequest,
					fmt.Sprintf("Stock insuficiente para %s. Disponible: %d", p.Name, p.Stock))
			}

			sub := p.Price.Mul(decimal.NewFromInt(it.Quantity))
			total = total.Add(sub)

			lines = append(lines, lockedLine{
				product:   p,
				quantity:  it.Quantity,
				unitPrice: p.Price,
				subtotal:  sub,
			})
		}

		//金額確定後にintent作成。失敗したらロールバックで注文は残らない。
		intent, err := u.gateway.CreateIntent(ctx, CreateIntentInput{
			AmountMinor: total.Shift(2).IntPart(),
			Currency:    u.currency,
			Metadata: map[string]string{
				"user_id":    strconv.FormatInt(user.ID, 10),
				"user_email": user.Email,
			},
			Description: "Orden para " + billing.Name,
		})
		if err != nil {
			if ge, ok := AsGatewayError(err); ok {
				return NewHTTPError(http.StatusBadRequest, "Error al procesar con Stripe: "+ge.Message)
			}
			return NewHTTPError(http.StatusBadRequest, "Error al procesar con Stripe: "+err.Error())
		}

		now := time.Now()
		intentID := intent.ID
		order := model.Order{
			UserID:          userID,
			Status:          model.OrderStatusPending,
			TotalAmount:     total,
			PaymentIntentID: &intentID,
			BillingName:     billing.Name,
			BillingEmail:    billing.Email,
			BillingPhone:    billing.Phone,
			BillingAddress:  billing.Address,
			BillingCity:     billing.City,
			BillingCountry:  billing.Country,
			Notes:           in.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			//intentは作成済み。孤児intentになるため要照合としてログする。
			u.log.ErrorContext(ctx, "order persist failed after intent creation",
				"payment_intent_id", intent.ID, "user_id", userID, "error", err)
			return NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		items := make([]model.OrderItem, 0, len(lines))
		for _, l := range lines {
			items = append(items, model.OrderItem{
				ProductID: l.product.ID,
				Quantity:  l.quantity,
				UnitPrice: l.unitPrice,
				Subtotal:  l.subtotal,
				CreatedAt: now,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, items); err != nil {
			u.log.ErrorContext(ctx, "order items persist failed after intent creation",
				"payment_intent_id", intent.ID, "order_id", orderID, "error", err)
			return NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		//予約モード：作成時に在庫を押さえる（confirm時の減算はしない）
		if u.reserveStock {
			for _, l := range lines {
				ok, err := r.Inventory().DecreaseStockIfEnough(ctx, l.product.ID, l.quantity)
				if err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				if !ok {
					//ロック中に検証済みなので通常は起きない
					return NewHTTPError(http.StatusBadRequest,
						fmt.Sprintf("Stock insuficiente para %s. Disponible: %d", l.product.Name, l.product.Stock))
				}
			}
		}

		order.ID = orderID
		out = CreateOrderOutput{
			OrderOutput:  toOrderOutput(order, items),
			ClientSecret: intent.ClientSecret,
		}
		return nil
	})

	if err != nil {
		return CreateOrderOutput{}, err
	}
	return out, nil
}

// ConfirmPayment はintentの現在statusをゲートウェイに照会して注文へ反映する。
//
// succeededで注文がpaidになるときだけ、各明細の商品を行ロックして在庫を減算する。
// paid/failed/cancelledの注文への再confirmは何もしない（吸収状態。二重減算しない）。
// ゲートウェイ照会の失敗は注文を一切変更せずに返す。
func (u *OrderUsecase) ConfirmPayment(ctx context.Context, userID int64, paymentIntentID string) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(paymentIntentID) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_intent_id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByPaymentIntentForUpdate(ctx, userID, paymentIntentID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "Orden no encontrada o no pertenece al usuario")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//終端状態は吸収：ゲートウェイ照会も在庫操作もしない
		if o.Status.IsTerminal() {
			out = toOrderOutput(o, items)
			return nil
		}

		intent, err := u.gateway.RetrieveIntent(ctx, paymentIntentID)
		if err != nil {
			if ge, ok := AsGatewayError(err); ok {
				return NewHTTPError(http.StatusBadRequest, "Error al verificar el pago con Stripe: "+ge.Message)
			}
			return NewHTTPError(http.StatusBadRequest, "Error al verificar el pago con Stripe: "+err.Error())
		}

		newStatus := model.OrderStatusFromIntent(intent.Status)

		if u.reserveStock {
			//予約モード：不成立で確定したら押さえた在庫を戻す
			if newStatus == model.OrderStatusFailed || newStatus == model.OrderStatusCancelled {
				for _, it := range items {
					if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
						u.log.ErrorContext(ctx, "stock release failed",
							"payment_intent_id", paymentIntentID, "product_id", it.ProductID, "error", err)
						return NewHTTPError(http.StatusInternalServerError, "internal error")
					}
				}
			}
		} else if newStatus == model.OrderStatusPaid {
			//支払い成功時のみ減算。下限チェックなし（作成時に検証済み）。
			for _, it := range items {
				if _, err := r.Products().FindByIDForUpdate(ctx, it.ProductID); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				if err := r.Inventory().DecreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
					u.log.ErrorContext(ctx, "stock decrement failed after payment succeeded",
						"payment_intent_id", paymentIntentID, "product_id", it.ProductID, "error", err)
					return NewHTTPError(http.StatusInternalServerError, "internal error")
				}
			}
		}

		if err := r.Orders().UpdateStatus(ctx, o.ID, newStatus); err != nil {
			u.log.ErrorContext(ctx, "order status update failed after intent retrieve",
				"payment_intent_id", paymentIntentID, "order_id", o.ID, "error", err)
			return NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		o.Status = newStatus
		o.UpdatedAt = time.Now()
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//ページングはまずは固定で取る
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}

	intentID := ""
	if o.PaymentIntentID != nil {
		intentID = *o.PaymentIntentID
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		PaymentIntentID: intentID,
		BillingName:     o.BillingName,
		BillingEmail:    o.BillingEmail,
		BillingPhone:    o.BillingPhone,
		BillingAddress:  o.BillingAddress,
		BillingCity:     o.BillingCity,
		BillingCountry:  o.BillingCountry,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}
