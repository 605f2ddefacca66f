package repository

import "context"

type InventoryRepository interface {
	// 在庫の現在値を設定
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// 在庫が足りるときだけ減算（予約モードの作成時に使う）
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 支払い成功の確定時の減算。下限チェックなし（作成時に検証済み）。
	DecreaseStock(ctx context.Context, productID int64, qty int64) error

	// 在庫戻し（予約モードで支払い失敗/キャンセルのとき）
	IncreaseStock(ctx context.Context, productID int64, qty int64) error
}
