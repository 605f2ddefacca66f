package repository

import (
	"app/internal/domain/model"
	"context"
)

// プロフィールの保存・取得を約束。
// 無い場合は (nil, nil) を返す（プロフィール未作成は正常系）。
type ProfileRepository interface {
	Create(ctx context.Context, p *model.UserProfile) error
	FindByUserID(ctx context.Context, userID int64) (*model.UserProfile, error)
	Update(ctx context.Context, p *model.UserProfile) error
}
