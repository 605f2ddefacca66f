package repository

import (
	"app/internal/domain/model"
	domainrepo "app/internal/repository"
	"context"
	"errors"

	"gorm.io/gorm"
)

type profileGormRepository struct {
	db *gorm.DB
}

// DI
func NewProfileGormRepository(db *gorm.DB) domainrepo.ProfileRepository {
	return &profileGormRepository{db: db}
}

func (r *profileGormRepository) Create(ctx context.Context, p *model.UserProfile) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return err
	}
	return nil
}

// 未作成は (nil, nil)
func (r *profileGormRepository) FindByUserID(ctx context.Context, userID int64) (*model.UserProfile, error) {
	var p model.UserProfile

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&p).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &p, nil
}

func (r *profileGormRepository) Update(ctx context.Context, p *model.UserProfile) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return err
	}
	return nil
}
