package usecase

import (
	"context"
	"net/http"
	"time"

	"app/internal/domain/model"
	"app/internal/repository"
)

type ProfileUsecase struct {
	profiles repository.ProfileRepository
}

// DI
func NewProfileUsecase(profiles repository.ProfileRepository) *ProfileUsecase {
	return &ProfileUsecase{profiles: profiles}
}

type ProfileOutput struct {
	Phone          string     `json:"phone"`
	DefaultAddress string     `json:"default_address"`
	DefaultCity    string     `json:"default_city"`
	DefaultCountry string     `json:"default_country"`
	PostalCode     string     `json:"postal_code"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
}

// 空文字は「変更しない」扱い（部分更新）
type UpdateProfileInput struct {
	Phone          string
	DefaultAddress string
	DefaultCity    string
	DefaultCountry string
	PostalCode     string
	BirthDate      *time.Time
}

// GetMyProfile はプロフィールを返す。
// 旧ユーザーでまだ無い場合はここで作る（登録時作成の後追い補填）。
func (u *ProfileUsecase) GetMyProfile(ctx context.Context, userID int64) (ProfileOutput, error) {
	if userID <= 0 {
		return ProfileOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	p, err := u.getOrCreate(ctx, userID)
	if err != nil {
		return ProfileOutput{}, err
	}

	return toProfileOutput(p), nil
}

func (u *ProfileUsecase) UpdateMyProfile(ctx context.Context, userID int64, in UpdateProfileInput) (ProfileOutput, error) {
	if userID <= 0 {
		return ProfileOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.DefaultCountry != "" && len(in.DefaultCountry) != 2 {
		return ProfileOutput{}, NewHTTPError(http.StatusBadRequest, "invalid country")
	}

	p, err := u.getOrCreate(ctx, userID)
	if err != nil {
		return ProfileOutput{}, err
	}

	if in.Phone != "" {
		p.Phone = in.Phone
	}
	if in.DefaultAddress != "" {
		p.DefaultAddress = in.DefaultAddress
	}
	if in.DefaultCity != "" {
		p.DefaultCity = in.DefaultCity
	}
	if in.DefaultCountry != "" {
		p.DefaultCountry = in.DefaultCountry
	}
	if in.PostalCode != "" {
		p.PostalCode = in.PostalCode
	}
	if in.BirthDate != nil {
		p.BirthDate = in.BirthDate
	}

	if err := u.profiles.Update(ctx, p); err != nil {
		return ProfileOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toProfileOutput(p), nil
}

func (u *ProfileUsecase) getOrCreate(ctx context.Context, userID int64) (*model.UserProfile, error) {
	p, err := u.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if p == nil {
		p = &model.UserProfile{
			UserID:         userID,
			DefaultCountry: "US",
		}
		if err := u.profiles.Create(ctx, p); err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}
	return p, nil
}

func toProfileOutput(p *model.UserProfile) ProfileOutput {
	return ProfileOutput{
		Phone:          p.Phone,
		DefaultAddress: p.DefaultAddress,
		DefaultCity:    p.DefaultCity,
		DefaultCountry: p.DefaultCountry,
		PostalCode:     p.PostalCode,
		BirthDate:      p.BirthDate,
	}
}
