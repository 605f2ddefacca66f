package model

import "time"

// ユーザー登録時に必ず1件作られる（usecase側で明示的に作成する）
type UserProfile struct {
	ID             int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64  `gorm:"not null;uniqueIndex" json:"user_id"`
	Phone          string `gorm:"type:varchar(20)" json:"phone"`
	DefaultAddress string `gorm:"type:varchar(255)" json:"default_address"`
	DefaultCity    string `gorm:"type:varchar(100)" json:"default_city"`
	DefaultCountry string `gorm:"type:varchar(2);not null;default:'US'" json:"default_country"`
	PostalCode     string `gorm:"type:varchar(10)" json:"postal_code"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
