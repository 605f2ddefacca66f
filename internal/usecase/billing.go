package usecase

import "app/internal/domain/model"

// 請求先。リクエストで空のフィールドはプロフィール→既定値の順で補完する。
type BillingDetails struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// フィールドごとに 明示値 → プロフィール既定値 → ハードコード既定値 の順で解決する。
// name: 明示値 → 氏名 → username。email: 明示値 → アカウントのemail。
// countryの最終既定値は "US"、それ以外は空文字。
func resolveBillingDetails(in BillingDetails, user *model.User, profile *model.UserProfile) BillingDetails {
	out := in

	if out.Name == "" {
		if full := user.FullName(); full != "" {
			out.Name = full
		} else {
			out.Name = user.Username
		}
	}
	if out.Email == "" {
		out.Email = user.Email
	}

	if profile != nil {
		if out.Phone == "" && profile.Phone != "" {
			out.Phone = profile.Phone
		}
		if out.Address == "" && profile.DefaultAddress != "" {
			out.Address = profile.DefaultAddress
		}
		if out.City == "" && profile.DefaultCity != "" {
			out.City = profile.DefaultCity
		}
		if out.Country == "" && profile.DefaultCountry != "" {
			out.Country = profile.DefaultCountry
		}
	}

	if out.Country == "" {
		out.Country = "US"
	}

	return out
}
