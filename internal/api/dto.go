package api

import (
	"time"

	"offerwall.api/internal/store"
)

type accountResponse struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Points       int64     `json:"points"`
	Status       string    `json:"status"`
	Role         string    `json:"role"`
	ReferralCode string    `json:"my_referral_code"`
	ReferrerCode string    `json:"referrer_code,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toAccountResponse(a store.Account) accountResponse {
	return accountResponse{
		ID:           a.ID,
		Email:        a.Email,
		Name:         a.Name,
		Points:       a.Balance,
		Status:       a.Status,
		Role:         a.Role,
		ReferralCode: a.ReferralCode,
		ReferrerCode: a.ReferrerCode,
		CreatedAt:    a.CreatedAt,
	}
}

type transactionResponse struct {
	ID        int64      `json:"id"`
	AccountID int64      `json:"user_id"`
	Kind      string     `json:"type"`
	Amount    int64      `json:"amount"`
	Meta      store.Meta `json:"meta"`
	CreatedAt time.Time  `json:"created_at"`
}

func toTransactionResponse(t store.Transaction) transactionResponse {
	return transactionResponse{
		ID:        t.ID,
		AccountID: t.AccountID,
		Kind:      t.Kind,
		Amount:    t.Amount,
		Meta:      t.Meta,
		CreatedAt: t.CreatedAt,
	}
}

func toTransactionResponses(items []store.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(items))
	for _, t := range items {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

type withdrawalResponse struct {
	ID            int64     `json:"id"`
	AccountID     int64     `json:"user_id"`
	Amount        int64     `json:"amount"`
	RewardType    string    `json:"reward_type"`
	Method        string    `json:"method"`
	GameAccountID string    `json:"account_id,omitempty"`
	ContactEmail  string    `json:"email,omitempty"`
	WalletNumber  string    `json:"wallet_number,omitempty"`
	WalletName    string    `json:"wallet_name,omitempty"`
	Status        string    `json:"status"`
	AdminNote     string    `json:"admin_note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toWithdrawalResponse(w store.Withdrawal) withdrawalResponse {
	return withdrawalResponse{
		ID:            w.ID,
		AccountID:     w.AccountID,
		Amount:        w.Amount,
		RewardType:    w.RewardType,
		Method:        w.Method,
		GameAccountID: w.GameAccountID,
		ContactEmail:  w.ContactEmail,
		WalletNumber:  w.WalletNumber,
		WalletName:    w.WalletName,
		Status:        w.Status,
		AdminNote:     w.AdminNote,
		CreatedAt:     w.CreatedAt,
	}
}

func toWithdrawalResponses(items []store.Withdrawal) []withdrawalResponse {
	out := make([]withdrawalResponse, 0, len(items))
	for _, w := range items {
		out = append(out, toWithdrawalResponse(w))
	}
	return out
}

type rewardResponse struct {
	ID          int64     `json:"id"`
	Method      string    `json:"method"`
	Label       string    `json:"label"`
	Qty         int64     `json:"qty"`
	PricePoints int64     `json:"price_points"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
}

func toRewardResponse(r store.Reward) rewardResponse {
	return rewardResponse{
		ID:          r.ID,
		Method:      r.Method,
		Label:       r.Label,
		Qty:         r.Qty,
		PricePoints: r.PricePoints,
		Enabled:     r.Enabled,
		CreatedAt:   r.CreatedAt,
	}
}

func toRewardResponses(items []store.Reward) []rewardResponse {
	out := make([]rewardResponse, 0, len(items))
	for _, r := range items {
		out = append(out, toRewardResponse(r))
	}
	return out
}

type settingsResponse struct {
	FreefirePer100Points int64     `json:"freefire_per100_points"`
	PubgPer60Points      int64     `json:"pubg_per60_points"`
	VodafonePointsPerEGP int64     `json:"vodafone_points_per_egp"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toSettingsResponse(s store.Settings) settingsResponse {
	return settingsResponse{
		FreefirePer100Points: s.FreefirePer100Points,
		PubgPer60Points:      s.PubgPer60Points,
		VodafonePointsPerEGP: s.VodafonePointsPerEGP,
		UpdatedAt:            s.UpdatedAt,
	}
}
