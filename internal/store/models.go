package store

import "time"

// Account status.
const (
	StatusActive = "active"
	StatusBanned = "banned"
)

// Account role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Transaction kind. Amounts are always recorded positive; kind encodes
// the direction (earn/referral credit, redeem debit).
const (
	KindEarn     = "earn"
	KindRedeem   = "redeem"
	KindReferral = "referral"
)

// Withdrawal method.
const (
	MethodFreeFire     = "freefire"
	MethodPUBG         = "pubg"
	MethodVodafoneCash = "vodafone_cash"
)

// Withdrawal status.
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
)

// Meta is the free-form transaction metadata persisted as jsonb.
type Meta map[string]any

type Account struct {
	ID                 int64
	Email              string
	PasswordHash       string
	Name               string
	Balance            int64
	Status             string
	Role               string
	ReferralCode       string
	ReferrerCode       string
	SignupBonusGranted bool
	CreatedAt          time.Time
}

type Transaction struct {
	ID        int64
	AccountID int64
	Kind      string
	Amount    int64
	Meta      Meta
	CreatedAt time.Time
}

type Withdrawal struct {
	ID            int64
	AccountID     int64
	Amount        int64
	RewardType    string
	Method        string
	GameAccountID string
	ContactEmail  string
	WalletNumber  string
	WalletName    string
	Status        string
	AdminNote     string
	CreatedAt     time.Time
}

type Reward struct {
	ID          int64
	Method      string
	Label       string
	Qty         int64
	PricePoints int64
	Enabled     bool
	CreatedAt   time.Time
}

type Settings struct {
	FreefirePer100Points int64
	PubgPer60Points      int64
	VodafonePointsPerEGP int64
	UpdatedAt            time.Time
}

type CreateAccountInput struct {
	Email        string
	PasswordHash string
	Name         string
	ReferrerCode string
}

type CreateWithdrawalInput struct {
	AccountID     int64
	Amount        int64
	RewardType    string
	Method        string
	GameAccountID string
	ContactEmail  string
	WalletNumber  string
	WalletName    string
}

// EarnCredit is a deduplicated external earn event. Window bounds the
// trailing duplicate lookup; Network and OfferID are recorded in the
// transaction meta and form the dedup key together with the amount.
type EarnCredit struct {
	AccountID int64
	Points    int64
	Network   string
	OfferID   string
	Window    time.Duration
	Meta      Meta
}

type CreateRewardInput struct {
	Method      string
	Label       string
	Qty         int64
	PricePoints int64
	Enabled     bool
}

type UpdateRewardInput struct {
	Method      *string
	Label       *string
	Qty         *int64
	PricePoints *int64
	Enabled     *bool
}

type UpdateSettingsInput struct {
	FreefirePer100Points *int64
	PubgPer60Points      *int64
	VodafonePointsPerEGP *int64
}

type ListAccountsParams struct {
	Page  int
	Limit int
	Query string
}
