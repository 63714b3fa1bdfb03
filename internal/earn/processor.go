// Package earn turns external completed-offer notifications into ledger
// credits and cascades the referral commission.
package earn

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"offerwall.api/internal/store"
)

// RejectReason classifies permanent rejections. The postback sender can
// use the code to decide that a retry will not help.
type RejectReason string

const (
	RejectMissingFields  RejectReason = "missing-fields"
	RejectUnknownSubject RejectReason = "user-not-found"
	RejectInvalidPayout  RejectReason = "invalid-payout"
	RejectBanned         RejectReason = "account-banned"
)

// RejectionError marks an event as permanently rejected, as opposed to a
// transient store failure.
type RejectionError struct {
	Reason RejectReason
}

func (e *RejectionError) Error() string {
	return "earn rejected: " + string(e.Reason)
}

// AsRejection extracts the rejection reason, if err is one.
func AsRejection(err error) (RejectReason, bool) {
	var re *RejectionError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}

func reject(reason RejectReason) error {
	return &RejectionError{Reason: reason}
}

// Ledger is the slice of the store the processor needs.
type Ledger interface {
	GetAccount(ctx context.Context, id int64) (store.Account, error)
	GetAccountByReferralCode(ctx context.Context, code string) (store.Account, error)
	CreditEarn(ctx context.Context, in store.EarnCredit) (store.Transaction, bool, error)
	ApplyTransaction(ctx context.Context, accountID int64, kind string, amount int64, meta store.Meta) (store.Transaction, error)
}

// Event is a normalized postback notification. Subject carries the
// referral code or account id of the earner; Payout is the raw monetary
// value as delivered by the network.
type Event struct {
	Network string
	Subject string
	Payout  string
	OfferID string
	Sub4    string
	Sub5    string
	Raw     map[string]string
}

type Result struct {
	Account     store.Account
	Transaction store.Transaction
	Points      int64
	Duplicate   bool
}

type Processor struct {
	ledger       Ledger
	pointsPerUSD decimal.Decimal
	referralRate decimal.Decimal
	dedupWindow  time.Duration
	log          zerolog.Logger
}

func NewProcessor(ledger Ledger, pointsPerUSD, referralRate decimal.Decimal, dedupWindow time.Duration, log zerolog.Logger) *Processor {
	return &Processor{
		ledger:       ledger,
		pointsPerUSD: pointsPerUSD,
		referralRate: referralRate,
		dedupWindow:  dedupWindow,
		log:          log,
	}
}

// Process validates, deduplicates and credits one earn event, then pays
// the referral commission. Rejections are RejectionError values; any
// other error is transient and worth a retry by the sender.
func (p *Processor) Process(ctx context.Context, ev Event) (Result, error) {
	subject := strings.TrimSpace(ev.Subject)
	payout := strings.TrimSpace(ev.Payout)
	if subject == "" || payout == "" {
		return Result{}, reject(RejectMissingFields)
	}

	amount, err := decimal.NewFromString(payout)
	if err != nil || amount.Sign() <= 0 {
		return Result{}, reject(RejectInvalidPayout)
	}

	account, err := p.resolveSubject(ctx, subject)
	if err != nil {
		return Result{}, err
	}
	if account.Status == store.StatusBanned {
		return Result{}, reject(RejectBanned)
	}

	points := amount.Mul(p.pointsPerUSD).Round(0).IntPart()
	if points <= 0 {
		return Result{}, reject(RejectInvalidPayout)
	}

	meta := store.Meta{}
	if len(ev.Raw) > 0 {
		meta["raw"] = ev.Raw
	}
	if ev.Sub4 != "" {
		meta["sub4"] = ev.Sub4
	}
	if ev.Sub5 != "" {
		meta["sub5"] = ev.Sub5
	}

	created, duplicate, err := p.ledger.CreditEarn(ctx, store.EarnCredit{
		AccountID: account.ID,
		Points:    points,
		Network:   ev.Network,
		OfferID:   ev.OfferID,
		Window:    p.dedupWindow,
		Meta:      meta,
	})
	if errors.Is(err, store.ErrAccountBanned) {
		return Result{}, reject(RejectBanned)
	}
	if err != nil {
		return Result{}, err
	}
	if duplicate {
		return Result{Account: account, Points: points, Duplicate: true}, nil
	}

	p.payCommission(ctx, account, points)

	return Result{Account: account, Transaction: created, Points: points}, nil
}

// resolveSubject matches a referral code first, then falls back to a
// direct account id.
func (p *Processor) resolveSubject(ctx context.Context, subject string) (store.Account, error) {
	account, err := p.ledger.GetAccountByReferralCode(ctx, subject)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, store.ErrAccountNotFound) {
		return store.Account{}, err
	}

	id, perr := strconv.ParseInt(subject, 10, 64)
	if perr != nil || id <= 0 {
		return store.Account{}, reject(RejectUnknownSubject)
	}
	account, err = p.ledger.GetAccount(ctx, id)
	if errors.Is(err, store.ErrAccountNotFound) {
		return store.Account{}, reject(RejectUnknownSubject)
	}
	return account, err
}

// payCommission credits floor(points * rate) to the referrer. Commission
// is best-effort: every miss is a silent no-op and a store failure is
// logged without affecting the already-committed earn.
func (p *Processor) payCommission(ctx context.Context, earner store.Account, points int64) {
	if earner.ReferrerCode == "" || p.referralRate.Sign() <= 0 {
		return
	}

	referrer, err := p.ledger.GetAccountByReferralCode(ctx, earner.ReferrerCode)
	if err != nil {
		if !errors.Is(err, store.ErrAccountNotFound) {
			p.log.Warn().Err(err).Str("referrer_code", earner.ReferrerCode).Msg("commission referrer lookup failed")
		}
		return
	}

	bonus := p.referralRate.Mul(decimal.NewFromInt(points)).Floor().IntPart()
	if bonus <= 0 {
		return
	}

	_, err = p.ledger.ApplyTransaction(ctx, referrer.ID, store.KindReferral, bonus, store.Meta{
		"source_account": earner.ID,
		"rate":           p.referralRate.String(),
	})
	if err != nil {
		p.log.Warn().Err(err).
			Int64("referrer_id", referrer.ID).
			Int64("source_id", earner.ID).
			Msg("commission credit failed")
	}
}
