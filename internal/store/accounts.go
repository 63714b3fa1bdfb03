package store

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const referralCodeLen = 8

// newReferralCode derives a short share code from a random UUID.
func newReferralCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:referralCodeLen]
}

// CreateAccount registers a new account. The referral code is assigned
// here, once; collisions (rare) are retried with a fresh code.
func (s *Store) CreateAccount(ctx context.Context, in CreateAccountInput) (Account, error) {
	for attempt := 0; attempt < 3; attempt++ {
		a, err := scanAccount(s.pool.QueryRow(ctx, `
            INSERT INTO accounts (email, password_hash, name, referral_code, referrer_code)
            VALUES ($1, $2, $3, $4, NULLIF($5, ''))
            RETURNING `+accountColumns+`
        `, in.Email, in.PasswordHash, in.Name, newReferralCode(), in.ReferrerCode))
		if err == nil {
			return a, nil
		}
		switch violatedConstraint(err) {
		case "accounts_email_key":
			return Account{}, ErrEmailTaken
		case "accounts_referral_code_key":
			continue
		}
		return Account{}, err
	}
	return Account{}, errors.New("could not assign a unique referral code")
}

func (s *Store) GetAccount(ctx context.Context, id int64) (Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return a, err
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE email = $1", email))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return a, err
}

func (s *Store) GetAccountByReferralCode(ctx context.Context, code string) (Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE referral_code = $1", code))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return a, err
}

// ListAccounts pages through accounts, optionally filtered by a
// case-insensitive match on email or name.
func (s *Store) ListAccounts(ctx context.Context, p ListAccountsParams) ([]Account, int64, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 20
	}
	pattern := "%" + p.Query + "%"

	var total int64
	err := s.pool.QueryRow(ctx, `
        SELECT COUNT(*) FROM accounts
        WHERE $1 = '' OR email ILIKE $2 OR name ILIKE $2
    `, p.Query, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
        SELECT `+accountColumns+` FROM accounts
        WHERE $1 = '' OR email ILIKE $2 OR name ILIKE $2
        ORDER BY created_at DESC, id DESC
        LIMIT $3 OFFSET $4
    `, p.Query, pattern, p.Limit, (p.Page-1)*p.Limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (s *Store) SetAccountStatus(ctx context.Context, id int64, status string) (Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, `
        UPDATE accounts SET status = $2 WHERE id = $1
        RETURNING `+accountColumns+`
    `, id, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return a, err
}

// PromoteToAdmin grants the admin role to the account with this email.
func (s *Store) PromoteToAdmin(ctx context.Context, email string) (Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, `
        UPDATE accounts SET role = $2 WHERE email = $1
        RETURNING `+accountColumns+`
    `, email, RoleAdmin))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return a, err
}

// OverrideAccount writes balance and/or status directly, bypassing the
// transaction log. This is the documented escape hatch for operational
// repair: it is the only mutation path that can make the balance drift
// from the transaction sum. Prefer AdjustBalance.
func (s *Store) OverrideAccount(ctx context.Context, id int64, balance *int64, status *string) (Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, `
        UPDATE accounts
        SET balance = COALESCE($2, balance),
            status  = COALESCE($3, status)
        WHERE id = $1
        RETURNING `+accountColumns+`
    `, id, balance, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return a, err
}

// ReferralStats reports how many accounts registered with this account's
// code and the total referral points it earned.
func (s *Store) ReferralStats(ctx context.Context, a Account) (invited int64, points int64, err error) {
	err = s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM accounts WHERE referrer_code = $1", a.ReferralCode,
	).Scan(&invited)
	if err != nil {
		return 0, 0, err
	}

	err = s.pool.QueryRow(ctx, `
        SELECT COALESCE(SUM(amount), 0) FROM transactions
        WHERE account_id = $1 AND kind = 'referral'
    `, a.ID).Scan(&points)
	return invited, points, err
}

// LatestReferred returns the most recent accounts that registered with
// the given referral code.
func (s *Store) LatestReferred(ctx context.Context, code string, limit int) ([]Account, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	rows, err := s.pool.Query(ctx, `
        SELECT `+accountColumns+` FROM accounts
        WHERE referrer_code = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `, code, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// GrantSignupBonus pays the one-time referral signup bonus to the
// inviter. The granted flag on the invitee and the inviter's credit are
// committed together; a second call finds the flag set and does nothing.
func (s *Store) GrantSignupBonus(ctx context.Context, inviteeID, bonus int64) (granted bool, err error) {
	if bonus <= 0 {
		return false, nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var referrerCode string
	var alreadyGranted bool
	err = tx.QueryRow(ctx, `
        SELECT COALESCE(referrer_code, ''), signup_bonus_granted
        FROM accounts WHERE id = $1 FOR UPDATE
    `, inviteeID).Scan(&referrerCode, &alreadyGranted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrAccountNotFound
	}
	if err != nil {
		return false, err
	}
	if referrerCode == "" || alreadyGranted {
		return false, nil
	}

	var referrerID int64
	err = tx.QueryRow(ctx,
		"SELECT id FROM accounts WHERE referral_code = $1 FOR UPDATE", referrerCode,
	).Scan(&referrerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	_, err = tx.Exec(ctx,
		"UPDATE accounts SET signup_bonus_granted = TRUE WHERE id = $1", inviteeID)
	if err != nil {
		return false, err
	}

	_, err = applyLocked(ctx, tx, referrerID, KindReferral, bonus, bonus, Meta{
		"source_account": inviteeID,
		"reason":         "signup-bonus",
	})
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
