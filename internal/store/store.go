// Package store is the pgx-backed persistence layer. All balance
// mutations run inside a transaction that locks the account row FOR
// UPDATE first, so concurrent mutations of the same account serialize
// and the check-then-write paths (balance check, earn dedup) cannot
// race.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// lockAccount takes the per-account row lock that serializes every
// balance mutation. Callers must hold an open transaction.
func lockAccount(ctx context.Context, tx pgx.Tx, id int64) (balance int64, status string, err error) {
	err = tx.QueryRow(ctx,
		"SELECT balance, status FROM accounts WHERE id = $1 FOR UPDATE", id,
	).Scan(&balance, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, "", ErrAccountNotFound
	}
	return balance, status, err
}

// violatedConstraint returns the constraint name of a unique violation,
// or "" when err is not one.
func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName
	}
	return ""
}

const accountColumns = `id, COALESCE(email, ''), COALESCE(password_hash, ''), COALESCE(name, ''),
       balance, status, role, referral_code, COALESCE(referrer_code, ''), signup_bonus_granted, created_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&a.Name,
		&a.Balance,
		&a.Status,
		&a.Role,
		&a.ReferralCode,
		&a.ReferrerCode,
		&a.SignupBonusGranted,
		&a.CreatedAt,
	)
	return a, err
}

const withdrawalColumns = `id, account_id, amount, reward_type, method,
       COALESCE(game_account_id, ''), COALESCE(contact_email, ''),
       COALESCE(wallet_number, ''), COALESCE(wallet_name, ''),
       status, COALESCE(admin_note, ''), created_at`

func scanWithdrawal(row pgx.Row) (Withdrawal, error) {
	var w Withdrawal
	err := row.Scan(
		&w.ID,
		&w.AccountID,
		&w.Amount,
		&w.RewardType,
		&w.Method,
		&w.GameAccountID,
		&w.ContactEmail,
		&w.WalletNumber,
		&w.WalletName,
		&w.Status,
		&w.AdminNote,
		&w.CreatedAt,
	)
	return w, err
}

const transactionColumns = `id, account_id, kind, amount, meta, created_at`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.Kind,
		&t.Amount,
		&t.Meta,
		&t.CreatedAt,
	)
	return t, err
}
