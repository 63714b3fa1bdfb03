package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// CreateWithdrawal debits the account and records the pending fulfillment
// request as one unit: account lock, balance check, withdrawal insert,
// debit and redeem transaction all commit together or not at all.
func (s *Store) CreateWithdrawal(ctx context.Context, in CreateWithdrawalInput) (Withdrawal, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Withdrawal{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	balance, status, err := lockAccount(ctx, tx, in.AccountID)
	if err != nil {
		return Withdrawal{}, err
	}
	if status == StatusBanned {
		return Withdrawal{}, ErrAccountBanned
	}
	if balance < in.Amount {
		return Withdrawal{}, ErrInsufficientBalance
	}

	created, err := scanWithdrawal(tx.QueryRow(ctx, `
        INSERT INTO withdrawals
            (account_id, amount, reward_type, method,
             game_account_id, contact_email, wallet_number, wallet_name, status)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9)
        RETURNING `+withdrawalColumns+`
    `,
		in.AccountID,
		in.Amount,
		in.RewardType,
		in.Method,
		in.GameAccountID,
		in.ContactEmail,
		in.WalletNumber,
		in.WalletName,
		WithdrawalPending,
	))
	if err != nil {
		return Withdrawal{}, err
	}

	_, err = applyLocked(ctx, tx, in.AccountID, KindRedeem, in.Amount, -in.Amount, Meta{
		"withdrawal_id": created.ID,
		"method":        in.Method,
	})
	if err != nil {
		return Withdrawal{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Withdrawal{}, err
	}
	return created, nil
}

func (s *Store) GetWithdrawal(ctx context.Context, id int64) (Withdrawal, error) {
	w, err := scanWithdrawal(s.pool.QueryRow(ctx,
		"SELECT "+withdrawalColumns+" FROM withdrawals WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Withdrawal{}, ErrNotFound
	}
	return w, err
}

// ListAccountWithdrawals returns one account's latest requests.
func (s *Store) ListAccountWithdrawals(ctx context.Context, accountID int64, limit int) ([]Withdrawal, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
        SELECT `+withdrawalColumns+` FROM withdrawals
        WHERE account_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

// ListWithdrawals returns the moderation queue, optionally filtered by
// status ("" or "all" returns everything).
func (s *Store) ListWithdrawals(ctx context.Context, status string, limit int) ([]Withdrawal, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	if status == "all" {
		status = ""
	}
	rows, err := s.pool.Query(ctx, `
        SELECT `+withdrawalColumns+` FROM withdrawals
        WHERE $1 = '' OR status = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

// ModerateWithdrawal transitions a pending request to approved or
// rejected. This is a fulfillment-status change only: the balance was
// debited at request time and is never touched here. Re-applying the
// same decision is idempotent; any other transition is rejected.
func (s *Store) ModerateWithdrawal(ctx context.Context, id int64, status, note string) (Withdrawal, error) {
	if status != WithdrawalApproved && status != WithdrawalRejected {
		return Withdrawal{}, ErrInvalidStatus
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Withdrawal{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	w, err := scanWithdrawal(tx.QueryRow(ctx,
		"SELECT "+withdrawalColumns+" FROM withdrawals WHERE id = $1 FOR UPDATE", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Withdrawal{}, ErrNotFound
	}
	if err != nil {
		return Withdrawal{}, err
	}

	if w.Status == status {
		if err := tx.Commit(ctx); err != nil {
			return Withdrawal{}, err
		}
		return w, nil
	}
	if w.Status != WithdrawalPending {
		return Withdrawal{}, ErrInvalidStatus
	}

	w, err = scanWithdrawal(tx.QueryRow(ctx, `
        UPDATE withdrawals SET status = $2, admin_note = NULLIF($3, '')
        WHERE id = $1
        RETURNING `+withdrawalColumns+`
    `, id, status, note))
	if err != nil {
		return Withdrawal{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Withdrawal{}, err
	}
	return w, nil
}

func collectWithdrawals(rows pgx.Rows) ([]Withdrawal, error) {
	items := []Withdrawal{}
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}
