package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// ApplyTransaction atomically mutates an account balance and appends the
// matching transaction record. Credits (earn, referral) add amount,
// redeems subtract it after a balance check. Either both effects land or
// neither does.
func (s *Store) ApplyTransaction(ctx context.Context, accountID int64, kind string, amount int64, meta Meta) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidDelta
	}
	delta, err := signedDelta(kind, amount)
	if err != nil {
		return Transaction{}, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	balance, _, err := lockAccount(ctx, tx, accountID)
	if err != nil {
		return Transaction{}, err
	}
	if kind == KindRedeem && balance < amount {
		return Transaction{}, ErrInsufficientBalance
	}

	created, err := applyLocked(ctx, tx, accountID, kind, amount, delta, meta)
	if err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, err
	}
	return created, nil
}

// applyLocked performs the balance update and transaction insert. The
// caller must already hold the account row lock.
func applyLocked(ctx context.Context, tx pgx.Tx, accountID int64, kind string, amount, delta int64, meta Meta) (Transaction, error) {
	if meta == nil {
		meta = Meta{}
	}

	_, err := tx.Exec(ctx, "UPDATE accounts SET balance = balance + $1 WHERE id = $2", delta, accountID)
	if err != nil {
		return Transaction{}, err
	}

	return scanTransaction(tx.QueryRow(ctx, `
        INSERT INTO transactions (account_id, kind, amount, meta)
        VALUES ($1, $2, $3, $4)
        RETURNING `+transactionColumns+`
    `, accountID, kind, amount, meta))
}

func signedDelta(kind string, amount int64) (int64, error) {
	switch kind {
	case KindEarn, KindReferral:
		return amount, nil
	case KindRedeem:
		return -amount, nil
	}
	return 0, ErrInvalidKind
}

// CreditEarn credits a deduplicated external earn event. The account row
// lock is taken before the duplicate lookup, so two concurrent deliveries
// of the same event serialize and the second one observes the first's
// insert. A duplicate within the window is reported as (Transaction{},
// true, nil): an idempotent no-op, not an error.
func (s *Store) CreditEarn(ctx context.Context, in EarnCredit) (Transaction, bool, error) {
	if in.Points <= 0 {
		return Transaction{}, false, ErrInvalidDelta
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, false, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, status, err := lockAccount(ctx, tx, in.AccountID)
	if err != nil {
		return Transaction{}, false, err
	}
	if status == StatusBanned {
		return Transaction{}, false, ErrAccountBanned
	}

	since := time.Now().Add(-in.Window)
	var existing int64
	err = tx.QueryRow(ctx, `
        SELECT id FROM transactions
        WHERE account_id = $1
          AND kind = 'earn'
          AND amount = $2
          AND meta ->> 'network' = $3
          AND ($4::text = '' OR meta ->> 'offer_id' = $4)
          AND created_at >= $5
        LIMIT 1
    `, in.AccountID, in.Points, in.Network, in.OfferID, since).Scan(&existing)
	if err == nil {
		return Transaction{}, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, false, err
	}

	meta := in.Meta
	if meta == nil {
		meta = Meta{}
	}
	meta["network"] = in.Network
	if in.OfferID != "" {
		meta["offer_id"] = in.OfferID
	}

	created, err := applyLocked(ctx, tx, in.AccountID, KindEarn, in.Points, in.Points, meta)
	if err != nil {
		return Transaction{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, false, err
	}
	return created, false, nil
}

// AdjustBalance applies a signed administrative delta through the ledger.
// The kind follows the sign; a debit below zero is rejected (balances are
// non-negative by schema).
func (s *Store) AdjustBalance(ctx context.Context, accountID, delta int64, reason string, actorID int64) (Transaction, error) {
	if delta == 0 {
		return Transaction{}, ErrInvalidDelta
	}

	kind := KindEarn
	amount := delta
	if delta < 0 {
		kind = KindRedeem
		amount = -delta
	}

	return s.ApplyTransaction(ctx, accountID, kind, amount, Meta{
		"admin_action": true,
		"reason":       reason,
		"actor_id":     actorID,
	})
}

// ZeroBalance sets the balance to exactly 0, recording one redeem
// transaction of the prior balance. An already-zero balance is a no-op
// and produces no transaction (returned Transaction is nil).
func (s *Store) ZeroBalance(ctx context.Context, accountID, actorID int64) (*Transaction, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	balance, _, err := lockAccount(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	if balance == 0 {
		return nil, tx.Commit(ctx)
	}

	created, err := applyLocked(ctx, tx, accountID, KindRedeem, balance, -balance, Meta{
		"admin_action": true,
		"reason":       "zero-points",
		"actor_id":     actorID,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListTransactions returns the latest transactions across all accounts.
func (s *Store) ListTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	rows, err := s.pool.Query(ctx, `
        SELECT `+transactionColumns+` FROM transactions
        ORDER BY created_at DESC, id DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListAccountTransactions returns the latest transactions of one account.
func (s *Store) ListAccountTransactions(ctx context.Context, accountID int64, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
        SELECT `+transactionColumns+` FROM transactions
        WHERE account_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]Transaction, error) {
	items := []Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
