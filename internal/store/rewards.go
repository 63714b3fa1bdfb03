package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const rewardColumns = `id, method, label, qty, price_points, enabled, created_at`

func scanReward(row pgx.Row) (Reward, error) {
	var r Reward
	err := row.Scan(&r.ID, &r.Method, &r.Label, &r.Qty, &r.PricePoints, &r.Enabled, &r.CreatedAt)
	return r, err
}

// ListRewards returns the catalog, newest first. With enabledOnly the
// listing is filtered to what users may redeem.
func (s *Store) ListRewards(ctx context.Context, enabledOnly bool) ([]Reward, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT `+rewardColumns+` FROM rewards
        WHERE NOT $1 OR enabled
        ORDER BY created_at DESC, id DESC
    `, enabledOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Reward{}
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func (s *Store) CreateReward(ctx context.Context, in CreateRewardInput) (Reward, error) {
	return scanReward(s.pool.QueryRow(ctx, `
        INSERT INTO rewards (method, label, qty, price_points, enabled)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING `+rewardColumns+`
    `, in.Method, in.Label, in.Qty, in.PricePoints, in.Enabled))
}

func (s *Store) UpdateReward(ctx context.Context, id int64, in UpdateRewardInput) (Reward, error) {
	r, err := scanReward(s.pool.QueryRow(ctx, `
        UPDATE rewards
        SET method       = COALESCE($2, method),
            label        = COALESCE($3, label),
            qty          = COALESCE($4, qty),
            price_points = COALESCE($5, price_points),
            enabled      = COALESCE($6, enabled)
        WHERE id = $1
        RETURNING `+rewardColumns+`
    `, id, in.Method, in.Label, in.Qty, in.PricePoints, in.Enabled))
	if errors.Is(err, pgx.ErrNoRows) {
		return Reward{}, ErrNotFound
	}
	return r, err
}

func (s *Store) DeleteReward(ctx context.Context, id int64) error {
	ct, err := s.pool.Exec(ctx, "DELETE FROM rewards WHERE id = $1", id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
