package store

import "context"

const settingsColumns = `freefire_per100_points, pubg_per60_points, vodafone_points_per_egp, updated_at`

// ensureSettings creates the singleton row if it does not exist yet.
// ON CONFLICT DO NOTHING makes concurrent first reads safe.
func (s *Store) ensureSettings(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING")
	return err
}

// GetSettings reads the pricing settings, creating defaults on first use.
func (s *Store) GetSettings(ctx context.Context) (Settings, error) {
	if err := s.ensureSettings(ctx); err != nil {
		return Settings{}, err
	}

	var out Settings
	err := s.pool.QueryRow(ctx,
		"SELECT "+settingsColumns+" FROM settings WHERE id = 1",
	).Scan(
		&out.FreefirePer100Points,
		&out.PubgPer60Points,
		&out.VodafonePointsPerEGP,
		&out.UpdatedAt,
	)
	return out, err
}

// UpdateSettings patches the named numeric fields only.
func (s *Store) UpdateSettings(ctx context.Context, in UpdateSettingsInput) (Settings, error) {
	if err := s.ensureSettings(ctx); err != nil {
		return Settings{}, err
	}

	var out Settings
	err := s.pool.QueryRow(ctx, `
        UPDATE settings
        SET freefire_per100_points  = COALESCE($1, freefire_per100_points),
            pubg_per60_points       = COALESCE($2, pubg_per60_points),
            vodafone_points_per_egp = COALESCE($3, vodafone_points_per_egp),
            updated_at              = now()
        WHERE id = 1
        RETURNING `+settingsColumns+`
    `,
		in.FreefirePer100Points,
		in.PubgPer60Points,
		in.VodafonePointsPerEGP,
	).Scan(
		&out.FreefirePer100Points,
		&out.PubgPer60Points,
		&out.VodafonePointsPerEGP,
		&out.UpdatedAt,
	)
	return out, err
}
