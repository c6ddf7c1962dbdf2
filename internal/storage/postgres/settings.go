package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyshop/storefront/internal/domain/settings"
)

const (
	getSettingsSQL = `SELECT store_name, tagline, contact_email, phone, address,
		theme_color, logo_url, payment_instructions
		FROM settings WHERE id = 1`

	saveSettingsSQL = `UPDATE settings
		SET store_name = $1, tagline = $2, contact_email = $3, phone = $4,
		    address = $5, theme_color = $6, logo_url = $7, payment_instructions = $8
		WHERE id = 1`
)

var _ settings.Repository = (*SettingsRepository)(nil)

// SettingsRepository persists the single store settings row. The row is
// seeded by the schema migration, so Get always finds it.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository returns a SettingsRepository that uses the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get returns the store settings.
func (r *SettingsRepository) Get(ctx context.Context) (*settings.Settings, error) {
	var s settings.Settings
	err := querier(ctx, r.pool).QueryRow(ctx, getSettingsSQL).Scan(
		&s.StoreName, &s.Tagline, &s.ContactEmail, &s.Phone, &s.Address,
		&s.ThemeColor, &s.LogoURL, &s.PaymentInstructions,
	)
	if err != nil {
		return nil, fmt.Errorf("getting settings: %w", err)
	}
	return &s, nil
}

// Save overwrites the store settings.
func (r *SettingsRepository) Save(ctx context.Context, s *settings.Settings) error {
	_, err := querier(ctx, r.pool).Exec(ctx, saveSettingsSQL,
		s.StoreName, s.Tagline, s.ContactEmail, s.Phone, s.Address,
		s.ThemeColor, s.LogoURL, s.PaymentInstructions,
	)
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}
