package repository

import (
	"context"
	"fmt"

	"github.com/karimfarra/invoice-billing-service/internal/database"
	"github.com/karimfarra/invoice-billing-service/internal/domain"
)

// PostgresSettingsRepository implements SettingsRepository using PostgreSQL.
type PostgresSettingsRepository struct {
	db database.Pool
}

// NewPostgresSettingsRepository creates a new PostgreSQL settings repository.
func NewPostgresSettingsRepository(db database.Pool) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{db: db}
}

// GetAll returns every stored settings key/value pair.
func (r *PostgresSettingsRepository) GetAll(ctx context.Context) (domain.Settings, error) {
	rows, err := r.db.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := domain.Settings{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}
	return settings, nil
}

// Update upserts the given settings keys in one transaction. Keys absent
// from the map are left untouched.
func (r *PostgresSettingsRepository) Update(ctx context.Context, settings domain.Settings) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback if not committed

	// Deterministic order keeps the statement sequence stable for tests.
	for _, key := range domain.KnownSettingKeys {
		value, ok := settings[key]
		if !ok {
			continue
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO settings (key, value)
			VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
		`, key, value)
		if err != nil {
			return fmt.Errorf("failed to upsert setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
