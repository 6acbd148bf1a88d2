package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tmorder/tmorder/internal/repository"
)

type settingRepo struct {
	db *sql.DB
}

func (r *settingRepo) Get(ctx context.Context, key string) (*repository.Setting, error) {
	row := r.db.QueryRowContext(ctx, `SELECT key, value, category, created_at, updated_at FROM settings WHERE key = ? LIMIT 1`, key)
	var setting repository.Setting
	if err := row.Scan(&setting.Key, &setting.Value, &setting.Category, &setting.CreatedAt, &setting.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &setting, nil
}

func (r *settingRepo) Upsert(ctx context.Context, setting *repository.Setting) error {
	if setting == nil {
		return errors.New("setting is nil")
	}
	const stmt = `INSERT INTO settings(key, value, category, created_at, updated_at)
	              VALUES(?, ?, ?, ?, ?)
	              ON CONFLICT(key) DO UPDATE SET value = excluded.value, category = excluded.category, updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, stmt, setting.Key, setting.Value, setting.Category, setting.CreatedAt, setting.UpdatedAt)
	return err
}
