package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetSetting возвращает значение настройки по ключу. Второй результат —
// признак наличия ключа.
func (s *Storage) GetSetting(ctx context.Context, key string) (string, bool, error) {
	const op = "storage.GetSetting"
	select {
	case <-ctx.Done():
		return "", false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var value string
	query := `SELECT value FROM settings WHERE key = $1`
	err := s.DB.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return value, true, nil
}

// PutSetting сохраняет настройку, last-write-wins.
func (s *Storage) PutSetting(ctx context.Context, key, value string) error {
	const op = "storage.PutSetting"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO settings (key, value)
			  VALUES ($1, $2)
			  ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	if _, err := s.DB.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
