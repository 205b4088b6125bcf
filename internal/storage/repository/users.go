package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/teamgate/internal/models"
)

// CreateUser сохраняет нового пользователя и возвращает его ID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (int64, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int64
	query := `INSERT INTO users (telegram_id, email, status, joined_at)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		user.TelegramID, user.Email, user.Status, user.JoinedAt).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByTelegramID возвращает пользователя по его контакту в Telegram.
func (s *Storage) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	const op = "storage.GetUserByTelegramID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, telegram_id, email, status, joined_at
			  FROM users
			  WHERE telegram_id = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, telegramID)
	if err := row.Scan(&u.ID, &u.TelegramID, &u.Email, &u.Status, &u.JoinedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// FindStalePendingInvites возвращает пользователей со статусом pending_invite,
// приглашённых раньше now - grace. Граница исключающая: пользователь,
// присоединившийся ровно grace назад, ещё не считается просроченным.
func (s *Storage) FindStalePendingInvites(ctx context.Context, now time.Time, grace time.Duration) ([]*models.User, error) {
	const op = "storage.FindStalePendingInvites"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	threshold := now.Add(-grace)
	query := `SELECT id, telegram_id, email, status, joined_at
			  FROM users
		      WHERE status = 'pending_invite'
			    AND joined_at < $1
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		var u models.User
		if err = rows.Scan(&u.ID, &u.TelegramID, &u.Email, &u.Status, &u.JoinedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkRevoked переводит пользователя из pending_invite в revoked.
func (s *Storage) MarkRevoked(ctx context.Context, userID int64) error {
	const op = "storage.MarkRevoked"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
		      SET status = 'revoked'
			  WHERE id = $1 AND status = 'pending_invite'`
	_, err := s.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
