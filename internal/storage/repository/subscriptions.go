package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/teamgate/internal/models"
)

// FindExpiredActiveSubscriptions возвращает активные подписки с end_date < now
// вместе с владельцами. Порядок стабилен внутри прохода (ORDER BY s.id).
func (s *Storage) FindExpiredActiveSubscriptions(ctx context.Context, now time.Time) ([]*models.ExpiredEntry, error) {
	const op = "storage.FindExpiredActiveSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
		          s.id, s.user_id, s.product_id, s.start_date, s.end_date, s.status,
		          u.id, u.telegram_id, u.email, u.status, u.joined_at
			  FROM subscriptions s
		      JOIN users u ON u.id = s.user_id
		      WHERE s.status = 'active'
			    AND s.end_date < $1
			  ORDER BY s.id`
	rows, err := s.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ExpiredEntry
	for rows.Next() {
		var e models.ExpiredEntry
		if err = rows.Scan(
			&e.Subscription.ID, &e.Subscription.UserID, &e.Subscription.ProductID,
			&e.Subscription.StartDate, &e.Subscription.EndDate, &e.Subscription.Status,
			&e.User.ID, &e.User.TelegramID, &e.User.Email, &e.User.Status, &e.User.JoinedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkKicked переводит подписку и её владельца в статус kicked одной
// транзакцией: обе записи фиксируются вместе либо не фиксируются вовсе.
func (s *Storage) MarkKicked(ctx context.Context, subscriptionID, userID int64) error {
	const op = "storage.MarkKicked"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err = tx.ExecContext(ctx,
		`UPDATE subscriptions SET status = 'kicked' WHERE id = $1 AND status = 'active'`,
		subscriptionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET status = 'kicked' WHERE id = $1`,
		userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateSubscription вставляет подписку через upsert по частичному уникальному
// ключу (user_id, product_id, active): повторная покупка продлевает активную
// запись вместо создания дубликата.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (int64, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_id, product_id, start_date, end_date, status)
			  VALUES ($1, $2, $3, $4, 'active')
			  ON CONFLICT (user_id, product_id) WHERE status = 'active'
			  DO UPDATE SET end_date = GREATEST(subscriptions.end_date, EXCLUDED.end_date)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query,
		sub.UserID, sub.ProductID, sub.StartDate, sub.EndDate).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}
