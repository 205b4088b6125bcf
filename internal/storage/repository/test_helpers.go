package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/teamgate/internal/migrations"
	"github.com/magabrotheeeer/teamgate/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя и возвращает его ID
func (f *TestDataFactory) CreateUser(t *testing.T, telegramID int64, email, status string, joinedAt time.Time) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO users (telegram_id, email, status, joined_at)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		telegramID, email, status, joinedAt).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateProduct создает тестовый продукт и возвращает его ID
func (f *TestDataFactory) CreateProduct(t *testing.T, name string, durationDays, pricePoints int) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO products (name, duration_days, price_points)
		VALUES ($1, $2, $3) RETURNING id`,
		name, durationDays, pricePoints).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateSubscription создает тестовую подписку и возвращает её ID
func (f *TestDataFactory) CreateSubscription(t *testing.T, userID, productID int64,
	startDate, endDate time.Time, status string) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO subscriptions (user_id, product_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		userID, productID, startDate, endDate, status).Scan(&id)
	require.NoError(t, err)
	return id
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// VerifyUserStatus проверяет статус пользователя в БД
func (v *TestVerification) VerifyUserStatus(t *testing.T, userID int64, expected string) {
	var status string
	err := v.storage.DB.QueryRow("SELECT status FROM users WHERE id = $1", userID).Scan(&status)
	require.NoError(t, err)
	require.Equal(t, expected, status)
}

// VerifySubscriptionStatus проверяет статус подписки в БД
func (v *TestVerification) VerifySubscriptionStatus(t *testing.T, subscriptionID int64, expected string) {
	var status string
	err := v.storage.DB.QueryRow("SELECT status FROM subscriptions WHERE id = $1", subscriptionID).Scan(&status)
	require.NoError(t, err)
	require.Equal(t, expected, status)
}

// VerifyStatusesAgree проверяет инвариант: подписка и владелец не могут
// расходиться в терминальности статуса kicked
func (v *TestVerification) VerifyStatusesAgree(t *testing.T, subscriptionID, userID int64) {
	var subStatus, userStatus string
	err := v.storage.DB.QueryRow("SELECT status FROM subscriptions WHERE id = $1", subscriptionID).Scan(&subStatus)
	require.NoError(t, err)
	err = v.storage.DB.QueryRow("SELECT status FROM users WHERE id = $1", userID).Scan(&userStatus)
	require.NoError(t, err)
	if subStatus == models.SubscriptionStatusKicked || userStatus == models.UserStatusKicked {
		require.Equal(t, models.SubscriptionStatusKicked, subStatus)
		require.Equal(t, models.UserStatusKicked, userStatus)
	}
}

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL и применяет миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	if os.Getenv("TEAMGATE_INTEGRATION") == "" {
		t.Skip("set TEAMGATE_INTEGRATION=1 to run tests against a postgres container")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(3*time.Minute)),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	require.NoError(t, migrations.Run(storage.DB, "../../../migrations"), "failed to run migrations")

	cleanup := func() {
		_ = storage.DB.Close()
		_ = container.Terminate(ctx)
	}
	return storage, cleanup
}
