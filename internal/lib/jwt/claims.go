// Package jwt реализует сервисные токены для вызова триггерных и
// административных эндпоинтов: планировщик и оператор получают токен
// с именем вызывающего и областью доступа.
package jwt

import (
	"time"
)

// Области доступа сервисного токена.
const (
	ScopeTrigger = "trigger" // запуск проходов реконсиляции
	ScopeAdmin   = "admin"   // управление настройками и подписками
)

// Maker описывает интерфейс для генерации и парсинга сервисных токенов.
type Maker interface {
	// GenerateToken создаёт токен для вызывающего с заданной областью доступа.
	GenerateToken(caller, scope string) (string, error)
	// ParseToken возвращает *CustomClaims, если токен корректен.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
