// Package provider определяет контракт адаптера внешнего командного сервиса.
// Джобы работают только с этим интерфейсом: конкретная техника (записанные
// HTTP-вызовы, официальное API) — взаимозаменяемая реализация.
package provider

import (
	"context"
	"errors"

	"github.com/magabrotheeeer/teamgate/internal/models"
)

// Классы ошибок адаптера. SessionExpired фатальна для всего прохода,
// ActionFailed — повторяемая ошибка отдельной строки.
var (
	ErrSessionExpired = errors.New("provider session expired")
	ErrActionFailed   = errors.New("provider action failed")
)

// RemoveResult — исход удаления участника. NotFound не является ошибкой:
// участника уже нет снаружи, локальное состояние надо привести в соответствие.
type RemoveResult int

const (
	Removed RemoveResult = iota
	NotFound
)

// MembershipProvider — операции над составом внешней команды.
// Реализация держит единственную сессию, вызовы нельзя вести параллельно.
type MembershipProvider interface {
	// Probe быстро проверяет годность сессии.
	Probe(ctx context.Context) error
	// ListMembers исчерпывающе раскрывает список участников.
	ListMembers(ctx context.Context) ([]models.MemberView, error)
	// RemoveMember удаляет участника, найденного по email.
	RemoveMember(ctx context.Context, email string) (RemoveResult, error)
	// InviteMember ставит приглашение в очередь на стороне провайдера.
	InviteMember(ctx context.Context, email string) error
}

// Factory выдаёт адаптер, связанный со свежезагруженной сессией.
// Acquire вызывается один раз в начале прохода; истёкшая или отсутствующая
// сессия обнаруживается здесь, до обработки первой строки.
type Factory interface {
	Acquire(ctx context.Context) (MembershipProvider, error)
}
