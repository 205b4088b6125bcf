package provider

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/teamgate/internal/models"
)

// SettingsReader — часть хранилища, нужная для загрузки сессии.
type SettingsReader interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
}

// Session — захваченный административный доступ к команде провайдера:
// сессионная cookie, подпись клиента и идентификатор команды.
type Session struct {
	Cookie    string
	UserAgent string
	TeamID    string
}

// LoadSession собирает сессию из настроек. Отсутствие cookie означает
// ErrSessionExpired: оператор должен переснять сессию вручную.
// TeamID опционален — при отсутствии реализация использует команду по умолчанию.
func LoadSession(ctx context.Context, settings SettingsReader, defaultTeamID string) (Session, error) {
	const op = "provider.LoadSession"

	cookie, found, err := settings.GetSetting(ctx, models.SettingProviderCookie)
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found || cookie == "" {
		return Session{}, fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	userAgent, _, err := settings.GetSetting(ctx, models.SettingProviderUserAgent)
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}

	teamID, found, err := settings.GetSetting(ctx, models.SettingProviderTeamID)
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found || teamID == "" {
		teamID = defaultTeamID
	}

	return Session{
		Cookie:    cookie,
		UserAgent: userAgent,
		TeamID:    teamID,
	}, nil
}
