package canva

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/teamgate/internal/lib/sl"
	"github.com/magabrotheeeer/teamgate/internal/provider"
)

// Factory выдаёт клиент, связанный со свежезагруженной сессией, и пробует
// её до обработки первой строки: истёкшая сессия прерывает проход целиком,
// а не всплывает срединой прохода как загадочный сбой действия.
type Factory struct {
	settings      provider.SettingsReader
	cfg           Config
	defaultTeamID string
	log           *slog.Logger
}

// NewFactory создает новый экземпляр Factory.
func NewFactory(settings provider.SettingsReader, cfg Config, defaultTeamID string, log *slog.Logger) *Factory {
	return &Factory{
		settings:      settings,
		cfg:           cfg,
		defaultTeamID: defaultTeamID,
		log:           log,
	}
}

// Acquire загружает сессию из настроек, создает клиент и пробует сессию.
func (f *Factory) Acquire(ctx context.Context) (provider.MembershipProvider, error) {
	const op = "canva.Acquire"

	session, err := provider.LoadSession(ctx, f.settings, f.defaultTeamID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	f.log.Debug("provider session loaded",
		sl.Secret("cookie", session.Cookie),
		slog.String("team_id", session.TeamID))

	client := NewClient(session, f.cfg, f.log)
	if err := client.Probe(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return client, nil
}
