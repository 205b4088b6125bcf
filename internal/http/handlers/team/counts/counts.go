// Package counts реализует HTTP-обработчик чтения снимка состава команды.
// Снимок берётся из кэша, при его отсутствии — из настроек, куда его
// записывает проход по протухшим приглашениям.
package counts

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/teamgate/internal/http/response"
	"github.com/magabrotheeeer/teamgate/internal/lib/sl"
	"github.com/magabrotheeeer/teamgate/internal/models"
	sweeper "github.com/magabrotheeeer/teamgate/internal/services/sweeper"
)

// Cacher описывает интерфейс чтения кэша.
type Cacher interface {
	Get(key string, result any) (bool, error)
}

// SettingsReader описывает интерфейс чтения настроек.
type SettingsReader interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
}

// Handler управляет HTTP-запросами на чтение состава команды.
type Handler struct {
	log      *slog.Logger
	cache    Cacher
	settings SettingsReader
}

// New создает новый Handler с переданными логгером, кэшем и настройками.
func New(log *slog.Logger, cache Cacher, settings SettingsReader) *Handler {
	return &Handler{
		log:      log,
		cache:    cache,
		settings: settings,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.team.counts"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var counts sweeper.TeamCounts
	found, err := h.cache.Get(sweeper.TeamCountsCacheKey, &counts)
	if err != nil {
		log.Warn("failed to read counts from cache, falling back to settings", sl.Err(err))
	}
	if !found || err != nil {
		counts, found, err = h.countsFromSettings(r.Context())
		if err != nil {
			log.Error("failed to read counts from settings", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not get team counts"))
			return
		}
		if !found {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("team counts not collected yet"))
			return
		}
	}

	render.JSON(w, r, response.OKWithData(counts))
}

func (h *Handler) countsFromSettings(ctx context.Context) (sweeper.TeamCounts, bool, error) {
	var counts sweeper.TeamCounts

	active, foundActive, err := h.settings.GetSetting(ctx, models.SettingTeamMemberCount)
	if err != nil {
		return counts, false, err
	}
	pending, foundPending, err := h.settings.GetSetting(ctx, models.SettingTeamPendingCount)
	if err != nil {
		return counts, false, err
	}
	if !foundActive && !foundPending {
		return counts, false, nil
	}

	counts.Active, _ = strconv.Atoi(active)
	counts.Pending, _ = strconv.Atoi(pending)
	return counts, true, nil
}
