package counts_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	teamcounts "github.com/magabrotheeeer/teamgate/internal/http/handlers/team/counts"
	"github.com/magabrotheeeer/teamgate/internal/http/response"
	"github.com/magabrotheeeer/teamgate/internal/models"
	sweeper "github.com/magabrotheeeer/teamgate/internal/services/sweeper"
)

type mockCache struct {
	GetFunc func(key string, result any) (bool, error)
}

func (m *mockCache) Get(key string, result any) (bool, error) {
	return m.GetFunc(key, result)
}

type mockSettings struct {
	GetSettingFunc func(ctx context.Context, key string) (string, bool, error)
}

func (m *mockSettings) GetSetting(ctx context.Context, key string) (string, bool, error) {
	return m.GetSettingFunc(ctx, key)
}

func makeLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCountsHandler(t *testing.T) {
	t.Run("from cache", func(t *testing.T) {
		cache := &mockCache{
			GetFunc: func(key string, result any) (bool, error) {
				require.Equal(t, sweeper.TeamCountsCacheKey, key)
				*result.(*sweeper.TeamCounts) = sweeper.TeamCounts{Active: 12, Pending: 3}
				return true, nil
			},
		}
		settings := &mockSettings{
			GetSettingFunc: func(_ context.Context, _ string) (string, bool, error) {
				t.Fatal("settings should not be read on cache hit")
				return "", false, nil
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/team/counts", nil)
		w := httptest.NewRecorder()

		teamcounts.New(makeLogger(), cache, settings).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Equal(t, float64(12), data["active"])
		assert.Equal(t, float64(3), data["pending"])
	})

	t.Run("fallback to settings", func(t *testing.T) {
		cache := &mockCache{
			GetFunc: func(_ string, _ any) (bool, error) {
				return false, nil
			},
		}
		settings := &mockSettings{
			GetSettingFunc: func(_ context.Context, key string) (string, bool, error) {
				switch key {
				case models.SettingTeamMemberCount:
					return "9", true, nil
				case models.SettingTeamPendingCount:
					return "2", true, nil
				}
				return "", false, nil
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/team/counts", nil)
		w := httptest.NewRecorder()

		teamcounts.New(makeLogger(), cache, settings).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Equal(t, float64(9), data["active"])
	})

	t.Run("not collected yet", func(t *testing.T) {
		cache := &mockCache{
			GetFunc: func(_ string, _ any) (bool, error) {
				return false, nil
			},
		}
		settings := &mockSettings{
			GetSettingFunc: func(_ context.Context, _ string) (string, bool, error) {
				return "", false, nil
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/team/counts", nil)
		w := httptest.NewRecorder()

		teamcounts.New(makeLogger(), cache, settings).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
