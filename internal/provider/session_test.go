package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/teamgate/internal/models"
)

type SettingsMock struct{ mock.Mock }

func (m *SettingsMock) GetSetting(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func TestLoadSession_Complete(t *testing.T) {
	settings := new(SettingsMock)
	settings.On("GetSetting", mock.Anything, models.SettingProviderCookie).Return("cookie-blob", true, nil).Once()
	settings.On("GetSetting", mock.Anything, models.SettingProviderUserAgent).Return("Mozilla/5.0", true, nil).Once()
	settings.On("GetSetting", mock.Anything, models.SettingProviderTeamID).Return("team-42", true, nil).Once()

	session, err := LoadSession(context.Background(), settings, "default-team")
	require.NoError(t, err)
	assert.Equal(t, "cookie-blob", session.Cookie)
	assert.Equal(t, "Mozilla/5.0", session.UserAgent)
	assert.Equal(t, "team-42", session.TeamID)
	settings.AssertExpectations(t)
}

func TestLoadSession_MissingCookieIsSessionExpired(t *testing.T) {
	settings := new(SettingsMock)
	settings.On("GetSetting", mock.Anything, models.SettingProviderCookie).Return("", false, nil).Once()

	_, err := LoadSession(context.Background(), settings, "default-team")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionExpired))
}

func TestLoadSession_TeamIDFallsBackToDefault(t *testing.T) {
	settings := new(SettingsMock)
	settings.On("GetSetting", mock.Anything, models.SettingProviderCookie).Return("cookie-blob", true, nil).Once()
	settings.On("GetSetting", mock.Anything, models.SettingProviderUserAgent).Return("", false, nil).Once()
	settings.On("GetSetting", mock.Anything, models.SettingProviderTeamID).Return("", false, nil).Once()

	session, err := LoadSession(context.Background(), settings, "default-team")
	require.NoError(t, err)
	assert.Equal(t, "default-team", session.TeamID)
}

func TestLoadSession_StoreError(t *testing.T) {
	settings := new(SettingsMock)
	settings.On("GetSetting", mock.Anything, models.SettingProviderCookie).Return("", false, errors.New("db down")).Once()

	_, err := LoadSession(context.Background(), settings, "default-team")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSessionExpired))
}
