package models

// Ключи настроек, используемые адаптером провайдера и джобами.
const (
	SettingProviderCookie    = "canva_cookie"
	SettingProviderUserAgent = "canva_user_agent"
	SettingProviderTeamID    = "canva_team_id"
	SettingTeamMemberCount   = "team_member_count"
	SettingTeamPendingCount  = "team_pending_count"
	SettingLastSyncAt        = "last_sync_at"
)

// Setting — пара ключ/значение, last-write-wins.
type Setting struct {
	Key   string
	Value string
}
