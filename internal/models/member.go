package models

// Состояния участника, наблюдаемые у провайдера.
const (
	InviteStateActive  = "active"
	InviteStateInvited = "invited"
)

// MemberView — транзиентное наблюдение участника внешней команды.
// До принятия приглашения провайдер показывает email приглашённого
// в поле имени, поэтому сопоставление с User всегда эвристическое.
type MemberView struct {
	DisplayNameOrEmail string `json:"display_name_or_email"`
	InviteState        string `json:"invite_state"`
}
