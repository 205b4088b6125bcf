// Package match содержит сопоставление локального email с отображаемым
// именем участника внешней команды. Провайдер не отдаёт стабильного
// идентификатора, поэтому сопоставление заведомо неточное: до принятия
// приглашения в поле имени показывается email, после — произвольное имя.
package match

import "strings"

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Strict — точное сравнение email с отображаемым значением без учёта
// регистра и крайних пробелов. Используется реконсиляцией активных участников.
func Strict(email, display string) bool {
	e := normalize(email)
	if e == "" {
		return false
	}
	return e == normalize(display)
}

// Loose — вхождение email в отображаемое значение. Нужен свипу приглашений:
// провайдер может дописывать к email статусные суффиксы. Может давать ложные
// срабатывания на префиксных адресах, это осознанный компромисс.
func Loose(email, display string) bool {
	e := normalize(email)
	if e == "" {
		return false
	}
	return strings.Contains(normalize(display), e)
}
