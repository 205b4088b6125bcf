// Package clock задаёт единый источник времени для всех сравнений.
// Все метки времени хранятся и сравниваются в UTC; сконфигурированная
// таймзона используется только для отображения в логах и уведомлениях.
package clock

import (
	"fmt"
	"time"
)

// Clock возвращает текущий момент. Джобы получают его через интерфейс,
// чтобы тесты могли зафиксировать время.
type Clock interface {
	Now() time.Time
}

// UTC — боевой источник времени.
type UTC struct{}

// Now возвращает текущее время в UTC.
func (UTC) Now() time.Time {
	return time.Now().UTC()
}

// Fixed — источник с фиксированным моментом, для тестов.
type Fixed struct {
	Moment time.Time
}

// Now возвращает зафиксированный момент.
func (f Fixed) Now() time.Time {
	return f.Moment.UTC()
}

// Display форматирует момент в сконфигурированной таймзоне.
func Display(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02.01.2006 15:04")
}

// LoadLocation загружает таймзону для отображения.
func LoadLocation(name string) (*time.Location, error) {
	const op = "clock.LoadLocation"
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return loc, nil
}
