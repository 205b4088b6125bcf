package models

// Product — неизменяемые справочные данные о тарифе.
type Product struct {
	ID           int64
	Name         string
	DurationDays int
	PricePoints  int
}
