package domain

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places kept for stored amounts. It
// matches the NUMERIC(18,4) price column.
const MoneyScale = 4

// RoundMoney rounds half away from zero to MoneyScale places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}
