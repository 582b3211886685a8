package utils

import (
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatMoney renders an amount like "$1,234.50" for the given ISO code.
// Unknown codes fall back to USD.
func FormatMoney(amount float64, code string) string {
	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		unit = currency.USD
	}
	// x/text separates symbol and number with a space
	return strings.Replace(printer.Sprint(currency.Symbol(unit.Amount(amount))), " ", "", 1)
}

// RoundCents rounds half away from zero to two decimals.
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// ToMinorUnits converts a major-unit amount to integer cents.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts integer cents back to a major-unit amount.
func FromMinorUnits(cents int64) float64 {
	return float64(cents) / 100
}
