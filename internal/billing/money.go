package billing

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

// FormatCents renders an amount in cents as a grouped dollar string,
// e.g. 123456789 -> "$1,234,567.89". Used in receipt metadata.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return moneyPrinter.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
