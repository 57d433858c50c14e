package domain

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var yenPrinter = message.NewPrinter(language.Japanese)

// FormatAmount renders a yen amount with thousands separators,
// e.g. 1234567 -> "1,234,567".
func FormatAmount(n int64) string {
	return yenPrinter.Sprintf("%d", n)
}
