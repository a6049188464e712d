// Package format renders amounts and stay dates the way the booking UI
// displays them.
package format

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.Swedish)

// Currency renders an amount with Swedish digit grouping followed by the
// currency code, e.g. "1 000 SEK".
func Currency(amount float64, code string) string {
	return printer.Sprintf("%v %s",
		number.Decimal(amount, number.MinFractionDigits(0), number.MaxFractionDigits(2)),
		code,
	)
}

// DisplayDate renders dd/mm/yyyy, the compact form used in summaries.
func DisplayDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// WeekdayDate renders the long confirmation form, e.g. "Monday, 07 Jul 2025".
func WeekdayDate(t time.Time) string {
	return t.Format("Monday, 02 Jan 2006")
}

// ISO renders the wire date format.
func ISO(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseISO parses a wire date.
func ParseISO(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
