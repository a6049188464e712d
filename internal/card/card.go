// Package card validates raw card input for the legacy direct-capture
// payment path. The hosted payment element never touches these fields.
package card

import (
	"strconv"
	"strings"
	"time"
)

type Brand string

const (
	BrandVisa         Brand = "VISA"
	BrandVisaElectron Brand = "VISA_ELECTRON"
	BrandMastercard   Brand = "MASTERCARD"
	BrandAmex         Brand = "AMERICAN_EXPRESS"
	BrandDiners       Brand = "DINERS_CLUB"
	BrandJCB          Brand = "JCB"
	BrandMaestro      Brand = "MAESTRO"
	BrandUnknown      Brand = "UNKNOWN"
)

// Detect derives the card network from the leading digits. It is used for
// display and to pick the expected CVV length, nothing else.
func Detect(number string) Brand {
	n := digits(number)
	switch {
	case hasAnyPrefix(n, "4026", "4508", "4844", "4913", "4917"):
		return BrandVisaElectron
	case hasAnyPrefix(n, "34", "37"):
		return BrandAmex
	case hasAnyPrefix(n, "30", "36", "38", "39"):
		return BrandDiners
	case strings.HasPrefix(n, "35"):
		return BrandJCB
	case hasAnyPrefix(n, "50", "56", "57", "58", "6"):
		return BrandMaestro
	case hasAnyPrefix(n, "51", "52", "53", "54", "55"),
		hasAnyPrefix(n, "22", "23", "24", "25", "26", "27"):
		return BrandMastercard
	case strings.HasPrefix(n, "4"):
		return BrandVisa
	default:
		return BrandUnknown
	}
}

// CVVLength is 4 for Amex, 3 for everything else.
func CVVLength(b Brand) int {
	if b == BrandAmex {
		return 4
	}
	return 3
}

// Luhn reports whether the number passes the Luhn checksum. Callers are
// expected to have checked length and digit content; note that a string of
// all zeros sums to zero and therefore passes trivially.
func Luhn(number string) bool {
	n := digits(number)
	if n == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(n) - 1; i >= 0; i-- {
		d := int(n[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d = d%10 + 1
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Details is one submission's worth of raw card input. It must not be
// retained after the booking call returns.
type Details struct {
	Number      string `json:"cardNumber"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CVV         string `json:"cvv"`
	HolderName  string `json:"cardholderName"`
}

// Validate runs every check synchronously and returns a per-field error map;
// an empty map means the details are submittable. Any entry blocks
// submission, there is no partial submit.
func (d Details) Validate(now time.Time) map[string]string {
	errs := make(map[string]string)

	number := digits(d.Number)
	switch {
	case number == "":
		errs["cardNumber"] = "Card number is required"
	case len(number) < 13 || len(number) > 19:
		errs["cardNumber"] = "Invalid card number"
	case strings.Count(number, "0") == len(number):
		// All zeros satisfies the Luhn checksum trivially; reject it outright.
		errs["cardNumber"] = "Invalid card number"
	case !Luhn(number):
		errs["cardNumber"] = "Invalid card number"
	}

	name := strings.TrimSpace(d.HolderName)
	switch {
	case name == "":
		errs["cardholderName"] = "Cardholder name is required"
	case len(name) < 2:
		errs["cardholderName"] = "Name must be at least 2 characters"
	}

	if d.ExpiryMonth == "" {
		errs["expiryMonth"] = "Month is required"
	}
	if d.ExpiryYear == "" {
		errs["expiryYear"] = "Year is required"
	}
	if d.ExpiryMonth != "" && d.ExpiryYear != "" {
		month, merr := strconv.Atoi(d.ExpiryMonth)
		year, yerr := strconv.Atoi(d.ExpiryYear)
		switch {
		case merr != nil || month < 1 || month > 12:
			errs["expiryMonth"] = "Invalid month"
		case yerr != nil:
			errs["expiryYear"] = "Invalid year"
		case year < now.Year() || (year == now.Year() && month < int(now.Month())):
			errs["expiryYear"] = "Card has expired"
		}
	}

	if d.CVV == "" {
		errs["cvv"] = "CVV is required"
	} else if digits(d.CVV) != d.CVV {
		errs["cvv"] = "CVV must be numeric"
	} else if want := CVVLength(Detect(d.Number)); len(d.CVV) != want {
		if want == 4 {
			errs["cvv"] = "Amex CVV must be 4 digits"
		} else {
			errs["cvv"] = "CVV must be 3 digits"
		}
	}

	return errs
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
