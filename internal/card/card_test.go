package card

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

func validDetails() Details {
	return Details{
		Number:      "4539 1488 0343 6467",
		ExpiryMonth: "12",
		ExpiryYear:  "2027",
		CVV:         "123",
		HolderName:  "Anna Svensson",
	}
}

func TestLuhn(t *testing.T) {
	assert.True(t, Luhn("4539148803436467"))
	// Single altered digit breaks the checksum.
	assert.False(t, Luhn("4539148803436468"))
	// Spaces are tolerated.
	assert.True(t, Luhn("4539 1488 0343 6467"))
	assert.True(t, Luhn("378282246310005"))
	// Zero sum passes trivially; Validate rejects this case separately.
	assert.True(t, Luhn("0000000000000000"))
	assert.False(t, Luhn(""))
}

func TestDetect(t *testing.T) {
	cases := map[string]Brand{
		"4539148803436467": BrandVisa,
		"4026000000000002": BrandVisaElectron,
		"378282246310005":  BrandAmex,
		"341111111111111":  BrandAmex,
		"5555555555554444": BrandMastercard,
		"2221000000000009": BrandMastercard,
		"36700102000000":   BrandDiners,
		"3528000700000000": BrandJCB,
		"6759649826438453": BrandMaestro,
		"5018000000000009": BrandMaestro,
		"1234567890123456": BrandUnknown,
	}
	for number, want := range cases {
		assert.Equal(t, want, Detect(number), number)
	}
}

func TestCVVLength(t *testing.T) {
	assert.Equal(t, 4, CVVLength(BrandAmex))
	assert.Equal(t, 3, CVVLength(BrandVisa))
	assert.Equal(t, 3, CVVLength(BrandUnknown))
}

func TestValidateAccepts(t *testing.T) {
	assert.Empty(t, validDetails().Validate(testNow))
}

func TestValidateCardNumber(t *testing.T) {
	d := validDetails()
	d.Number = ""
	assert.Equal(t, "Card number is required", d.Validate(testNow)["cardNumber"])

	d.Number = "4539148803436468"
	assert.Equal(t, "Invalid card number", d.Validate(testNow)["cardNumber"])

	d.Number = "411111111111" // 12 digits
	assert.Equal(t, "Invalid card number", d.Validate(testNow)["cardNumber"])

	// All zeros passes Luhn (sum is zero) but is rejected explicitly.
	d.Number = "0000000000000000"
	assert.Equal(t, "Invalid card number", d.Validate(testNow)["cardNumber"])
}

func TestValidateExpiry(t *testing.T) {
	d := validDetails()
	d.ExpiryMonth = ""
	assert.Equal(t, "Month is required", d.Validate(testNow)["expiryMonth"])

	d = validDetails()
	d.ExpiryYear = ""
	assert.Equal(t, "Year is required", d.Validate(testNow)["expiryYear"])

	// Strictly before the current (year, month) pair is expired.
	d = validDetails()
	d.ExpiryMonth = "6"
	d.ExpiryYear = "2025"
	assert.Equal(t, "Card has expired", d.Validate(testNow)["expiryYear"])

	// The current month is still valid.
	d.ExpiryMonth = "7"
	assert.Empty(t, d.Validate(testNow)["expiryYear"])

	d.ExpiryMonth = "13"
	assert.Equal(t, "Invalid month", d.Validate(testNow)["expiryMonth"])
}

func TestValidateCVV(t *testing.T) {
	d := validDetails()
	d.CVV = ""
	assert.Equal(t, "CVV is required", d.Validate(testNow)["cvv"])

	d.CVV = "12a"
	assert.Equal(t, "CVV must be numeric", d.Validate(testNow)["cvv"])

	d.CVV = "1234"
	assert.Equal(t, "CVV must be 3 digits", d.Validate(testNow)["cvv"])

	// Amex wants exactly four digits.
	d = validDetails()
	d.Number = "378282246310005"
	d.CVV = "123"
	assert.Equal(t, "Amex CVV must be 4 digits", d.Validate(testNow)["cvv"])
	d.CVV = "1234"
	assert.Empty(t, d.Validate(testNow)["cvv"])
}

func TestValidateHolderName(t *testing.T) {
	d := validDetails()
	d.HolderName = "  "
	assert.Equal(t, "Cardholder name is required", d.Validate(testNow)["cardholderName"])

	d.HolderName = "A"
	assert.Equal(t, "Name must be at least 2 characters", d.Validate(testNow)["cardholderName"])
}
