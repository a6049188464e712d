package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCurrency(t *testing.T) {
	assert.Equal(t, "500 SEK", Currency(500, "SEK"))
	// Swedish grouping uses a no-break space.
	assert.Equal(t, "1 000 SEK", Currency(1000, "SEK"))
	assert.Equal(t, "999,5 SEK", Currency(999.5, "SEK"))
}

func TestDates(t *testing.T) {
	d := time.Date(2025, time.July, 7, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "07/07/2025", DisplayDate(d))
	assert.Equal(t, "Monday, 07 Jul 2025", WeekdayDate(d))
	assert.Equal(t, "2025-07-07", ISO(d))

	parsed, err := ParseISO("2025-07-07")
	assert.NoError(t, err)
	assert.Equal(t, d, parsed)

	_, err = ParseISO("07/07/2025")
	assert.Error(t, err)
}
