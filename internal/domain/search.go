package domain

import (
	"math"
	"time"
)

// DateLayout is the wire format for stay dates.
const DateLayout = "2006-01-02"

// SearchCriteria is the live search form. It is edited freely between
// searches; displayed results are priced from a ConfirmedSearch snapshot
// instead, so edits here never retroactively change them.
type SearchCriteria struct {
	StartDate   time.Time
	EndDate     time.Time
	Guests      int
	Communities []int
}

// DefaultCriteria returns the initial form state: check-in tomorrow,
// check-out three days out, one guest.
func DefaultCriteria(now time.Time) SearchCriteria {
	day := now.Truncate(24 * time.Hour)
	return SearchCriteria{
		StartDate: day.AddDate(0, 0, 1),
		EndDate:   day.AddDate(0, 0, 3),
		Guests:    1,
	}
}

// SetStartDate updates check-in and, when the existing check-out would no
// longer be after it, advances check-out to the following day. Check-in is
// never adjusted downward on behalf of the user.
func (c *SearchCriteria) SetStartDate(d time.Time) {
	c.StartDate = d
	c.normalize()
}

// SetEndDate updates check-out, subject to the same rule: a check-out that
// does not exceed check-in is advanced to check-in plus one day.
func (c *SearchCriteria) SetEndDate(d time.Time) {
	c.EndDate = d
	c.normalize()
}

func (c *SearchCriteria) normalize() {
	if c.StartDate.IsZero() {
		return
	}
	if c.EndDate.IsZero() || !c.EndDate.After(c.StartDate) {
		c.EndDate = c.StartDate.AddDate(0, 0, 1)
	}
}

// ToggleCommunity adds the community filter if absent, removes it if present.
func (c *SearchCriteria) ToggleCommunity(id int) {
	for i, existing := range c.Communities {
		if existing == id {
			c.Communities = append(c.Communities[:i], c.Communities[i+1:]...)
			return
		}
	}
	c.Communities = append(c.Communities, id)
}

// Nights reports the stay length, zero when either date is unset.
func (c SearchCriteria) Nights() int {
	return nightsBetween(c.StartDate, c.EndDate)
}

// Complete reports whether the criteria can be searched.
func (c SearchCriteria) Complete() bool {
	return !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.EndDate.After(c.StartDate)
}

// Confirm snapshots the criteria at the moment a search executes.
func (c SearchCriteria) Confirm() ConfirmedSearch {
	communities := make([]int, len(c.Communities))
	copy(communities, c.Communities)
	return ConfirmedSearch{
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Guests:      c.Guests,
		Communities: communities,
	}
}

// ConfirmedSearch is the frozen copy of the criteria an executed search ran
// with. It labels and prices the current results and is only ever replaced
// wholesale by the next search.
type ConfirmedSearch struct {
	StartDate   time.Time
	EndDate     time.Time
	Guests      int
	Communities []int
}

func (s ConfirmedSearch) Nights() int {
	return nightsBetween(s.StartDate, s.EndDate)
}

func nightsBetween(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}
