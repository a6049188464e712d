package flow

import (
	"github.com/ammaritto/short-stay/internal/domain"
	"github.com/ammaritto/short-stay/internal/format"
)

// StaySummary is the wire form of a confirmed search.
type StaySummary struct {
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Guests      int    `json:"guests"`
	Communities []int  `json:"communities,omitempty"`
	Nights      int    `json:"nights"`
}

// State is a point-in-time view of one flow, shaped for the JSON surface.
type State struct {
	Step        domain.Step           `json:"step"`
	StartDate   string                `json:"startDate"`
	EndDate     string                `json:"endDate"`
	Guests      int                   `json:"guests"`
	Communities []int                 `json:"communities"`
	Nights      int                   `json:"nights"`
	Confirmed   *StaySummary          `json:"confirmedSearch,omitempty"`
	HasSearched bool                  `json:"hasSearched"`
	Results     []domain.Unit         `json:"results"`
	Selected    *domain.SelectedUnit  `json:"selectedUnit,omitempty"`
	Guest       domain.GuestDetails   `json:"guestDetails"`
	Booking     *domain.BookingResult `json:"booking,omitempty"`
	Error       string                `json:"error,omitempty"`
	FieldErrors map[string]string     `json:"fieldErrors,omitempty"`
	Loading     bool                  `json:"loading"`
}

// Snapshot copies the current state. Top-level slices and pointers are
// copied; nested rate slices are shared with the flow, which never mutates
// them after a search completes.
func (f *Flow) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := State{
		Step:        f.step,
		Guests:      f.criteria.Guests,
		Nights:      f.criteria.Nights(),
		HasSearched: f.hasSearched,
		Guest:       f.guest,
		Error:       f.errMsg,
		Loading:     f.loading,
	}
	if !f.criteria.StartDate.IsZero() {
		s.StartDate = format.ISO(f.criteria.StartDate)
	}
	if !f.criteria.EndDate.IsZero() {
		s.EndDate = format.ISO(f.criteria.EndDate)
	}
	s.Communities = append([]int(nil), f.criteria.Communities...)
	s.Results = append([]domain.Unit(nil), f.results...)
	if f.confirmed != nil {
		s.Confirmed = &StaySummary{
			StartDate:   format.ISO(f.confirmed.StartDate),
			EndDate:     format.ISO(f.confirmed.EndDate),
			Guests:      f.confirmed.Guests,
			Communities: append([]int(nil), f.confirmed.Communities...),
			Nights:      f.confirmed.Nights(),
		}
	}
	if f.selected != nil {
		selected := *f.selected
		s.Selected = &selected
	}
	if f.booking != nil {
		booking := *f.booking
		s.Booking = &booking
	}
	if len(f.fieldErrors) > 0 {
		s.FieldErrors = make(map[string]string, len(f.fieldErrors))
		for k, v := range f.fieldErrors {
			s.FieldErrors[k] = v
		}
	}
	return s
}
