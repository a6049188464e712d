// Package flow owns the booking flow state machine: the step sequence
// search → guest-details → payment → confirmation, the data threaded between
// steps, and the guards on every transition. A guard that fails never changes
// the step; it surfaces as a user-visible error string instead.
package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ammaritto/short-stay/internal/card"
	"github.com/ammaritto/short-stay/internal/domain"
	"github.com/ammaritto/short-stay/internal/format"
	"github.com/ammaritto/short-stay/internal/kafka"
	"github.com/ammaritto/short-stay/internal/upstream"
)

type FlowUseCase interface {
	Snapshot() State
	SetDates(start, end time.Time)
	SetGuests(n int)
	ToggleCommunity(id int)
	ExecuteSearch(ctx context.Context)
	SelectUnit(inventoryTypeID, rateID int)
	SubmitGuestDetails(g domain.GuestDetails)
	Back()
	CreatePaymentIntent(ctx context.Context) (string, error)
	SubmitPayment(ctx context.Context, input PaymentInput)
	Reset()
}

type AvailabilityClient interface {
	SearchAvailability(ctx context.Context, cs domain.ConfirmedSearch) ([]domain.Unit, error)
}

type PaymentClient interface {
	CreatePaymentIntent(ctx context.Context, req upstream.IntentRequest) (string, error)
	CreateBookingWithCard(ctx context.Context, req upstream.BookingRequest) (*domain.BookingResult, error)
	CreateBookingWithIntent(ctx context.Context, req upstream.BookingRequest) (*domain.BookingResult, error)
}

type Cache interface {
	Get(ctx context.Context, cs domain.ConfirmedSearch) ([]domain.Unit, error)
	Set(ctx context.Context, cs domain.ConfirmedSearch, units []domain.Unit) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Variant selects how payment is captured.
type Variant string

const (
	// VariantHosted confirms the charge through the processor's hosted
	// payment element; raw card data never reaches this service.
	VariantHosted Variant = "hosted"
	// VariantDirect posts raw card fields to the booking endpoint. Legacy,
	// kept for deployments that have not migrated.
	VariantDirect Variant = "direct"
)

// PaymentInput is one payment submission: card details on the direct
// variant, the processor's confirmed intent id on the hosted variant.
type PaymentInput struct {
	Card            *card.Details
	PaymentIntentID string
}

type Flow struct {
	mu sync.Mutex

	id          string
	step        domain.Step
	criteria    domain.SearchCriteria
	confirmed   *domain.ConfirmedSearch
	results     []domain.Unit
	hasSearched bool
	selected    *domain.SelectedUnit
	guest       domain.GuestDetails
	booking     *domain.BookingResult
	errMsg      string
	fieldErrors map[string]string
	loading     bool

	// generation invalidates in-flight calls: a response that arrives after
	// Reset bumped the counter must not touch the flow.
	generation uint64

	availability AvailabilityClient
	payments     PaymentClient
	cache        Cache
	producer     Producer
	eventsTopic  string
	variant      Variant
	logger       *zap.Logger
	now          func() time.Time
}

type Option func(*Flow)

func WithCache(c Cache) Option {
	return func(f *Flow) { f.cache = c }
}

func WithProducer(p Producer, topic string) Option {
	return func(f *Flow) {
		f.producer = p
		f.eventsTopic = topic
	}
}

func WithVariant(v Variant) Option {
	return func(f *Flow) { f.variant = v }
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Flow) { f.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

func New(id string, availability AvailabilityClient, payments PaymentClient, opts ...Option) *Flow {
	f := &Flow{
		id:           id,
		step:         domain.StepSearch,
		availability: availability,
		payments:     payments,
		variant:      VariantHosted,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.criteria = domain.DefaultCriteria(f.now())
	return f
}

// SetDates updates the live search form. Zero values leave the respective
// date untouched; the check-out auto-advance rule applies on every edit.
func (f *Flow) SetDates(start, end time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !start.IsZero() {
		f.criteria.SetStartDate(start)
	}
	if !end.IsZero() {
		f.criteria.SetEndDate(end)
	}
}

func (f *Flow) SetGuests(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n >= 1 {
		f.criteria.Guests = n
	}
}

// ToggleCommunity flips a location filter. Displayed results were produced
// without the new filter, so they are discarded until the next search.
func (f *Flow) ToggleCommunity(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.criteria.ToggleCommunity(id)
	if f.hasSearched {
		f.results = nil
		f.hasSearched = false
	}
}

// ExecuteSearch snapshots the criteria and queries availability. A call while
// a search or payment is already in flight is a no-op. Past the search step it
// is rejected: the confirmed snapshot prices the selected unit, so replacing
// it mid-booking would let the payment book a stay it never priced.
func (f *Flow) ExecuteSearch(ctx context.Context) {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return
	}
	if f.step != domain.StepSearch {
		f.errMsg = "A booking is already in progress"
		f.mu.Unlock()
		return
	}
	if !f.criteria.Complete() {
		f.errMsg = "Please select check-in and check-out dates"
		f.mu.Unlock()
		return
	}
	cs := f.criteria.Confirm()
	f.confirmed = &cs
	f.loading = true
	f.errMsg = ""
	gen := f.generation
	f.mu.Unlock()

	units, err := f.fetchAvailability(ctx, cs)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generation != gen {
		// The session was reset while the request was in flight.
		return
	}
	f.loading = false
	f.hasSearched = true
	if err != nil {
		f.errMsg = err.Error()
		f.results = nil
		return
	}
	f.results = units
}

func (f *Flow) fetchAvailability(ctx context.Context, cs domain.ConfirmedSearch) ([]domain.Unit, error) {
	if f.cache != nil {
		if cached, err := f.cache.Get(ctx, cs); err == nil && cached != nil {
			return cached, nil
		}
	}

	units, err := f.availability.SearchAvailability(ctx, cs)
	if err != nil {
		return nil, err
	}
	if f.cache != nil {
		_ = f.cache.Set(ctx, cs, units)
	}
	return units, nil
}

// SelectUnit picks one rate of one unit from the current results and moves to
// guest details. It is only reachable after a completed search that still
// lists the unit.
func (f *Flow) SelectUnit(inventoryTypeID, rateID int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loading {
		return
	}
	if f.step != domain.StepSearch {
		f.errMsg = "A unit is already selected"
		return
	}
	if !f.hasSearched {
		f.errMsg = "Search for availability before selecting a unit"
		return
	}
	for _, unit := range f.results {
		if unit.InventoryTypeID != inventoryTypeID {
			continue
		}
		for _, rate := range unit.Rates {
			if rate.RateID == rateID {
				f.selected = &domain.SelectedUnit{Unit: unit, SelectedRate: rate}
				f.step = domain.StepGuestDetails
				f.errMsg = ""
				return
			}
		}
	}
	f.errMsg = "Selected unit is no longer available"
}

// SubmitGuestDetails stores the guest form and, when the mandatory fields are
// present, advances to payment.
func (f *Flow) SubmitGuestDetails(g domain.GuestDetails) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != domain.StepGuestDetails {
		f.errMsg = "Guest details are not expected at this step"
		return
	}
	f.guest = g
	if !g.Complete() {
		f.errMsg = "Please fill in all required fields"
		return
	}
	f.errMsg = ""
	f.step = domain.StepPayment
}

// Back steps towards search without discarding entered data, so returning
// forward restores the guest form and the selection.
func (f *Flow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loading {
		return
	}
	switch f.step {
	case domain.StepPayment:
		f.step = domain.StepGuestDetails
	case domain.StepGuestDetails:
		f.step = domain.StepSearch
	}
	f.errMsg = ""
	f.fieldErrors = nil
}

// CreatePaymentIntent obtains the hosted payment element's client secret for
// the selected rate. Hosted variant only.
func (f *Flow) CreatePaymentIntent(ctx context.Context) (string, error) {
	f.mu.Lock()
	if f.variant != VariantHosted {
		f.mu.Unlock()
		return "", errors.New("payment intents are only used by the hosted variant")
	}
	if f.step != domain.StepPayment || f.selected == nil || f.confirmed == nil {
		f.mu.Unlock()
		return "", errors.New("no payment is due")
	}
	req := upstream.IntentRequest{
		Amount:   f.selected.SelectedRate.TotalPrice,
		Currency: f.selected.SelectedRate.Currency,
		BookingDetails: upstream.IntentBookingDetails{
			GuestName:    f.guest.FullName(),
			CheckIn:      format.ISO(f.confirmed.StartDate),
			CheckOut:     format.ISO(f.confirmed.EndDate),
			PropertyName: f.selected.PropertyName(),
			Nights:       f.selected.SelectedRate.Nights,
		},
	}
	gen := f.generation
	f.mu.Unlock()

	secret, err := f.payments.CreatePaymentIntent(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generation != gen {
		return "", errors.New("session was reset")
	}
	if err != nil {
		f.errMsg = err.Error()
		return "", err
	}
	return secret, nil
}

// SubmitPayment validates the input for the active variant, calls the booking
// endpoint and, on success, completes the flow. A call while another search
// or payment is in flight is a no-op, so a double submit can never charge
// twice. Raw card data is handed to the client and not retained.
func (f *Flow) SubmitPayment(ctx context.Context, input PaymentInput) {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return
	}
	if f.step != domain.StepPayment || f.selected == nil || f.confirmed == nil {
		f.errMsg = "No payment is due"
		f.mu.Unlock()
		return
	}

	f.fieldErrors = nil
	switch f.variant {
	case VariantDirect:
		if input.Card == nil {
			f.errMsg = "Payment details are required"
			f.mu.Unlock()
			return
		}
		if errs := input.Card.Validate(f.now()); len(errs) > 0 {
			f.fieldErrors = errs
			f.errMsg = "Please correct the highlighted payment fields"
			f.mu.Unlock()
			return
		}
	default:
		if input.PaymentIntentID == "" {
			f.errMsg = "Payment confirmation is missing"
			f.mu.Unlock()
			return
		}
	}

	rate := f.selected.SelectedRate
	req := upstream.BookingRequest{
		Guest:           f.guest,
		Stay:            *f.confirmed,
		RateID:          rate.RateID,
		InventoryTypeID: f.selected.InventoryTypeID,
		Amount:          rate.TotalPrice,
		Currency:        rate.Currency,
		Card:            input.Card,
		PaymentIntentID: input.PaymentIntentID,
	}
	variant := f.variant
	f.loading = true
	f.errMsg = ""
	gen := f.generation
	f.mu.Unlock()

	var result *domain.BookingResult
	var err error
	if variant == VariantDirect {
		result, err = f.payments.CreateBookingWithCard(ctx, req)
	} else {
		result, err = f.payments.CreateBookingWithIntent(ctx, req)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generation != gen {
		return
	}
	f.loading = false

	var partial *upstream.PartialPaymentError
	if errors.As(err, &partial) {
		// The charge went through but the booking did not. This must never
		// read as "try again": surface the processor reference for support.
		f.errMsg = fmt.Sprintf(
			"Your payment was processed but the booking could not be completed. Please contact support and quote payment reference %s.",
			partial.Reference)
		f.publish(ctx, kafka.BookingEvent{
			Type:             kafka.EventPaymentPartialFailure,
			GuestName:        f.guest.FullName(),
			Email:            f.guest.Email,
			Amount:           rate.TotalPrice,
			Currency:         rate.Currency,
			PaymentReference: partial.Reference,
		})
		return
	}
	if err != nil {
		f.errMsg = err.Error()
		return
	}

	f.booking = result
	f.step = domain.StepConfirmation
	f.logger.Info("booking confirmed",
		zap.String("session", f.id),
		zap.String("reference", result.BookingReference))
	f.publish(ctx, kafka.BookingEvent{
		Type:             kafka.EventBookingConfirmed,
		BookingReference: result.BookingReference,
		GuestName:        result.GuestName,
		Email:            f.guest.Email,
		Amount:           rate.TotalPrice,
		Currency:         rate.Currency,
		PaymentReference: result.PaymentReference,
	})
}

func (f *Flow) publish(ctx context.Context, event kafka.BookingEvent) {
	if f.producer == nil || f.eventsTopic == "" {
		return
	}
	event.SessionID = f.id
	event.At = f.now()
	if err := f.producer.Publish(ctx, f.eventsTopic, f.id, event); err != nil {
		f.logger.Warn("failed to publish booking event",
			zap.String("type", event.Type), zap.Error(err))
	}
}

// Reset returns the flow to an empty search. The generation bump makes any
// in-flight search or payment response a no-op when it eventually lands.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.step = domain.StepSearch
	f.selected = nil
	f.guest = domain.GuestDetails{}
	f.booking = nil
	f.errMsg = ""
	f.fieldErrors = nil
	f.loading = false
	f.generation++
}

var _ FlowUseCase = (*Flow)(nil)
