// Package upstream calls the remote availability/booking API. All business
// logic (pricing, payment capture, persistence) lives behind that API; this
// client only maps its request/response contracts.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ammaritto/short-stay/internal/card"
	"github.com/ammaritto/short-stay/internal/domain"
	"github.com/ammaritto/short-stay/internal/format"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// PartialPaymentError reports the paid-but-unbooked case: the processor
// captured the charge but the booking record failed to persist. Reference is
// the processor's transaction reference for support follow-up.
type PartialPaymentError struct {
	Reference string
	Message   string
}

func (e *PartialPaymentError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "payment captured but booking was not created"
}

// flexFloat tolerates numeric fields the server sends as either JSON numbers
// or quoted strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

type ratePayload struct {
	RateID         int       `json:"rateId"`
	RateName       string    `json:"rateName"`
	Currency       string    `json:"currency"`
	CurrencySymbol string    `json:"currencySymbol"`
	AvgNightlyRate flexFloat `json:"avgNightlyRate"`
	Description    string    `json:"description"`
}

type unitPayload struct {
	BuildingID        int           `json:"buildingId"`
	BuildingName      string        `json:"buildingName"`
	InventoryTypeID   int           `json:"inventoryTypeId"`
	InventoryTypeName string        `json:"inventoryTypeName"`
	Rates             []ratePayload `json:"rates"`
}

type searchEnvelope struct {
	Success bool          `json:"success"`
	Data    []unitPayload `json:"data"`
	Message string        `json:"message"`
	Error   string        `json:"error"`
}

// SearchAvailability issues one GET per search and maps the response into
// units priced for the confirmed stay.
func (c *Client) SearchAvailability(ctx context.Context, cs domain.ConfirmedSearch) ([]domain.Unit, error) {
	q := url.Values{}
	q.Set("startDate", format.ISO(cs.StartDate))
	q.Set("endDate", format.ISO(cs.EndDate))
	q.Set("guests", strconv.Itoa(cs.Guests))
	if len(cs.Communities) > 0 {
		ids := make([]string, len(cs.Communities))
		for i, id := range cs.Communities {
			ids[i] = strconv.Itoa(id)
		}
		q.Set("communities", strings.Join(ids, ","))
	}

	var env searchEnvelope
	if err := c.get(ctx, "/availability/search?"+q.Encode(), &env); err != nil {
		return nil, err
	}
	if !env.Success || env.Data == nil {
		return nil, fmt.Errorf("%s", firstNonEmpty(env.Message, env.Error, "No availability found"))
	}

	nights := cs.Nights()
	units := make([]domain.Unit, 0, len(env.Data))
	for _, p := range env.Data {
		unit := domain.Unit{
			BuildingID:        p.BuildingID,
			BuildingName:      firstNonEmpty(p.BuildingName, "Unknown Building"),
			InventoryTypeID:   p.InventoryTypeID,
			InventoryTypeName: firstNonEmpty(p.InventoryTypeName, "Unknown Unit"),
		}
		for _, r := range p.Rates {
			nightly := float64(r.AvgNightlyRate)
			unit.Rates = append(unit.Rates, domain.RateOption{
				RateID:         r.RateID,
				RateName:       firstNonEmpty(r.RateName, "Standard Rate"),
				Currency:       firstNonEmpty(r.Currency, "SEK"),
				CurrencySymbol: firstNonEmpty(r.CurrencySymbol, "SEK"),
				// The total is always nightly rate times nights; any total the
				// server sends is discarded here, discounts included.
				TotalPrice:     nightly * float64(nights),
				AvgNightlyRate: nightly,
				Nights:         nights,
				Description:    r.Description,
			})
		}
		units = append(units, unit)
	}
	return units, nil
}

// BookingRequest carries everything the booking-creation endpoint needs.
// Exactly one of Card and PaymentIntentID is set, depending on the payment
// variant.
type BookingRequest struct {
	Guest           domain.GuestDetails
	Stay            domain.ConfirmedSearch
	RateID          int
	InventoryTypeID int
	Amount          float64
	Currency        string
	Card            *card.Details
	PaymentIntentID string
}

type stayPayload struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Guests    int    `json:"guests"`
}

type unitDetailsPayload struct {
	RateID          int `json:"rateId"`
	InventoryTypeID int `json:"inventoryTypeId"`
}

type paymentDetailsPayload struct {
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency,omitempty"`
	CardNumber      string  `json:"cardNumber,omitempty"`
	CardholderName  string  `json:"cardholderName,omitempty"`
	ExpiryMonth     string  `json:"expiryMonth,omitempty"`
	ExpiryYear      string  `json:"expiryYear,omitempty"`
	CVV             string  `json:"cvv,omitempty"`
	PaymentIntentID string  `json:"paymentIntentId,omitempty"`
}

type bookingPayload struct {
	GuestDetails   domain.GuestDetails   `json:"guestDetails"`
	StayDetails    stayPayload           `json:"stayDetails"`
	UnitDetails    unitDetailsPayload    `json:"unitDetails"`
	PaymentDetails paymentDetailsPayload `json:"paymentDetails"`
}

type bookingEnvelope struct {
	Success          bool                  `json:"success"`
	Data             *domain.BookingResult `json:"data"`
	Message          string                `json:"message"`
	PaymentCaptured  bool                  `json:"paymentCaptured"`
	PaymentReference string                `json:"paymentReference"`
}

// CreateBookingWithCard is the legacy direct-capture path: raw card fields go
// straight to the booking endpoint, which charges and persists as one opaque
// call. Deprecated in favour of CreateBookingWithIntent.
func (c *Client) CreateBookingWithCard(ctx context.Context, req BookingRequest) (*domain.BookingResult, error) {
	if req.Card == nil {
		return nil, fmt.Errorf("card details are required")
	}
	payload := bookingPayloadFor(req)
	payload.PaymentDetails.CardNumber = strings.ReplaceAll(req.Card.Number, " ", "")
	payload.PaymentDetails.CardholderName = req.Card.HolderName
	payload.PaymentDetails.ExpiryMonth = req.Card.ExpiryMonth
	payload.PaymentDetails.ExpiryYear = req.Card.ExpiryYear
	payload.PaymentDetails.CVV = req.Card.CVV
	return c.createBooking(ctx, payload, "")
}

// CreateBookingWithIntent attaches the processor's confirmed payment-intent
// id instead of card data.
func (c *Client) CreateBookingWithIntent(ctx context.Context, req BookingRequest) (*domain.BookingResult, error) {
	if req.PaymentIntentID == "" {
		return nil, fmt.Errorf("payment intent id is required")
	}
	payload := bookingPayloadFor(req)
	payload.PaymentDetails.Currency = req.Currency
	payload.PaymentDetails.PaymentIntentID = req.PaymentIntentID
	return c.createBooking(ctx, payload, req.PaymentIntentID)
}

func bookingPayloadFor(req BookingRequest) bookingPayload {
	return bookingPayload{
		GuestDetails: req.Guest,
		StayDetails: stayPayload{
			StartDate: format.ISO(req.Stay.StartDate),
			EndDate:   format.ISO(req.Stay.EndDate),
			Guests:    req.Stay.Guests,
		},
		UnitDetails: unitDetailsPayload{
			RateID:          req.RateID,
			InventoryTypeID: req.InventoryTypeID,
		},
		PaymentDetails: paymentDetailsPayload{Amount: req.Amount},
	}
}

func (c *Client) createBooking(ctx context.Context, payload bookingPayload, intentID string) (*domain.BookingResult, error) {
	var env bookingEnvelope
	if err := c.post(ctx, "/booking/create-with-payment", payload, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		msg := firstNonEmpty(env.Message, "Failed to process payment and create booking")
		if env.PaymentCaptured {
			ref := firstNonEmpty(env.PaymentReference, intentID)
			c.logger.Error("payment captured but booking not persisted", zap.String("paymentReference", ref))
			return nil, &PartialPaymentError{Reference: ref, Message: msg}
		}
		return nil, fmt.Errorf("%s", msg)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("booking response had no data")
	}
	return env.Data, nil
}

// IntentRequest asks the backend for a hosted payment-element client secret.
type IntentRequest struct {
	Amount         float64              `json:"amount"`
	Currency       string               `json:"currency"`
	BookingDetails IntentBookingDetails `json:"bookingDetails"`
}

type IntentBookingDetails struct {
	GuestName    string `json:"guestName"`
	CheckIn      string `json:"checkIn"`
	CheckOut     string `json:"checkOut"`
	PropertyName string `json:"propertyName"`
	Nights       int    `json:"nights"`
}

type intentEnvelope struct {
	Success      bool   `json:"success"`
	ClientSecret string `json:"clientSecret"`
	Error        string `json:"error"`
}

// CreatePaymentIntent obtains the client-side confirmation handle for the
// hosted payment element.
func (c *Client) CreatePaymentIntent(ctx context.Context, req IntentRequest) (string, error) {
	var env intentEnvelope
	if err := c.post(ctx, "/payment/create-intent", req, &env); err != nil {
		return "", err
	}
	if !env.Success || env.ClientSecret == "" {
		return "", fmt.Errorf("%s", firstNonEmpty(env.Error, "Failed to initialize payment"))
	}
	return env.ClientSecret, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed", zap.String("url", req.URL.Path), zap.Error(err))
		return fmt.Errorf("call booking API: %w", err)
	}
	defer resp.Body.Close()

	// Failure outcomes ride in the envelope, so the body is decoded whatever
	// the status code; only an undecodable body is reported by status.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unexpected response from booking API (status %d)", resp.StatusCode)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
