package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ammaritto/short-stay/internal/domain"
	"github.com/ammaritto/short-stay/internal/service/flow"
	"github.com/ammaritto/short-stay/internal/session"
	"github.com/ammaritto/short-stay/internal/upstream"
)

type stubAvailability struct {
	units []domain.Unit
	err   error
}

func (s *stubAvailability) SearchAvailability(ctx context.Context, cs domain.ConfirmedSearch) ([]domain.Unit, error) {
	return s.units, s.err
}

type stubPayments struct {
	secret    string
	intentErr error
	result    *domain.BookingResult
	err       error
}

func (s *stubPayments) CreatePaymentIntent(ctx context.Context, req upstream.IntentRequest) (string, error) {
	return s.secret, s.intentErr
}

func (s *stubPayments) CreateBookingWithCard(ctx context.Context, req upstream.BookingRequest) (*domain.BookingResult, error) {
	return s.result, s.err
}

func (s *stubPayments) CreateBookingWithIntent(ctx context.Context, req upstream.BookingRequest) (*domain.BookingResult, error) {
	return s.result, s.err
}

func stubUnits() []domain.Unit {
	return []domain.Unit{
		{
			BuildingID:        7,
			BuildingName:      "Ammaritto House",
			InventoryTypeID:   42,
			InventoryTypeName: "Studio",
			Rates: []domain.RateOption{
				{
					RateID:         301,
					RateName:       "Flexible",
					Currency:       "SEK",
					TotalPrice:     1000,
					AvgNightlyRate: 500,
					Nights:         2,
				},
			},
		},
	}
}

func setupRouter(availability flow.AvailabilityClient, payments flow.PaymentClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	store := session.NewStore(time.Minute, func(id string) *flow.Flow {
		return flow.New(id, availability, payments)
	})
	router := gin.New()
	handler := NewSessionHandler(store)
	handler.Register(router.Group("/sessions"))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var resp sessionResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func createSession(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(t, router, "POST", "/sessions/", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeSession(t, w)
	assert.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestSessionHandler_CreateAndGet(t *testing.T) {
	router := setupRouter(&stubAvailability{}, &stubPayments{})

	id := createSession(t, router)

	w := doJSON(t, router, "GET", "/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeSession(t, w)
	assert.Equal(t, id, resp.SessionID)
	assert.Equal(t, domain.StepSearch, resp.State.Step)
	assert.Equal(t, 1, resp.State.Guests)
	assert.NotEmpty(t, resp.State.StartDate)
}

func TestSessionHandler_GetUnknownSession(t *testing.T) {
	router := setupRouter(&stubAvailability{}, &stubPayments{})

	w := doJSON(t, router, "GET", "/sessions/no-such-session", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_Delete(t *testing.T) {
	router := setupRouter(&stubAvailability{}, &stubPayments{})
	id := createSession(t, router)

	w := doJSON(t, router, "DELETE", "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, "GET", "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_UpdateCriteria(t *testing.T) {
	router := setupRouter(&stubAvailability{}, &stubPayments{})
	id := createSession(t, router)

	w := doJSON(t, router, "PUT", "/sessions/"+id+"/criteria", criteriaRequest{
		StartDate: "2025-07-10",
		EndDate:   "2025-07-12",
		Guests:    2,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeSession(t, w)
	assert.Equal(t, "2025-07-10", resp.State.StartDate)
	assert.Equal(t, "2025-07-12", resp.State.EndDate)
	assert.Equal(t, 2, resp.State.Guests)
	assert.Equal(t, 2, resp.State.Nights)
}

func TestSessionHandler_UpdateCriteria_BadDate(t *testing.T) {
	router := setupRouter(&stubAvailability{}, &stubPayments{})
	id := createSession(t, router)

	w := doJSON(t, router, "PUT", "/sessions/"+id+"/criteria", criteriaRequest{
		StartDate: "10/07/2025",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_ToggleCommunity(t *testing.T) {
	router := setupRouter(&stubAvailability{}, &stubPayments{})
	id := createSession(t, router)

	w := doJSON(t, router, "POST", "/sessions/"+id+"/communities/3", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{3}, decodeSession(t, w).State.Communities)

	w = doJSON(t, router, "POST", "/sessions/"+id+"/communities/3", nil)
	assert.Empty(t, decodeSession(t, w).State.Communities)

	w = doJSON(t, router, "POST", "/sessions/"+id+"/communities/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_GuardFailureIsNotTransportError(t *testing.T) {
	router := setupRouter(&stubAvailability{units: stubUnits()}, &stubPayments{})
	id := createSession(t, router)

	// Selecting before a search is a flow rejection, not an HTTP error.
	w := doJSON(t, router, "POST", "/sessions/"+id+"/select", selectRequest{InventoryTypeID: 42, RateID: 301})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeSession(t, w)
	assert.Equal(t, domain.StepSearch, resp.State.Step)
	assert.Equal(t, "Search for availability before selecting a unit", resp.State.Error)
}

func TestSessionHandler_BadJSONBody(t *testing.T) {
	router := setupRouter(&stubAvailability{}, &stubPayments{})
	id := createSession(t, router)

	req := httptest.NewRequest("POST", "/sessions/"+id+"/select", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_SearchError(t *testing.T) {
	router := setupRouter(&stubAvailability{err: errors.New("availability service unavailable")}, &stubPayments{})
	id := createSession(t, router)

	w := doJSON(t, router, "POST", "/sessions/"+id+"/search", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeSession(t, w)
	assert.True(t, resp.State.HasSearched)
	assert.Equal(t, "availability service unavailable", resp.State.Error)
}

func TestSessionHandler_PaymentIntentError(t *testing.T) {
	router := setupRouter(&stubAvailability{}, &stubPayments{intentErr: errors.New("processor unavailable")})
	id := createSession(t, router)

	w := doJSON(t, router, "POST", "/sessions/"+id+"/payment-intent", nil)

	// No unit is selected yet, so the flow rejects the intent outright.
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_FullJourney(t *testing.T) {
	payments := &stubPayments{
		secret: "pi_123_secret",
		result: &domain.BookingResult{
			BookingID:        9001,
			BookingReference: "AMM-9001",
			Status:           "Confirmed",
			GuestName:        "Anna Svensson",
			CheckIn:          "2025-07-10",
			CheckOut:         "2025-07-12",
			PaymentReference: "pay_77",
			PaymentAmount:    1000,
		},
	}
	router := setupRouter(&stubAvailability{units: stubUnits()}, payments)
	id := createSession(t, router)

	w := doJSON(t, router, "PUT", "/sessions/"+id+"/criteria", criteriaRequest{
		StartDate: "2025-07-10",
		EndDate:   "2025-07-12",
		Guests:    2,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "POST", "/sessions/"+id+"/search", nil)
	resp := decodeSession(t, w)
	assert.True(t, resp.State.HasSearched)
	assert.Len(t, resp.State.Results, 1)

	w = doJSON(t, router, "POST", "/sessions/"+id+"/select", selectRequest{InventoryTypeID: 42, RateID: 301})
	resp = decodeSession(t, w)
	assert.Equal(t, domain.StepGuestDetails, resp.State.Step)

	w = doJSON(t, router, "POST", "/sessions/"+id+"/guest-details", domain.GuestDetails{
		FirstName: "Anna",
		LastName:  "Svensson",
		Email:     "anna@example.com",
	})
	resp = decodeSession(t, w)
	assert.Equal(t, domain.StepPayment, resp.State.Step)

	w = doJSON(t, router, "POST", "/sessions/"+id+"/payment-intent", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var intent intentResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &intent))
	assert.Equal(t, "pi_123_secret", intent.ClientSecret)

	w = doJSON(t, router, "POST", "/sessions/"+id+"/payment", paymentRequest{PaymentIntentID: "pi_123"})
	resp = decodeSession(t, w)
	assert.Equal(t, domain.StepConfirmation, resp.State.Step)
	if assert.NotNil(t, resp.State.Booking) {
		assert.Equal(t, "AMM-9001", resp.State.Booking.BookingReference)
	}

	w = doJSON(t, router, "POST", "/sessions/"+id+"/reset", nil)
	resp = decodeSession(t, w)
	assert.Equal(t, domain.StepSearch, resp.State.Step)
	assert.Nil(t, resp.State.Booking)
}

func TestSessionHandler_Back(t *testing.T) {
	router := setupRouter(&stubAvailability{units: stubUnits()}, &stubPayments{})
	id := createSession(t, router)

	doJSON(t, router, "POST", "/sessions/"+id+"/search", nil)
	doJSON(t, router, "POST", "/sessions/"+id+"/select", selectRequest{InventoryTypeID: 42, RateID: 301})

	w := doJSON(t, router, "POST", "/sessions/"+id+"/back", nil)
	resp := decodeSession(t, w)
	assert.Equal(t, domain.StepSearch, resp.State.Step)
	assert.NotNil(t, resp.State.Selected)
}
