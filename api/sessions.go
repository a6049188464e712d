package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ammaritto/short-stay/internal/card"
	"github.com/ammaritto/short-stay/internal/domain"
	"github.com/ammaritto/short-stay/internal/format"
	"github.com/ammaritto/short-stay/internal/service/flow"
	"github.com/ammaritto/short-stay/internal/session"
)

// SessionHandler exposes one booking flow per session over JSON. Guard
// failures inside the flow are not transport errors: the response is 200 and
// the rejection travels in the state's error field.
type SessionHandler struct {
	store *session.Store
}

type criteriaRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Guests    int    `json:"guests"`
}

type selectRequest struct {
	InventoryTypeID int `json:"inventoryTypeId"`
	RateID          int `json:"rateId"`
}

type paymentRequest struct {
	Card            *card.Details `json:"card,omitempty"`
	PaymentIntentID string        `json:"paymentIntentId,omitempty"`
}

type sessionResponse struct {
	SessionID string     `json:"sessionId"`
	State     flow.State `json:"state"`
}

type intentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

func NewSessionHandler(store *session.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

func (h *SessionHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.remove)
	router.PUT("/:id/criteria", h.updateCriteria)
	router.POST("/:id/communities/:communityId", h.toggleCommunity)
	router.POST("/:id/search", h.search)
	router.POST("/:id/select", h.selectUnit)
	router.POST("/:id/guest-details", h.guestDetails)
	router.POST("/:id/payment-intent", h.paymentIntent)
	router.POST("/:id/payment", h.payment)
	router.POST("/:id/back", h.back)
	router.POST("/:id/reset", h.reset)
}

func (h *SessionHandler) lookup(c *gin.Context) (*flow.Flow, string, bool) {
	id := c.Param("id")
	f, ok := h.store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, id, false
	}
	return f, id, true
}

func respond(c *gin.Context, status int, id string, f *flow.Flow) {
	c.JSON(status, sessionResponse{SessionID: id, State: f.Snapshot()})
}

func (h *SessionHandler) create(c *gin.Context) {
	id, f := h.store.Create()
	respond(c, http.StatusCreated, id, f)
}

func (h *SessionHandler) get(c *gin.Context) {
	f, id, ok := h.lookup(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, id, f)
}

func (h *SessionHandler) remove(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.store.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	h.store.Delete(id)
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) updateCriteria(c *gin.Context) {
	f, id, ok := h.lookup(c)
	if !ok {
		return
	}
	var req criteriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "startDate must be formatted as YYYY-MM-DD"})
		return
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must be formatted as YYYY-MM-DD"})
		return
	}

	f.SetDates(start, end)
	if req.Guests > 0 {
		f.SetGuests(req.Guests)
	}
	respond(c, http.StatusOK, id, f)
}

func (h *SessionHandler) toggleCommunity(c *gin.Context) {
	f, id, ok := h.lookup(c)
	if !ok {
		return
	}
	communityID, err := strconv.Atoi(c.Param("communityId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "communityId must be an integer"})
		return
	}
	f.ToggleCommunity(communityID)
	respond(c, http.StatusOK, id, f)
}

func (h *SessionHandler) search(c *gin.Context) {
	f, id, ok := h.lookup(c)
	if !ok {
		return
	}
	f.ExecuteSearch(c.Request.Context())
	respond(c, http.StatusOK, id, f)
}

func (h *SessionHandler) selectUnit(c *gin.Context) {
	f, id, ok := h.lookup(c)
	if !ok {
		return
	}
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f.SelectUnit(req.InventoryTypeID, req.RateID)
	respond(c, http.StatusOK, id, f)
}

func (h *SessionHandler) guestDetails(c *gin.Context) {
	f, id, ok := h.lookup(c)
	if !ok {
		return
	}
	var req domain.GuestDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f.SubmitGuestDetails(req)
	respond(c, http.StatusOK, id, f)
}

func (h *SessionHandler) paymentIntent(c *gin.Context) {
	f, _, ok := h.lookup(c)
	if !ok {
		return
	}
	secret, err := f.CreatePaymentIntent(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, intentResponse{ClientSecret: secret})
}

func (h *SessionHandler) payment(c *gin.Context) {
	f, id, ok := h.lookup(c)
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f.SubmitPayment(c.Request.Context(), flow.PaymentInput{
		Card:            req.Card,
		PaymentIntentID: req.PaymentIntentID,
	})
	respond(c, http.StatusOK, id, f)
}

func (h *SessionHandler) back(c *gin.Context) {
	f, id, ok := h.lookup(c)
	if !ok {
		return
	}
	f.Back()
	respond(c, http.StatusOK, id, f)
}

func (h *SessionHandler) reset(c *gin.Context) {
	f, id, ok := h.lookup(c)
	if !ok {
		return
	}
	f.Reset()
	respond(c, http.StatusOK, id, f)
}

func parseOptionalDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return format.ParseISO(value)
}
