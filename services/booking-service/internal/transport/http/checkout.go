package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/service"
)

type initializeBody struct {
	Email     string `json:"email"`
	ListingID string `json:"listingId" binding:"required"`
	Nights    int    `json:"nights"`
	Title     string `json:"title"`
	CheckIn   string `json:"checkIn"`
	CheckOut  string `json:"checkOut"`
}

// POST /api/payments/paystack/initialize
func (s *Server) initializeCheckout(c *gin.Context) {
	var body initializeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	email := body.Email
	if email == "" {
		email = c.GetString(ctxEmail)
	}
	res, err := s.checkout.Initialize(c.Request.Context(), service.CheckoutInput{
		Email:     email,
		ListingID: body.ListingID,
		Nights:    body.Nights,
		Title:     body.Title,
		UserID:    c.GetString(ctxSub),
		CheckIn:   body.CheckIn,
		CheckOut:  body.CheckOut,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type verifyBody struct {
	BookingID string `json:"bookingId"`
	Reference string `json:"reference"`
	Provider  string `json:"provider"`
}

// POST /api/payments/paystack/verify
func (s *Server) verifyCheckout(c *gin.Context) {
	var body verifyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if body.BookingID == "" && body.Reference == "" {
		abort(c, http.StatusBadRequest, "invalid_body", "bookingId or reference is required")
		return
	}
	b, v, err := s.checkout.Verify(c.Request.Context(), body.BookingID, body.Reference, body.Provider)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := gin.H{"ok": v.Success, "status": v.Status}
	if b != nil {
		out["booking"] = toJSON(b)
	}
	c.JSON(http.StatusOK, out)
}
