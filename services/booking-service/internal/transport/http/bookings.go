package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/service"
)

type bookingJSON struct {
	ID              string     `json:"id"`
	Reference       string     `json:"reference,omitempty"`
	Status          string     `json:"status"`
	ListingID       string     `json:"listingId,omitempty"`
	Title           string     `json:"title,omitempty"`
	GuestEmail      string     `json:"guestEmail,omitempty"`
	HostID          string     `json:"hostId,omitempty"`
	HostEmail       string     `json:"hostEmail,omitempty"`
	Nights          int        `json:"nights,omitempty"`
	Amount          float64    `json:"amount"`
	Currency        string     `json:"currency"`
	Provider        string     `json:"provider,omitempty"`
	CheckIn         *time.Time `json:"checkIn,omitempty"`
	CheckOut        *time.Time `json:"checkOut,omitempty"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
	CancelRequested bool       `json:"cancelRequested"`
	RefundRequested bool       `json:"refundRequested"`
	ContactReleased bool       `json:"contactReleased"`
}

func toJSON(b *domain.Booking) bookingJSON {
	return bookingJSON{
		ID:              b.ID,
		Reference:       b.Reference,
		Status:          string(b.Status),
		ListingID:       b.ListingID,
		Title:           b.Doc.String("title", "listingTitle"),
		GuestEmail:      b.GuestEmail,
		HostID:          b.HostID,
		HostEmail:       b.HostEmail,
		Nights:          b.Nights,
		Amount:          b.Gross,
		Currency:        b.Currency,
		Provider:        b.Provider,
		CheckIn:         optionalTime(b.CheckIn),
		CheckOut:        optionalTime(b.CheckOut),
		CreatedAt:       optionalTime(b.CreatedAt),
		UpdatedAt:       optionalTime(b.UpdatedAt),
		CancelRequested: b.CancelRequested,
		RefundRequested: b.RefundRequested,
		ContactReleased: b.ContactReleased,
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// PATCH|POST /api/bookings/:id/status {"status": "..."}
func (s *Server) setBookingStatus(c *gin.Context) {
	var in struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		abort(c, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	b, err := s.bookings.SetStatus(c.Request.Context(), c.Param("id"), in.Status, actor(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "booking": toJSON(b)})
}

// POST /api/bookings/:id/{confirmed,cancelled,refunded}
func (s *Server) setBookingStatusTo(st domain.Status) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := s.bookings.SetStatus(c.Request.Context(), c.Param("id"), string(st), actor(c))
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "booking": toJSON(b)})
	}
}

// POST /api/bookings/:id/cancel {"reason": "..."}
func (s *Server) cancelBooking(c *gin.Context) {
	var in struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&in)
	b, err := s.bookings.Cancel(c.Request.Context(), c.Param("id"), in.Reason, actor(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "booking": toJSON(b)})
}

// POST /api/bookings/:id/refund {"note": "...", "reference": "..."}
func (s *Server) refundBooking(c *gin.Context) {
	var in struct {
		Note      string `json:"note"`
		Reference string `json:"reference"`
	}
	_ = c.ShouldBindJSON(&in)
	b, err := s.bookings.Refund(c.Request.Context(), c.Param("id"), service.RefundInput{
		Note:      in.Note,
		Reference: in.Reference,
		Actor:     actor(c),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "booking": toJSON(b)})
}

// GET /api/admin/bookings/:id
func (s *Server) getBooking(c *gin.Context) {
	b, err := s.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toJSON(b))
}

// GET /api/admin/bookings?status=&q=&page=1&limit=20
func (s *Server) listBookings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	res, err := s.bookings.List(c.Request.Context(), service.ListFilter{
		Status: c.Query("status"),
		Query:  c.Query("q"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	items := make([]bookingJSON, 0, len(res.Items))
	for i := range res.Items {
		items = append(items, toJSON(&res.Items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "page": res.Page, "limit": res.Limit, "total": res.Total})
}
