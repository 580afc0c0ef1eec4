package httpx

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/service"
)

// GET /api/admin/payouts?tab=&q=&from=&to=
func (s *Server) listPayouts(c *gin.Context) {
	from, ok := queryTime(c, "from", false)
	if !ok {
		return
	}
	to, ok := queryTime(c, "to", true)
	if !ok {
		return
	}
	rows, err := s.ledger.BuildView(c.Request.Context(), service.ViewFilter{
		Status: c.DefaultQuery("tab", c.Query("status")),
		Query:  c.Query("q"),
		From:   from,
		To:     to,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	if rows == nil {
		rows = []domain.Payout{}
	}
	c.JSON(http.StatusOK, gin.H{"items": rows, "total": len(rows)})
}

// PATCH /api/admin/payouts/:id/status {"status": "..."}
func (s *Server) setPayoutStatus(c *gin.Context) {
	var in struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		abort(c, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	p, err := s.ledger.SetStatus(c.Request.Context(), c.Param("id"), in.Status)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "payout": p})
}

// queryTime reads an optional date; a date-only upper bound covers the whole day.
func queryTime(c *gin.Context, key string, endOfDay bool) (time.Time, bool) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, true
	}
	t, ok := domain.ParseTimeLoose(v)
	if !ok {
		abort(c, http.StatusBadRequest, "invalid_"+key, "Expected a date such as 2025-01-31")
		return time.Time{}, false
	}
	if endOfDay && len(v) == len("2006-01-02") {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}
