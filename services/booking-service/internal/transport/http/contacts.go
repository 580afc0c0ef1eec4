package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/service"
)

// GET /api/bookings/:id/contacts
func (s *Server) revealContact(c *gin.Context) {
	contact, err := s.contacts.Reveal(c.Request.Context(), c.Param("id"), service.Requester{
		ID:    c.GetString(ctxSub),
		Email: c.GetString(ctxEmail),
		Role:  c.GetString(ctxRole),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "contact": contact})
}
