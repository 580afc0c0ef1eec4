package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/webhook"
)

// webhook authenticates the raw body, normalizes it and hands successful
// charges to the engine. Anything past authentication answers 200 so the
// provider does not retry.
func (s *Server) webhook(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := s.log.WithField("provider", provider)
		raw, err := c.GetRawData()
		if err != nil {
			c.String(http.StatusBadRequest, "Bad request")
			return
		}
		if err := s.verifier.Verify(provider, raw, c.Request.Header); err != nil {
			if errors.Is(err, domain.ErrMissingSecret) {
				log.WithError(err).Error("webhook secret not configured")
				c.String(http.StatusInternalServerError, "Webhook not configured")
				return
			}
			log.Warn("webhook signature rejected")
			c.String(http.StatusUnauthorized, "Invalid signature")
			return
		}

		ev, err := webhook.Normalize(provider, raw)
		if err != nil {
			log.WithError(err).Error("webhook payload could not be read")
			c.String(http.StatusOK, "ok")
			return
		}
		if ev == nil {
			c.String(http.StatusOK, "Ignored")
			return
		}
		if ev.Status != domain.EventSuccess {
			log.WithField("reference", ev.Reference).Info("non-success charge")
			c.String(http.StatusOK, "Non-success")
			return
		}
		b, err := s.bookings.ApplyWebhookEvent(c.Request.Context(), *ev)
		if err != nil {
			log.WithError(err).WithField("reference", ev.Reference).Error("webhook processing failed")
			c.String(http.StatusOK, "ok")
			return
		}
		if b != nil {
			log.WithFields(logrus.Fields{"booking_id": b.ID, "status": b.Status}).Info("webhook handled")
		}
		c.String(http.StatusOK, "Handled")
	}
}
