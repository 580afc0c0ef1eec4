// Package httpx is the booking service's HTTP surface.
package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/johnagbike-dotcom/nesta-server/pkg/auth"
	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/service"
	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/webhook"
)

type Server struct {
	verifier *webhook.Verifier
	bookings *service.BookingSvc
	ledger   *service.LedgerSvc
	contacts *service.ContactSvc
	checkout *service.CheckoutSvc
	signer   *auth.Signer
	log      *logrus.Entry
}

type Deps struct {
	Verifier *webhook.Verifier
	Bookings *service.BookingSvc
	Ledger   *service.LedgerSvc
	Contacts *service.ContactSvc
	Checkout *service.CheckoutSvc
	Signer   *auth.Signer
	Log      *logrus.Entry
}

func NewServer(d Deps) *Server {
	return &Server{
		verifier: d.Verifier,
		bookings: d.Bookings,
		ledger:   d.Ledger,
		contacts: d.Contacts,
		checkout: d.Checkout,
		signer:   d.Signer,
		log:      d.Log.WithField("component", "http"),
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLog(s.log))

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	paystack := s.webhook(domain.ProviderPaystack)
	flutterwave := s.webhook(domain.ProviderFlutterwave)
	for _, p := range []string{"/api/webhooks/paystack", "/api/paystack/webhook", "/webhooks/provider-a"} {
		r.POST(p, paystack)
	}
	for _, p := range []string{"/api/webhooks/flutterwave", "/api/flutterwave/webhook", "/webhooks/provider-b"} {
		r.POST(p, flutterwave)
	}

	api := r.Group("/api")
	secured := api.Group("")
	secured.Use(JWTAuth(s.signer))
	{
		secured.GET("/bookings/:id/contacts", s.revealContact)
		secured.GET("/bookings/:id/contact", s.revealContact)

		pay := secured.Group("/payments/paystack")
		pay.POST("/initialize", s.initializeCheckout)
		pay.POST("/verify", s.verifyCheckout)

		admin := secured.Group("")
		admin.Use(RequireRole(auth.RoleAdmin))
		admin.PATCH("/bookings/:id/status", s.setBookingStatus)
		admin.POST("/bookings/:id/status", s.setBookingStatus)
		for _, st := range []domain.Status{domain.StatusConfirmed, domain.StatusCancelled, domain.StatusRefunded} {
			admin.POST("/bookings/:id/"+string(st), s.setBookingStatusTo(st))
		}
		admin.POST("/bookings/:id/cancel", s.cancelBooking)
		admin.POST("/bookings/:id/refund", s.refundBooking)
		admin.GET("/admin/bookings", s.listBookings)
		admin.GET("/admin/bookings/:id", s.getBooking)
		admin.GET("/admin/payouts", s.listPayouts)
		admin.PATCH("/admin/payouts/:id/status", s.setPayoutStatus)
	}
	return r
}
