package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/domain"
	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/lock"
	"github.com/johnagbike-dotcom/nesta-server/services/booking-service/internal/service"
)

type errorBody struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Allowed []string `json:"allowed,omitempty"`
}

// statusFor maps service errors onto HTTP status and a stable error code.
func statusFor(err error) (int, errorBody) {
	var (
		inv    *domain.InvalidValueError
		trans  *domain.TransitionError
		denial *service.DenialError
	)
	switch {
	case errors.As(err, &inv):
		return http.StatusBadRequest, errorBody{Error: "invalid_" + inv.Field, Message: inv.Error(), Allowed: inv.Allowed}
	case errors.As(err, &denial):
		if denial.Code == service.DenyNotFound {
			return http.StatusNotFound, errorBody{Error: denial.Code, Message: denial.Message}
		}
		return http.StatusForbidden, errorBody{Error: denial.Code, Message: denial.Message}
	case errors.As(err, &trans):
		return http.StatusConflict, errorBody{Error: "invalid_transition", Message: trans.Error(), Allowed: domain.NextStatuses(trans.From)}
	case errors.Is(err, domain.ErrAlreadyCancelled),
		errors.Is(err, domain.ErrAlreadyRefunded),
		errors.Is(err, domain.ErrTerminal):
		return http.StatusConflict, errorBody{Error: rootCode(err), Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "not_found", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusUnauthorized, errorBody{Error: "invalid_signature", Message: "Invalid signature"}
	case errors.Is(err, domain.ErrMissingSecret):
		return http.StatusInternalServerError, errorBody{Error: "missing_secret", Message: err.Error()}
	case errors.Is(err, lock.ErrNotAcquired):
		return http.StatusConflict, errorBody{Error: "booking_busy", Message: "Booking is being updated, retry shortly"}
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, errorBody{Error: "store_unavailable", Message: "Storage is unavailable"}
	}
	return http.StatusInternalServerError, errorBody{Error: "internal", Message: "Internal error"}
}

func rootCode(err error) string {
	for _, s := range []error{domain.ErrAlreadyCancelled, domain.ErrAlreadyRefunded, domain.ErrTerminal} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "conflict"
}

func (s *Server) fail(c *gin.Context, err error) {
	code, body := statusFor(err)
	if code >= 500 {
		s.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.AbortWithStatusJSON(code, body)
}

func abort(c *gin.Context, code int, errCode, msg string) {
	c.AbortWithStatusJSON(code, errorBody{Error: errCode, Message: msg})
}
