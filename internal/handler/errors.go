package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/foodhub/internal/domain/catalog"
	"github.com/xenking/foodhub/internal/domain/offer"
	"github.com/xenking/foodhub/internal/domain/order"
)

var errUnauthorized = errors.New("unauthorized")

// apiError is the JSON error body.
type apiError struct {
	Status  int
	Code    string
	Message string
	Field   string
}

// mapError translates domain errors to HTTP responses.
func mapError(err error) apiError {
	var (
		vErr  *order.ValidationError
		itErr *order.IllegalTransitionError
		pErr  *order.PersistenceError
	)
	switch {
	case errors.Is(err, errBadRequest):
		return apiError{Status: http.StatusBadRequest, Code: "bad_request", Message: err.Error()}
	case errors.As(err, &vErr):
		status := http.StatusUnprocessableEntity
		if vErr.Field == "items" {
			// An empty cart is a malformed request rather than bad content.
			status = http.StatusBadRequest
		}
		return apiError{Status: status, Code: "validation", Message: vErr.Error(), Field: vErr.Field}
	case errors.Is(err, catalog.ErrNotFound):
		return apiError{Status: http.StatusNotFound, Code: "not_found", Message: err.Error()}
	case errors.Is(err, offer.ErrOfferInactive):
		return apiError{Status: http.StatusUnprocessableEntity, Code: "offer_inactive", Message: err.Error(), Field: "offerId"}
	case errors.Is(err, offer.ErrOfferNotFound):
		return apiError{Status: http.StatusUnprocessableEntity, Code: "offer_not_found", Message: err.Error(), Field: "offerId"}
	case errors.Is(err, offer.ErrUnknownCoupon):
		return apiError{Status: http.StatusUnprocessableEntity, Code: "unknown_coupon", Message: err.Error(), Field: "couponCode"}
	case errors.As(err, &itErr):
		return apiError{Status: http.StatusConflict, Code: "illegal_transition", Message: itErr.Error()}
	case errors.Is(err, order.ErrStatusConflict):
		return apiError{Status: http.StatusConflict, Code: "status_conflict", Message: err.Error()}
	case errors.Is(err, order.ErrOrderNotFound):
		return apiError{Status: http.StatusNotFound, Code: "not_found", Message: err.Error()}
	case errors.Is(err, order.ErrForbidden):
		return apiError{Status: http.StatusForbidden, Code: "forbidden", Message: err.Error()}
	case errors.Is(err, errUnauthorized):
		return apiError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "missing or invalid api_key"}
	case errors.As(err, &pErr):
		return apiError{Status: http.StatusServiceUnavailable, Code: "unavailable", Message: "storage is temporarily unavailable"}
	default:
		return apiError{Status: http.StatusInternalServerError, Code: "internal", Message: "internal error"}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae := mapError(err)
	if ae.Status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	}
	writeJSON(w, ae.Status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Str(ae.Code) })
			e.Field("message", func(e *jx.Encoder) { e.Str(ae.Message) })
			if ae.Field != "" {
				e.Field("field", func(e *jx.Encoder) { e.Str(ae.Field) })
			}
		})
	})
}
