package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	qrcode "github.com/skip2/go-qrcode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/foodhub/internal/domain/order"
)

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	req, err := decodeQuoteRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.orders.Quote(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeQuote(e, q) })
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCheckoutRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.Checkout(r.Context(), session(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.placed.Add(r.Context(), 1, metric.WithAttributes(
		attribute.String("payment_method", string(o.PaymentMethod)),
	))
	w.Header().Set("Location", "/api/orders/"+url.PathEscape(o.ID))
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, *o) })
}

// listOrders returns the caller's history. Admins get their restaurant's
// orders.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	s := session(r)
	var (
		orders []order.Order
		err    error
	)
	if s.IsAdmin() {
		orders, err = h.orders.ListForRestaurant(r.Context(), s.RestaurantID)
	} else {
		orders, err = h.orders.ListForCustomer(r.Context(), s.UserID)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrders(e, orders) })
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), session(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, *o) })
}

// orderQRCode renders a PNG pointing at the order's tracking page.
func (h *Handler) orderQRCode(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), session(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	png, err := qrcode.Encode(h.trackingURL(o.ID), qrcode.Medium, h.qrSize)
	if err != nil {
		writeError(w, r, errors.Wrap(err, "encode qr code"))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) trackingURL(id string) string {
	return h.trackingBaseURL + "/orders/" + url.PathEscape(id)
}
