package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/foodhub/internal/domain/order"
)

func (h *Handler) queue(w http.ResponseWriter, r *http.Request) {
	q, err := h.orders.Queue(r.Context(), session(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeQueue(e, q) })
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeStringField(r, "action")
	if err != nil {
		writeError(w, r, err)
		return
	}
	action := order.Action(raw)
	if !action.Valid() {
		writeError(w, r, &order.ValidationError{Field: "action", Reason: "unsupported action " + raw})
		return
	}

	o, err := h.orders.Transition(r.Context(), session(r), chi.URLParam(r, "id"), action)
	h.recordTransition(r.Context(), action, err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, *o) })
}

func (h *Handler) markOutOfStock(w http.ResponseWriter, r *http.Request) {
	item, err := decodeStringField(r, "item")
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.MarkOutOfStock(r.Context(), session(r), chi.URLParam(r, "id"), item)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, *o) })
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	changes, err := h.orders.History(r.Context(), session(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeHistory(e, changes) })
}

func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	rng, err := order.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := h.orders.Report(r.Context(), session(r), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeReport(e, rep) })
}
