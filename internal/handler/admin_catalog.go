package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
)

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	in, err := decodeItemInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	it, err := h.catalog.CreateItem(r.Context(), session(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/admin/menu/items/"+url.PathEscape(it.ID))
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeMenuItem(e, *it) })
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	in, err := decodeItemInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	it, err := h.catalog.UpdateItem(r.Context(), session(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeMenuItem(e, *it) })
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteItem(r.Context(), session(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setItemAvailability(w http.ResponseWriter, r *http.Request) {
	available, err := decodeBoolField(r, "available")
	if err != nil {
		writeError(w, r, err)
		return
	}
	it, err := h.catalog.SetItemAvailability(r.Context(), session(r), chi.URLParam(r, "id"), available)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeMenuItem(e, *it) })
}

func (h *Handler) createOffer(w http.ResponseWriter, r *http.Request) {
	in, err := decodeOfferInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.catalog.CreateOffer(r.Context(), session(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/admin/offers/"+url.PathEscape(o.ID))
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOffer(e, *o) })
}

func (h *Handler) updateOffer(w http.ResponseWriter, r *http.Request) {
	in, err := decodeOfferInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.catalog.UpdateOffer(r.Context(), session(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOffer(e, *o) })
}

func (h *Handler) deleteOffer(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteOffer(r.Context(), session(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setOfferActive(w http.ResponseWriter, r *http.Request) {
	active, err := decodeBoolField(r, "active")
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.catalog.SetOfferActive(r.Context(), session(r), chi.URLParam(r, "id"), active)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOffer(e, *o) })
}
