package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

func (h *Handler) listRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.catalog.ListRestaurants(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, rs := range restaurants {
			encodeRestaurant(e, rs)
		}
		e.ArrEnd()
	})
}

func (h *Handler) listMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListMenu(r.Context(), r.URL.Query().Get("restaurantId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, it := range items {
			encodeMenuItem(e, it)
		}
		e.ArrEnd()
	})
}

// listOffers serves both the customer listing and the admin one; admins
// also see switched off offers.
func (h *Handler) listOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.catalog.ListOffers(r.Context(), session(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, o := range offers {
			encodeOffer(e, o)
		}
		e.ArrEnd()
	})
}
