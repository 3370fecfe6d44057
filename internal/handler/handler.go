package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/foodhub/internal/domain/catalog"
	"github.com/xenking/foodhub/internal/domain/order"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// TrackingBaseURL is the public URL encoded into order QR codes.
	TrackingBaseURL string
	// QRCodeSize is the PNG edge length in pixels.
	QRCodeSize int
}

// Handler serves the HTTP API over the order and catalog services.
type Handler struct {
	orders          *order.Service
	catalog         *catalog.Service
	auth            *Authenticator
	trackingBaseURL string
	qrSize          int

	placed      metric.Int64Counter
	transitions metric.Int64Counter
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg HandlerConfig,
	orders *order.Service,
	catalogSvc *catalog.Service,
	authn *Authenticator,
	meter metric.Meter,
) (*Handler, error) {
	placed, err := meter.Int64Counter("foodhub.orders.placed",
		metric.WithDescription("Orders placed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create placed counter")
	}
	transitions, err := meter.Int64Counter("foodhub.orders.transitions",
		metric.WithDescription("Admin order transitions by action and outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create transitions counter")
	}

	size := cfg.QRCodeSize
	if size <= 0 {
		size = 256
	}
	return &Handler{
		orders:          orders,
		catalog:         catalogSvc,
		auth:            authn,
		trackingBaseURL: cfg.TrackingBaseURL,
		qrSize:          size,
		placed:          placed,
		transitions:     transitions,
	}, nil
}

// Mount registers the API routes on r under /api.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(h.auth.Middleware)

		r.Get("/restaurants", h.listRestaurants)
		r.Get("/menu", h.listMenu)
		r.Get("/offers", h.listOffers)
		r.Post("/cart/quote", h.quote)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.placeOrder)
			r.Get("/", h.listOrders)
			r.Get("/{id}", h.getOrder)
			r.Get("/{id}/qrcode", h.orderQRCode)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/orders", h.queue)
			r.Post("/orders/{id}/status", h.transition)
			r.Post("/orders/{id}/out-of-stock", h.markOutOfStock)
			r.Get("/orders/{id}/history", h.history)
			r.Get("/metrics", h.metrics)

			r.Route("/menu/items", func(r chi.Router) {
				r.Post("/", h.createItem)
				r.Put("/{id}", h.updateItem)
				r.Delete("/{id}", h.deleteItem)
				r.Post("/{id}/availability", h.setItemAvailability)
			})
			r.Route("/offers", func(r chi.Router) {
				r.Get("/", h.listOffers)
				r.Post("/", h.createOffer)
				r.Put("/{id}", h.updateOffer)
				r.Delete("/{id}", h.deleteOffer)
				r.Post("/{id}/active", h.setOfferActive)
			})
		})
	})
}

// Router returns a standalone router serving the API.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	h.Mount(r)
	return r
}

func (h *Handler) recordTransition(ctx context.Context, action order.Action, err error) {
	outcome := "ok"
	if err != nil {
		outcome = mapError(err).Code
	}
	h.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", string(action)),
		attribute.String("outcome", outcome),
	))
}
