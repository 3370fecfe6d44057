package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/foodhub/internal/domain/order"
)

const (
	orderColumns = `o.id, o.customer_id, o.restaurant_id, o.items, o.lines,
		o.subtotal, o.tax, o.delivery_fee, o.discount, o.offer_id, o.coupon_code, o.coupon_discount, o.total,
		o.status, o.payment_method, o.created_at, o.delivery_eta, o.version,
		COALESCE((SELECT array_agg(s.item ORDER BY s.flagged_at, s.item)
			FROM order_out_of_stock s WHERE s.order_id = o.id), '{}')`

	createOrderSQL = `INSERT INTO orders (id, customer_id, restaurant_id, items, lines,
		subtotal, tax, delivery_fee, discount, offer_id, coupon_code, coupon_discount, total,
		status, payment_method, created_at, delivery_eta, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, 0)`

	getOrderSQL               = `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`
	listOrdersByCustomerSQL   = `SELECT ` + orderColumns + ` FROM orders o WHERE o.customer_id = $1 ORDER BY o.created_at DESC, o.id DESC`
	listOrdersByRestaurantSQL = `SELECT ` + orderColumns + ` FROM orders o WHERE o.restaurant_id = $1 ORDER BY o.created_at DESC, o.id DESC`
	listAllOrdersSQL          = `SELECT ` + orderColumns + ` FROM orders o ORDER BY o.created_at DESC, o.id DESC`

	updateOrderStatusSQL = `UPDATE orders SET status = $3, version = version + 1
		WHERE id = $1 AND status = $2`

	orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`

	insertStatusHistorySQL = `INSERT INTO order_status_history (order_id, from_status, to_status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5)`

	addOutOfStockSQL = `INSERT INTO order_out_of_stock (order_id, item) VALUES ($1, $2)
		ON CONFLICT (order_id, item) DO NOTHING`

	listStatusHistorySQL = `SELECT order_id, from_status, to_status, changed_by, changed_at
		FROM order_status_history WHERE order_id = $1 ORDER BY id`
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL. Purchased items
// are stored as JSONB; out-of-stock flags and status history live in side
// tables so the order row itself only changes status.
type OrderStore struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool, tp trace.TracerProvider) *OrderStore {
	return &OrderStore{pool: pool, tracer: tracer(tp)}
}

func (s *OrderStore) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "orders."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs, attribute.String("db.system", "postgresql"))...),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Create persists a new order.
func (s *OrderStore) Create(ctx context.Context, o *order.Order) (rerr error) {
	ctx, span := s.start(ctx, "Create", attribute.String("order.id", o.ID))
	defer func() { endSpan(span, rerr) }()

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return errors.Wrap(err, "marshal order lines")
	}

	if _, err := s.pool.Exec(ctx, createOrderSQL,
		o.ID, o.CustomerID, o.RestaurantID, itemsJSON, linesJSON,
		o.Subtotal, o.Tax, o.DeliveryFee, o.Discount, o.OfferID, o.CouponCode, o.CouponDiscount, o.Total,
		string(o.Status), string(o.PaymentMethod), o.CreatedAt, o.DeliveryETA,
	); err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}
	return nil
}

// Get returns the order with the given id.
func (s *OrderStore) Get(ctx context.Context, id string) (_ *order.Order, rerr error) {
	ctx, span := s.start(ctx, "Get", attribute.String("order.id", id))
	defer func() { endSpan(span, rerr) }()

	rows, err := s.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return &o, nil
}

func (s *OrderStore) list(ctx context.Context, op, sql string, args ...any) (_ []order.Order, rerr error) {
	ctx, span := s.start(ctx, op)
	defer func() { endSpan(span, rerr) }()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "scan orders")
	}
	return orders, nil
}

func (s *OrderStore) ListByCustomer(ctx context.Context, customerID string) ([]order.Order, error) {
	return s.list(ctx, "ListByCustomer", listOrdersByCustomerSQL, customerID)
}

func (s *OrderStore) ListByRestaurant(ctx context.Context, restaurantID string) ([]order.Order, error) {
	return s.list(ctx, "ListByRestaurant", listOrdersByRestaurantSQL, restaurantID)
}

func (s *OrderStore) ListAll(ctx context.Context) ([]order.Order, error) {
	return s.list(ctx, "ListAll", listAllOrdersSQL)
}

// UpdateStatus moves the order from change.From to change.To and records the
// change in the status history, in one transaction.
func (s *OrderStore) UpdateStatus(ctx context.Context, change order.StatusChange) (rerr error) {
	ctx, span := s.start(ctx, "UpdateStatus",
		attribute.String("order.id", change.OrderID),
		attribute.String("order.status.from", string(change.From)),
		attribute.String("order.status.to", string(change.To)),
	)
	defer func() { endSpan(span, rerr) }()

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateOrderStatusSQL, change.OrderID, string(change.From), string(change.To))
		if err != nil {
			return errors.Wrapf(err, "update order %q status", change.OrderID)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, orderExistsSQL, change.OrderID).Scan(&exists); err != nil {
				return errors.Wrapf(err, "check order %q", change.OrderID)
			}
			if !exists {
				return order.ErrOrderNotFound
			}
			return order.ErrStatusConflict
		}

		if _, err := tx.Exec(ctx, insertStatusHistorySQL,
			change.OrderID, string(change.From), string(change.To), change.ChangedBy, change.ChangedAt,
		); err != nil {
			return errors.Wrapf(err, "record order %q status change", change.OrderID)
		}
		return nil
	})
}

// AddOutOfStock flags item on the order. Flagging twice is a no-op.
func (s *OrderStore) AddOutOfStock(ctx context.Context, id, item string) (rerr error) {
	ctx, span := s.start(ctx, "AddOutOfStock", attribute.String("order.id", id))
	defer func() { endSpan(span, rerr) }()

	if _, err := s.pool.Exec(ctx, addOutOfStockSQL, id, item); err != nil {
		if isForeignKeyViolation(err) {
			return order.ErrOrderNotFound
		}
		return errors.Wrapf(err, "flag out of stock on order %q", id)
	}
	return nil
}

// History returns the recorded status changes, oldest first.
func (s *OrderStore) History(ctx context.Context, id string) (_ []order.StatusChange, rerr error) {
	ctx, span := s.start(ctx, "History", attribute.String("order.id", id))
	defer func() { endSpan(span, rerr) }()

	rows, err := s.pool.Query(ctx, listStatusHistorySQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "list order %q history", id)
	}
	changes, err := pgx.CollectRows(rows, scanStatusChange)
	if err != nil {
		return nil, errors.Wrapf(err, "scan order %q history", id)
	}
	if len(changes) > 0 {
		return changes, nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, orderExistsSQL, id).Scan(&exists); err != nil {
		return nil, errors.Wrapf(err, "check order %q", id)
	}
	if !exists {
		return nil, order.ErrOrderNotFound
	}
	return nil, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		itemsJSON     []byte
		linesJSON     []byte
		status        string
		paymentMethod string
	)
	if err := row.Scan(
		&o.ID, &o.CustomerID, &o.RestaurantID, &itemsJSON, &linesJSON,
		&o.Subtotal, &o.Tax, &o.DeliveryFee, &o.Discount, &o.OfferID, &o.CouponCode, &o.CouponDiscount, &o.Total,
		&status, &paymentMethod, &o.CreatedAt, &o.DeliveryETA, &o.Version,
		&o.OutOfStock,
	); err != nil {
		return o, err
	}
	o.Status = order.Status(status)
	o.PaymentMethod = order.PaymentMethod(paymentMethod)
	if len(o.OutOfStock) == 0 {
		o.OutOfStock = nil
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, errors.Wrapf(err, "unmarshal items of order %q", o.ID)
	}
	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return o, errors.Wrapf(err, "unmarshal lines of order %q", o.ID)
	}
	return o, nil
}

func scanStatusChange(row pgx.CollectableRow) (order.StatusChange, error) {
	var (
		c        order.StatusChange
		from, to string
	)
	err := row.Scan(&c.OrderID, &from, &to, &c.ChangedBy, &c.ChangedAt)
	c.From = order.Status(from)
	c.To = order.Status(to)
	return c, err
}
