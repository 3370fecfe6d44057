package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/foodhub/internal/domain/catalog"
	"github.com/xenking/foodhub/internal/domain/menu"
	"github.com/xenking/foodhub/internal/domain/offer"
	"github.com/xenking/foodhub/internal/domain/order"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.StringFixed(2)))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

func encodeStrings(e *jx.Encoder, ss []string) {
	e.ArrStart()
	for _, s := range ss {
		e.Str(s)
	}
	e.ArrEnd()
}

func encodeRestaurant(e *jx.Encoder, r menu.Restaurant) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(r.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(r.Name) })
		e.Field("location", func(e *jx.Encoder) { e.Str(r.Location) })
		e.Field("rating", func(e *jx.Encoder) { e.Num(jx.Num(r.Rating.StringFixed(1))) })
	})
}

func encodeMenuItem(e *jx.Encoder, it menu.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
		e.Field("restaurantId", func(e *jx.Encoder) { e.Str(it.RestaurantID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("category", func(e *jx.Encoder) { e.Str(it.Category) })
		e.Field("description", func(e *jx.Encoder) { e.Str(it.Description) })
		e.Field("price", func(e *jx.Encoder) { encodeMoney(e, it.Price) })
		e.Field("isVeg", func(e *jx.Encoder) { e.Bool(it.IsVeg) })
		e.Field("available", func(e *jx.Encoder) { e.Bool(it.Available) })
	})
}

func encodeOffer(e *jx.Encoder, o offer.Offer) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("title", func(e *jx.Encoder) { e.Str(o.Title) })
		e.Field("description", func(e *jx.Encoder) { e.Str(o.Description) })
		e.Field("discountPercent", func(e *jx.Encoder) { e.Num(jx.Num(o.DiscountPercent.String())) })
		e.Field("freeDelivery", func(e *jx.Encoder) { e.Bool(o.FreeDelivery) })
		e.Field("active", func(e *jx.Encoder) { e.Bool(o.Active) })
	})
}

func encodeQuote(e *jx.Encoder, q *order.Quote) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.ArrStart()
			for _, li := range q.Lines {
				e.Obj(func(e *jx.Encoder) {
					e.Field("menuItemId", func(e *jx.Encoder) { e.Str(li.ID) })
					e.Field("name", func(e *jx.Encoder) { e.Str(li.Name) })
					e.Field("unitPrice", func(e *jx.Encoder) { encodeMoney(e, li.UnitPrice) })
					e.Field("quantity", func(e *jx.Encoder) { e.Int(li.Quantity) })
					e.Field("lineTotal", func(e *jx.Encoder) { encodeMoney(e, li.LineTotal()) })
				})
			}
			e.ArrEnd()
		})
		b := q.Breakdown
		e.Field("subtotal", func(e *jx.Encoder) { encodeMoney(e, b.Subtotal) })
		e.Field("tax", func(e *jx.Encoder) { encodeMoney(e, b.Tax) })
		e.Field("deliveryFee", func(e *jx.Encoder) { encodeMoney(e, b.DeliveryFee) })
		e.Field("discount", func(e *jx.Encoder) { encodeMoney(e, b.Discount) })
		if q.Offer != nil {
			e.Field("offer", func(e *jx.Encoder) { encodeOffer(e, *q.Offer) })
		}
		if q.Coupon.Code != "" {
			c := q.Coupon
			e.Field("coupon", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("code", func(e *jx.Encoder) { e.Str(c.Code) })
					e.Field("amount", func(e *jx.Encoder) { encodeMoney(e, c.Amount) })
					e.Field("applied", func(e *jx.Encoder) { e.Bool(c.Applied) })
					e.Field("recognized", func(e *jx.Encoder) { e.Bool(c.Recognized) })
				})
			})
		}
		e.Field("total", func(e *jx.Encoder) { encodeMoney(e, q.Total) })
	})
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("customerId", func(e *jx.Encoder) { e.Str(o.CustomerID) })
		if o.Attributed() {
			e.Field("restaurantId", func(e *jx.Encoder) { e.Str(o.RestaurantID) })
		}
		e.Field("items", func(e *jx.Encoder) { encodeStrings(e, o.Items) })
		e.Field("lines", func(e *jx.Encoder) {
			e.ArrStart()
			for _, l := range o.Lines {
				e.Obj(func(e *jx.Encoder) {
					e.Field("menuItemId", func(e *jx.Encoder) { e.Str(l.MenuItemID) })
					e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
					e.Field("unitPrice", func(e *jx.Encoder) { encodeMoney(e, l.UnitPrice) })
					e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
				})
			}
			e.ArrEnd()
		})
		e.Field("subtotal", func(e *jx.Encoder) { encodeMoney(e, o.Subtotal) })
		e.Field("tax", func(e *jx.Encoder) { encodeMoney(e, o.Tax) })
		e.Field("deliveryFee", func(e *jx.Encoder) { encodeMoney(e, o.DeliveryFee) })
		e.Field("discount", func(e *jx.Encoder) { encodeMoney(e, o.Discount) })
		if o.OfferID != "" {
			e.Field("offerId", func(e *jx.Encoder) { e.Str(o.OfferID) })
		}
		if o.CouponCode != "" {
			e.Field("couponCode", func(e *jx.Encoder) { e.Str(o.CouponCode) })
			e.Field("couponDiscount", func(e *jx.Encoder) { encodeMoney(e, o.CouponDiscount) })
		}
		e.Field("total", func(e *jx.Encoder) { encodeMoney(e, o.Total) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("paymentMethod", func(e *jx.Encoder) { e.Str(string(o.PaymentMethod)) })
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, o.CreatedAt) })
		e.Field("deliveryEta", func(e *jx.Encoder) { encodeTime(e, o.DeliveryETA) })
		e.Field("outOfStock", func(e *jx.Encoder) { encodeStrings(e, o.OutOfStock) })
		e.Field("allowedActions", func(e *jx.Encoder) {
			e.ArrStart()
			for _, a := range order.AllowedActions(o.Status) {
				e.Str(string(a))
			}
			e.ArrEnd()
		})
	})
}

func encodeOrders(e *jx.Encoder, orders []order.Order) {
	e.ArrStart()
	for _, o := range orders {
		encodeOrder(e, o)
	}
	e.ArrEnd()
}

func encodeQueue(e *jx.Encoder, q order.Queue) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("new", func(e *jx.Encoder) { encodeOrders(e, q.New) })
		e.Field("preparing", func(e *jx.Encoder) { encodeOrders(e, q.Preparing) })
		e.Field("ready", func(e *jx.Encoder) { encodeOrders(e, q.Ready) })
		e.Field("past", func(e *jx.Encoder) { encodeOrders(e, q.Past) })
	})
}

func encodeHistory(e *jx.Encoder, changes []order.StatusChange) {
	e.ArrStart()
	for _, c := range changes {
		e.Obj(func(e *jx.Encoder) {
			e.Field("from", func(e *jx.Encoder) { e.Str(string(c.From)) })
			e.Field("to", func(e *jx.Encoder) { e.Str(string(c.To)) })
			e.Field("changedBy", func(e *jx.Encoder) { e.Str(c.ChangedBy) })
			e.Field("changedAt", func(e *jx.Encoder) { encodeTime(e, c.ChangedAt) })
		})
	}
	e.ArrEnd()
}

func encodeReport(e *jx.Encoder, r *order.Report) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("from", func(e *jx.Encoder) { encodeTime(e, r.From) })
		e.Field("to", func(e *jx.Encoder) { encodeTime(e, r.To) })
		e.Field("revenue", func(e *jx.Encoder) { encodeMoney(e, r.Revenue) })
		e.Field("orders", func(e *jx.Encoder) { e.Int(r.Orders) })
		e.Field("daily", func(e *jx.Encoder) {
			e.ArrStart()
			for _, d := range r.Daily {
				e.Obj(func(e *jx.Encoder) {
					e.Field("date", func(e *jx.Encoder) { e.Str(d.Date) })
					e.Field("revenue", func(e *jx.Encoder) { encodeMoney(e, d.Revenue) })
					e.Field("orders", func(e *jx.Encoder) { e.Int(d.Orders) })
				})
			}
			e.ArrEnd()
		})
		e.Field("topItems", func(e *jx.Encoder) {
			e.ArrStart()
			for _, it := range r.TopItems {
				e.Obj(func(e *jx.Encoder) {
					e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
					e.Field("count", func(e *jx.Encoder) { e.Int(it.Count) })
				})
			}
			e.ArrEnd()
		})
	})
}

// errBadRequest marks a body that could not be decoded.
var errBadRequest = errors.New("malformed request body")

// decodeBody reads at most maxBodyBytes and decodes one JSON object with fn.
func decodeBody(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(errBadRequest, err.Error())
	}
	if err := jx.DecodeBytes(data).Obj(fn); err != nil {
		return errors.Wrap(errBadRequest, err.Error())
	}
	return nil
}

// decodeID accepts an identifier given either as a string or a number.
func decodeID(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		return string(n), err
	case jx.Null:
		return "", d.Null()
	default:
		return d.Str()
	}
}

func decodeQuoteField(req *order.QuoteRequest, d *jx.Decoder, key string) (bool, error) {
	var err error
	switch key {
	case "items":
		err = d.Arr(func(d *jx.Decoder) error {
			var line order.CartLine
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "menuItemId":
					line.MenuItemID, err = decodeID(d)
				case "quantity":
					line.Quantity, err = d.Int()
				default:
					err = d.Skip()
				}
				return err
			}); err != nil {
				return err
			}
			req.Items = append(req.Items, line)
			return nil
		})
	case "offerId":
		req.OfferID, err = decodeID(d)
	case "couponCode":
		req.CouponCode, err = decodeID(d)
	default:
		return false, nil
	}
	return true, err
}

func decodeQuoteRequest(r *http.Request) (order.QuoteRequest, error) {
	var req order.QuoteRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		ok, err := decodeQuoteField(&req, d, key)
		if !ok {
			return d.Skip()
		}
		return err
	})
	return req, err
}

func decodeCheckoutRequest(r *http.Request) (order.CheckoutRequest, error) {
	var req order.CheckoutRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key == "paymentMethod" {
			s, err := d.Str()
			req.PaymentMethod = order.PaymentMethod(s)
			return err
		}
		ok, err := decodeQuoteField(&req.QuoteRequest, d, key)
		if !ok {
			return d.Skip()
		}
		return err
	})
	return req, err
}

// decodeStringField decodes {"<field>": "..."} bodies.
func decodeStringField(r *http.Request, field string) (string, error) {
	var v string
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != field {
			return d.Skip()
		}
		s, err := d.Str()
		v = s
		return err
	})
	return v, err
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = string(n)
	default:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = s
	}
	return decimal.NewFromString(raw)
}

// decodeItemInput decodes a menu item form. Items are available unless the
// body says otherwise.
func decodeItemInput(r *http.Request) (catalog.ItemInput, error) {
	in := catalog.ItemInput{Available: true}
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "restaurantId":
			in.RestaurantID, err = decodeID(d)
		case "name":
			in.Name, err = d.Str()
		case "category":
			in.Category, err = d.Str()
		case "description":
			in.Description, err = d.Str()
		case "price":
			in.Price, err = decodeDecimal(d)
		case "isVeg":
			in.IsVeg, err = d.Bool()
		case "available":
			in.Available, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
	return in, err
}

// decodeOfferInput decodes an offer form. Offers are active unless the body
// says otherwise.
func decodeOfferInput(r *http.Request) (catalog.OfferInput, error) {
	in := catalog.OfferInput{Active: true}
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "title":
			in.Title, err = d.Str()
		case "description":
			in.Description, err = d.Str()
		case "discountPercent":
			in.DiscountPercent, err = decodeDecimal(d)
		case "freeDelivery":
			in.FreeDelivery, err = d.Bool()
		case "active":
			in.Active, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
	return in, err
}

// decodeBoolField decodes {"<field>": true|false} bodies. The field is
// required.
func decodeBoolField(r *http.Request, field string) (bool, error) {
	var (
		v     bool
		found bool
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != field {
			return d.Skip()
		}
		b, err := d.Bool()
		v, found = b, true
		return err
	})
	if err == nil && !found {
		err = errors.Wrapf(errBadRequest, "missing %q", field)
	}
	return v, err
}
