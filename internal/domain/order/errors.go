package order

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/foodhub/internal/domain/offer"
)

var (
	// ErrOrderNotFound is returned when an order id is unknown to the store.
	ErrOrderNotFound = errors.New("order not found")
	// ErrForbidden is returned when the session may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrStatusConflict is returned when the stored status changed between
	// read and update.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// ValidationError reports invalid checkout input. Nothing is persisted when
// it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IllegalTransitionError reports an action that the status table does not
// allow from the current status.
type IllegalTransitionError struct {
	From   Status
	Action Action
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot %s order in status %q", e.Action, e.From)
}

// PersistenceError wraps a failed store operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// storeErr wraps err as a PersistenceError unless it is one of the store
// contract sentinels.
func storeErr(op string, err error) error {
	if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrStatusConflict) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// lookupErr wraps a failed menu or offer lookup as a PersistenceError unless
// it is an offer or coupon rejection.
func lookupErr(op string, err error) error {
	if errors.Is(err, offer.ErrOfferNotFound) ||
		errors.Is(err, offer.ErrOfferInactive) ||
		errors.Is(err, offer.ErrUnknownCoupon) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
