package order

import (
	"slices"
	"strings"
)

// SortNewestFirst orders by creation time descending. Orders created at the
// same instant fall back to ID descending; IDs are time-ordered, so the later
// checkout still comes first.
func SortNewestFirst(orders []Order) {
	slices.SortStableFunc(orders, func(a, b Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
}

// Queue is the restaurant admin's view of its orders, bucketed the way the
// kitchen works through them.
type Queue struct {
	New       []Order
	Preparing []Order
	Ready     []Order
	// Past holds delivered and denied orders.
	Past []Order
}

// Len returns the number of orders across all buckets.
func (q Queue) Len() int {
	return len(q.New) + len(q.Preparing) + len(q.Ready) + len(q.Past)
}

// BuildQueue buckets orders by status, preserving their input order.
func BuildQueue(orders []Order) Queue {
	var q Queue
	for _, o := range orders {
		switch o.Status {
		case StatusNew:
			q.New = append(q.New, o)
		case StatusPreparing:
			q.Preparing = append(q.Preparing, o)
		case StatusOnTheWay:
			q.Ready = append(q.Ready, o)
		case StatusDelivered, StatusDenied:
			q.Past = append(q.Past, o)
		}
	}
	return q
}
