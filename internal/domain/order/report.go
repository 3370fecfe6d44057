package order

import (
	"cmp"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Range names a reporting window ending now.
type Range string

const (
	RangeToday   Range = "today"
	Range7Days   Range = "7days"
	Range30Days  Range = "30days"
	Range3Months Range = "3months"
	Range6Months Range = "6months"
	Range1Year   Range = "1year"

	defaultRange = Range7Days
)

const topItemsLimit = 5

// ParseRange validates a range name. An empty name selects the last 7 days.
func ParseRange(s string) (Range, error) {
	r := Range(s)
	switch r {
	case "":
		return defaultRange, nil
	case RangeToday, Range7Days, Range30Days, Range3Months, Range6Months, Range1Year:
		return r, nil
	default:
		return "", &ValidationError{Field: "range", Reason: "unsupported range " + s}
	}
}

// Start returns the beginning of the window relative to now.
func (r Range) Start(now time.Time) time.Time {
	switch r {
	case RangeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case Range30Days:
		return now.AddDate(0, 0, -30)
	case Range3Months:
		return now.AddDate(0, -3, 0)
	case Range6Months:
		return now.AddDate(0, -6, 0)
	case Range1Year:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, 0, -7)
	}
}

// DailyStat aggregates one calendar day (UTC).
type DailyStat struct {
	Date    string
	Revenue decimal.Decimal
	Orders  int
}

// ItemCount is how many units of an item were sold.
type ItemCount struct {
	Name  string
	Count int
}

// Report summarizes sales over a window. Denied orders are excluded.
type Report struct {
	From     time.Time
	To       time.Time
	Revenue  decimal.Decimal
	Orders   int
	Daily    []DailyStat
	TopItems []ItemCount
}

// BuildReport aggregates orders created within [from, to].
func BuildReport(orders []Order, from, to time.Time) (*Report, error) {
	if to.Before(from) {
		return nil, errors.Errorf("report window ends (%s) before it starts (%s)", to, from)
	}

	rep := &Report{From: from, To: to, Revenue: decimal.Zero}
	daily := make(map[string]*DailyStat)
	items := make(map[string]int)

	for _, o := range orders {
		if o.Status == StatusDenied || o.CreatedAt.Before(from) || o.CreatedAt.After(to) {
			continue
		}
		rep.Orders++
		rep.Revenue = rep.Revenue.Add(o.Total)

		key := o.CreatedAt.UTC().Format(time.DateOnly)
		ds, ok := daily[key]
		if !ok {
			ds = &DailyStat{Date: key, Revenue: decimal.Zero}
			daily[key] = ds
		}
		ds.Orders++
		ds.Revenue = ds.Revenue.Add(o.Total)

		for _, l := range o.Lines {
			items[l.Name] += l.Quantity
		}
	}

	for _, ds := range daily {
		rep.Daily = append(rep.Daily, *ds)
	}
	slices.SortFunc(rep.Daily, func(a, b DailyStat) int { return cmp.Compare(a.Date, b.Date) })

	for name, n := range items {
		rep.TopItems = append(rep.TopItems, ItemCount{Name: name, Count: n})
	}
	slices.SortFunc(rep.TopItems, func(a, b ItemCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(rep.TopItems) > topItemsLimit {
		rep.TopItems = rep.TopItems[:topItemsLimit]
	}

	return rep, nil
}
