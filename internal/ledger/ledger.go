package ledger

import (
	"errors"
	"fmt"

	"github.com/yesworId/BuyOrderBot/internal/market"
	"github.com/yesworId/BuyOrderBot/internal/money"
)

// ErrDuplicateOrder means an item already has a tracked open order. The
// engine's skip logic should make this unreachable, so hitting it is an
// invariant violation, not a normal condition.
var ErrDuplicateOrder = errors.New("duplicate order for item")

// Record is one tracked buy order, either pre-existing on the marketplace or
// newly placed during this run. Records are append-only.
type Record struct {
	ItemName  string
	UnitPrice money.Money
	Quantity  int
}

// Cost is unit price times quantity.
func (r Record) Cost() money.Money {
	return r.UnitPrice.MulQty(r.Quantity)
}

// Ledger tracks the open buy orders for a run, keyed by item name, together
// with the running committed total. The total is updated incrementally on
// every insert and never recomputed from scratch mid-run.
type Ledger struct {
	records        map[string]Record
	order          []string
	totalCommitted money.Money
}

func New() *Ledger {
	return &Ledger{records: make(map[string]Record)}
}

// FromListings builds the initial ledger from the account's existing open
// orders, parsing each decorated price string as it goes.
func FromListings(listings []market.Listing) (*Ledger, error) {
	l := New()
	for _, listing := range listings {
		price, err := money.Parse(listing.Price)
		if err != nil {
			return nil, fmt.Errorf("listing %q: %w", listing.Name, err)
		}
		if err := l.Record(listing.Name, price, listing.Quantity); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Ledger) Contains(name string) bool {
	_, ok := l.records[name]
	return ok
}

// Record inserts a new order and adds its cost to the committed total.
func (l *Ledger) Record(name string, unitPrice money.Money, quantity int) error {
	if l.Contains(name) {
		return fmt.Errorf("%w: %q", ErrDuplicateOrder, name)
	}
	rec := Record{ItemName: name, UnitPrice: unitPrice, Quantity: quantity}
	l.records[name] = rec
	l.order = append(l.order, name)
	l.totalCommitted = l.totalCommitted.Add(rec.Cost())
	return nil
}

func (l *Ledger) TotalCommitted() money.Money {
	return l.totalCommitted
}

func (l *Ledger) Len() int {
	return len(l.records)
}

// Records returns the tracked orders in insertion order.
func (l *Ledger) Records() []Record {
	out := make([]Record, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.records[name])
	}
	return out
}
