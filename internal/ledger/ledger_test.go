package ledger

import (
	"errors"
	"testing"

	"github.com/yesworId/BuyOrderBot/internal/market"
	"github.com/yesworId/BuyOrderBot/internal/money"
)

func TestFromListings(t *testing.T) {
	listings := []market.Listing{
		{Name: "AK-47 Redline", Price: "$5,00", Quantity: 10},
		{Name: "AWP Asiimov", Price: "12.50", Quantity: 2},
	}

	l, err := FromListings(listings)
	if err != nil {
		t.Fatalf("FromListings: %v", err)
	}
	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}
	if !l.Contains("AK-47 Redline") || l.Contains("unknown") {
		t.Error("Contains is wrong")
	}
	// 5.00*10 + 12.50*2 = 75.00
	if got := l.TotalCommitted().String(); got != "75.00" {
		t.Errorf("TotalCommitted = %s, want 75.00", got)
	}
}

func TestFromListingsBadPrice(t *testing.T) {
	_, err := FromListings([]market.Listing{{Name: "item", Price: "n/a", Quantity: 1}})
	if !errors.Is(err, money.ErrParse) {
		t.Errorf("want ErrParse, got %v", err)
	}
}

func TestRecordKeepsTotalInvariant(t *testing.T) {
	l := New()
	entries := []struct {
		name  string
		price string
		qty   int
	}{
		{"a", "1.50", 2},
		{"b", "0.10", 30},
		{"c", "99.99", 1},
	}

	for _, e := range entries {
		if err := l.Record(e.name, money.MustParse(e.price), e.qty); err != nil {
			t.Fatalf("Record(%s): %v", e.name, err)
		}

		// The running total must equal the sum over all entries after
		// every insert.
		want := money.Zero()
		for _, rec := range l.Records() {
			want = want.Add(rec.Cost())
		}
		if !l.TotalCommitted().Equal(want) {
			t.Fatalf("after %s: total %s != sum %s", e.name, l.TotalCommitted(), want)
		}
	}

	if got := l.TotalCommitted().String(); got != "105.99" {
		t.Errorf("final total = %s, want 105.99", got)
	}
}

func TestRecordDuplicate(t *testing.T) {
	l := New()
	if err := l.Record("item", money.MustParse("1.00"), 1); err != nil {
		t.Fatalf("first Record: %v", err)
	}
	err := l.Record("item", money.MustParse("2.00"), 1)
	if !errors.Is(err, ErrDuplicateOrder) {
		t.Errorf("want ErrDuplicateOrder, got %v", err)
	}
	// A rejected insert must not change the total.
	if got := l.TotalCommitted().String(); got != "1.00" {
		t.Errorf("total = %s, want 1.00", got)
	}
}
