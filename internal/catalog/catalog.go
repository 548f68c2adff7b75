package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/yesworId/BuyOrderBot/internal/money"
)

var (
	ErrMalformedRow = errors.New("malformed catalog row")
	ErrEmptyCatalog = errors.New("catalog has no data rows")
)

// Item is one desired buy order from the catalog file. Items are immutable
// after loading; the engine only reads them.
type Item struct {
	Name      string
	UnitPrice money.Money
	Quantity  int
	Game      string
}

// Cost is the full value of the order, unit price times quantity.
func (i Item) Cost() money.Money {
	return i.UnitPrice.MulQty(i.Quantity)
}

// Load parses the desired-items catalog: a header row (discarded) followed by
// one row per item of (name, price, quantity, game). Any bad row aborts the
// whole load; desired items must be placed completely and deterministically,
// never from a partially read catalog.
func Load(r io.Reader) ([]Item, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptyCatalog
	}

	// First row is the header.
	items := make([]Item, 0, len(rows)-1)
	seen := make(map[string]struct{}, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2

		name := strings.TrimSpace(row[0])
		if name == "" {
			return nil, fmt.Errorf("%w: line %d: empty item name", ErrMalformedRow, line)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate item %q", ErrMalformedRow, line, name)
		}

		price, err := money.Parse(row[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: price: %v", ErrMalformedRow, line, err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("%w: line %d: price must be positive", ErrMalformedRow, line)
		}

		qty, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: quantity: %v", ErrMalformedRow, line, err)
		}
		if qty <= 0 {
			return nil, fmt.Errorf("%w: line %d: quantity must be positive", ErrMalformedRow, line)
		}

		seen[name] = struct{}{}
		items = append(items, Item{
			Name:      name,
			UnitPrice: price,
			Quantity:  qty,
			Game:      strings.TrimSpace(row[3]),
		})
	}

	return items, nil
}

// LoadFile reads the catalog from a CSV file on disk.
func LoadFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}
