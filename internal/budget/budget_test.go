package budget

import (
	"testing"

	"github.com/yesworId/BuyOrderBot/internal/money"
)

func TestDeriveLimit(t *testing.T) {
	cases := map[string]string{
		"0.00":   "0.00",
		"100.00": "1000.00",
		"12.34":  "123.40",
	}
	for balance, want := range cases {
		got := DeriveLimit(money.MustParse(balance), DefaultLimitMultiplier)
		if got.String() != want {
			t.Errorf("DeriveLimit(%s) = %s, want %s", balance, got, want)
		}
	}
}

func TestAvailable(t *testing.T) {
	limit := money.MustParse("1000.00")

	if got := Available(limit, money.MustParse("250.00")); got.String() != "750.00" {
		t.Errorf("Available = %s, want 750.00", got)
	}

	// Existing commitments above the limit yield a negative remainder,
	// not an error.
	if got := Available(limit, money.MustParse("1200.00")); got.Sign() >= 0 {
		t.Errorf("Available = %s, want negative", got)
	}
}
