// Package budget derives the account's buy-order spending ceiling.
package budget

import "github.com/yesworId/BuyOrderBot/internal/money"

// DefaultLimitMultiplier is the platform's stated buy-order cap heuristic:
// the aggregate value of open buy orders may not exceed ten times the wallet
// balance. It is a policy constant, overridable through configuration.
const DefaultLimitMultiplier = 10

// DeriveLimit computes the order limit from the wallet balance.
func DeriveLimit(balance money.Money, multiplier int) money.Money {
	return balance.MulQty(multiplier)
}

// Available is the remaining ceiling after subtracting already committed
// spend. It may be zero or negative when existing commitments alone exceed
// the limit; the caller decides whether placement proceeds.
func Available(limit, committed money.Money) money.Money {
	return limit.Sub(committed)
}
