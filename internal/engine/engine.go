// Package engine drives the buy-order reconciliation loop: it turns the
// account balance, the existing open orders and the desired catalog into a
// bounded sequence of order-creation calls that never exceeds the derived
// spending ceiling.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yesworId/BuyOrderBot/internal/budget"
	"github.com/yesworId/BuyOrderBot/internal/catalog"
	"github.com/yesworId/BuyOrderBot/internal/journal"
	"github.com/yesworId/BuyOrderBot/internal/ledger"
	"github.com/yesworId/BuyOrderBot/internal/market"
	"github.com/yesworId/BuyOrderBot/internal/money"
)

// Skip reasons reported per item in the final summary.
const (
	ReasonPriceOverBalance  = "unit price exceeds balance"
	ReasonCostOverBalance   = "order cost exceeds balance"
	ReasonCostOverLimit     = "order cost exceeds remaining buy-order limit"
	ReasonAttemptsExhausted = "placement attempts exhausted"
	ReasonPassesExhausted   = "max passes reached"
)

// Config carries the run policy knobs.
type Config struct {
	Currency        string
	LimitMultiplier int
	MaxPasses       int
	MaxItemAttempts int
	AttemptDelay    time.Duration

	BalanceRetries    int
	BalanceRetryDelay time.Duration
}

// ItemResult is the outcome for one catalog item.
type ItemResult struct {
	Item     catalog.Item
	OrderID  string
	Attempts int
	Reason   string
}

// Summary is the final report of a run.
type Summary struct {
	Balance        money.Money
	OrderLimit     money.Money
	Committed      money.Money
	Available      money.Money
	LimitExhausted bool
	AlreadyOrdered int
	Placed         []ItemResult
	Failed         []ItemResult
}

// Engine owns the ledger and account state for the duration of one run.
// Runs are single-threaded; no concurrent runs against the same account.
type Engine struct {
	gw     market.Gateway
	jrnl   *journal.Journal
	cfg    Config
	logger zerolog.Logger
}

// New builds an engine. The journal may be nil, in which case placements are
// not persisted.
func New(gw market.Gateway, jrnl *journal.Journal, cfg Config) *Engine {
	if cfg.LimitMultiplier <= 0 {
		cfg.LimitMultiplier = budget.DefaultLimitMultiplier
	}
	if cfg.MaxPasses <= 0 {
		cfg.MaxPasses = 10
	}
	if cfg.MaxItemAttempts <= 0 {
		cfg.MaxItemAttempts = 3
	}
	if cfg.BalanceRetries <= 0 {
		cfg.BalanceRetries = 3
	}
	return &Engine{
		gw:     gw,
		jrnl:   jrnl,
		cfg:    cfg,
		logger: log.With().Str("component", "placement_engine").Logger(),
	}
}

// Run reconciles the catalog against the account's open orders and places
// whatever fits under the spending ceiling. Per-item failures never escalate
// to a run failure; only credential, balance-fetch or listing-fetch errors do.
func (e *Engine) Run(ctx context.Context, items []catalog.Item) (*Summary, error) {
	balance, err := e.fetchBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize account balance: %w", err)
	}
	e.logger.Info().Stringer("balance", balance).Str("currency", e.cfg.Currency).Msg("balance")

	listings, err := e.gw.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open orders: %w", err)
	}
	led, err := ledger.FromListings(listings)
	if err != nil {
		return nil, fmt.Errorf("load order ledger: %w", err)
	}
	if led.Len() == 0 {
		e.logger.Info().Msg("no existing buy orders found")
	}

	orderLimit := budget.DeriveLimit(balance, e.cfg.LimitMultiplier)
	available := budget.Available(orderLimit, led.TotalCommitted())

	summary := &Summary{
		Balance:    balance,
		OrderLimit: orderLimit,
	}

	e.logger.Info().
		Stringer("order_limit", orderLimit).
		Stringer("committed", led.TotalCommitted()).
		Stringer("available", available).
		Msg("buy-order limit derived")

	// Existing commitments alone may already exceed the ceiling; in that
	// case the run ends before any placement attempt.
	if available.Sign() <= 0 {
		e.logger.Warn().
			Stringer("committed", led.TotalCommitted()).
			Stringer("order_limit", orderLimit).
			Msg("buy-order limit exhausted, no placements attempted")
		summary.LimitExhausted = true
		summary.Committed = led.TotalCommitted()
		summary.Available = available
		return summary, nil
	}

	available = e.converge(ctx, items, led, balance, available, summary)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	summary.Committed = led.TotalCommitted()
	summary.Available = available
	return summary, nil
}

type itemState struct {
	item     catalog.Item
	attempts int
	lastErr  error
}

// converge repeatedly scans the catalog in input order and attempts to place
// every item that has no ledger entry yet. The loop is bounded two ways: a
// per-item attempt budget and an overall pass cap, so items that can never
// be placed end up in the failed set instead of spinning forever.
func (e *Engine) converge(ctx context.Context, items []catalog.Item, led *ledger.Ledger, balance, available money.Money, summary *Summary) money.Money {
	var remaining []*itemState
	for _, item := range items {
		if led.Contains(item.Name) {
			summary.AlreadyOrdered++
			continue
		}
		remaining = append(remaining, &itemState{item: item})
	}

	for pass := 1; pass <= e.cfg.MaxPasses && len(remaining) > 0 && ctx.Err() == nil; pass++ {
		var retry []*itemState
		for _, st := range remaining {
			if ctx.Err() != nil {
				return available
			}
			item := st.item
			cost := item.Cost()

			// Budget checks. Balance is fixed for the run and the
			// available ceiling only ever decreases, so a failed
			// check can never succeed on a later pass: the item is
			// terminally failed right away.
			var reason string
			switch {
			case item.UnitPrice.GreaterThan(balance):
				reason = ReasonPriceOverBalance
			case cost.GreaterThan(balance):
				reason = ReasonCostOverBalance
			case cost.GreaterThan(available):
				reason = ReasonCostOverLimit
			}
			if reason != "" {
				e.logger.Warn().Str("item", item.Name).Stringer("cost", cost).Msg(reason)
				summary.Failed = append(summary.Failed, ItemResult{Item: item, Attempts: st.attempts, Reason: reason})
				continue
			}

			st.attempts++
			orderID, err := e.gw.CreateOrder(ctx, item.Name, item.UnitPrice.MinorUnits(), item.Quantity, item.Game, e.cfg.Currency)
			if err != nil {
				st.lastErr = err
				e.logger.Warn().Err(err).
					Str("item", item.Name).
					Int("attempt", st.attempts).
					Msg("failed to create buy order")

				if st.attempts >= e.cfg.MaxItemAttempts {
					summary.Failed = append(summary.Failed, ItemResult{
						Item:     item,
						Attempts: st.attempts,
						Reason:   fmt.Sprintf("%s: %v", ReasonAttemptsExhausted, err),
					})
				} else {
					retry = append(retry, st)
				}
				e.pause(ctx)
				continue
			}

			if err := led.Record(item.Name, item.UnitPrice, item.Quantity); err != nil {
				// Should be unreachable: the scan only visits
				// unordered items.
				e.logger.Error().Err(err).Str("item", item.Name).Msg("ledger invariant violated")
				continue
			}
			available = available.Sub(cost)
			e.logger.Info().
				Str("item", item.Name).
				Str("order_id", orderID).
				Stringer("cost", cost).
				Stringer("available", available).
				Msg("buy order placed")

			summary.Placed = append(summary.Placed, ItemResult{Item: item, OrderID: orderID, Attempts: st.attempts})
			e.journalPlacement(item, orderID)
		}
		remaining = retry
	}

	for _, st := range remaining {
		reason := ReasonPassesExhausted
		if st.lastErr != nil {
			reason = fmt.Sprintf("%s: %v", ReasonPassesExhausted, st.lastErr)
		}
		summary.Failed = append(summary.Failed, ItemResult{Item: st.item, Attempts: st.attempts, Reason: reason})
	}

	return available
}

// fetchBalance retries transient balance failures a bounded number of times
// with a fixed delay, then fails the run. Rejected credentials fail
// immediately.
func (e *Engine) fetchBalance(ctx context.Context) (money.Money, error) {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.BalanceRetries; attempt++ {
		balance, err := e.gw.GetBalance(ctx)
		if err == nil {
			return balance, nil
		}
		if errors.Is(err, market.ErrInvalidCredentials) {
			return money.Zero(), err
		}
		lastErr = err
		e.logger.Warn().Err(err).Int("attempt", attempt).Msg("failed to fetch balance")

		if attempt < e.cfg.BalanceRetries {
			if err := sleepCtx(ctx, e.cfg.BalanceRetryDelay); err != nil {
				return money.Zero(), err
			}
		}
	}
	return money.Zero(), lastErr
}

func (e *Engine) journalPlacement(item catalog.Item, orderID string) {
	if e.jrnl == nil {
		return
	}
	err := e.jrnl.RecordPlacement(&journal.Placement{
		ItemName:   item.Name,
		Game:       item.Game,
		PriceMinor: item.UnitPrice.MinorUnits(),
		Quantity:   item.Quantity,
		Currency:   e.cfg.Currency,
		OrderRef:   orderID,
	})
	if err != nil {
		// The order is already live on the marketplace; a journal
		// failure must not fail the run.
		e.logger.Warn().Err(err).Str("item", item.Name).Msg("could not journal placement")
	}
}

// pause applies the fixed inter-attempt delay after a failed placement so
// the API is not hammered.
func (e *Engine) pause(ctx context.Context) {
	if e.cfg.AttemptDelay <= 0 {
		return
	}
	_ = sleepCtx(ctx, e.cfg.AttemptDelay)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
