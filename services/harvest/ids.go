package harvest

import (
	"context"
	"fmt"
	"log/slog"

	"orderharvest/lib/scrapers/amazon"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// harvestOrderIds walks the paginated listing until the ledger holds
// every order id the storefront reports for the year. the ledger is
// flushed after every page, so an interruption loses at most one page
// of work; a ledger that is already complete short-circuits without a
// single fetch.
func (s Service) harvestOrderIds(ctx context.Context, year int) (YearLedger, int, error) {
	ctx, span := tracer.Start(ctx, "harvest:OrderIds")
	defer span.End()
	span.SetAttributes(attribute.Int("year", year))

	ledger, found, err := s.store.ReadYearLedger(year)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read id ledger")
		return YearLedger{}, 0, err
	}
	if found && ledger.IsComplete() {
		slog.InfoContext(
			ctx, "id ledger already complete",
			"year", year, "orders", len(ledger.OrderIds),
		)
		span.SetAttributes(attribute.Bool("short_circuit", true))
		return ledger, 0, nil
	}
	if !found {
		ledger = YearLedger{Year: year}
	}

	seen := make(map[string]bool, len(ledger.OrderIds))
	for _, id := range ledger.OrderIds {
		seen[id] = true
	}

	// resume on the page the id count points at: the last page may have
	// been captured only partially, so it is fetched again and merged
	// rather than trusted
	page := len(ledger.OrderIds) / amazon.PageSize
	newIds := 0

	for {
		listing, err := s.storefront.OrdersPage(ctx, year, page)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch listing page")
			return YearLedger{}, 0, fmt.Errorf("listing page %d: %w", page, err)
		}

		// the server-reported total is read once and trusted from
		// then on, a persisted total survives restarts
		if ledger.TotalOrders == 0 {
			ledger.TotalOrders = listing.TotalOrders
		}
		totalPages := (ledger.TotalOrders + amazon.PageSize - 1) / amazon.PageSize

		added := 0
		for _, id := range listing.OrderIds {
			if seen[id] {
				continue
			}
			seen[id] = true
			ledger.OrderIds = append(ledger.OrderIds, id)
			added++
		}
		newIds += added

		err = s.store.WriteYearLedger(ledger)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to persist id ledger")
			return YearLedger{}, 0, err
		}

		slog.InfoContext(
			ctx, "listing page harvested",
			"year", year,
			"page", fmt.Sprintf("%d/%d", page+1, totalPages),
			"new_ids", added,
			"ids", len(ledger.OrderIds),
			"total", ledger.TotalOrders,
		)

		page++
		if page >= totalPages || ledger.IsComplete() {
			break
		}

		err = s.delay.Wait(ctx)
		if err != nil {
			return YearLedger{}, 0, err
		}
	}

	span.SetAttributes(
		attribute.Int("ids", len(ledger.OrderIds)),
		attribute.Int("new_ids", newIds),
	)
	return ledger, newIds, nil
}
