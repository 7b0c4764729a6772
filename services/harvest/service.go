// package harvest is the resumable pipeline core: it walks the
// paginated order listing into an id ledger, then collects a detail
// record and the invoice documents for every id not yet on disk.
// progress is persisted after every page and after every order, so a
// killed process resumes where it stopped instead of re-fetching work
// it already paid for.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"orderharvest/lib/scrapers/amazon"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/harvest")

// Storefront is the slice of the storefront client the harvesters
// consume. amazon.Client satisfies it; tests substitute a scripted
// double.
type Storefront interface {
	OrdersPage(ctx context.Context, year, page int) (amazon.ListingPage, error)
	OrderDetail(ctx context.Context, id string) (amazon.Order, error)
	InvoiceDocuments(ctx context.Context, id string) ([]amazon.InvoiceDoc, error)
	Download(ctx context.Context, url string, dest string) error
}

type Options struct {
	Storefront Storefront
	Store      Store
	Delay      Delay
}

type Service struct {
	storefront Storefront
	store      Store
	delay      Delay
}

func NewService(opts Options) Service {
	return Service{
		storefront: opts.Storefront,
		store:      opts.Store,
		delay:      opts.Delay,
	}
}

// Summary reports what one pipeline run did.
type Summary struct {
	Year        int
	RunId       string
	TotalOrders int
	// KnownIds is the ledger size after the listing walk, NewIds how
	// many of those this run discovered.
	KnownIds int
	NewIds   int
	// Collected counts records written this run, Skipped the ids that
	// were already on disk.
	Collected int
	Skipped   int
	Invoices  int
	Duration  time.Duration
}

// Run executes the full pipeline for one year: id harvest, then detail
// harvest. any error that reaches the caller means the run stopped;
// everything persisted up to that point is valid resume state.
func (s Service) Run(ctx context.Context, year int) (Summary, error) {
	runId := uuid.NewString()
	ctx, span := tracer.Start(ctx, "harvest:Run")
	defer span.End()
	span.SetAttributes(attribute.Int("year", year), attribute.String("run_id", runId))

	start := time.Now()
	slog.InfoContext(ctx, "starting harvest", "year", year, "run_id", runId)

	ledger, newIds, err := s.harvestOrderIds(ctx, year)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order id harvest failed")
		return Summary{}, fmt.Errorf("harvest order ids for %d: %w", year, err)
	}

	stats, err := s.harvestOrderDetails(ctx, ledger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order detail harvest failed")
		return Summary{}, fmt.Errorf("harvest order details for %d: %w", year, err)
	}

	summary := Summary{
		Year:        year,
		RunId:       runId,
		TotalOrders: ledger.TotalOrders,
		KnownIds:    len(ledger.OrderIds),
		NewIds:      newIds,
		Collected:   stats.collected,
		Skipped:     stats.skipped,
		Invoices:    stats.invoices,
		Duration:    time.Since(start),
	}
	slog.InfoContext(
		ctx, "harvest finished",
		"year", year,
		"orders", summary.KnownIds,
		"collected", summary.Collected,
		"skipped", summary.Skipped,
		"invoices", summary.Invoices,
		"duration", summary.Duration.Round(time.Second).String(),
	)
	return summary, nil
}

// isFatal separates "this order is odd" from "the session or the disk
// is gone". only the latter stops the run.
func isFatal(err error) bool {
	return errors.Is(err, amazon.ErrNavigation) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
