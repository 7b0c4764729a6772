package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"orderharvest/lib/scrapers/amazon"
	"orderharvest/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type detailStats struct {
	collected int
	skipped   int
	invoices  int
}

// harvestOrderDetails walks the ledger's ids in order and collects a
// record for each one not yet on disk. the detail ledger is rewritten
// after every appended record, so progress survives a kill at
// single-order granularity. an order that fails for a recoverable
// reason is logged and skipped; navigation and persistence failures
// stop the run.
func (s Service) harvestOrderDetails(ctx context.Context, ledger YearLedger) (detailStats, error) {
	ctx, span := tracer.Start(ctx, "harvest:OrderDetails")
	defer span.End()
	span.SetAttributes(attribute.Int("year", ledger.Year))

	records, err := s.store.ReadYearDetails(ledger.Year)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read detail ledger")
		return detailStats{}, err
	}
	done := make(map[string]bool, len(records))
	for _, r := range records {
		done[r.Id] = true
	}

	var stats detailStats
	for i, id := range ledger.OrderIds {
		if done[id] {
			stats.skipped++
			continue
		}

		err = s.delay.Wait(ctx)
		if err != nil {
			return stats, err
		}

		record, err := s.collectOrder(ctx, ledger.Year, id)
		if err != nil {
			if isFatal(err) {
				span.RecordError(err)
				span.SetStatus(codes.Error, "order collection failed fatally")
				return stats, fmt.Errorf("order %s: %w", id, err)
			}
			slog.WarnContext(ctx, "skipping odd order", "order", id, "err", err)
			continue
		}

		var appended bool
		records, appended = AppendUniqueOrder(records, record)
		if !appended {
			stats.skipped++
			continue
		}
		err = s.store.WriteYearDetails(ledger.Year, records)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to persist detail ledger")
			return stats, err
		}
		stats.collected++
		stats.invoices += len(record.InvoiceLinks)

		slog.InfoContext(
			ctx, "order collected",
			"order", id,
			"progress", fmt.Sprintf("%d/%d", i+1, len(ledger.OrderIds)),
			"items", len(record.Items),
			"invoices", len(record.InvoiceLinks),
		)
	}

	span.SetAttributes(
		attribute.Int("collected", stats.collected),
		attribute.Int("skipped", stats.skipped),
	)
	return stats, nil
}

// collectOrder assembles the record for one id: detail fields, item
// list, invoice links, and the invoice documents downloaded into the
// year directory. a failed document download degrades to a logged
// warning, the link itself is still recorded.
func (s Service) collectOrder(ctx context.Context, year int, id string) (OrderRecord, error) {
	ctx, span := tracer.Start(ctx, "harvest:collectOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order", id))

	detail, err := s.storefront.OrderDetail(ctx, id)
	if err != nil {
		span.RecordError(err)
		return OrderRecord{}, err
	}

	record := OrderRecord{
		Id:                id,
		Date:              orderDate(ctx, detail.Date),
		TotalAmount:       detail.TotalAmount,
		ShippingName:      detail.ShippingName,
		ShippingAddress:   detail.ShippingAddress,
		PaymentInstrument: detail.PaymentInstrument,
		Items:             make([]OrderItem, 0, len(detail.Items)),
		InvoiceLinks:      []Link{},
	}
	for _, item := range detail.Items {
		record.Items = append(record.Items, OrderItem{
			OrderId:    id,
			Title:      item.Title,
			Asin:       item.Asin,
			Merchant:   item.Merchant,
			MerchantId: item.MerchantId,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		})
	}

	docs, err := s.storefront.InvoiceDocuments(ctx, id)
	if err != nil {
		span.RecordError(err)
		return OrderRecord{}, err
	}
	for _, doc := range docs {
		dest := filepath.Join(s.store.InvoiceDir(year), invoiceFilename(record, doc.Name))
		err = s.storefront.Download(ctx, doc.Url, dest)
		if err != nil {
			if isFatal(err) {
				span.RecordError(err)
				return OrderRecord{}, err
			}
			slog.WarnContext(
				ctx, "invoice download failed",
				"order", id, "invoice", doc.Name, "err", err,
			)
		}
		record.InvoiceLinks = append(record.InvoiceLinks, Link{Name: doc.Name, Url: doc.Url})
	}

	return record, nil
}

// orderDate normalizes the rendered date to iso-8601. a date the
// parser does not understand keeps its page text; there is no US
// month/day guessing here.
func orderDate(ctx context.Context, raw string) string {
	date, err := textutil.ParseLocalizedDate(raw)
	if err != nil {
		slog.WarnContext(ctx, "order date not parseable", "raw", raw)
		return raw
	}
	return date
}

// invoiceFilename derives the document filename:
// <date>_<source>_<orderId>_<invoiceName>_<amount>.pdf
func invoiceFilename(record OrderRecord, invoiceName string) string {
	parts := []string{
		textutil.SanitizeFilename(record.Date),
		amazon.Source,
		textutil.SanitizeFilename(record.Id),
		textutil.SanitizeFilename(invoiceName),
		textutil.SanitizeFilename(record.TotalAmount),
	}
	return strings.Join(parts, "_") + ".pdf"
}
