// package export materializes a year's harvested ledgers into
// downstream formats: a sqlite database for ad-hoc querying and an
// xlsx workbook for spreadsheet people. exports are derived data, the
// json ledgers stay the source of truth and re-exporting over an
// existing target is always safe.
package export

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"orderharvest/lib/sqliteutil"
	"orderharvest/services/export/db"
	"orderharvest/services/harvest"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/export")

type Service struct {
	store harvest.Store
}

func NewService(store harvest.Store) Service {
	return Service{store: store}
}

// ToSqlite writes the year's records into the database at path,
// creating and migrating it as needed. returns the exported record
// count.
func (s Service) ToSqlite(ctx context.Context, year int, path string) (int, error) {
	ctx, span := tracer.Start(ctx, "export:ToSqlite")
	defer span.End()
	span.SetAttributes(attribute.Int("year", year), attribute.String("path", path))

	records, err := s.store.ReadYearDetails(year)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read detail ledger")
		return 0, err
	}

	sqlite, err := sqliteutil.OpenAndMigrateDB(db.Schema, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open export db")
		return 0, err
	}
	defer sqlite.Close()

	err = NewStore(sqlite).Push(ctx, year, records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to push records")
		return 0, err
	}

	slog.InfoContext(
		ctx, "sqlite export complete",
		"year", year, "orders", len(records), "path", path,
	)
	return len(records), nil
}

var orderHeaders = []string{
	"Date",
	"Order Id",
	"Total",
	"Shipping Name",
	"Shipping Address",
	"Payment Instrument",
	"Items",
	"Invoices",
}

var itemHeaders = []string{
	"Order Id",
	"Title",
	"ASIN",
	"Merchant",
	"Merchant Id",
	"Quantity",
	"Unit Price",
}

// ToWorkbook writes the year's records into an xlsx workbook at path,
// an Orders sheet with one row per order and an Items sheet with one
// row per line item.
func (s Service) ToWorkbook(ctx context.Context, year int, path string) (int, error) {
	ctx, span := tracer.Start(ctx, "export:ToWorkbook")
	defer span.End()
	span.SetAttributes(attribute.Int("year", year), attribute.String("path", path))

	records, err := s.store.ReadYearDetails(year)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read detail ledger")
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const ordersSheet = "Orders"
	const itemsSheet = "Items"
	err = f.SetSheetName("Sheet1", ordersSheet)
	if err != nil {
		return 0, err
	}
	_, err = f.NewSheet(itemsSheet)
	if err != nil {
		return 0, err
	}

	write := func(sheet string, col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	for i, h := range orderHeaders {
		write(ordersSheet, i+1, 1, h)
	}
	for i, h := range itemHeaders {
		write(itemsSheet, i+1, 1, h)
	}

	itemRow := 2
	for i, r := range records {
		row := i + 2
		write(ordersSheet, 1, row, r.Date)
		write(ordersSheet, 2, row, r.Id)
		write(ordersSheet, 3, row, r.TotalAmount)
		write(ordersSheet, 4, row, r.ShippingName)
		write(ordersSheet, 5, row, r.ShippingAddress)
		write(ordersSheet, 6, row, r.PaymentInstrument)
		write(ordersSheet, 7, row, len(r.Items))
		write(ordersSheet, 8, row, len(r.InvoiceLinks))

		for _, item := range r.Items {
			write(itemsSheet, 1, itemRow, item.OrderId)
			write(itemsSheet, 2, itemRow, item.Title)
			write(itemsSheet, 3, itemRow, item.Asin)
			write(itemsSheet, 4, itemRow, item.Merchant)
			write(itemsSheet, 5, itemRow, item.MerchantId)
			write(itemsSheet, 6, itemRow, item.Quantity)
			write(itemsSheet, 7, itemRow, item.UnitPrice)
			itemRow++
		}
	}

	_ = f.SetColWidth(ordersSheet, "A", "B", 20)
	_ = f.SetColWidth(ordersSheet, "C", "C", 14)
	_ = f.SetColWidth(ordersSheet, "D", "E", 32)
	_ = f.SetColWidth(ordersSheet, "F", "F", 28)
	_ = f.SetColWidth(itemsSheet, "A", "A", 20)
	_ = f.SetColWidth(itemsSheet, "B", "B", 48)
	_ = f.SetColWidth(itemsSheet, "C", "E", 16)

	err = os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	err = f.SaveAs(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save workbook")
		return 0, err
	}

	slog.InfoContext(
		ctx, "workbook export complete",
		"year", year, "orders", len(records), "path", path,
	)
	return len(records), nil
}
