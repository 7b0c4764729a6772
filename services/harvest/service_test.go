package harvest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"orderharvest/lib/scrapers/amazon"
	"orderharvest/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// fakeStorefront replays scripted listing pages, orders and invoice
// documents, recording every fetch so tests can assert exactly how
// much work a run performed.
type fakeStorefront struct {
	pages    map[int]amazon.ListingPage
	orders   map[string]amazon.Order
	invoices map[string][]amazon.InvoiceDoc

	pageErrs  map[int]error
	orderErrs map[string]error

	pageFetches   []int
	detailFetches []string
	downloads     map[string]string
}

var _ Storefront = (*fakeStorefront)(nil)

func (f *fakeStorefront) OrdersPage(ctx context.Context, year, page int) (amazon.ListingPage, error) {
	f.pageFetches = append(f.pageFetches, page)
	if err := f.pageErrs[page]; err != nil {
		return amazon.ListingPage{}, err
	}
	listing, ok := f.pages[page]
	if !ok {
		return amazon.ListingPage{}, fmt.Errorf("%w: no listing page %d", amazon.ErrUnexpectedStructure, page)
	}
	return listing, nil
}

func (f *fakeStorefront) OrderDetail(ctx context.Context, id string) (amazon.Order, error) {
	f.detailFetches = append(f.detailFetches, id)
	if err := f.orderErrs[id]; err != nil {
		return amazon.Order{}, err
	}
	order, ok := f.orders[id]
	if !ok {
		return amazon.Order{}, fmt.Errorf("%w: no order %s", amazon.ErrUnexpectedStructure, id)
	}
	return order, nil
}

func (f *fakeStorefront) InvoiceDocuments(ctx context.Context, id string) ([]amazon.InvoiceDoc, error) {
	return f.invoices[id], nil
}

func (f *fakeStorefront) Download(ctx context.Context, url string, dest string) error {
	if f.downloads == nil {
		f.downloads = map[string]string{}
	}
	f.downloads[url] = dest
	return nil
}

func orderIds(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("028-0000000-%07d", i+1)
	}
	return ids
}

func listingPages(ids []string, total int) map[int]amazon.ListingPage {
	pages := map[int]amazon.ListingPage{}
	for start := 0; start < len(ids); start += amazon.PageSize {
		end := start + amazon.PageSize
		if end > len(ids) {
			end = len(ids)
		}
		pages[start/amazon.PageSize] = amazon.ListingPage{
			OrderIds:    ids[start:end],
			TotalOrders: total,
		}
	}
	return pages
}

func scriptedOrders(ids []string) map[string]amazon.Order {
	orders := map[string]amazon.Order{}
	for _, id := range ids {
		orders[id] = amazon.Order{
			Id:                id,
			Date:              "5. März 2024",
			TotalAmount:       "EUR 23,90",
			ShippingName:      "Max Mustermann",
			ShippingAddress:   "Max Mustermann, Musterstraße 12, 12345 Berlin",
			PaymentInstrument: "Visa mit den Endziffern 4242",
			Items: []amazon.Item{{
				Title:      "USB-C Kabel 2m",
				Asin:       "B07PGL2ZSL",
				Merchant:   "KabelWerk GmbH",
				MerchantId: "A1KABELWERK00",
				Quantity:   1,
				UnitPrice:  "EUR 23,90",
			}},
		}
	}
	return orders
}

func setupService(t *testing.T, front *fakeStorefront) (Service, Store) {
	t.Helper()
	t.Cleanup(telemetry.SetupForTesting("test:services/harvest"))
	store := NewStore(t.TempDir())
	return NewService(Options{Storefront: front, Store: store}), store
}

func TestHarvestOrderIds(t *testing.T) {
	ids := orderIds(25)
	front := &fakeStorefront{pages: listingPages(ids, 25)}
	svc, store := setupService(t, front)

	ledger, newIds, err := svc.harvestOrderIds(context.Background(), 2024)
	require.NoError(t, err)
	require.Equal(t, 25, newIds)
	require.Equal(t, 25, ledger.TotalOrders)
	require.Equal(t, ids, ledger.OrderIds)
	require.True(t, ledger.IsComplete())
	require.Equal(t, []int{0, 1, 2}, front.pageFetches)

	persisted, found, err := store.ReadYearLedger(2024)
	require.NoError(t, err)
	require.True(t, found)
	require.Empty(t, cmp.Diff(ledger, persisted))
}

func TestHarvestOrderIdsShortCircuits(t *testing.T) {
	ids := orderIds(25)
	front := &fakeStorefront{pages: listingPages(ids, 25)}
	svc, store := setupService(t, front)

	first, _, err := svc.harvestOrderIds(context.Background(), 2024)
	require.NoError(t, err)

	// a complete ledger means the second run never touches the
	// storefront at all
	front2 := &fakeStorefront{pages: listingPages(ids, 25)}
	svc2 := NewService(Options{Storefront: front2, Store: store})
	second, newIds, err := svc2.harvestOrderIds(context.Background(), 2024)
	require.NoError(t, err)
	require.Zero(t, newIds)
	require.Empty(t, front2.pageFetches)
	require.Empty(t, cmp.Diff(first, second))
}

func TestHarvestOrderIdsResumes(t *testing.T) {
	ids := orderIds(25)
	front := &fakeStorefront{pages: listingPages(ids, 25)}
	svc, store := setupService(t, front)

	// a run killed after the first page left 10 ids behind
	require.NoError(t, store.WriteYearLedger(YearLedger{
		Year:        2024,
		TotalOrders: 25,
		OrderIds:    ids[:10],
	}))

	resumed, newIds, err := svc.harvestOrderIds(context.Background(), 2024)
	require.NoError(t, err)
	require.Equal(t, 15, newIds)
	require.Equal(t, []int{1, 2}, front.pageFetches)

	// the resumed ledger is indistinguishable from one harvested in a
	// single uninterrupted run
	front2 := &fakeStorefront{pages: listingPages(ids, 25)}
	svc2 := NewService(Options{Storefront: front2, Store: NewStore(t.TempDir())})
	uninterrupted, _, err := svc2.harvestOrderIds(context.Background(), 2024)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(uninterrupted, resumed))
}

func TestHarvestOrderIdsResumesOnPartialPage(t *testing.T) {
	ids := orderIds(28)
	front := &fakeStorefront{pages: listingPages(ids, 28)}
	svc, store := setupService(t, front)

	// 25 known ids resume on page 2: the partially captured page is
	// fetched again and merged, pages 0 and 1 are not
	require.NoError(t, store.WriteYearLedger(YearLedger{
		Year:        2024,
		TotalOrders: 28,
		OrderIds:    ids[:25],
	}))

	ledger, newIds, err := svc.harvestOrderIds(context.Background(), 2024)
	require.NoError(t, err)
	require.Equal(t, 3, newIds)
	require.Equal(t, []int{2}, front.pageFetches)
	require.Equal(t, ids, ledger.OrderIds)
	require.True(t, ledger.IsComplete())
}

func TestHarvestOrderIdsListingFailure(t *testing.T) {
	front := &fakeStorefront{
		pages:    listingPages(orderIds(25), 25),
		pageErrs: map[int]error{0: fmt.Errorf("%w: no order ids on page", amazon.ErrUnexpectedStructure)},
	}
	svc, store := setupService(t, front)

	_, _, err := svc.harvestOrderIds(context.Background(), 2024)
	require.ErrorIs(t, err, amazon.ErrUnexpectedStructure)

	// nothing was persisted for the failed page
	_, found, err := store.ReadYearLedger(2024)
	require.NoError(t, err)
	require.False(t, found)
}

func TestHarvestOrderDetails(t *testing.T) {
	ids := orderIds(3)
	front := &fakeStorefront{
		orders: scriptedOrders(ids),
		invoices: map[string][]amazon.InvoiceDoc{
			ids[0]: {{Name: "Rechnung 1", Url: "https://www.amazon.de/documents/abc.pdf"}},
		},
	}
	svc, store := setupService(t, front)
	ledger := YearLedger{Year: 2024, TotalOrders: 3, OrderIds: ids}

	stats, err := svc.harvestOrderDetails(context.Background(), ledger)
	require.NoError(t, err)
	require.Equal(t, 3, stats.collected)
	require.Zero(t, stats.skipped)
	require.Equal(t, 1, stats.invoices)
	require.Equal(t, ids, front.detailFetches)

	records, err := store.ReadYearDetails(2024)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Empty(t, cmp.Diff(OrderRecord{
		Id:                ids[0],
		Date:              "2024-03-05",
		TotalAmount:       "EUR 23,90",
		ShippingName:      "Max Mustermann",
		ShippingAddress:   "Max Mustermann, Musterstraße 12, 12345 Berlin",
		PaymentInstrument: "Visa mit den Endziffern 4242",
		Items: []OrderItem{{
			OrderId:    ids[0],
			Title:      "USB-C Kabel 2m",
			Asin:       "B07PGL2ZSL",
			Merchant:   "KabelWerk GmbH",
			MerchantId: "A1KABELWERK00",
			Quantity:   1,
			UnitPrice:  "EUR 23,90",
		}},
		InvoiceLinks: []Link{{Name: "Rechnung 1", Url: "https://www.amazon.de/documents/abc.pdf"}},
	}, records[0]))

	// the document landed in the year partition under the derived name
	require.Equal(
		t,
		filepath.Join(store.InvoiceDir(2024), "2024-03-05_amazon_"+ids[0]+"_Rechnung-1_EUR-23-90.pdf"),
		front.downloads["https://www.amazon.de/documents/abc.pdf"],
	)
}

func TestHarvestOrderDetailsSkipsCollected(t *testing.T) {
	ids := orderIds(3)
	front := &fakeStorefront{orders: scriptedOrders(ids)}
	svc, store := setupService(t, front)
	require.NoError(t, store.WriteYearDetails(2024, []OrderRecord{{Id: ids[0]}}))

	stats, err := svc.harvestOrderDetails(context.Background(), YearLedger{
		Year: 2024, TotalOrders: 3, OrderIds: ids,
	})
	require.NoError(t, err)
	require.Equal(t, 2, stats.collected)
	require.Equal(t, 1, stats.skipped)
	require.Equal(t, ids[1:], front.detailFetches)

	records, err := store.ReadYearDetails(2024)
	require.NoError(t, err)
	require.Len(t, records, 3)
}

func TestHarvestOrderDetailsToleratesOddOrders(t *testing.T) {
	ids := orderIds(3)
	front := &fakeStorefront{
		orders: scriptedOrders(ids),
		orderErrs: map[string]error{
			ids[1]: fmt.Errorf("%w: no detail container", amazon.ErrUnexpectedStructure),
		},
	}
	svc, store := setupService(t, front)

	stats, err := svc.harvestOrderDetails(context.Background(), YearLedger{
		Year: 2024, TotalOrders: 3, OrderIds: ids,
	})
	require.NoError(t, err)
	require.Equal(t, 2, stats.collected)

	records, err := store.ReadYearDetails(2024)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, ids[0], records[0].Id)
	require.Equal(t, ids[2], records[1].Id)
}

func TestHarvestOrderDetailsStopsOnNavigationFailure(t *testing.T) {
	ids := orderIds(3)
	front := &fakeStorefront{
		orders: scriptedOrders(ids),
		orderErrs: map[string]error{
			ids[1]: fmt.Errorf("%w: net::ERR_CONNECTION_REFUSED", amazon.ErrNavigation),
		},
	}
	svc, store := setupService(t, front)

	_, err := svc.harvestOrderDetails(context.Background(), YearLedger{
		Year: 2024, TotalOrders: 3, OrderIds: ids,
	})
	require.ErrorIs(t, err, amazon.ErrNavigation)

	// everything collected before the failure is on disk
	records, err := store.ReadYearDetails(2024)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, ids[0], records[0].Id)
}

func TestRun(t *testing.T) {
	ids := orderIds(25)
	front := &fakeStorefront{
		pages:  listingPages(ids, 25),
		orders: scriptedOrders(ids),
		invoices: map[string][]amazon.InvoiceDoc{
			ids[0]: {{Name: "Rechnung 1", Url: "https://www.amazon.de/documents/abc.pdf"}},
		},
	}
	svc, store := setupService(t, front)

	summary, err := svc.Run(context.Background(), 2024)
	require.NoError(t, err)
	require.Equal(t, 2024, summary.Year)
	require.NotEmpty(t, summary.RunId)
	require.Equal(t, 25, summary.TotalOrders)
	require.Equal(t, 25, summary.KnownIds)
	require.Equal(t, 25, summary.NewIds)
	require.Equal(t, 25, summary.Collected)
	require.Zero(t, summary.Skipped)
	require.Equal(t, 1, summary.Invoices)

	// the second run finds everything on disk and performs no
	// storefront work at all
	front2 := &fakeStorefront{pages: listingPages(ids, 25), orders: scriptedOrders(ids)}
	svc2 := NewService(Options{Storefront: front2, Store: store})
	summary2, err := svc2.Run(context.Background(), 2024)
	require.NoError(t, err)
	require.Zero(t, summary2.NewIds)
	require.Zero(t, summary2.Collected)
	require.Equal(t, 25, summary2.Skipped)
	require.Empty(t, front2.pageFetches)
	require.Empty(t, front2.detailFetches)
}
