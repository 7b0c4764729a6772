package harvest

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	_, found, err := store.ReadYearLedger(2024)
	require.NoError(t, err)
	require.False(t, found)

	ledger := YearLedger{
		Year:        2024,
		TotalOrders: 3,
		OrderIds:    []string{"a", "b", "c"},
	}
	require.NoError(t, store.WriteYearLedger(ledger))

	got, found, err := store.ReadYearLedger(2024)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, ledger, got)

	// the file keeps the camelCase wire names, existing checkpoints
	// from earlier runs must stay readable
	raw, err := os.ReadFile(store.yearLedgerPath(2024))
	require.NoError(t, err)
	require.Contains(t, string(raw), `"totalOrders"`)
	require.Contains(t, string(raw), `"orderIds"`)
}

func TestStoreLastWriteWins(t *testing.T) {
	store := NewStore(t.TempDir())

	require.NoError(t, store.WriteYearLedger(YearLedger{
		Year: 2024, TotalOrders: 25, OrderIds: []string{"a"},
	}))
	require.NoError(t, store.WriteYearLedger(YearLedger{
		Year: 2024, TotalOrders: 25, OrderIds: []string{"a", "b"},
	}))

	got, found, err := store.ReadYearLedger(2024)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"a", "b"}, got.OrderIds)
}

func TestStoreDetails(t *testing.T) {
	store := NewStore(t.TempDir())

	records, err := store.ReadYearDetails(2024)
	require.NoError(t, err)
	require.NotNil(t, records)
	require.Empty(t, records)

	records = []OrderRecord{
		{
			Id:          "028-0000000-0000001",
			Date:        "2024-03-05",
			TotalAmount: "EUR 23,90",
			Items: []OrderItem{
				{OrderId: "028-0000000-0000001", Title: "USB-C Kabel 2m", Quantity: 1},
			},
			InvoiceLinks: []Link{
				{Name: "Rechnung 1", Url: "https://www.amazon.de/documents/abc.pdf"},
			},
		},
	}
	require.NoError(t, store.WriteYearDetails(2024, records))

	got, err := store.ReadYearDetails(2024)
	require.NoError(t, err)
	require.Equal(t, records, got)

	raw, err := os.ReadFile(store.detailsPath(2024))
	require.NoError(t, err)
	require.Contains(t, string(raw), `"invoiceLinks"`)
	require.Contains(t, string(raw), `"paymentInstrument"`)
}

func TestAppendUniqueOrder(t *testing.T) {
	var records []OrderRecord

	records, added := AppendUniqueOrder(records, OrderRecord{Id: "a"})
	require.True(t, added)
	require.Len(t, records, 1)

	records, added = AppendUniqueOrder(records, OrderRecord{Id: "a", Date: "different"})
	require.False(t, added)
	require.Len(t, records, 1)
	require.Empty(t, records[0].Date)

	records, added = AppendUniqueOrder(records, OrderRecord{Id: "b"})
	require.True(t, added)
	require.Len(t, records, 2)
}

func TestIsComplete(t *testing.T) {
	require.False(t, YearLedger{}.IsComplete())
	require.False(t, YearLedger{TotalOrders: 2, OrderIds: []string{"a"}}.IsComplete())
	require.True(t, YearLedger{TotalOrders: 2, OrderIds: []string{"a", "b"}}.IsComplete())
}
