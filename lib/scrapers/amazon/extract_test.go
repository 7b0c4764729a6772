package amazon

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func fixtureDoc(t *testing.T, name string) *goquery.Document {
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	require.NoError(t, err)
	return doc
}

func TestExtractListing(t *testing.T) {
	doc := fixtureDoc(t, "order_listing.html")

	listing, err := extractListing(doc)
	require.NoError(t, err)

	data, err := json.MarshalIndent(listing, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "listing", append(data, '\n'))
}

func TestExtractListingRejectsEmptyPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div id="ordersContainer"><span class="num-orders">26 Bestellungen</span></div>`,
	))
	require.NoError(t, err)

	_, err = extractListing(doc)
	require.ErrorIs(t, err, ErrUnexpectedStructure)
}

func TestExtractOrderDetailSnapshot(t *testing.T) {
	doc := fixtureDoc(t, "order_detail.html")

	snapshot := struct {
		TotalAmount string
		Items       []Item
	}{
		TotalAmount: extractTotal(doc),
		Items:       extractItems(doc),
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "detail", append(data, '\n'))
}

func TestExtractInvoiceDocs(t *testing.T) {
	doc := fixtureDoc(t, "invoice_popover.html")
	base, err := url.Parse("https://www.amazon.de")
	require.NoError(t, err)

	docs := extractInvoiceDocs(context.Background(), doc, base)
	require.Equal(t, []InvoiceDoc{
		{
			Name: "Rechnung 1",
			Url:  "https://www.amazon.de/documents/download/abc123/invoice.pdf",
		},
		{
			Name: "Rechnung 2",
			Url:  "https://invoices.example-cdn.net/de/2024/de-2024-170321.pdf?X-Amz-Signature=deadbeef",
		},
	}, docs)
}

func TestUrlTemplates(t *testing.T) {
	client, err := NewClient(nil, ClientOptions{})
	require.NoError(t, err)

	require.Equal(
		t,
		"https://www.amazon.de/gp/css/order-history?timeFilter=year-2024&startIndex=20",
		client.listingUrl(2024, 2),
	)
	require.Equal(
		t,
		"https://www.amazon.de/gp/your-account/order-details?orderID=028-1234567-0000001",
		client.detailUrl("028-1234567-0000001"),
	)
	require.Equal(
		t,
		"https://www.amazon.de/gp/shared-cs/ajax/invoice/invoice.html?orderId=028-1234567-0000001",
		client.invoiceUrl("028-1234567-0000001"),
	)
}
