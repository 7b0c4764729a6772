// package amazon holds the page-shape knowledge for the amazon order
// history: url templates, selectors and the extraction of structured
// records out of rendered markup. everything network-facing goes
// through a browse.Page so the whole package can be exercised against
// canned html.
package amazon

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"orderharvest/lib/browse"
	"orderharvest/lib/htmlutil"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/amazon")

// Source names the storefront in download filenames and summaries.
const Source = "amazon"

// PageSize is the server-side page size of the order listing view.
// it is a contract of the storefront, not a tunable.
const PageSize = 10

var (
	// ErrNavigation marks failures reaching the storefront at all, as
	// opposed to a page that loaded with unexpected contents. callers
	// treat these as fatal for the whole run.
	ErrNavigation = fmt.Errorf("navigation failed")
	// ErrUnexpectedStructure marks a page that rendered without the
	// markup the selectors expect.
	ErrUnexpectedStructure = fmt.Errorf("unexpected page structure")
)

const (
	selOrdersContainer   = "#ordersContainer"
	selOrderId           = ".order-card .yohtmlc-order-id span[dir=ltr]"
	selOrderCount        = "span.num-orders"
	selDetailRoot        = "#orderDetails"
	selOrderDate         = "span.order-date-invoice-item"
	selShippingName      = ".displayAddressDiv .displayAddressFullName"
	selShippingAddress   = ".displayAddressDiv"
	selPaymentInstrument = ".pmts-payments-instrument-details"
	selChargeAmount      = "#od-subtotals div.a-row div.a-span-last"
	selItemBlock         = ".a-box.shipment .yohtmlc-item"
	selItemTitleLink     = "a.a-link-normal[href*='/dp/'], a.a-link-normal[href*='/gp/product/']"
	selItemMerchantLink  = "a[href*='seller=']"
	selItemQuantity      = "span.item-view-qty"
	selItemPrice         = "span.a-color-price"
	selInvoiceAnchor     = "a[href]"
)

type ClientOptions struct {
	// BaseUrl is the storefront root, e.g. https://www.amazon.de.
	BaseUrl string
	// FieldTimeout bounds every tolerant per-field lookup.
	FieldTimeout time.Duration
	// StructureTimeout bounds the wait for a page's main container.
	StructureTimeout time.Duration
}

type Client struct {
	page             browse.Page
	baseUrl          *url.URL
	fieldTimeout     time.Duration
	structureTimeout time.Duration
}

func NewClient(page browse.Page, opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://www.amazon.de"
	}
	if opts.FieldTimeout == 0 {
		opts.FieldTimeout = time.Second * 5
	}
	if opts.StructureTimeout == 0 {
		opts.StructureTimeout = time.Second * 20
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	return &Client{
		page:             page,
		baseUrl:          baseUrl,
		fieldTimeout:     opts.FieldTimeout,
		structureTimeout: opts.StructureTimeout,
	}, nil
}

func (c *Client) listingUrl(year, page int) string {
	return fmt.Sprintf(
		"%s/gp/css/order-history?timeFilter=year-%d&startIndex=%d",
		c.baseUrl, year, page*PageSize,
	)
}

func (c *Client) orderHistoryUrl() string {
	return fmt.Sprintf("%s/gp/css/order-history", c.baseUrl)
}

func (c *Client) detailUrl(id string) string {
	return fmt.Sprintf("%s/gp/your-account/order-details?orderID=%s", c.baseUrl, url.QueryEscape(id))
}

func (c *Client) invoiceUrl(id string) string {
	return fmt.Sprintf("%s/gp/shared-cs/ajax/invoice/invoice.html?orderId=%s", c.baseUrl, url.QueryEscape(id))
}

// fieldText is the tolerant per-field accessor: a field that is missing
// or slow to render degrades to an empty value instead of failing the
// order it belongs to.
func (c *Client) fieldText(ctx context.Context, selector string) string {
	text, err := c.page.Text(ctx, selector, c.fieldTimeout)
	if err != nil {
		slog.DebugContext(ctx, "field lookup missed", "selector", selector)
		return ""
	}
	return htmlutil.CleanText(text)
}

// Download fetches an invoice document into dest using the browser
// session's cookies.
func (c *Client) Download(ctx context.Context, url string, dest string) error {
	ctx, span := tracer.Start(ctx, "client:Download")
	defer span.End()

	err := c.page.Download(ctx, url, dest)
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
