package amazon

import (
	"context"
	"fmt"
	"strings"

	"orderharvest/lib/htmlutil"
	"orderharvest/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ListingPage is one page of the year-scoped order listing.
type ListingPage struct {
	// OrderIds in the order the storefront rendered them.
	OrderIds []string
	// TotalOrders is the server-reported order count for the whole
	// year, shown in the listing caption on every page.
	TotalOrders int
}

// OrdersPage loads page (0-indexed) of the order listing for year and
// extracts the visible order ids plus the server-reported total. a page
// that renders without order ids or without the count caption fails
// with ErrUnexpectedStructure.
func (c *Client) OrdersPage(ctx context.Context, year, page int) (ListingPage, error) {
	ctx, span := tracer.Start(ctx, "client:OrdersPage")
	defer span.End()
	span.SetAttributes(attribute.Int("year", year), attribute.Int("page", page))

	err := c.page.Navigate(ctx, c.listingUrl(year, page))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to navigate to order listing")
		return ListingPage{}, fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	err = c.page.WaitVisible(ctx, selOrdersContainer, c.structureTimeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order listing container never appeared")
		return ListingPage{}, fmt.Errorf("%w: listing container: %v", ErrUnexpectedStructure, err)
	}

	html, err := c.page.Content(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to snapshot listing")
		return ListingPage{}, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return ListingPage{}, err
	}

	listing, err := extractListing(doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to extract listing")
		return ListingPage{}, fmt.Errorf("page %d: %w", page, err)
	}

	span.SetAttributes(
		attribute.Int("ids", len(listing.OrderIds)),
		attribute.Int("total", listing.TotalOrders),
	)
	return listing, nil
}

func extractListing(doc *goquery.Document) (ListingPage, error) {
	var ids []string
	for _, node := range doc.Find(selOrderId).Nodes {
		id := htmlutil.CleanText(htmlutil.GetText(node))
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return ListingPage{}, fmt.Errorf("%w: no order ids found", ErrUnexpectedStructure)
	}

	caption := htmlutil.CleanText(doc.Find(selOrderCount).First().Text())
	total, err := textutil.ExtractInt(caption)
	if err != nil {
		return ListingPage{}, fmt.Errorf("%w: order count caption %q", ErrUnexpectedStructure, caption)
	}

	return ListingPage{OrderIds: ids, TotalOrders: total}, nil
}
