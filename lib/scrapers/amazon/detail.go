package amazon

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"orderharvest/lib/htmlutil"
	"orderharvest/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Order is the raw detail-page extraction for one order id. field
// values are page text as rendered, date included; interpreting them
// is the caller's business.
type Order struct {
	Id                string
	Date              string
	TotalAmount       string
	ShippingName      string
	ShippingAddress   string
	PaymentInstrument string
	Items             []Item
}

type Item struct {
	Title      string
	Asin       string
	Merchant   string
	MerchantId string
	Quantity   int
	UnitPrice  string
}

var asinRegex = regexp.MustCompile(`(?:/dp/|/gp/product/)([A-Z0-9]{10})`)
var merchantIdRegex = regexp.MustCompile(`[?&]seller=([A-Z0-9]+)`)

// OrderDetail loads the detail view for id and extracts the order
// record. every scalar field is read tolerantly: a field the page does
// not render within the field timeout comes back empty rather than
// failing the order. zero items is a valid outcome.
func (c *Client) OrderDetail(ctx context.Context, id string) (Order, error) {
	ctx, span := tracer.Start(ctx, "client:OrderDetail")
	defer span.End()
	span.SetAttributes(attribute.String("order", id))

	err := c.page.Navigate(ctx, c.detailUrl(id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to navigate to order detail")
		return Order{}, fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	err = c.page.WaitVisible(ctx, selDetailRoot, c.structureTimeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order detail container never appeared")
		return Order{}, fmt.Errorf("%w: detail container: %v", ErrUnexpectedStructure, err)
	}

	order := Order{
		Id:                id,
		Date:              c.fieldText(ctx, selOrderDate),
		ShippingName:      c.fieldText(ctx, selShippingName),
		ShippingAddress:   c.fieldText(ctx, selShippingAddress),
		PaymentInstrument: c.fieldText(ctx, selPaymentInstrument),
	}

	html, err := c.page.Content(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to snapshot order detail")
		return Order{}, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return Order{}, err
	}

	order.TotalAmount = extractTotal(doc)
	order.Items = extractItems(doc)

	span.SetAttributes(attribute.Int("items", len(order.Items)))
	return order, nil
}

// extractTotal reads the last charge-summary line, which is the grand
// total. the number of lines above it varies with shipping, discounts
// and vat, so the position from the top is meaningless.
func extractTotal(doc *goquery.Document) string {
	return htmlutil.CleanText(doc.Find(selChargeAmount).Last().Text())
}

func extractItems(doc *goquery.Document) []Item {
	var items []Item
	doc.Find(selItemBlock).Each(func(_ int, block *goquery.Selection) {
		titleLink := block.Find(selItemTitleLink).First()
		title := htmlutil.CleanText(titleLink.Text())
		asin := ""
		if groups := asinRegex.FindStringSubmatch(titleLink.AttrOr("href", "")); len(groups) > 1 {
			asin = groups[1]
		}
		if title == "" && asin == "" {
			return
		}

		merchantLink := block.Find(selItemMerchantLink).First()
		merchant := htmlutil.CleanText(merchantLink.Text())
		merchantId := ""
		if groups := merchantIdRegex.FindStringSubmatch(merchantLink.AttrOr("href", "")); len(groups) > 1 {
			merchantId = groups[1]
		}

		// the quantity badge is only rendered for quantities above one
		quantity, err := textutil.ExtractInt(block.Find(selItemQuantity).First().Text())
		if err != nil || quantity < 1 {
			quantity = 1
		}

		items = append(items, Item{
			Title:      title,
			Asin:       asin,
			Merchant:   merchant,
			MerchantId: merchantId,
			Quantity:   quantity,
			UnitPrice:  htmlutil.CleanText(block.Find(selItemPrice).First().Text()),
		})
	})
	return items
}
