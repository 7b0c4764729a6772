package amazon

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"orderharvest/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// InvoiceDoc is a named link to a downloadable invoice document.
type InvoiceDoc struct {
	Name string
	Url  string
}

// InvoiceDocuments loads the invoice view for id and returns every
// link whose target path ends in .pdf. an order without invoice
// documents yields an empty list, not an error.
func (c *Client) InvoiceDocuments(ctx context.Context, id string) ([]InvoiceDoc, error) {
	ctx, span := tracer.Start(ctx, "client:InvoiceDocuments")
	defer span.End()
	span.SetAttributes(attribute.String("order", id))

	err := c.page.Navigate(ctx, c.invoiceUrl(id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to navigate to invoice view")
		return nil, fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	// zero documents is valid, the wait just gives the popover markup
	// time to render
	_ = c.page.WaitVisible(ctx, selInvoiceAnchor, c.fieldTimeout)

	html, err := c.page.Content(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to snapshot invoice view")
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	docs := extractInvoiceDocs(ctx, doc, c.baseUrl)
	span.SetAttributes(attribute.Int("documents", len(docs)))
	return docs, nil
}

func extractInvoiceDocs(ctx context.Context, doc *goquery.Document, base *url.URL) []InvoiceDoc {
	var docs []InvoiceDoc
	for _, a := range htmlutil.GetAnchors(ctx, doc.Find(selInvoiceAnchor), base) {
		if !isPdfLink(a.Url) {
			continue
		}
		name := a.Name
		if name == "" {
			name = "invoice"
		}
		docs = append(docs, InvoiceDoc{Name: name, Url: a.Url})
	}
	return docs
}

func isPdfLink(raw string) bool {
	link, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(link.Path), ".pdf")
}
