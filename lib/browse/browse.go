// package browse exposes the small slice of browser automation the
// harvesters actually need. keeping the surface this narrow means the
// scraping logic never touches playwright directly and can be tested
// against a static page fake.
package browse

import (
	"context"
	"net/http"
	"time"
)

// Page is a live browser tab. every lookup takes an explicit timeout so
// a missing element is a bounded miss, never a hang.
type Page interface {
	// Navigate loads the url and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until the first element matching selector is
	// visible, or fails after timeout.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// Text returns the text content of the first element matching
	// selector, failing after timeout if none appears.
	Text(ctx context.Context, selector string, timeout time.Duration) (string, error)
	// Attribute returns the named attribute of the first element
	// matching selector, failing after timeout if none appears.
	Attribute(ctx context.Context, selector string, attr string, timeout time.Duration) (string, error)
	// Content returns an HTML snapshot of the page in its current state.
	Content(ctx context.Context) (string, error)
	// URL reports the page's current location.
	URL() string
	// Download fetches url outside the browser, reusing the session's
	// cookies, and writes the body to dest.
	Download(ctx context.Context, url string, dest string) error
}

// Session owns a browser profile and the single page driven through it.
type Session interface {
	Page() Page
	Cookies(ctx context.Context, urls ...string) ([]*http.Cookie, error)
	Close() error
}
