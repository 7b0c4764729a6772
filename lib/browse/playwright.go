package browse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"orderharvest/lib/restyutil"
	"orderharvest/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	pw "github.com/playwright-community/playwright-go"
)

// the browser context and the download client present the same identity,
// a ua mismatch between the two is an easy bot-detection tell
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

const navigationTimeout = time.Second * 60

type LaunchOptions struct {
	// ProfileDir holds the persistent browser profile so a manual login
	// survives across runs.
	ProfileDir string
	Headless   bool
	// BrowserPath points at a system chromium binary. when empty the
	// playwright-managed build is used, which must have been installed
	// beforehand.
	BrowserPath string
	// HttpDumpDir, when set, dumps every download exchange into the
	// directory for debugging bot walls. the directory is wiped on
	// launch.
	HttpDumpDir string
}

type PlaywrightSession struct {
	driver  *pw.Playwright
	browser pw.BrowserContext
	page    *playwrightPage
}

var _ Session = (*PlaywrightSession)(nil)

func NewPlaywrightSession(ctx context.Context, opts LaunchOptions) (*PlaywrightSession, error) {
	// installs the driver on first use, a no-op afterwards. browsers are
	// deliberately not pulled here, see LaunchOptions.BrowserPath.
	err := pw.Install(&pw.RunOptions{SkipInstallBrowsers: true})
	if err != nil {
		return nil, fmt.Errorf("install playwright driver: %w", err)
	}

	driver, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright driver: %w", err)
	}

	launchOpts := pw.BrowserTypeLaunchPersistentContextOptions{
		Headless:  pw.Bool(opts.Headless),
		UserAgent: pw.String(userAgent),
	}
	if opts.BrowserPath != "" {
		launchOpts.ExecutablePath = pw.String(opts.BrowserPath)
	}

	browser, err := driver.Chromium.LaunchPersistentContext(opts.ProfileDir, launchOpts)
	if err != nil {
		driver.Stop()
		return nil, fmt.Errorf("launch browser profile %q: %w", opts.ProfileDir, err)
	}

	var tab pw.Page
	if pages := browser.Pages(); len(pages) > 0 {
		tab = pages[0]
	} else {
		tab, err = browser.NewPage()
		if err != nil {
			browser.Close()
			driver.Stop()
			return nil, fmt.Errorf("open page: %w", err)
		}
	}

	s := &PlaywrightSession{
		driver:  driver,
		browser: browser,
	}
	s.page = &playwrightPage{
		session:  s,
		tab:      tab,
		download: newDownloadClient(opts.HttpDumpDir),
	}
	return s, nil
}

func newDownloadClient(dumpDir string) *resty.Client {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err == nil {
		client.SetCookieJar(jar)
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(time.Minute * 2)

	telemetry.InstrumentResty(client, "browse/download")
	if dumpDir != "" {
		restyutil.DumpExchanges(client, restyutil.NewFilesystemOutput(dumpDir))
	}

	return client
}

func (s *PlaywrightSession) Page() Page {
	return s.page
}

func (s *PlaywrightSession) Cookies(ctx context.Context, urls ...string) ([]*http.Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.browser.Cookies(urls...)
	if err != nil {
		return nil, fmt.Errorf("export cookies: %w", err)
	}
	cookies := make([]*http.Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  time.Unix(int64(c.Expires), 0),
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		})
	}
	return cookies, nil
}

func (s *PlaywrightSession) Close() error {
	var errlist []error
	if err := s.browser.Close(); err != nil {
		errlist = append(errlist, err)
	}
	if err := s.driver.Stop(); err != nil {
		errlist = append(errlist, err)
	}
	return errors.Join(errlist...)
}

type playwrightPage struct {
	session  *PlaywrightSession
	tab      pw.Page
	download *resty.Client
}

var _ Page = (*playwrightPage)(nil)

func (p *playwrightPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// domcontentloaded, not networkidle: storefront pages hold
	// long-polling connections open and would never go idle
	_, err := p.tab.Goto(url, pw.PageGotoOptions{
		WaitUntil: pw.WaitUntilStateDomcontentloaded,
		Timeout:   pw.Float(float64(navigationTimeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("navigate to %q: %w", url, err)
	}
	return nil
}

func (p *playwrightPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.tab.Locator(selector).First().WaitFor(pw.LocatorWaitForOptions{
		State:   pw.WaitForSelectorStateVisible,
		Timeout: pw.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return nil
}

func (p *playwrightPage) Text(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := p.tab.Locator(selector).First().TextContent(pw.LocatorTextContentOptions{
		Timeout: pw.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return "", fmt.Errorf("text of %q: %w", selector, err)
	}
	return text, nil
}

func (p *playwrightPage) Attribute(ctx context.Context, selector string, attr string, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	value, err := p.tab.Locator(selector).First().GetAttribute(attr, pw.LocatorGetAttributeOptions{
		Timeout: pw.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return "", fmt.Errorf("attribute %q of %q: %w", attr, selector, err)
	}
	return value, nil
}

func (p *playwrightPage) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := p.tab.Content()
	if err != nil {
		return "", fmt.Errorf("snapshot page: %w", err)
	}
	return html, nil
}

func (p *playwrightPage) URL() string {
	return p.tab.URL()
}

func (p *playwrightPage) Download(ctx context.Context, url string, dest string) error {
	cookies, err := p.session.Cookies(ctx, url)
	if err != nil {
		return err
	}

	res, err := p.download.R().
		SetContext(ctx).
		SetCookies(cookies).
		SetOutput(dest).
		Get(url)
	if err != nil {
		return fmt.Errorf("download %q: %w", url, err)
	}
	if res.StatusCode() >= 400 {
		return fmt.Errorf("download %q: status %s", url, res.Status())
	}
	return nil
}
