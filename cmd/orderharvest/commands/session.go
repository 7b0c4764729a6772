package commands

import (
	"context"

	"orderharvest/lib/browse"
	"orderharvest/lib/scrapers/amazon"
)

// openStorefront launches the browser profile and builds the
// storefront client on top of it. callers own the returned session
// and must Close it.
func openStorefront(ctx context.Context, cfg Config, headless bool) (*browse.PlaywrightSession, *amazon.Client, error) {
	opts := browse.LaunchOptions{
		ProfileDir:  cfg.ProfileDir,
		Headless:    headless,
		BrowserPath: cfg.BrowserPath,
	}
	if *debug {
		opts.HttpDumpDir = ".dev/resty/download"
	}

	session, err := browse.NewPlaywrightSession(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	client, err := amazon.NewClient(session.Page(), amazon.ClientOptions{
		BaseUrl: cfg.BaseUrl,
	})
	if err != nil {
		session.Close()
		return nil, nil, err
	}
	return session, client, nil
}
