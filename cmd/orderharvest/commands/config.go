package commands

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"orderharvest/lib/configutil"
	"orderharvest/services/harvest"
)

// Config drives the CLI. every field can also come from an
// ORDERHARVEST_* environment variable, which wins over the file.
type Config struct {
	// Year defaults to the current year when unset.
	Year int `json:"year"`
	// DownloadDir holds the checkpoint ledgers and the per-year
	// invoice directories.
	DownloadDir string `json:"downloadDir"`
	// BaseUrl is the storefront root, defaults to https://www.amazon.de.
	BaseUrl string `json:"baseUrl"`
	// Headless hides the browser window. unset means headless;
	// `orderharvest login` always opens a window regardless.
	Headless *bool `json:"headless"`
	// ProfileDir is the persistent browser profile carrying the
	// signed-in session.
	ProfileDir string `json:"profileDir"`
	// BrowserPath points at a chromium binary, empty uses the
	// playwright-managed one.
	BrowserPath string `json:"browserPath"`
	// DelayMinMs/DelayMaxMs bound the randomized pause between
	// storefront requests. unset means 800-2000ms, an explicit
	// delayMaxMs of 0 disables the pause.
	DelayMinMs int  `json:"delayMinMs"`
	DelayMaxMs *int `json:"delayMaxMs"`

	headless bool
	delay    harvest.Delay
}

func loadConfig() (Config, error) {
	cfg, err := configutil.ReadConfig[Config](*configPath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("no config file found, using defaults", "path", *configPath)
		cfg = Config{}
	} else if err != nil {
		return Config{}, err
	}

	cfg.Year = configutil.EnvInt("ORDERHARVEST_YEAR", cfg.Year)
	if cfg.Year == 0 {
		cfg.Year = time.Now().Year()
	}
	cfg.DownloadDir = configutil.Env("ORDERHARVEST_DOWNLOAD_DIR", cfg.DownloadDir)
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = "orders"
	}
	cfg.BaseUrl = configutil.Env("ORDERHARVEST_BASE_URL", cfg.BaseUrl)
	cfg.ProfileDir = configutil.Env("ORDERHARVEST_PROFILE_DIR", cfg.ProfileDir)
	if cfg.ProfileDir == "" {
		cfg.ProfileDir = ".orderharvest/profile"
	}
	cfg.BrowserPath = configutil.Env("ORDERHARVEST_BROWSER_PATH", cfg.BrowserPath)

	headless := cfg.Headless == nil || *cfg.Headless
	cfg.headless = configutil.EnvBool("ORDERHARVEST_HEADLESS", headless)

	minMs := cfg.DelayMinMs
	maxMs := 2000
	if cfg.DelayMaxMs != nil {
		maxMs = *cfg.DelayMaxMs
	} else if minMs == 0 {
		minMs = 800
	}
	minMs = configutil.EnvInt("ORDERHARVEST_DELAY_MIN_MS", minMs)
	maxMs = configutil.EnvInt("ORDERHARVEST_DELAY_MAX_MS", maxMs)
	cfg.delay = harvest.Delay{
		Min: time.Duration(minMs) * time.Millisecond,
		Max: time.Duration(maxMs) * time.Millisecond,
	}

	return cfg, nil
}
