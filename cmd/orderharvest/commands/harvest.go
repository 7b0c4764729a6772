package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"orderharvest/lib/util/serviceutil"
	"orderharvest/services/harvest"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var harvestYear *int

func init() {
	harvestYear = harvestCmd.Flags().Int("year", 0, "The order history year to harvest, 0 means the configured or current year.")
	rootCmd.AddCommand(harvestCmd)
}

var harvestCmd = &cobra.Command{
	Use:   "harvest [--year <n>]",
	Short: "Harvests the year's orders and invoice documents into the download directory.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		year := cfg.Year
		if *harvestYear != 0 {
			year = *harvestYear
		}

		session, client, err := openStorefront(cmd.Context(), cfg, cfg.headless)
		if err != nil {
			serviceutil.Fatal("failed to launch browser session", err)
		}
		defer session.Close()

		authed, err := client.IsAuthenticated(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to probe sign-in state", err)
		}
		if !authed {
			serviceutil.Fatal("not signed in", errors.New("run `orderharvest login` first"))
		}

		svc := harvest.NewService(harvest.Options{
			Storefront: client,
			Store:      harvest.NewStore(cfg.DownloadDir),
			Delay:      cfg.delay,
		})
		summary, err := svc.Run(cmd.Context(), year)
		if err != nil {
			serviceutil.Fatal("harvest failed", err)
		}

		renderSummary(summary)
	},
}

func renderSummary(summary harvest.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Year", "Orders", "New Ids", "Collected", "Skipped", "Invoices", "Duration"})
	t.AppendRow(table.Row{
		summary.Year,
		fmt.Sprintf("%d/%d", summary.KnownIds, summary.TotalOrders),
		summary.NewIds,
		summary.Collected,
		summary.Skipped,
		summary.Invoices,
		summary.Duration.Round(time.Second).String(),
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
