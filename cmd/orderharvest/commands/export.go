package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"orderharvest/lib/util/serviceutil"
	"orderharvest/services/export"
	"orderharvest/services/harvest"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var exportYear *int
var exportDb *string
var exportXlsx *string

func init() {
	exportYear = exportCmd.Flags().Int("year", 0, "The year to export, 0 means the configured or current year.")
	exportDb = exportCmd.Flags().String("db", "", "The sqlite database to export to.")
	exportXlsx = exportCmd.Flags().String("xlsx", "", "The xlsx workbook to export to.")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [--year <n>] [--db <path>] [--xlsx <path>]",
	Short: "Exports a year's harvested ledgers into a sqlite database and an xlsx workbook.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		year := cfg.Year
		if *exportYear != 0 {
			year = *exportYear
		}

		// no explicit targets exports both next to the ledgers
		dbPath, xlsxPath := *exportDb, *exportXlsx
		if dbPath == "" && xlsxPath == "" {
			dbPath = filepath.Join(cfg.DownloadDir, fmt.Sprintf("%d-orders.db", year))
			xlsxPath = filepath.Join(cfg.DownloadDir, fmt.Sprintf("%d-orders.xlsx", year))
		}

		svc := export.NewService(harvest.NewStore(cfg.DownloadDir))

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Target", "Orders"})

		if dbPath != "" {
			count, err := svc.ToSqlite(cmd.Context(), year, dbPath)
			if err != nil {
				serviceutil.Fatal("failed to export sqlite database", err)
			}
			t.AppendRow(table.Row{dbPath, count})
		}
		if xlsxPath != "" {
			count, err := svc.ToWorkbook(cmd.Context(), year, xlsxPath)
			if err != nil {
				serviceutil.Fatal("failed to export workbook", err)
			}
			t.AppendRow(table.Row{xlsxPath, count})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
