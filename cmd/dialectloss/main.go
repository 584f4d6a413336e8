package main

import (
	"fmt"
	"os"

	"dialectloss/app"
	"dialectloss/internal"
	"dialectloss/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	var (
		saveFigures bool
		saveTables  bool
		tablesDir   string
		figureDir   string
		tableDir    string
		yearMin     int
		yearMinBand int
		yearMax     int
		workers     int
	)

	rootCmd := &cobra.Command{
		Use:   "dialectloss",
		Short: "Reproduce the dialect-loss figures and tables",
		Long: `Runs the full analysis batch: for each configured variable, loads its
count table, fits the mixed-effects model, derives the confidence band and
turning point, and optionally renders figures and summary tables.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("save-figures") {
				cfg.Output.SaveFigures = saveFigures
			}
			if flags.Changed("save-tables") {
				cfg.Output.SaveTables = saveTables
			}
			if flags.Changed("tables-dir") {
				cfg.Paths.TablesDir = tablesDir
			}
			if flags.Changed("figure-dir") {
				cfg.Paths.FigureDir = figureDir
			}
			if flags.Changed("table-dir") {
				cfg.Paths.TableDir = tableDir
			}
			if flags.Changed("yearmin") {
				cfg.Grid.YearMin = yearMin
			}
			if flags.Changed("yearmin-band") {
				cfg.Grid.YearMinBand = yearMinBand
			}
			if flags.Changed("yearmax") {
				cfg.Grid.YearMax = yearMax
			}
			if flags.Changed("workers") {
				cfg.Workers = workers
			}

			logger := internal.NewDefaultLogger()
			svc := app.NewAnalysisService(cfg, logger)

			res := svc.RunBatch(cmd.Context())
			svc.PrintSummary(res)

			if err := svc.WriteOutputs(res); err != nil {
				return err
			}
			if res.Manifest.Succeeded == 0 {
				return fmt.Errorf("all %d variables failed", res.Manifest.Failed)
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&saveFigures, "save-figures", false, "persist rendered figures")
	rootCmd.Flags().BoolVar(&saveTables, "save-tables", false, "persist summary tables and the run report")
	rootCmd.Flags().StringVar(&tablesDir, "tables-dir", "tables", "directory with per-variable count tables")
	rootCmd.Flags().StringVar(&figureDir, "figure-dir", "figures", "output directory for figures")
	rootCmd.Flags().StringVar(&tableDir, "table-dir", "out", "output directory for tables and the report")
	rootCmd.Flags().IntVar(&yearMin, "yearmin", 1920, "plot axis lower bound and centering origin")
	rootCmd.Flags().IntVar(&yearMinBand, "yearmin-band", 1800, "lower bound of the turning-point search grid")
	rootCmd.Flags().IntVar(&yearMax, "yearmax", 2000, "upper bound for grid and plots")
	rootCmd.Flags().IntVar(&workers, "workers", 4, "concurrent variable fits")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
