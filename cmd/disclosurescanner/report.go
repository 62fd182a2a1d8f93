package main

import (
	"os"

	"github.com/spf13/cobra"

	"DisclosureScanner/internal/infrastructure/storage"
	"DisclosureScanner/internal/report"
)

func reportCmd() *cobra.Command {
	var (
		opts  report.Options
		limit uint64
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the score table with a top-20 chart",
		Long: `report shows the last run's scores. With storage.sqlite.enabled the SQLite mirror is
queried (best scores first, up to --limit rows); otherwise, or when the mirror is missing, the CSV
table is read.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := loadConfig()
			out := cmd.OutOrStdout()

			if db := cfg.Storage.SQLite; db.Enabled {
				if _, err := os.Stat(db.Path); err != nil {
					logger.Debug("sqlite mirror not found, reading CSV", "path", db.Path)
				} else if repo, err := storage.OpenSQLite(db.Path); err != nil {
					logger.Warn("sqlite mirror unavailable, reading CSV", "path", db.Path, "error", err)
				} else {
					defer repo.Close()
					return report.ShowStore(cmd.Context(), out, repo, limit, cfg.Output.CSVPath, opts)
				}
			}
			return report.Show(out, cfg.Output.CSVPath, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Genre, "genre", report.All, "genre filter (all, TOB, 自社株買い, 増配, 上方修正, 業務提携, その他)")
	cmd.Flags().StringVar(&opts.Sentiment, "sentiment", report.All, "sentiment filter (all, ポジティブ, ネガティブ, 中立)")
	cmd.Flags().BoolVar(&opts.Ascending, "ascending", false, "sort by score ascending")
	cmd.Flags().Uint64Var(&limit, "limit", report.DefaultStoreLimit, "rows read from the SQLite mirror")
	return cmd
}
