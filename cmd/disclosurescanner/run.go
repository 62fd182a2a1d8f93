package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"DisclosureScanner/internal/app"
	"DisclosureScanner/internal/ports"
)

func runCmd() *cobra.Command {
	var (
		maxEntries   int
		showProgress bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process the current listing once and rewrite the score table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger := loadConfig()
			if maxEntries > 0 {
				cfg.Batch.MaxEntries = maxEntries
			}

			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := application.Close(); err != nil {
					logger.Warn("close application", "error", err)
				}
			}()

			var newProgress func(int) ports.Progress
			if showProgress {
				newProgress = func(total int) ports.Progress {
					return progressbar.NewOptions(total,
						progressbar.OptionSetWriter(cmd.ErrOrStderr()),
						progressbar.OptionShowCount(),
						progressbar.OptionSetWidth(40),
						progressbar.OptionSetDescription("開示を処理中"),
						progressbar.OptionClearOnFinish(),
					)
				}
			}

			records, err := application.Run(ctx, newProgress)
			if err != nil {
				logger.Error("batch failed", "error", err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d件を %s に保存しました\n", len(records), application.OutputPath())
			return nil
		},
	}

	cmd.Flags().IntVar(&maxEntries, "max-entries", 0, "maximum listing rows to process (default from config)")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "show a progress bar on stderr")
	return cmd
}
