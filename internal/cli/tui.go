package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"despesas/internal/cache"
	applog "despesas/internal/log"
	"despesas/internal/tui"
)

func newTUICommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the ledger in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(nil)
			if err != nil {
				return err
			}

			// The screen belongs to tview, so logs go to a file.
			logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer logFile.Close()
			logger := SetupLogger(cfg, logFile)

			ctx, cancel := ShutdownContext(cmd.Context(), logger)
			defer cancel()

			reg, svc, err := NewLedgerService(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := svc.Close(); err != nil {
					logger.Error("Failed to close ledgers", applog.FieldError, err)
				}
			}()

			sweeper := cache.NewManager()
			sweeper.Register(reg)
			go sweeper.Run(ctx, cfg.CleanupInterval)

			tui.SetupTheme()
			app, err := tui.New(ctx, svc)
			if err != nil {
				return fmt.Errorf("start terminal session: %w", err)
			}
			go func() {
				<-ctx.Done()
				app.Stop()
			}()
			return app.Run()
		},
	}
}
