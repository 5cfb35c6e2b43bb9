package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"despesas/internal/amqp"
	"despesas/internal/config"
	applog "despesas/internal/log"
)

func newEventsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect published ledger events",
	}

	var url string
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Print ledger events as JSON lines until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(func(cfg *config.Config) {
				if url != "" {
					cfg.AMQPURL = url
				}
			})
			if err != nil {
				return err
			}
			if !cfg.AMQPEnabled() {
				return errors.New("AMQP_URL is not set")
			}
			logger := SetupLogger(cfg, os.Stderr)

			ctx, cancel := ShutdownContext(cmd.Context(), logger)
			defer cancel()

			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
			if err != nil {
				return fmt.Errorf("connect to broker: %w", err)
			}
			defer client.Close()

			err = client.ConsumeLedgerEvents(ctx, printEvent(cmd.OutOrStdout()))
			if errors.Is(err, context.Canceled) {
				logger.Info("Stopped watching ledger events")
				return nil
			}
			if err != nil {
				logger.Error("Event consumer stopped", applog.FieldError, err)
			}
			return err
		},
	}
	watch.Flags().StringVar(&url, "url", "", "Broker URL (overrides AMQP_URL)")

	cmd.AddCommand(watch)
	return cmd
}

// printEvent writes each event as one JSON line.
func printEvent(out io.Writer) func(*amqp.LedgerEventMessage) error {
	enc := json.NewEncoder(out)
	return func(msg *amqp.LedgerEventMessage) error {
		return enc.Encode(msg)
	}
}
