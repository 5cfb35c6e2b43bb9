package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"despesas/internal/backend"
	"despesas/internal/config"
)

// rootOptions holds the flags every subcommand shares.
type rootOptions struct {
	envFile  string
	backend  string
	logLevel string
}

// NewRootCommand assembles the despesas command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "despesas",
		Short:         "Registro de despesas com totais por sessão",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "despesas %s\n" .Version}}`)

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Path to an env file (default: ./.env when present)")
	root.PersistentFlags().StringVarP(&opts.backend, "backend", "b", "", "Entry store backend: "+strings.Join(backend.GetBackendTypeStrings(), ", ")+" (overrides DATA_BACKEND)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides LOG_LEVEL)")

	root.AddCommand(
		newServeCommand(opts),
		newTUICommand(opts),
		newFormatCommand(),
		newEventsCommand(opts),
	)
	return root
}

// loadConfig reads the env file and environment, then applies the shared
// flags before any command specific override.
func (o *rootOptions) loadConfig(override func(*config.Config)) (*config.Config, error) {
	if err := LoadEnvFile(o.envFile); err != nil {
		return nil, err
	}
	return LoadAndValidateConfig(func(cfg *config.Config) {
		if o.backend != "" {
			cfg.DataBackend = o.backend
		}
		if o.logLevel != "" {
			cfg.LogLevel = o.logLevel
		}
		if override != nil {
			override(cfg)
		}
	})
}
