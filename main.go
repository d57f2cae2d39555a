// Command lamina designs timber-plate assemblies: it evaluates plate-model
// scripts, generates joints, plans insertion and writes fabrication output.
// Every step stores a snapshot so commands chain by snapshot id.
package main

import (
	"fmt"
	"os"

	"github.com/chazu/lamina/internal/config"
	"github.com/chazu/lamina/internal/logging"
	"github.com/chazu/lamina/pkg/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgPath string
	dbPath  string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
	app    *App
	st     *store.Store
)

var rootCmd = &cobra.Command{
	Use:   "lamina",
	Short: "Timber-plate assembly toolkit",
	Long: `lamina evaluates plate-model scripts and works on the resulting models:
contacts, joints, boolean merging, fabrication paths, insertion previews.

Each command that changes a model stores a new snapshot and prints its id.
Commands taking a snapshot reference accept a full id, a unique prefix,
or "latest" (the default).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Store.Path = dbPath
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		if logger, err = logging.New(level, cfg.Logging.Development); err != nil {
			return err
		}
		app = NewApp(WithConfig(cfg), WithAppLogger(logger))

		if cmd.Annotations["store"] == "none" {
			return nil
		}
		if st, err = store.Open(cfg.Store.Path, logger); err != nil {
			return fmt.Errorf("failed to open snapshot store: %w", err)
		}
		return nil
	},
}

// closeSession releases what PersistentPreRunE opened. It runs as a cobra
// finalizer, so failed commands are covered too.
func closeSession() {
	if st != nil {
		_ = st.Close()
		st = nil
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

func init() {
	cobra.OnFinalize(closeSession)

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath, "configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "snapshot database (overrides the configuration)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		evalCmd,
		importDXFCmd,
		listCmd,
		showCmd,
		contactsCmd,
		platesCmd,
		moduleCmd,
		jointsCmd,
		booleanCmd,
		fabCmd,
		transformCmd,
		switchCmd,
		animCmd,
		spheresCmd,
		femCmd,
		saveCmd,
		deciCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
