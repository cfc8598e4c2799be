// =============================================================================
// Ledger Reconciler - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (reconciler)
//   ├── processCmd (reconciler process)
//   ├── catalogCmd (reconciler catalog)
//   └── versionCmd (reconciler version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Reading the environment (.env, DATABASE_URL, LOG_LEVEL, LOG_FORMAT)
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ginjaninja78/ledger-reconciler/internal/catalog"
	"github.com/ginjaninja78/ledger-reconciler/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// env and logger are set up before any subcommand runs.
var (
	env    *config.Env
	logger *logrus.Logger
)

const defaultConfigFile = "config.yaml"

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Ledger Reconciler - Build shipment and return reports from marketplace ledgers",

	Long: `Ledger Reconciler turns a marketplace accruals ledger into two upload-ready
spreadsheets: a shipments report and a returns report. Ledger rows are joined
to product barcodes from the catalog table, grouped and priced per unit.

Key Features:
  - Reads .xlsx and .csv ledgers
  - Barcode catalog from PostgreSQL (DATABASE_URL)
  - Configurable column and transaction type labels
  - Processing summary with excluded and unmatched row counts

Example Usage:
  reconciler process ledger.xlsx                # Write Отгрузка.xlsx and Возврат.xlsx
  reconciler process --output-dir ./out a.xlsx  # Choose the output directory
  reconciler process --dry-run ledger.xlsx      # Reconcile without writing reports
  reconciler catalog                            # Print the resolved barcode catalog`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// --config flag: A missing default file falls back to built-in defaults.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		defaultConfigFile,
		"Path to the main configuration file",
	)

	// --verbose flag: Enables debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// setup reads the environment and builds the logger.
func setup() error {
	var err error
	env, err = config.LoadEnv()
	if err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	level := env.LogLevel
	if verbose {
		level = logrus.DebugLevel.String()
	}
	logger, err = config.NewLogger(level, env.LogFormat)
	if err != nil {
		return err
	}
	return nil
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig loads the main configuration. Only an explicitly given file
// must exist.
func loadConfig(cmd *cobra.Command) (*config.MainConfig, error) {
	optional := !cmd.Flags().Changed("config")
	mainConfig, err := config.LoadMainConfig(cfgFile, optional)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}
	return mainConfig, nil
}

// openResolver connects to the reference store and returns a resolver over
// the configured catalog table. The returned func closes the pool.
func openResolver(ctx context.Context, mainConfig *config.MainConfig) (*catalog.Resolver, func(), error) {
	if err := env.RequireDatabase(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", catalog.ErrCatalogUnavailable, err)
	}

	pool, err := catalog.Connect(ctx, env.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	source := catalog.NewPostgresSource(pool, catalog.Table{
		Name:              mainConfig.Catalog.Table,
		ProductCodeColumn: mainConfig.Catalog.ProductCodeColumn,
		BarcodeColumn:     mainConfig.Catalog.BarcodeColumn,
	})
	return catalog.NewResolver(source, logger), pool.Close, nil
}
