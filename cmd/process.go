// =============================================================================
// Ledger Reconciler - Process Command
// =============================================================================
//
// This file defines the 'process' command, which reconciles one or more
// ledgers into shipments and returns reports.
//
// COMMAND USAGE:
//   reconciler process [flags] <ledger|dir>...
//
// FLAGS:
//   --dry-run     : Reconcile without writing the reports
//   --output-dir  : Override the output directory from the config
//
// PROCESSING PIPELINE:
//   1. Load configuration and environment
//   2. Collect the ledgers (directories are scanned for .xlsx/.csv)
//   3. Connect to the catalog store
//   4. For each ledger, in order:
//      a. Parse and validate the ledger
//      b. Resolve the barcode catalog
//      c. Merge, classify and aggregate
//      d. Write Отгрузка.xlsx and Возврат.xlsx
//   5. Print (and optionally write) the processing summary
//
// Ledgers are processed one at a time: with the default file names every
// run overwrites the same two reports.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/ledger-reconciler/internal/config"
	"github.com/ginjaninja78/ledger-reconciler/internal/converter"
	"github.com/ginjaninja78/ledger-reconciler/internal/validation"
	"github.com/ginjaninja78/ledger-reconciler/pkg/utils"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun reconciles without writing the reports.
var dryRun bool

// outputDir overrides the configured output directory.
var outputDir string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process <ledger|dir>...",
	Short: "Reconcile ledgers into shipments and returns reports",
	Long: `The process command reads each ledger, joins its rows to the barcode
catalog and writes two reports to the output directory:

  Отгрузка.xlsx - deliveries to customers
  Возврат.xlsx  - returns, cancellations and non-redemptions

Rows of any other transaction type, and rows with a zero or negative
quantity, are excluded from both reports and counted in the summary.

A ledger that is missing a required column or holds a non-numeric quantity
or amount is rejected before the catalog is queried; no report is written
for it and processing continues with the next ledger.`,
	Args: cobra.MinimumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, args)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the process command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Reconcile without writing the reports",
	)

	processCmd.Flags().StringVarP(
		&outputDir,
		"output-dir",
		"o",
		"",
		"Directory for the reports (overrides output_dir in the config)",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess orchestrates the reconciliation of every given ledger.
func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	summary := utils.ProcessingSummary{StartTime: time.Now()}

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	fmt.Println("=== Ledger Reconciler ===")
	fmt.Println("Loading configuration...")

	mainConfig, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if outputDir != "" {
		mainConfig.OutputDir = outputDir
	}

	// =========================================================================
	// STEP 2: COLLECT LEDGERS
	// =========================================================================

	ledgers, err := discoverLedgers(args)
	if err != nil {
		return fmt.Errorf("failed to discover ledgers: %w", err)
	}
	if len(ledgers) == 0 {
		fmt.Println("No .xlsx or .csv ledgers found.")
		return nil
	}
	summary.TotalFiles = len(ledgers)
	fmt.Printf("Found %d ledger(s) to process\n", len(ledgers))

	if !dryRun {
		if err := utils.EnsureDirectory(mainConfig.OutputDir); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 3: CONNECT TO THE CATALOG
	// =========================================================================

	resolver, closePool, err := openResolver(ctx, mainConfig)
	if err != nil {
		config.LogError(logger, "cmd", "runProcess", "connect catalog", nil, err)
		return err
	}
	defer closePool()

	// =========================================================================
	// STEP 4: PROCESS LEDGERS
	// =========================================================================

	fmt.Println("Processing ledgers...")

	for _, ledger := range ledgers {
		conv := converter.New(ledger, mainConfig, resolver, logger)
		conv.SetDryRun(dryRun)
		result := conv.Run(ctx)
		recordResult(cmd.OutOrStdout(), &summary, result)
	}

	// =========================================================================
	// STEP 5: PRINT SUMMARY
	// =========================================================================

	summary.EndTime = time.Now()
	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total ledgers:   %d\n", summary.TotalFiles)
	fmt.Printf("Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Printf("Errors:          %d\n", summary.FailedFiles)
	fmt.Printf("Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))

	if mainConfig.WriteSummary && !dryRun {
		path, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir)
		if err != nil {
			config.LogError(logger, "cmd", "runProcess", "write summary", nil, err)
		} else {
			fmt.Printf("Summary written to %s\n", path)
		}
	}

	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d ledger(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// recordResult writes one ledger's outcome and adds it to the summary.
func recordResult(out io.Writer, summary *utils.ProcessingSummary, result converter.Result) {
	name := filepath.Base(result.FilePath)
	if !result.Success {
		summary.FailedFiles++
		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
			InputFile:    result.FilePath,
			ErrorMessage: result.Error.Error(),
		})
		fmt.Fprintf(out, "  ✗ %s: %v\n", name, result.Error)
		var ledgerErr *validation.LedgerError
		if errors.As(result.Error, &ledgerErr) && len(ledgerErr.Errors) > 1 {
			fmt.Fprint(out, indent(validation.FormatErrors(ledgerErr.Errors), "      "))
		}
		return
	}

	stats := result.Stats
	summary.SuccessfulFiles++
	summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
		InputFile:      result.FilePath,
		ShipmentsFile:  result.ShipmentsFile,
		ReturnsFile:    result.ReturnsFile,
		Rows:           stats.RowsRead,
		Unmatched:      stats.UnmatchedRows,
		Dropped:        stats.Dropped(),
		ShipmentGroups: stats.ShipmentGroups,
		ReturnGroups:   stats.ReturnGroups,
		UndefinedPrice: stats.UndefinedPrices,
		ProcessTime:    result.Duration,
	})

	if result.ShipmentsFile != "" {
		fmt.Fprintf(out, "  ✓ %s -> %s, %s\n", name, result.ShipmentsFile, result.ReturnsFile)
	} else {
		fmt.Fprintf(out, "  ✓ %s (dry run)\n", name)
	}
	fmt.Fprintf(out, "      shipments: %d group(s), returns: %d group(s)\n", stats.ShipmentGroups, stats.ReturnGroups)
	fmt.Fprintf(out, "      excluded rows: %d (other types: %d, non-positive quantity: %d)\n",
		stats.Dropped(), stats.DroppedUnclassified, stats.DroppedNonPositive)
	if stats.UnmatchedRows > 0 {
		fmt.Fprintf(out, "      rows without barcode: %d\n", stats.UnmatchedRows)
	}
	if stats.UndefinedPrices > 0 {
		fmt.Fprintf(out, "      groups without price: %d\n", stats.UndefinedPrices)
	}
}

// indent prefixes every non-empty line of text.
func indent(text, prefix string) string {
	lines := strings.SplitAfter(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "")
}

// discoverLedgers expands the arguments into ledger paths. Files are taken
// as given; directories are scanned (not recursively) for .xlsx and .csv
// files.
func discoverLedgers(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), "~$") {
				continue
			}
			switch strings.ToLower(filepath.Ext(entry.Name())) {
			case ".xlsx", ".csv":
				files = append(files, filepath.Join(arg, entry.Name()))
			}
		}
	}

	return files, nil
}
