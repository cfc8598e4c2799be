// =============================================================================
// Ledger Reconciler - Converter Module
// =============================================================================
//
// This module orchestrates the reconciliation pipeline for a single ledger,
// from reading the upload to writing the two reports.
//
// CONVERSION PIPELINE:
//   1. Parse the ledger (.xlsx or .csv) into a table
//   2. Validate the table and convert it into typed ledger rows
//   3. Resolve the barcode catalog from the reference store
//   4. Merge, classify and aggregate the rows
//   5. Write the shipments and returns reports
//
// A malformed ledger fails before the catalog is queried and before any
// report is written. The catalog is resolved again for every ledger.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/ledger-reconciler/internal/catalog"
	"github.com/ginjaninja78/ledger-reconciler/internal/config"
	"github.com/ginjaninja78/ledger-reconciler/internal/csvparser"
	"github.com/ginjaninja78/ledger-reconciler/internal/reconcile"
	"github.com/ginjaninja78/ledger-reconciler/internal/reportwriter"
	"github.com/ginjaninja78/ledger-reconciler/internal/types"
	"github.com/ginjaninja78/ledger-reconciler/internal/validation"
	"github.com/ginjaninja78/ledger-reconciler/internal/xlsxparser"
	"github.com/ginjaninja78/ledger-reconciler/pkg/utils"
	"github.com/sirupsen/logrus"
)

const moduleName = "converter"

// ErrUnsupportedFormat is returned for ledgers that are neither .xlsx nor .csv.
var ErrUnsupportedFormat = errors.New("unsupported ledger format")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single ledger.
type Result struct {
	// FilePath is the path to the ledger that was processed.
	FilePath string

	// ShipmentsFile and ReturnsFile are the paths of the written reports.
	// Both are empty if processing failed or on a dry run.
	ShipmentsFile string
	ReturnsFile   string

	// Stats contains the reconciliation counters.
	Stats types.Stats

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Duration is the time taken to process the ledger.
	Duration time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the pipeline for one ledger file.
type Converter struct {
	ledgerPath string
	cfg        *config.MainConfig
	resolver   *catalog.Resolver
	engine     *reconcile.Engine
	columns    reportwriter.Columns
	logger     logrus.FieldLogger
	dryRun     bool
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - ledgerPath: The path to the uploaded ledger.
//   - cfg: The main application configuration.
//   - resolver: Resolves the barcode catalog.
//   - logger: Structured logger; nil discards output.
//
// RETURNS:
//   - A new Converter instance.
func New(ledgerPath string, cfg *config.MainConfig, resolver *catalog.Resolver, logger logrus.FieldLogger) *Converter {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	return &Converter{
		ledgerPath: ledgerPath,
		cfg:        cfg,
		resolver:   resolver,
		engine:     reconcile.NewEngine(reconcile.SchemaFromConfig(cfg.Ledger.TransactionTypes)),
		columns:    reportwriter.DefaultColumns(),
		logger:     logger.WithField("file", filepath.Base(ledgerPath)),
	}
}

// SetDryRun makes Run skip writing the reports.
func (c *Converter) SetDryRun(dryRun bool) {
	c.dryRun = dryRun
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for the ledger.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
func (c *Converter) Run(ctx context.Context) Result {
	startTime := time.Now()
	result := Result{FilePath: c.ledgerPath}

	c.logger.Info("processing ledger")

	// =========================================================================
	// STEP 1: PARSE LEDGER
	// =========================================================================

	table, err := ParseLedger(c.ledgerPath, c.cfg.Ledger)
	if err != nil {
		result.Error = fmt.Errorf("failed to parse ledger: %w", err)
		return c.fail(result, startTime, "ParseLedger")
	}
	c.logger.Debugf("parsed %d rows", len(table.Rows))

	// =========================================================================
	// STEP 2: VALIDATE
	// =========================================================================

	rows, err := validation.ToLedgerRows(table, c.cfg.Ledger.Columns)
	if err != nil {
		result.Error = err
		return c.fail(result, startTime, "ToLedgerRows")
	}

	// =========================================================================
	// STEP 3: RESOLVE CATALOG
	// =========================================================================

	if c.resolver == nil {
		result.Error = fmt.Errorf("%w: no catalog source configured", catalog.ErrCatalogUnavailable)
		return c.fail(result, startTime, "Resolve")
	}
	cat, err := c.resolver.Resolve(ctx)
	if err != nil {
		result.Error = err
		return c.fail(result, startTime, "Resolve")
	}

	// =========================================================================
	// STEP 4: RECONCILE
	// =========================================================================

	reconciled := c.engine.Run(rows, cat)
	result.Stats = reconciled.Stats

	if reconciled.Stats.UnmatchedRows > 0 {
		c.logger.WithField("rows", reconciled.Stats.UnmatchedRows).Warn("ledger rows without a catalog barcode")
	}
	if dropped := reconciled.Stats.Dropped(); dropped > 0 {
		c.logger.WithFields(logrus.Fields{
			"unclassified": reconciled.Stats.DroppedUnclassified,
			"non_positive": reconciled.Stats.DroppedNonPositive,
		}).Info("rows excluded from both reports")
	}

	// =========================================================================
	// STEP 5: WRITE REPORTS
	// =========================================================================

	if !c.dryRun {
		result.ShipmentsFile, err = c.writeReport(reconciled.Shipments, c.cfg.Reports.ShipmentsName)
		if err != nil {
			result.Error = err
			return c.fail(result, startTime, "writeReport")
		}
		result.ReturnsFile, err = c.writeReport(reconciled.Returns, c.cfg.Reports.ReturnsName)
		if err != nil {
			result.Error = err
			return c.fail(result, startTime, "writeReport")
		}
	}

	result.Success = true
	result.Duration = time.Since(startTime)
	c.logger.WithFields(logrus.Fields{
		"shipment_groups": reconciled.Stats.ShipmentGroups,
		"return_groups":   reconciled.Stats.ReturnGroups,
	}).Info("ledger reconciled")

	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// ParseLedger reads the ledger at path, choosing the reader by extension.
func ParseLedger(path string, settings config.LedgerSettings) (*types.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return xlsxparser.Parse(path, settings)
	case ".csv", ".tsv", ".txt":
		return csvparser.Parse(path, settings)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// writeReport saves report to the output directory under the configured name.
func (c *Converter) writeReport(report types.Report, reportName string) (string, error) {
	fileName := utils.GenerateOutputFileName(c.cfg.Reports.FileNameFormat, map[string]string{
		"report": reportName,
		"ledger": utils.BaseName(c.ledgerPath),
	})
	outputPath := filepath.Join(c.cfg.OutputDir, fileName)
	if utils.FileExists(outputPath) {
		c.logger.WithField("output", outputPath).Warn("overwriting existing report")
	}

	if err := reportwriter.Save(outputPath, report, c.columns); err != nil {
		return "", fmt.Errorf("failed to write %s report: %w", report.Kind, err)
	}

	c.logger.WithField("output", outputPath).Debug("report written")
	return outputPath, nil
}

func (c *Converter) fail(result Result, startTime time.Time, funcName string) Result {
	result.Duration = time.Since(startTime)
	config.LogError(c.logger, moduleName, funcName, c.ledgerPath, nil, result.Error)
	return result
}
