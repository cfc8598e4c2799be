// =============================================================================
// Ledger Reconciler - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing configuration. It
// handles both the YAML main configuration and the environment settings.
//
// CONFIGURATION SOURCES:
//   1. Main Config (config.yaml): ledger layout, labels, output settings
//   2. Environment (.env / process env): database URL, logging
//
// Column and transaction type labels must match the marketplace export
// exactly (case- and spelling-sensitive). The defaults are the labels of the
// Ozon accruals report.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir is the directory where the two reports are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// WriteSummary writes a processing summary file next to the reports.
	// Default: false
	WriteSummary bool `yaml:"write_summary"`

	// Reports configures the output file names.
	Reports ReportSettings `yaml:"reports"`

	// =========================================================================
	// LEDGER SETTINGS
	// =========================================================================

	// Ledger describes the uploaded ledger layout.
	Ledger LedgerSettings `yaml:"ledger"`

	// =========================================================================
	// CATALOG SETTINGS
	// =========================================================================

	// Catalog names the reference table and its columns.
	Catalog CatalogSettings `yaml:"catalog"`
}

// =============================================================================
// LEDGER SETTINGS STRUCTURE
// =============================================================================

// LedgerSettings contains settings for reading the uploaded ledger.
type LedgerSettings struct {
	// Sheet is the worksheet to read from .xlsx ledgers.
	// Empty means the first sheet.
	Sheet string `yaml:"sheet"`

	// HeaderRow is the 1-based row holding the column labels.
	// Data starts on the following row.
	// Default: 1
	HeaderRow int `yaml:"header_row"`

	// Delimiter is the field separator for .csv ledgers.
	// Common values: "," (comma), ";" (semicolon), "\t" (tab)
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Columns holds the ledger column labels.
	Columns LedgerColumns `yaml:"columns"`

	// TransactionTypes holds the accrual type labels used for classification.
	TransactionTypes TransactionTypes `yaml:"transaction_types"`
}

// LedgerColumns holds the labels of the ledger columns the pipeline reads.
type LedgerColumns struct {
	ProductCode     string `yaml:"product_code"`
	TransactionType string `yaml:"transaction_type"`
	Quantity        string `yaml:"quantity"`
	Amount          string `yaml:"amount"`
	SKU             string `yaml:"sku"`
}

// TransactionTypes holds the labels that classify ledger rows.
type TransactionTypes struct {
	// Shipment marks a delivery to the customer.
	Shipment string `yaml:"shipment"`

	// Return marks a return, cancellation or non-redemption received back
	// from the customer.
	Return string `yaml:"return"`
}

// =============================================================================
// CATALOG SETTINGS STRUCTURE
// =============================================================================

// CatalogSettings names the reference table.
type CatalogSettings struct {
	Table             string `yaml:"table"`
	ProductCodeColumn string `yaml:"product_code_column"`
	BarcodeColumn     string `yaml:"barcode_column"`
}

// =============================================================================
// REPORT SETTINGS STRUCTURE
// =============================================================================

// ReportSettings configures the report file names.
type ReportSettings struct {
	// ShipmentsName and ReturnsName fill the {report} placeholder.
	// Defaults: "Отгрузка" and "Возврат"
	ShipmentsName string `yaml:"shipments_name"`
	ReturnsName   string `yaml:"returns_name"`

	// FileNameFormat builds each report file name.
	// Placeholders:
	//   {report}    - ShipmentsName or ReturnsName
	//   {ledger}    - Ledger file name without extension
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Current date (YYYYMMDD)
	//   {uuid}      - A random UUID
	//
	// Example: "{ledger}_{report}_{timestamp}.xlsx"
	// Default: "{report}.xlsx"
	FileNameFormat string `yaml:"file_name_format"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a MainConfig with every default applied.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//   - optional: When true, a missing file yields the defaults instead of an error.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string, optional bool) (*MainConfig, error) {
	// Read the configuration file.
	data, err := os.ReadFile(configPath)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse the YAML.
	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply default values.
	applyMainConfigDefaults(&config)

	// Validate the configuration.
	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}

	// Ledger defaults.
	if config.Ledger.HeaderRow == 0 {
		config.Ledger.HeaderRow = 1
	}
	if config.Ledger.Delimiter == "" {
		config.Ledger.Delimiter = ","
	}
	columns := &config.Ledger.Columns
	if columns.ProductCode == "" {
		columns.ProductCode = "Артикул"
	}
	if columns.TransactionType == "" {
		columns.TransactionType = "Тип начисления"
	}
	if columns.Quantity == "" {
		columns.Quantity = "Количество"
	}
	if columns.Amount == "" {
		columns.Amount = "За продажу или возврат до вычета комиссий и услуг"
	}
	if columns.SKU == "" {
		columns.SKU = "SKU"
	}
	if config.Ledger.TransactionTypes.Shipment == "" {
		config.Ledger.TransactionTypes.Shipment = "Доставка покупателю"
	}
	if config.Ledger.TransactionTypes.Return == "" {
		config.Ledger.TransactionTypes.Return = "Получение возврата, отмены, невыкупа от покупателя"
	}

	// Catalog defaults.
	if config.Catalog.Table == "" {
		config.Catalog.Table = "products_ozon"
	}
	if config.Catalog.ProductCodeColumn == "" {
		config.Catalog.ProductCodeColumn = "Артикул"
	}
	if config.Catalog.BarcodeColumn == "" {
		config.Catalog.BarcodeColumn = "Barcode"
	}

	// Report defaults.
	if config.Reports.ShipmentsName == "" {
		config.Reports.ShipmentsName = "Отгрузка"
	}
	if config.Reports.ReturnsName == "" {
		config.Reports.ReturnsName = "Возврат"
	}
	if config.Reports.FileNameFormat == "" {
		config.Reports.FileNameFormat = "{report}.xlsx"
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if config.Ledger.HeaderRow < 1 {
		return fmt.Errorf("ledger.header_row must be at least 1, got %d", config.Ledger.HeaderRow)
	}

	if config.Ledger.TransactionTypes.Shipment == config.Ledger.TransactionTypes.Return {
		return fmt.Errorf("ledger.transaction_types: shipment and return labels must differ")
	}

	// Both reports are written to the same directory, so their names must not collide.
	format := config.Reports.FileNameFormat
	if !strings.Contains(format, "{report}") && !strings.Contains(format, "{uuid}") {
		return fmt.Errorf("reports.file_name_format must contain {report} or {uuid}")
	}
	if config.Reports.ShipmentsName == config.Reports.ReturnsName && !strings.Contains(format, "{uuid}") {
		return fmt.Errorf("reports: shipments_name and returns_name must differ")
	}

	return nil
}
