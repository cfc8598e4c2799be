// =============================================================================
// Ledger Reconciler - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the reconciler:
//   - Output directory management
//   - Report file naming
//   - Processing summary generation
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectory creates dir if it doesn't exist.
func EnsureDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// FILE NAMING
// =============================================================================

// BaseName returns the file name of path without its extension.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// GenerateOutputFileName generates an output file name based on the format.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//               {report}    - Report name
//               {ledger}    - Ledger file name (without extension)
//   - params: A map of placeholder values.
//
// RETURNS:
//   - The generated file name, always ending in .xlsx.
//
// EXAMPLE:
//   format: "{ledger}_{report}_{date}.xlsx"
//   params: {"ledger": "october", "report": "Отгрузка"}
//   output: "october_Отгрузка_20240115.xlsx"
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	if strings.Contains(format, "{uuid}") {
		replacements["{uuid}"] = uuid.New().String()
	}

	// Add custom params.
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	// Apply replacements.
	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Path separators in substituted values must not escape the output directory.
	result = strings.NewReplacer("/", "_", "\\", "_").Replace(result)

	// Ensure .xlsx extension.
	if !strings.HasSuffix(strings.ToLower(result), ".xlsx") {
		result += ".xlsx"
	}

	return result
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	StartTime       time.Time
	EndTime         time.Time
	TotalFiles      int
	SuccessfulFiles int
	FailedFiles     int
	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully processed ledger.
type ProcessedFileInfo struct {
	InputFile      string
	ShipmentsFile  string
	ReturnsFile    string
	Rows           int
	Unmatched      int
	Dropped        int
	ShipmentGroups int
	ReturnGroups   int
	UndefinedPrice int
	ProcessTime    time.Duration
}

// FailedFileInfo contains information about a failed ledger.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes a processing summary to a log file.
//
// PARAMETERS:
//   - summary: The processing summary.
//   - outputDir: The directory to write the summary file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	// Generate summary file name.
	timestamp := summary.EndTime.Format("20060102_150405")
	summaryFileName := fmt.Sprintf("processing_summary_%s.txt", timestamp)
	summaryPath := filepath.Join(outputDir, summaryFileName)

	// Create the file.
	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	// Write header.
	duration := summary.EndTime.Sub(summary.StartTime)
	fmt.Fprintf(writer, "Ledger Reconciler - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Total Files:    %d\n"+
		"  Successful:     %d\n"+
		"  Failed:         %d\n\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.FailedFiles)

	// Write successful files.
	if len(summary.ProcessedFiles) > 0 {
		writer.WriteString("Successful Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, pf := range summary.ProcessedFiles {
			fmt.Fprintf(writer, "  Input:            %s\n", pf.InputFile)
			fmt.Fprintf(writer, "  Shipments:        %s (%d groups)\n", pf.ShipmentsFile, pf.ShipmentGroups)
			fmt.Fprintf(writer, "  Returns:          %s (%d groups)\n", pf.ReturnsFile, pf.ReturnGroups)
			fmt.Fprintf(writer, "  Rows:             %d\n", pf.Rows)
			fmt.Fprintf(writer, "  Unmatched rows:   %d\n", pf.Unmatched)
			fmt.Fprintf(writer, "  Dropped rows:     %d\n", pf.Dropped)
			fmt.Fprintf(writer, "  Undefined prices: %d\n", pf.UndefinedPrice)
			fmt.Fprintf(writer, "  Process Time:     %s\n\n", pf.ProcessTime.String())
		}
	}

	// Write failed files.
	if len(summary.FailedFilesList) > 0 {
		writer.WriteString("Failed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(writer, "  File:  %s\n", ff.InputFile)
			fmt.Fprintf(writer, "  Error: %s\n\n", ff.ErrorMessage)
		}
	}

	// Write footer.
	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
