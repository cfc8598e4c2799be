// =============================================================================
// Ledger Reconciler - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Ledger Reconciler CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   reconciler process <ledger>...  - Build shipments and returns reports
//   reconciler catalog              - Print the resolved barcode catalog
//   reconciler version              - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Ledger readers, catalog, reconciliation, report writer
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/ledger-reconciler/cmd"
)

func main() {
	cmd.Execute()
}
