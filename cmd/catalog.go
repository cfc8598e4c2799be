// =============================================================================
// Ledger Reconciler - Catalog Command
// =============================================================================
//
// This file defines the 'catalog' command, which prints the barcode catalog
// exactly as the process command resolves it: normalized and deduplicated.
//
// COMMAND USAGE:
//   reconciler catalog [--limit N] [--barcode EAN]
//
// OUTPUT:
//   4600000000001	A1
//   4600000000002	B2
//   2 barcode(s)
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/ginjaninja78/ledger-reconciler/internal/catalog"
	"github.com/spf13/cobra"
)

// limit caps the number of printed entries; 0 prints all.
var limit int

// lookup prints only the product code of one barcode.
var lookup string

// catalogCmd represents the 'catalog' command.
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the resolved barcode catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mainConfig, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		resolver, closePool, err := openResolver(cmd.Context(), mainConfig)
		if err != nil {
			return err
		}
		defer closePool()

		cat, err := resolver.Resolve(cmd.Context())
		if err != nil {
			return err
		}

		return printCatalog(cmd.OutOrStdout(), cat, lookup, limit)
	},
}

// printCatalog writes the catalog entries, or only the product code of
// barcode when one is given.
func printCatalog(out io.Writer, cat *catalog.Catalog, barcode string, limit int) error {
	if barcode != "" {
		barcode = catalog.NormalizeBarcode(barcode)
		code, ok := cat.ProductCode(barcode)
		if !ok {
			return fmt.Errorf("barcode %s is not in the catalog", barcode)
		}
		fmt.Fprintf(out, "%s\t%s\n", barcode, code)
		return nil
	}

	for i, entry := range cat.Entries() {
		if limit > 0 && i >= limit {
			break
		}
		fmt.Fprintf(out, "%s\t%s\n", entry.Barcode, entry.ProductCode)
	}
	fmt.Fprintf(out, "%d barcode(s)\n", cat.Len())
	return nil
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().IntVar(&limit, "limit", 0, "Print at most N entries")
	catalogCmd.Flags().StringVar(&lookup, "barcode", "", "Print the product code of one barcode")
}
