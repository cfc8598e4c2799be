// =============================================================================
// Ledger Reconciler - Catalog Resolver
// =============================================================================
//
// This module turns the raw (product code, barcode) pairs of the reference
// store into a lookup table for the reconciliation engine.
//
// RESOLUTION STEPS:
//   1. Fetch distinct pairs from the Source
//   2. Normalize product codes (quotes stripped) and barcodes (".0" stripped)
//   3. Drop pairs left without a barcode; a product that only has those
//      stays unmatched in the ledger join
//   4. Deduplicate on the normalized barcode, keeping the first product code
//   5. Index the surviving entries by product code for the left-join
//
// The resolver never writes to the store and keeps no state between calls.
//
// =============================================================================

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ginjaninja78/ledger-reconciler/internal/types"
	"github.com/sirupsen/logrus"
)

// ErrCatalogUnavailable is returned when the reference store cannot be read,
// including when the expected table or columns are missing.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// Source yields raw (product code, barcode) pairs from the reference store.
type Source interface {
	Pairs(ctx context.Context) ([]types.CatalogEntry, error)
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is the resolved, deduplicated barcode table.
type Catalog struct {
	entries   []types.CatalogEntry
	byBarcode map[string]string
	byCode    map[string][]string
}

// New builds a Catalog from already normalized entries. Entries without a
// barcode, or whose barcode was already seen, are dropped.
func New(entries []types.CatalogEntry) *Catalog {
	c := &Catalog{
		entries:   make([]types.CatalogEntry, 0, len(entries)),
		byBarcode: make(map[string]string, len(entries)),
		byCode:    make(map[string][]string),
	}
	for _, entry := range entries {
		if entry.Barcode == "" {
			continue
		}
		if _, seen := c.byBarcode[entry.Barcode]; seen {
			continue
		}
		c.byBarcode[entry.Barcode] = entry.ProductCode
		c.byCode[entry.ProductCode] = append(c.byCode[entry.ProductCode], entry.Barcode)
		c.entries = append(c.entries, entry)
	}
	return c
}

// Entries returns the surviving entries in first-seen order.
func (c *Catalog) Entries() []types.CatalogEntry {
	if c == nil {
		return nil
	}
	out := make([]types.CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of distinct barcodes.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// ProductCode returns the product code retained for a barcode.
func (c *Catalog) ProductCode(barcode string) (string, bool) {
	if c == nil {
		return "", false
	}
	code, ok := c.byBarcode[barcode]
	return code, ok
}

// Barcodes returns every barcode mapped to a product code, in first-seen
// order. A nil result means the product code has no catalog match.
func (c *Catalog) Barcodes(productCode string) []string {
	if c == nil {
		return nil
	}
	return c.byCode[productCode]
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver loads a Catalog from a Source.
type Resolver struct {
	source Source
	logger logrus.FieldLogger
}

// NewResolver creates a Resolver. A nil logger discards log output.
func NewResolver(source Source, logger logrus.FieldLogger) *Resolver {
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	return &Resolver{source: source, logger: logger}
}

// Resolve fetches the raw pairs and returns the normalized, deduplicated
// Catalog. Source failures are wrapped with ErrCatalogUnavailable.
func (r *Resolver) Resolve(ctx context.Context) (*Catalog, error) {
	pairs, err := r.source.Pairs(ctx)
	if err != nil {
		if errors.Is(err, ErrCatalogUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	normalized := make([]types.CatalogEntry, 0, len(pairs))
	for _, pair := range pairs {
		normalized = append(normalized, types.CatalogEntry{
			ProductCode: NormalizeProductCode(pair.ProductCode),
			Barcode:     NormalizeBarcode(pair.Barcode),
		})
	}

	cat := New(normalized)

	r.logger.WithFields(logrus.Fields{
		"module":     "catalog",
		"funcName":   "Resolve",
		"pairs":      len(pairs),
		"barcodes":   cat.Len(),
		"dropped":    len(pairs) - cat.Len(),
	}).Debug("catalog resolved")

	return cat, nil
}
