package catalog

import (
	"strings"
)

// quoteStripper removes the quote characters the catalog store leaves
// embedded in product codes.
var quoteStripper = strings.NewReplacer(
	"'", "",
	"\"", "",
	"‘", "",
	"’", "",
)

// NormalizeProductCode strips every quote or apostrophe character from a
// product code.
func NormalizeProductCode(code string) string {
	return strings.TrimSpace(quoteStripper.Replace(code))
}

// NormalizeBarcode removes a single trailing ".0" left by numeric-to-text
// coercion. Occurrences of ".0" elsewhere in the value are kept.
func NormalizeBarcode(barcode string) string {
	return strings.TrimSuffix(strings.TrimSpace(barcode), ".0")
}
