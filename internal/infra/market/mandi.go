package market

import (
	"context"
	"strings"

	"agroalert/internal/domain/alert"
)

var _ alert.PriceSource = (*MandiSource)(nil)

// MandiSource serves commodity quotes from a static mandi price table.
// TODO: replace the static table with the agmarknet price feed once API
// access is provisioned.
type MandiSource struct {
	table map[string]alert.Quote
}

// NewMandiSource creates a price source seeded with the default mandi table.
func NewMandiSource() *MandiSource {
	return &MandiSource{table: defaultTable()}
}

// NewMandiSourceWithTable creates a price source with a caller-supplied table,
// keyed by lowercased commodity name.
func NewMandiSourceWithTable(table map[string]alert.Quote) *MandiSource {
	return &MandiSource{table: table}
}

// Quotes returns observations for the given crop names. Crop names are
// matched case-insensitively; crops the table does not track are omitted.
func (m *MandiSource) Quotes(ctx context.Context, crops []string) ([]alert.Quote, error) {
	var quotes []alert.Quote
	for _, crop := range crops {
		key := strings.ToLower(strings.TrimSpace(crop))
		if q, ok := m.table[key]; ok {
			quotes = append(quotes, q)
		}
	}
	return quotes, nil
}

// defaultTable holds per-quintal prices (₹) at the reference mandi.
func defaultTable() map[string]alert.Quote {
	const market = "Ludhiana Mandi"
	return map[string]alert.Quote{
		"wheat":     {Commodity: "wheat", Current: 2150, Previous: 2100, Market: market},
		"rice":      {Commodity: "rice", Current: 3200, Previous: 3150, Market: market},
		"corn":      {Commodity: "corn", Current: 1850, Previous: 1900, Market: market},
		"sugarcane": {Commodity: "sugarcane", Current: 350, Previous: 340, Market: market},
		"cotton":    {Commodity: "cotton", Current: 5200, Previous: 5150, Market: market},
		"soybean":   {Commodity: "soybean", Current: 4500, Previous: 4600, Market: market},
		"tomato":    {Commodity: "tomato", Current: 25, Previous: 22, Market: market},
		"potato":    {Commodity: "potato", Current: 18, Previous: 20, Market: market},
		"onion":     {Commodity: "onion", Current: 35, Previous: 32, Market: market},
	}
}
