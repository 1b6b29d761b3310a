package costs

import (
	"strings"
	"sync"
)

// ModelPricing contains per-million-token prices for one model family.
type ModelPricing struct {
	// InputPerMTok is the price in USD per million input tokens.
	InputPerMTok float64 `yaml:"input_per_mtok"`

	// OutputPerMTok is the price in USD per million output tokens.
	OutputPerMTok float64 `yaml:"output_per_mtok"`
}

// Table maps model names (or name prefixes) to pricing.
type Table map[string]ModelPricing

// DefaultTierKey is the table key for the fallback pricing tier applied to
// unrecognized model names.
const DefaultTierKey = "default"

// defaultTable is the compiled-in fallback table. Price points here are a
// snapshot; deployments should load current prices from configuration.
func defaultTable() Table {
	return Table{
		"claude-opus":      {InputPerMTok: 15.00, OutputPerMTok: 75.00},
		"claude-sonnet":    {InputPerMTok: 3.00, OutputPerMTok: 15.00},
		"claude-haiku":     {InputPerMTok: 0.80, OutputPerMTok: 4.00},
		"gpt-4o":           {InputPerMTok: 2.50, OutputPerMTok: 10.00},
		"gpt-4o-mini":      {InputPerMTok: 0.15, OutputPerMTok: 0.60},
		"gpt-4":            {InputPerMTok: 30.00, OutputPerMTok: 60.00},
		"gemini-1.5-pro":   {InputPerMTok: 1.25, OutputPerMTok: 5.00},
		"gemini-1.5-flash": {InputPerMTok: 0.075, OutputPerMTok: 0.30},
		DefaultTierKey:     {InputPerMTok: 0.50, OutputPerMTok: 1.50},
	}
}

// Calculator resolves model names to prices and computes request costs.
// It is stateless apart from the swappable pricing table.
type Calculator struct {
	table Table
	mu    sync.RWMutex
}

// NewCalculator creates a Calculator with the compiled-in default table.
func NewCalculator() *Calculator {
	return NewCalculatorWithTable(nil)
}

// NewCalculatorWithTable creates a Calculator with a custom pricing table.
// A nil or empty table falls back to the compiled-in defaults. A table
// without a "default" key gets the compiled-in default tier added so
// unknown models always price deterministically.
func NewCalculatorWithTable(table Table) *Calculator {
	return &Calculator{table: normalize(table)}
}

// Cost returns the USD cost of a request against the given model.
func (c *Calculator) Cost(model string, inputTokens, outputTokens int) float64 {
	p := c.Pricing(model)
	return float64(inputTokens)/1e6*p.InputPerMTok + float64(outputTokens)/1e6*p.OutputPerMTok
}

// Pricing resolves the pricing tier for a model name.
// Resolution order: exact match, longest prefix match, default tier.
func (c *Calculator) Pricing(model string) ModelPricing {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if p, ok := c.table[model]; ok {
		return p
	}

	var best string
	for pattern := range c.table {
		if pattern == DefaultTierKey {
			continue
		}
		if strings.HasPrefix(model, pattern) && len(pattern) > len(best) {
			best = pattern
		}
	}
	if best != "" {
		return c.table[best]
	}

	return c.table[DefaultTierKey]
}

// Update swaps in a new pricing table, normalizing it the same way as
// construction. Used for hot reload of pricing configuration.
func (c *Calculator) Update(table Table) {
	normalized := normalize(table)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = normalized
}

// normalize copies the table and guarantees a default tier is present.
func normalize(table Table) Table {
	if len(table) == 0 {
		return defaultTable()
	}

	out := make(Table, len(table)+1)
	for k, v := range table {
		out[k] = v
	}
	if _, ok := out[DefaultTierKey]; !ok {
		out[DefaultTierKey] = defaultTable()[DefaultTierKey]
	}
	return out
}
