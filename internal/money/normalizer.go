package money

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency codes known to the system.
const (
	IDR = "IDR"
	USD = "USD"
	SGD = "SGD"
)

// Normalizer converts amounts into a single reporting currency using a static
// rate table. A currency missing from the table is assumed to already be in
// the reporting currency and passes through unchanged.
type Normalizer struct {
	reporting string
	rates     map[string]decimal.Decimal
}

// NewNormalizer builds a normalizer. Rates are "1 unit of key = rate units of
// the reporting currency". Keys are upper-cased so config loaders that fold
// case do not break lookups.
func NewNormalizer(reporting string, rates map[string]decimal.Decimal) (*Normalizer, error) {
	reporting = strings.ToUpper(strings.TrimSpace(reporting))
	if reporting == "" {
		return nil, fmt.Errorf("reporting currency is required")
	}

	table := make(map[string]decimal.Decimal, len(rates))
	for code, rate := range rates {
		if rate.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("rate for %s must be greater than 0", code)
		}
		table[strings.ToUpper(code)] = rate
	}
	delete(table, reporting)

	return &Normalizer{reporting: reporting, rates: table}, nil
}

// DefaultNormalizer reports in IDR with a fixed USD rate of 15,000.
func DefaultNormalizer() *Normalizer {
	n, _ := NewNormalizer(IDR, map[string]decimal.Decimal{
		USD: decimal.NewFromInt(15000),
	})
	return n
}

// ReportingCurrency returns the target currency code.
func (n *Normalizer) ReportingCurrency() string {
	return n.reporting
}

// Rate returns the multiplier for currency and whether the table defines one.
func (n *Normalizer) Rate(currency string) (decimal.Decimal, bool) {
	code := strings.ToUpper(currency)
	if code == n.reporting {
		return decimal.NewFromInt(1), true
	}
	rate, ok := n.rates[code]
	if !ok {
		return decimal.NewFromInt(1), false
	}
	return rate, true
}

// Normalize converts amount in currency to the reporting currency.
func (n *Normalizer) Normalize(amount decimal.Decimal, currency string) decimal.Decimal {
	rate, _ := n.Rate(currency)
	return amount.Mul(rate)
}

// Currencies lists the codes with an explicit rate, sorted.
func (n *Normalizer) Currencies() []string {
	codes := make([]string, 0, len(n.rates))
	for code := range n.rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
