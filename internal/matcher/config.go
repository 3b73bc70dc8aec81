// Package matcher implements the confidence scorer and the automatic
// matching strategies of the reconciliation engine.
//
// Two auto-match strategies exist by design and are deliberately not
// unified: the strict strategy score-ranks every candidate and commits
// only high-confidence pairs, while the import-time strategy takes the
// first qualifying entry. They have different precision/recall
// tradeoffs and downstream review screens depend on the distinct match
// type labels each produces.
package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the thresholds and tolerances of the scorer and the
// matching strategies.
type Config struct {
	// AutoMatchThreshold is the minimum score the strict strategy
	// commits automatically.
	AutoMatchThreshold int `json:"auto_match_threshold"`

	// SuggestionThreshold is the minimum score for a candidate to be
	// offered to a human reviewer. Intentionally far below the
	// auto-commit threshold.
	SuggestionThreshold int `json:"suggestion_threshold"`

	// SuggestionLimit caps how many suggestions are returned per
	// statement transaction.
	SuggestionLimit int `json:"suggestion_limit"`

	// AmountExactTolerance is the currency minor-unit rounding
	// tolerance under which two amounts count as identical.
	AmountExactTolerance decimal.Decimal `json:"amount_exact_tolerance"`

	// ImportDateToleranceDays is the date window of the import-time
	// strategy.
	ImportDateToleranceDays int `json:"import_date_tolerance_days"`

	// DescriptionPrefixLength is how many leading description
	// characters the import-time strategy compares.
	DescriptionPrefixLength int `json:"description_prefix_length"`
}

// DefaultConfig returns the standard matching configuration.
func DefaultConfig() *Config {
	return &Config{
		AutoMatchThreshold:      85,
		SuggestionThreshold:     40,
		SuggestionLimit:         5,
		AmountExactTolerance:    decimal.NewFromFloat(0.01),
		ImportDateToleranceDays: 7,
		DescriptionPrefixLength: 10,
	}
}

// Validate checks if the matching configuration is valid.
func (c *Config) Validate() error {
	if c.AutoMatchThreshold < 0 || c.AutoMatchThreshold > 100 {
		return fmt.Errorf("auto match threshold must be between 0 and 100: %d", c.AutoMatchThreshold)
	}
	if c.SuggestionThreshold < 0 || c.SuggestionThreshold > 100 {
		return fmt.Errorf("suggestion threshold must be between 0 and 100: %d", c.SuggestionThreshold)
	}
	if c.SuggestionThreshold > c.AutoMatchThreshold {
		return fmt.Errorf("suggestion threshold %d cannot exceed auto match threshold %d",
			c.SuggestionThreshold, c.AutoMatchThreshold)
	}
	if c.SuggestionLimit <= 0 {
		return fmt.Errorf("suggestion limit must be positive: %d", c.SuggestionLimit)
	}
	if c.AmountExactTolerance.IsNegative() {
		return fmt.Errorf("amount tolerance cannot be negative: %s", c.AmountExactTolerance.String())
	}
	if c.ImportDateToleranceDays < 0 {
		return fmt.Errorf("import date tolerance cannot be negative: %d", c.ImportDateToleranceDays)
	}
	if c.DescriptionPrefixLength <= 0 {
		return fmt.Errorf("description prefix length must be positive: %d", c.DescriptionPrefixLength)
	}
	return nil
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// String returns a human-readable description of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{AutoMatch: >=%d, Suggest: >=%d (top %d), ExactTolerance: %s, ImportWindow: %dd}",
		c.AutoMatchThreshold, c.SuggestionThreshold, c.SuggestionLimit,
		c.AmountExactTolerance.String(), c.ImportDateToleranceDays)
}
