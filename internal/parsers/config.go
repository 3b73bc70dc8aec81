package parsers

import (
	"fmt"
)

// StatementParserConfig holds configuration for parsing raw bank
// statement text.
type StatementParserConfig struct {
	// Delimiter separates cells within a row.
	Delimiter rune `json:"delimiter"`

	// HasHeader indicates the first non-blank row is a header row.
	HasHeader bool `json:"has_header"`

	// IDPrefix is prepended to generated transaction ids. Ids are
	// unique within one import batch only.
	IDPrefix string `json:"id_prefix"`
}

// DefaultStatementParserConfig returns a configuration with sensible
// defaults for hand-exported bank statements.
func DefaultStatementParserConfig() *StatementParserConfig {
	return &StatementParserConfig{
		Delimiter: ',',
		HasHeader: true,
		IDPrefix:  "ST",
	}
}

// Validate checks if the parser configuration is valid.
func (c *StatementParserConfig) Validate() error {
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be empty")
	}
	if c.Delimiter == '"' || c.Delimiter == '\n' || c.Delimiter == '\r' {
		return fmt.Errorf("invalid delimiter: %q", c.Delimiter)
	}
	if c.IDPrefix == "" {
		return fmt.Errorf("id prefix cannot be empty")
	}
	return nil
}

// Clone creates a copy of the parser configuration.
func (c *StatementParserConfig) Clone() *StatementParserConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
