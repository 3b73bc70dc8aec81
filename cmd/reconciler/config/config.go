// Package config translates CLI flags into component configurations.
package config

import (
	"fmt"

	"bank-reconciliation-engine/internal/matcher"
	"bank-reconciliation-engine/internal/parsers"
	"bank-reconciliation-engine/internal/reporter"
)

// CreateStatementParserConfig creates a statement parser configuration
// from CLI flag values.
func CreateStatementParserConfig(delimiter string, hasHeader bool) (*parsers.StatementParserConfig, error) {
	config := parsers.DefaultStatementParserConfig()
	config.HasHeader = hasHeader

	if delimiter != "" {
		runes := []rune(delimiter)
		if len(runes) != 1 {
			return nil, fmt.Errorf("delimiter must be a single character: %q", delimiter)
		}
		config.Delimiter = runes[0]
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid statement parser config: %w", err)
	}
	return config, nil
}

// CreateLedgerParserConfig creates a ledger parser configuration.
func CreateLedgerParserConfig() *parsers.LedgerParserConfig {
	return parsers.DefaultLedgerParserConfig()
}

// CreateMatcherConfig creates a matching configuration with CLI
// overrides applied.
func CreateMatcherConfig(autoMatchThreshold, dateToleranceDays int) (*matcher.Config, error) {
	config := matcher.DefaultConfig()

	if autoMatchThreshold > 0 {
		config.AutoMatchThreshold = autoMatchThreshold
	}
	if dateToleranceDays > 0 {
		config.ImportDateToleranceDays = dateToleranceDays
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matcher config: %w", err)
	}
	return config, nil
}

// CreateReportConfig creates a report configuration for the specified
// output format.
func CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVDelimiter = ','
	}

	return config
}
