// Package parsers turns raw bank statement text into typed statement
// transactions.
//
// Parsing happens in two passes. Pass one tokenizes the raw delimited
// text into rows of cell strings, tolerating RFC4180 quoting, embedded
// delimiters and line breaks inside quoted cells, and unterminated
// quotes. Pass two converts rows into StatementTransaction values using
// a column mapping, degrading gracefully on unparsable cells because
// hand-exported bank statements are frequently irregular.
package parsers

import (
	"strings"

	"bank-reconciliation-engine/pkg/logger"
)

// StatementParser performs the lenient first-pass tokenization of raw
// statement text.
type StatementParser struct {
	config *StatementParserConfig
	logger logger.Logger
}

// NewStatementParser creates a statement parser with the given
// configuration.
func NewStatementParser(config *StatementParserConfig) *StatementParser {
	if config == nil {
		config = DefaultStatementParserConfig()
	}

	log := logger.GetGlobalLogger().WithComponent("statement_parser")
	log.WithFields(logger.Fields{
		"delimiter":  string(config.Delimiter),
		"has_header": config.HasHeader,
	}).Debug("Created statement parser")

	return &StatementParser{
		config: config,
		logger: log,
	}
}

// ParseRawRows tokenizes raw statement text into rows of cell strings.
// Blank rows are dropped. The tokenizer is deliberately lenient: an
// unterminated quote consumes the rest of the input as one cell rather
// than failing the whole import.
func (sp *StatementParser) ParseRawRows(raw string) [][]string {
	var (
		rows     [][]string
		row      []string
		cell     strings.Builder
		inQuotes bool
	)

	runes := []rune(raw)
	flushCell := func() {
		row = append(row, cell.String())
		cell.Reset()
	}
	flushRow := func() {
		flushCell()
		if !isBlankRow(row) {
			rows = append(rows, row)
		}
		row = nil
	}

	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if inQuotes {
			if ch == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					// Doubled quote escapes a literal quote.
					cell.WriteRune('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			cell.WriteRune(ch)
			continue
		}

		switch ch {
		case '"':
			inQuotes = true
		case sp.config.Delimiter:
			flushCell()
		case '\r':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			flushRow()
		case '\n':
			flushRow()
		default:
			cell.WriteRune(ch)
		}
	}

	// Final row without a trailing newline, or the remainder of an
	// unterminated quoted cell.
	if cell.Len() > 0 || len(row) > 0 {
		flushRow()
	}

	sp.logger.WithField("rows", len(rows)).Debug("Tokenized statement text")
	return rows
}

// isBlankRow reports whether every cell is empty or whitespace.
func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
