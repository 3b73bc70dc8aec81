package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/pkg/errors"
	"bank-reconciliation-engine/pkg/logger"
)

// LedgerParserConfig configures the ledger export reader. Ledger
// entries are produced by the internal book-of-record system, so
// unlike bank statements the format is regular and parsed strictly.
type LedgerParserConfig struct {
	IDColumn          string            `json:"id_column"`
	AccountIDColumn   string            `json:"account_id_column"`
	DateColumn        string            `json:"date_column"`
	DescriptionColumn string            `json:"description_column"`
	DebitColumn       string            `json:"debit_column"`
	CreditColumn      string            `json:"credit_column"`
	SourceDocColumn   string            `json:"source_doc_column"`
	AccountNameColumn string            `json:"account_name_column"`
	ColumnAliases     map[string]string `json:"column_aliases,omitempty"`
}

// DefaultLedgerParserConfig returns the column layout of a standard
// ledger export.
func DefaultLedgerParserConfig() *LedgerParserConfig {
	return &LedgerParserConfig{
		IDColumn:          "id",
		AccountIDColumn:   "accountId",
		DateColumn:        "transactionDate",
		DescriptionColumn: "description",
		DebitColumn:       "debit",
		CreditColumn:      "credit",
		SourceDocColumn:   "sourceDocumentNumber",
		AccountNameColumn: "accountName",
		ColumnAliases: map[string]string{
			"entry_id":     "id",
			"account":      "accountId",
			"account_id":   "accountId",
			"date":         "transactionDate",
			"narrative":    "description",
			"source_doc":   "sourceDocumentNumber",
			"document":     "sourceDocumentNumber",
			"account_name": "accountName",
		},
	}
}

// LedgerParser reads ledger entry exports for use as the read-only
// book side of a reconciliation session.
type LedgerParser struct {
	config *LedgerParserConfig
	logger logger.Logger
}

// NewLedgerParser creates a ledger parser with the given configuration.
func NewLedgerParser(config *LedgerParserConfig) *LedgerParser {
	if config == nil {
		config = DefaultLedgerParserConfig()
	}
	return &LedgerParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("ledger_parser"),
	}
}

// ParseFile reads ledger entries from a CSV export file.
func (lp *LedgerParser) ParseFile(path string) ([]*models.LedgerEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeUnexpectedError, path, err)
	}
	defer file.Close()

	return lp.Parse(file)
}

// Parse reads ledger entries from CSV content.
func (lp *LedgerParser) Parse(r io.Reader) ([]*models.LedgerEntry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.ValidationError(errors.CodeMissingField, "ledger_content", "empty")
	}
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, 1, "header", "", err)
	}

	columns := lp.buildColumnIndex(header)
	for _, required := range []string{lp.config.IDColumn, lp.config.AccountIDColumn, lp.config.DateColumn} {
		if _, ok := columns[required]; !ok {
			return nil, errors.ValidationError(errors.CodeMissingField, required, header)
		}
	}

	var entries []*models.LedgerEntry
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidFormat, line, "record", "", err)
		}

		entry, err := lp.buildEntry(record, columns, line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	lp.logger.WithField("entries", len(entries)).Info("Parsed ledger entries")
	return entries, nil
}

func (lp *LedgerParser) buildColumnIndex(header []string) map[string]int {
	columns := make(map[string]int)
	for i, h := range header {
		name := strings.TrimSpace(h)
		if canonical, ok := lp.config.ColumnAliases[strings.ToLower(name)]; ok {
			name = canonical
		}
		columns[name] = i
	}
	return columns
}

func (lp *LedgerParser) buildEntry(record []string, columns map[string]int, line int) (*models.LedgerEntry, error) {
	field := func(name string) string {
		if idx, ok := columns[name]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	date, ok := ParseStatementDate(field(lp.config.DateColumn))
	if !ok {
		return nil, errors.ParseError(errors.CodeInvalidData, line,
			lp.config.DateColumn, field(lp.config.DateColumn),
			fmt.Errorf("unrecognized date format"))
	}

	debit, err := models.ParseDecimalFromString(nonEmpty(field(lp.config.DebitColumn), "0"))
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidData, line, lp.config.DebitColumn, field(lp.config.DebitColumn), err)
	}
	credit, err := models.ParseDecimalFromString(nonEmpty(field(lp.config.CreditColumn), "0"))
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidData, line, lp.config.CreditColumn, field(lp.config.CreditColumn), err)
	}

	entry := &models.LedgerEntry{
		ID:                   field(lp.config.IDColumn),
		AccountID:            field(lp.config.AccountIDColumn),
		TransactionDate:      date,
		Description:          field(lp.config.DescriptionColumn),
		Debit:                debit,
		Credit:               credit,
		SourceDocumentNumber: field(lp.config.SourceDocColumn),
		AccountName:          field(lp.config.AccountNameColumn),
	}

	if err := entry.Validate(); err != nil {
		return nil, errors.ParseError(errors.CodeInvalidData, line, "entry", entry.ID, err)
	}
	return entry, nil
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
