// Package reporter renders reconciliation sessions as export payloads.
//
// Two shapes are produced, per the engine's interface contract: a flat
// human-readable summary (matched transactions, unmatched bank items,
// unmatched book items, totals and the reconciliation verdict) and a
// machine-readable tabular equivalent. Layout is a presentation
// concern; the content mirrors the session's derived aggregates
// exactly.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"bank-reconciliation-engine/internal/reconciler"
)

// OutputFormat is a supported report output format.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	}
	return false
}

// ReportConfig holds report generation options.
type ReportConfig struct {
	Format               OutputFormat `json:"format"`
	IncludeMatches       bool         `json:"include_matches"`
	IncludeUnmatchedBank bool         `json:"include_unmatched_bank"`
	IncludeUnmatchedBook bool         `json:"include_unmatched_book"`
	CSVDelimiter         rune         `json:"csv_delimiter"`
}

// DefaultReportConfig returns a default report configuration.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:               FormatConsole,
		IncludeMatches:       true,
		IncludeUnmatchedBank: true,
		IncludeUnmatchedBook: true,
		CSVDelimiter:         ',',
	}
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator renders session reports in the configured format.
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// GenerateReport writes the session report to the writer.
func (rg *ReportGenerator) GenerateReport(session *reconciler.Session, writer io.Writer) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(session, writer)
	case FormatJSON:
		return rg.generateJSONReport(session, writer)
	case FormatCSV:
		return rg.generateCSVReport(session, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(session *reconciler.Session, writer io.Writer) error {
	summary := session.Summarize()

	fmt.Fprintf(writer, "BANK RECONCILIATION REPORT\n")
	fmt.Fprintf(writer, "Account: %s\n", summary.BankAccountID)
	fmt.Fprintf(writer, "Statement date: %s\n", session.StatementDate.Format("2006-01-02"))
	fmt.Fprintf(writer, "Generated: %s\n\n", time.Now().Format(time.RFC3339))

	fmt.Fprintf(writer, "=== BALANCES ===\n")
	fmt.Fprintf(writer, "Statement balance: %20s\n", summary.StatementBalance.StringFixed(2))
	fmt.Fprintf(writer, "Book balance:      %20s\n", summary.BookBalance.StringFixed(2))
	fmt.Fprintf(writer, "Difference:        %20s\n\n", summary.Difference.StringFixed(2))

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	fmt.Fprintf(writer, "Matched:                %6d\n", summary.MatchedCount)
	fmt.Fprintf(writer, "Unmatched bank items:   %6d (%s)\n",
		summary.UnmatchedStatementCount, summary.UnmatchedStatementAmount.StringFixed(2))
	fmt.Fprintf(writer, "Unmatched book items:   %6d (%s)\n\n",
		summary.UnmatchedLedgerCount, summary.UnmatchedLedgerAmount.StringFixed(2))

	if rg.config.IncludeMatches && summary.MatchedCount > 0 {
		fmt.Fprintf(writer, "=== MATCHED TRANSACTIONS ===\n")
		for _, m := range session.Matches() {
			score := "-"
			if m.MatchScore != nil {
				score = fmt.Sprintf("%d", *m.MatchScore)
			}
			fmt.Fprintf(writer, "%-20s  %-22s -> %-22s  score=%s\n",
				m.MatchType, m.BankTransactionID, m.GLEntryID, score)
			for _, id := range m.RelatedGLEntryIDs {
				fmt.Fprintf(writer, "%-20s  %-22s +> %-22s\n", "", "", id)
			}
			for _, id := range m.RelatedBankTransactionIDs {
				fmt.Fprintf(writer, "%-20s  %-22s <+ %-22s\n", "", id, "")
			}
		}
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeUnmatchedBank {
		unmatched := session.UnmatchedStatementTransactions()
		if len(unmatched) > 0 {
			fmt.Fprintf(writer, "=== UNMATCHED BANK ITEMS ===\n")
			for _, tx := range unmatched {
				fmt.Fprintf(writer, "%-12s %s  debit=%12s credit=%12s  %s\n",
					tx.ID, tx.TransactionDate.Format("2006-01-02"),
					tx.Debit.StringFixed(2), tx.Credit.StringFixed(2), tx.Description)
			}
			fmt.Fprintf(writer, "\n")
		}
	}

	if rg.config.IncludeUnmatchedBook {
		unmatched := session.UnmatchedLedgerEntries("")
		if len(unmatched) > 0 {
			fmt.Fprintf(writer, "=== UNMATCHED BOOK ITEMS ===\n")
			for _, entry := range unmatched {
				fmt.Fprintf(writer, "%-12s %s  debit=%12s credit=%12s  %s\n",
					entry.ID, entry.TransactionDate.Format("2006-01-02"),
					entry.Debit.StringFixed(2), entry.Credit.StringFixed(2), entry.Description)
			}
			fmt.Fprintf(writer, "\n")
		}
	}

	verdict := "DISCREPANCY"
	if summary.Status == reconciler.StatusCompleted {
		verdict = "RECONCILED"
	} else if summary.Status == reconciler.StatusInProgress {
		verdict = "IN PROGRESS"
	}
	fmt.Fprintf(writer, "Verdict: %s\n", verdict)

	return nil
}

func (rg *ReportGenerator) generateJSONReport(session *reconciler.Session, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(session)
}

func (rg *ReportGenerator) generateCSVReport(session *reconciler.Session, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	header := []string{"section", "id", "date", "description", "debit", "credit", "counterpart", "match_type", "score"}
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if rg.config.IncludeMatches {
		for _, m := range session.Matches() {
			score := ""
			if m.MatchScore != nil {
				score = fmt.Sprintf("%d", *m.MatchScore)
			}
			record := []string{"matched", m.BankTransactionID, m.ReconciledAt.Format("2006-01-02"),
				"", "", "", m.GLEntryID, m.MatchType.String(), score}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	if rg.config.IncludeUnmatchedBank {
		for _, tx := range session.UnmatchedStatementTransactions() {
			record := []string{"unmatched_bank", tx.ID, tx.TransactionDate.Format("2006-01-02"),
				tx.Description, tx.Debit.StringFixed(2), tx.Credit.StringFixed(2), "", "", ""}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	if rg.config.IncludeUnmatchedBook {
		for _, entry := range session.UnmatchedLedgerEntries("") {
			record := []string{"unmatched_book", entry.ID, entry.TransactionDate.Format("2006-01-02"),
				entry.Description, entry.Debit.StringFixed(2), entry.Credit.StringFixed(2), "", "", ""}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	summary := session.Summarize()
	record := []string{"summary", summary.BankAccountID, "", string(summary.Status),
		summary.BookBalance.StringFixed(2), summary.StatementBalance.StringFixed(2),
		summary.Difference.StringFixed(2), "", ""}
	return csvWriter.Write(record)
}
