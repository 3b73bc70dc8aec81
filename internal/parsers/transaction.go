package parsers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/pkg/errors"
	"bank-reconciliation-engine/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BuildResult holds the outcome of the second parsing pass: the typed
// transactions plus every data-quality warning collected along the way.
type BuildResult struct {
	BatchID      string                         `json:"batchId"`
	Transactions []*models.StatementTransaction `json:"transactions"`
	Warnings     []*errors.DataQualityWarning   `json:"warnings,omitempty"`
}

// WarningSummary returns an aggregate view of the collected warnings.
func (br *BuildResult) WarningSummary() *errors.WarningSummary {
	return errors.NewWarningSummary(br.Warnings)
}

// BuildTransactions converts raw rows into statement transactions using
// the effective column mapping. The mapping must carry date and
// description columns; everything else degrades gracefully: unparsable
// amounts become zero, unparsable dates fall back to a generic parse
// and finally to the processing time, and a missing balance column is
// replaced by an incrementally computed running balance seeded at zero.
func (sp *StatementParser) BuildTransactions(rows [][]string, mapping *ColumnMapping) (*BuildResult, error) {
	if mapping == nil {
		mapping = NewColumnMapping()
	}
	if err := mapping.Validate(); err != nil {
		return nil, err
	}

	result := &BuildResult{
		BatchID: uuid.NewString(),
	}

	dataRows := rows
	if sp.config.HasHeader && len(dataRows) > 0 {
		dataRows = dataRows[1:]
	}

	now := time.Now()
	runningBalance := decimal.Zero

	for i, row := range dataRows {
		line := i + 1
		if sp.config.HasHeader {
			line++
		}

		tx := &models.StatementTransaction{
			ID:          fmt.Sprintf("%s-%04d", sp.config.IDPrefix, i+1),
			Description: cell(row, mapping.Description),
			Reference:   cell(row, mapping.Reference),
		}

		date, ok := ParseStatementDate(cell(row, mapping.Date))
		if !ok {
			result.Warnings = append(result.Warnings, &errors.DataQualityWarning{
				Line:     line,
				Field:    "date",
				Value:    cell(row, mapping.Date),
				Fallback: "processing time",
				Message:  "did not match any known date format",
			})
			date = now
		}
		tx.TransactionDate = date
		tx.ValueDate = date

		tx.Debit = sp.parseAmountCell(row, mapping.Debit, "debit", line, result)
		tx.Credit = sp.parseAmountCell(row, mapping.Credit, "credit", line, result)

		if mapping.Balance >= 0 {
			balance, ok := CleanAmount(cell(row, mapping.Balance))
			if !ok && cell(row, mapping.Balance) != "" {
				result.Warnings = append(result.Warnings, &errors.DataQualityWarning{
					Line:     line,
					Field:    "balance",
					Value:    cell(row, mapping.Balance),
					Fallback: "computed balance",
					Message:  "could not be parsed as an amount",
				})
				balance = runningBalance.Add(tx.Credit).Sub(tx.Debit)
			}
			tx.RunningBalance = balance
			runningBalance = balance
		} else {
			runningBalance = runningBalance.Add(tx.Credit).Sub(tx.Debit)
			tx.RunningBalance = runningBalance
		}

		result.Transactions = append(result.Transactions, tx)
	}

	sp.logger.WithFields(logger.Fields{
		"batch_id":     result.BatchID,
		"transactions": len(result.Transactions),
		"warnings":     len(result.Warnings),
	}).Info("Built statement transactions")

	return result, nil
}

// parseAmountCell parses an amount cell, recording a warning and
// substituting zero when the cell is present but unparsable.
func (sp *StatementParser) parseAmountCell(row []string, index int, field string, line int, result *BuildResult) decimal.Decimal {
	raw := cell(row, index)
	amount, ok := CleanAmount(raw)
	if !ok && raw != "" {
		result.Warnings = append(result.Warnings, &errors.DataQualityWarning{
			Line:     line,
			Field:    field,
			Value:    raw,
			Fallback: "0",
			Message:  "could not be parsed as an amount",
		})
	}
	return amount
}

// TransactionsFromRecords converts pre-structured statement records
// into statement transactions, bypassing the CSV passes entirely.
func TransactionsFromRecords(records []*models.StatementRecord, idPrefix string) *BuildResult {
	if idPrefix == "" {
		idPrefix = "ST"
	}

	result := &BuildResult{BatchID: uuid.NewString()}
	for i, rec := range records {
		valueDate := rec.ValueDate
		if valueDate.IsZero() {
			valueDate = rec.TransactionDate
		}
		result.Transactions = append(result.Transactions, &models.StatementTransaction{
			ID:              fmt.Sprintf("%s-%04d", idPrefix, i+1),
			TransactionDate: rec.TransactionDate,
			ValueDate:       valueDate,
			Description:     rec.Description,
			Reference:       rec.Reference,
			Debit:           rec.Debit,
			Credit:          rec.Credit,
			RunningBalance:  rec.Balance,
		})
	}
	return result
}

// CleanAmount strips every character except digits, '.' and '-' from
// the cell and parses the remainder as a decimal. Unparsable cells
// yield zero and ok=false, never an error, to keep the import moving.
func CleanAmount(raw string) (decimal.Decimal, bool) {
	var cleaned strings.Builder
	for _, ch := range raw {
		if (ch >= '0' && ch <= '9') || ch == '.' || ch == '-' {
			cleaned.WriteRune(ch)
		}
	}

	if cleaned.Len() == 0 {
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(cleaned.String())
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// statementDateLayouts are the generic fallback layouts tried when the
// segment patterns do not match.
var statementDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseStatementDate parses a statement date cell. Segmented patterns
// are tried in order: D-M-YYYY, YYYY-M-D and D-M-YY (with '-' or '/'
// separators); a four-digit final segment is a year with day-month
// ordering unless the first segment has four digits. If no pattern
// matches, generic layouts are tried. Returns ok=false when nothing
// matched; the caller substitutes the processing time.
func ParseStatementDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	if t, ok := parseSegmentedDate(raw); ok {
		return t, true
	}

	for _, layout := range statementDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func parseSegmentedDate(raw string) (time.Time, bool) {
	separator := ""
	if strings.Contains(raw, "/") {
		separator = "/"
	} else if strings.Contains(raw, "-") {
		separator = "-"
	}
	if separator == "" {
		return time.Time{}, false
	}

	segments := strings.Split(raw, separator)
	if len(segments) != 3 {
		return time.Time{}, false
	}

	nums := make([]int, 3)
	for i, seg := range segments {
		seg = strings.TrimSpace(seg)
		n, err := strconv.Atoi(seg)
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
		segments[i] = seg
	}

	var year, month, day int
	switch {
	case len(segments[0]) == 4:
		// YYYY-M-D
		year, month, day = nums[0], nums[1], nums[2]
	case len(segments[2]) == 4:
		// D-M-YYYY
		day, month, year = nums[0], nums[1], nums[2]
	case len(segments[2]) <= 2:
		// D-M-YY
		day, month, year = nums[0], nums[1], 2000+nums[2]
	default:
		return time.Time{}, false
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}
