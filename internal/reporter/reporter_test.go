package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/reconciler"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func testSession(t *testing.T) *reconciler.Session {
	t.Helper()

	txs := []*models.StatementTransaction{
		{
			ID:              "ST-0001",
			TransactionDate: testDate,
			ValueDate:       testDate,
			Description:     "Office supplies Acme",
			Debit:           decimal.NewFromFloat(125.50),
		},
		{
			ID:              "ST-0002",
			TransactionDate: testDate,
			ValueDate:       testDate,
			Description:     "Mystery wire",
			Debit:           decimal.NewFromFloat(777.00),
		},
	}
	entries := []*models.LedgerEntry{
		{
			ID:              "GL-001",
			AccountID:       "ACC-001",
			TransactionDate: testDate,
			Description:     "Office supplies Acme",
			Debit:           decimal.NewFromFloat(125.50),
		},
		{
			ID:              "GL-002",
			AccountID:       "ACC-001",
			TransactionDate: testDate,
			Description:     "Consulting retainer",
			Credit:          decimal.NewFromFloat(800.00),
		},
	}

	session, err := reconciler.NewSession("ACC-001", testDate,
		decimal.NewFromInt(10000), decimal.NewFromInt(9800), txs, entries, nil)
	require.NoError(t, err)

	require.NoError(t, session.AddMatch(&models.Match{
		ID:                "m1",
		MatchType:         models.MatchManual,
		BankTransactionID: "ST-0001",
		GLEntryID:         "GL-001",
		ReconciledAt:      testDate,
		ReconciledBy:      "alice",
	}))
	return session
}

func TestNewReportGeneratorValidation(t *testing.T) {
	_, err := NewReportGenerator(&ReportConfig{Format: "xml"})
	assert.Error(t, err)

	generator, err := NewReportGenerator(nil)
	require.NoError(t, err)
	assert.Error(t, generator.GenerateReport(nil, &bytes.Buffer{}))
}

func TestConsoleReport(t *testing.T) {
	generator, err := NewReportGenerator(DefaultReportConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, generator.GenerateReport(testSession(t), &buf))

	out := buf.String()
	assert.Contains(t, out, "BANK RECONCILIATION REPORT")
	assert.Contains(t, out, "Account: ACC-001")
	assert.Contains(t, out, "=== MATCHED TRANSACTIONS ===")
	assert.Contains(t, out, "ST-0001")
	assert.Contains(t, out, "=== UNMATCHED BANK ITEMS ===")
	assert.Contains(t, out, "Mystery wire")
	assert.Contains(t, out, "=== UNMATCHED BOOK ITEMS ===")
	assert.Contains(t, out, "Consulting retainer")
	assert.Contains(t, out, "Verdict:")
}

func TestJSONReport(t *testing.T) {
	generator, err := NewReportGenerator(configForFormat(FormatJSON))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, generator.GenerateReport(testSession(t), &buf))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "ACC-001", decoded["bankAccountId"])
	assert.Len(t, decoded["matches"], 1)
	assert.Len(t, decoded["unmatchedStatementTransactions"], 1)
	assert.Len(t, decoded["unmatchedLedgerEntries"], 1)
	assert.NotNil(t, decoded["difference"])
	assert.NotEmpty(t, decoded["status"])
}

func TestCSVReport(t *testing.T) {
	generator, err := NewReportGenerator(configForFormat(FormatCSV))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, generator.GenerateReport(testSession(t), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	// Header, one matched, one unmatched bank, one unmatched book,
	// one summary row.
	require.Len(t, records, 5)
	assert.Equal(t, "section", records[0][0])
	assert.Equal(t, "matched", records[1][0])
	assert.Equal(t, "unmatched_bank", records[2][0])
	assert.Equal(t, "unmatched_book", records[3][0])
	assert.Equal(t, "summary", records[4][0])
}

// configForFormat builds a report config for one output format.
func configForFormat(format OutputFormat) *ReportConfig {
	config := DefaultReportConfig()
	config.Format = format
	return config
}
