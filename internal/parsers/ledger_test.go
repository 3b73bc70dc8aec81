package parsers

import (
	"strings"
	"testing"
	"time"

	"bank-reconciliation-engine/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerParserParse(t *testing.T) {
	content := "id,accountId,transactionDate,description,debit,credit,sourceDocumentNumber,accountName\n" +
		"GL-001,ACC-001,2024-01-15,Office supplies,125.50,,INV-1001,Main Operating\n" +
		"GL-002,ACC-001,2024-01-16,Customer payment,,1500.00,INV-2002,Main Operating\n"

	parser := NewLedgerParser(nil)
	entries, err := parser.Parse(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "GL-001", first.ID)
	assert.Equal(t, "ACC-001", first.AccountID)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), first.TransactionDate)
	assert.Equal(t, "Office supplies", first.Description)
	assert.True(t, first.Debit.Equal(mustDecimal(t, "125.50")))
	assert.True(t, first.Credit.IsZero())
	assert.Equal(t, "INV-1001", first.SourceDocumentNumber)
	assert.Equal(t, "Main Operating", first.AccountName)
}

func TestLedgerParserColumnAliases(t *testing.T) {
	content := "entry_id,account,date,narrative,debit,credit\n" +
		"GL-001,ACC-001,2024-01-15,Supplies,125.50,\n"

	parser := NewLedgerParser(nil)
	entries, err := parser.Parse(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "GL-001", entries[0].ID)
	assert.Equal(t, "ACC-001", entries[0].AccountID)
	assert.Equal(t, "Supplies", entries[0].Description)
}

func TestLedgerParserMissingRequiredColumn(t *testing.T) {
	content := "description,debit,credit\nSupplies,125.50,\n"

	parser := NewLedgerParser(nil)
	_, err := parser.Parse(strings.NewReader(content))
	require.Error(t, err)

	engineErr, ok := errors.AsEngineError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryValidation, engineErr.Category)
}

func TestLedgerParserInvalidDate(t *testing.T) {
	content := "id,accountId,transactionDate,description,debit,credit\n" +
		"GL-001,ACC-001,whenever,Supplies,125.50,\n"

	parser := NewLedgerParser(nil)
	_, err := parser.Parse(strings.NewReader(content))
	require.Error(t, err)

	engineErr, ok := errors.AsEngineError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryParse, engineErr.Category)
}

func TestLedgerParserEmptyContent(t *testing.T) {
	parser := NewLedgerParser(nil)
	_, err := parser.Parse(strings.NewReader(""))
	assert.Error(t, err)
}

func TestLedgerParserFixtureFile(t *testing.T) {
	parser := NewLedgerParser(nil)
	entries, err := parser.ParseFile("../../testdata/sample_ledger.csv")
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestLedgerParserFileNotFound(t *testing.T) {
	parser := NewLedgerParser(nil)
	_, err := parser.ParseFile("../../testdata/no_such_file.csv")
	require.Error(t, err)

	engineErr, ok := errors.AsEngineError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeFileNotFound, engineErr.Code)
}
