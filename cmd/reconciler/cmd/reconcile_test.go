package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"bank-reconciliation-engine/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateFileExists(t *testing.T) {
	path := writeTempCSV(t, "statement.csv", "Date,Description\n")
	assert.NoError(t, validateFileExists(path, "statement file"))

	err := validateFileExists(filepath.Join(t.TempDir(), "missing.csv"), "statement file")
	require.Error(t, err)
	engineErr, ok := errors.AsEngineError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeFileNotFound, engineErr.Code)

	assert.Error(t, validateFileExists("", "statement file"))
	assert.Error(t, validateFileExists(t.TempDir(), "statement file"))
}

func TestValidateReconcileFlags(t *testing.T) {
	statement := writeTempCSV(t, "statement.csv", "Date,Description\n15/01/2024,x\n")
	ledger := writeTempCSV(t, "ledger.csv", "id,accountId,transactionDate\nGL-1,ACC-1,2024-01-15\n")

	reset := func() {
		statementFile = statement
		ledgerFile = ledger
		bankAccountID = "ACC-001"
		statementDateArg = ""
		statementBalance = "100.00"
		bookBalance = "90.00"
		outputFormat = "console"
		outputFile = ""
		autoThreshold = 0
		dateTolerance = 0
	}

	reset()
	assert.NoError(t, validateReconcileFlags(nil, nil))

	reset()
	outputFormat = "xml"
	assert.Error(t, validateReconcileFlags(nil, nil))

	reset()
	statementDateArg = "01/15/2024"
	assert.Error(t, validateReconcileFlags(nil, nil))

	reset()
	statementBalance = "lots"
	assert.Error(t, validateReconcileFlags(nil, nil))

	reset()
	autoThreshold = 101
	assert.Error(t, validateReconcileFlags(nil, nil))

	reset()
	outputFile = filepath.Join(t.TempDir(), "no-such-dir", "report.json")
	assert.Error(t, validateReconcileFlags(nil, nil))
}

func TestErrorHandlerExitCodes(t *testing.T) {
	handler := NewCLIErrorHandler()

	assert.Equal(t, 0, handler.HandleError(nil))
	assert.Equal(t, 2, handler.HandleError(errors.FileError(errors.CodeFileNotFound, "x.csv", nil)))
	assert.Equal(t, 3, handler.HandleError(errors.ValidationError(errors.CodeMissingField, "account", "")))
	assert.Equal(t, 5, handler.HandleError(errors.InvariantViolation(errors.CodeDuplicatePrimary, "ST-1")))
	assert.Equal(t, 1, handler.HandleError(assert.AnError))
}
