package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := ValidationError(CodeMissingMapping, "date", -1)

	assert.Equal(t, CategoryValidation, err.Category)
	assert.Equal(t, CodeMissingMapping, err.Code)
	assert.Contains(t, err.Message, "date")
	assert.NotEmpty(t, err.Suggestion)
	assert.Equal(t, "date", err.Context["field"])
}

func TestInvariantViolation(t *testing.T) {
	err := InvariantViolation(CodeDuplicatePrimary, "ST-0001")

	assert.Equal(t, CategoryInvariant, err.Category)
	assert.Contains(t, err.Message, "ST-0001")
	assert.Equal(t, "ST-0001", err.Context["id"])
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      *EngineError
		expected int
	}{
		{"file error", FileError(CodeFileNotFound, "/tmp/missing.csv", nil), 2},
		{"parse error", ParseError(CodeInvalidData, 3, "debit", "N/A", nil), 3},
		{"validation error", ValidationError(CodeMissingField, "account", ""), 3},
		{"invariant violation", InvariantViolation(CodeUnknownID, "X"), 5},
		{"internal error", InternalError("commit", nil), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.GetExitCode())
		})
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk read failed")
	err := Wrap(cause, CategoryFile, CodeFileNotFound, "cannot open statement")

	require.NotNil(t, err)
	assert.Equal(t, cause, err.Unwrap())

	engineErr, ok := AsEngineError(fmt.Errorf("outer: %w", err))
	require.True(t, ok)
	assert.Equal(t, CodeFileNotFound, engineErr.Code)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, CategoryFile, CodeFileNotFound, "nothing"))
}

func TestCategoryPredicates(t *testing.T) {
	assert.True(t, IsValidation(ValidationError(CodeInvalidSelection, "selection", "0:0")))
	assert.False(t, IsValidation(InternalError("x", nil)))
	assert.True(t, IsInvariantViolation(InvariantViolation(CodeOverlappingMember, "GL-1")))
	assert.False(t, IsEngineError(fmt.Errorf("plain")))
}

func TestErrorStringIncludesSuggestion(t *testing.T) {
	err := New(CategoryParse, CodeInvalidFormat, "bad row").WithSuggestion("check the delimiter")
	assert.Contains(t, err.Error(), "bad row")
	assert.Contains(t, err.Error(), "check the delimiter")
}

func TestWarningSummary(t *testing.T) {
	warnings := []*DataQualityWarning{
		{Line: 2, Field: "debit", Value: "N/A", Fallback: "0", Message: "could not be parsed as an amount"},
		{Line: 3, Field: "debit", Value: "??", Fallback: "0", Message: "could not be parsed as an amount"},
		{Line: 4, Field: "date", Value: "soon", Fallback: "processing time", Message: "did not match any known date format"},
	}

	summary := NewWarningSummary(warnings)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.ByField["debit"])
	assert.Equal(t, 1, summary.ByField["date"])
	assert.Contains(t, summary.String(), "3 data quality warnings")

	empty := NewWarningSummary(nil)
	assert.Equal(t, "no data quality warnings", empty.String())
}
