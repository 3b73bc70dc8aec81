package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchTypeIsValid(t *testing.T) {
	valid := []MatchType{MatchExact, MatchFuzzy, MatchManual, MatchManualOneToMany, MatchManualManyToOne, MatchSuggested}
	for _, mt := range valid {
		assert.True(t, mt.IsValid(), "expected %s to be valid", mt)
	}
	assert.False(t, MatchType("partial").IsValid())
	assert.False(t, MatchType("").IsValid())
}

func TestStatementTransactionSignedAmount(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	debit := NewStatementTransaction("ST-0001", date, "fees", decimal.NewFromFloat(15.00), decimal.Zero)
	assert.True(t, debit.SignedAmount().Equal(decimal.NewFromFloat(-15.00)))

	credit := NewStatementTransaction("ST-0002", date, "deposit", decimal.Zero, decimal.NewFromFloat(1500.00))
	assert.True(t, credit.SignedAmount().Equal(decimal.NewFromFloat(1500.00)))
}

func TestStatementTransactionValidate(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		tx      *StatementTransaction
		wantErr bool
	}{
		{"valid", NewStatementTransaction("ST-0001", date, "ok", decimal.NewFromInt(10), decimal.Zero), false},
		{"empty id", NewStatementTransaction(" ", date, "x", decimal.Zero, decimal.Zero), true},
		{"negative debit", NewStatementTransaction("ST-0002", date, "x", decimal.NewFromInt(-1), decimal.Zero), true},
		{"zero date", NewStatementTransaction("ST-0003", time.Time{}, "x", decimal.Zero, decimal.Zero), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLedgerEntryValidate(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	entry := NewLedgerEntry("GL-001", "ACC-001", date, "supplies", decimal.NewFromFloat(125.50), decimal.Zero)
	assert.NoError(t, entry.Validate())
	assert.True(t, entry.SignedAmount().Equal(decimal.NewFromFloat(-125.50)))

	entry.AccountID = ""
	assert.Error(t, entry.Validate())
}

func TestMatchValidate(t *testing.T) {
	score := 95
	badScore := 101

	tests := []struct {
		name    string
		match   *Match
		wantErr bool
	}{
		{
			"valid fuzzy",
			&Match{ID: "m1", MatchType: MatchFuzzy, BankTransactionID: "ST-0001", GLEntryID: "GL-001", MatchScore: &score},
			false,
		},
		{
			"missing primary entry",
			&Match{ID: "m2", MatchType: MatchManual, BankTransactionID: "ST-0001"},
			true,
		},
		{
			"invalid type",
			&Match{ID: "m3", MatchType: "mystery", BankTransactionID: "ST-0001", GLEntryID: "GL-001"},
			true,
		},
		{
			"score out of range",
			&Match{ID: "m4", MatchType: MatchExact, BankTransactionID: "ST-0001", GLEntryID: "GL-001", MatchScore: &badScore},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.match.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMatchAllIDs(t *testing.T) {
	m := &Match{
		ID:                        "m1",
		MatchType:                 MatchManualOneToMany,
		BankTransactionID:         "ST-0001",
		GLEntryID:                 "GL-001",
		RelatedGLEntryIDs:         []string{"GL-002", "GL-003"},
		RelatedBankTransactionIDs: nil,
	}

	assert.Equal(t, []string{"GL-001", "GL-002", "GL-003"}, m.AllGLEntryIDs())
	assert.Equal(t, []string{"ST-0001"}, m.AllBankTransactionIDs())
}

func TestMatchMarshalJSON(t *testing.T) {
	reconciled := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	m := &Match{
		ID:                "m1",
		MatchType:         MatchManual,
		BankTransactionID: "ST-0001",
		GLEntryID:         "GL-001",
		ReconciledAt:      reconciled,
		ReconciledBy:      "alice",
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2024-02-01T09:30:00Z", decoded["reconciledAt"])
	assert.Equal(t, "manual", decoded["matchType"])
}

func TestParseDecimalFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"1234.56", "1234.56", false},
		{"$1,234.56", "1234.56", false},
		{" 42 ", "42", false},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := ParseDecimalFromString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			expected, _ := decimal.NewFromString(tt.expected)
			assert.True(t, d.Equal(expected), "got %s, want %s", d, expected)
		})
	}
}
