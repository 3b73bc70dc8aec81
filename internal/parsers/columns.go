package parsers

import (
	"strings"

	"bank-reconciliation-engine/pkg/errors"
)

// ColumnRole classifies what a physical statement column contains.
type ColumnRole string

const (
	RoleDate        ColumnRole = "date"
	RoleDescription ColumnRole = "description"
	RoleDebit       ColumnRole = "debit"
	RoleCredit      ColumnRole = "credit"
	RoleBalance     ColumnRole = "balance"
	RoleReference   ColumnRole = "reference"
	RoleSkip        ColumnRole = "skip"
)

// headerRules maps header keywords to roles, in priority order. The
// first rule whose keyword appears in the header text wins.
var headerRules = []struct {
	keywords []string
	role     ColumnRole
}{
	{[]string{"date", "posted"}, RoleDate},
	{[]string{"description", "narrative", "details"}, RoleDescription},
	{[]string{"debit", "withdrawal", "payment"}, RoleDebit},
	{[]string{"credit", "deposit", "receipt"}, RoleCredit},
	{[]string{"balance"}, RoleBalance},
	{[]string{"reference", "ref", "cheque"}, RoleReference},
}

// InferColumnRoles guesses the role of each physical column from its
// header text using case-insensitive keyword rules. The result is a
// proposal the user may edit before the final parse.
func InferColumnRoles(header []string) []ColumnRole {
	roles := make([]ColumnRole, len(header))
	for i, h := range header {
		roles[i] = classifyHeader(h)
	}
	return roles
}

func classifyHeader(header string) ColumnRole {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, rule := range headerRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(h, keyword) {
				return rule.role
			}
		}
	}
	return RoleSkip
}

// ColumnMapping maps logical statement fields to physical column
// indexes. An index of -1 means the field is unmapped. The mapping the
// second parsing pass consumes is always the effective one, i.e. the
// inferred proposal plus any user overrides.
type ColumnMapping struct {
	Date        int `json:"date"`
	Description int `json:"description"`
	Debit       int `json:"debit"`
	Credit      int `json:"credit"`
	Balance     int `json:"balance"`
	Reference   int `json:"reference"`
}

// NewColumnMapping returns a mapping with every field unmapped.
func NewColumnMapping() *ColumnMapping {
	return &ColumnMapping{
		Date:        -1,
		Description: -1,
		Debit:       -1,
		Credit:      -1,
		Balance:     -1,
		Reference:   -1,
	}
}

// MappingFromRoles converts per-column roles into a column mapping.
// When two columns carry the same role the first one wins.
func MappingFromRoles(roles []ColumnRole) *ColumnMapping {
	mapping := NewColumnMapping()
	for i, role := range roles {
		switch role {
		case RoleDate:
			if mapping.Date == -1 {
				mapping.Date = i
			}
		case RoleDescription:
			if mapping.Description == -1 {
				mapping.Description = i
			}
		case RoleDebit:
			if mapping.Debit == -1 {
				mapping.Debit = i
			}
		case RoleCredit:
			if mapping.Credit == -1 {
				mapping.Credit = i
			}
		case RoleBalance:
			if mapping.Balance == -1 {
				mapping.Balance = i
			}
		case RoleReference:
			if mapping.Reference == -1 {
				mapping.Reference = i
			}
		}
	}
	return mapping
}

// InferMapping tokenizes nothing; it combines role inference and
// mapping construction for the common case where no override is
// needed.
func InferMapping(header []string) *ColumnMapping {
	return MappingFromRoles(InferColumnRoles(header))
}

// Validate checks that the mandatory date and description fields are
// mapped. Parsing refuses to proceed otherwise.
func (m *ColumnMapping) Validate() error {
	if m.Date < 0 {
		return errors.ValidationError(errors.CodeMissingMapping, "date", m.Date)
	}
	if m.Description < 0 {
		return errors.ValidationError(errors.CodeMissingMapping, "description", m.Description)
	}
	return nil
}

// Clone creates a copy of the column mapping.
func (m *ColumnMapping) Clone() *ColumnMapping {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// cell safely extracts the cell at index from row, returning "" when
// the index is unmapped or the row is short.
func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
