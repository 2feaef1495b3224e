package ingest

// validator.go applies the per-field rules to one row.
//
// Rules run in a fixed order: column count, then content, company, category
// and year. In ModeFirst the first violation ends the row; in ModeAll every
// violation is collected. Either way an invalid row produces one message.

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/questionbank/internal/config"
)

// Mode selects how many violations are reported per row.
type Mode string

const (
	ModeFirst Mode = "first"
	ModeAll   Mode = "all"
)

// Field names used in rules and messages.
const (
	FieldContent  = "content"
	FieldCompany  = "company"
	FieldCategory = "category"
	FieldYear     = "year"
)

// FieldRule constrains one field. A zero MaxLen or ExactLen disables that check.
type FieldRule struct {
	Field    string
	Required bool
	MaxLen   int
	ExactLen int
}

// RuleSet is the ordered list of rules applied to every row.
type RuleSet struct {
	MinColumns int
	Mode       Mode
	Fields     []FieldRule
}

// DefaultRuleSet returns the stock question rules.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		MinColumns: 4,
		Mode:       ModeFirst,
		Fields: []FieldRule{
			{Field: FieldContent, Required: true, MaxLen: 1000},
			{Field: FieldCompany, Required: true, MaxLen: 100},
			{Field: FieldCategory, Required: true, MaxLen: 50},
			{Field: FieldYear, Required: true, ExactLen: 4},
		},
	}
}

// RuleSetFromConfig builds the rules from the environment settings and
// applies the optional rule profile on top.
func RuleSetFromConfig(cfg config.IngestConfig, profile *config.RuleProfile) RuleSet {
	rs := RuleSet{
		MinColumns: cfg.MinColumns,
		Mode:       parseMode(cfg.ValidationMode),
		Fields: []FieldRule{
			{Field: FieldContent, Required: true, MaxLen: cfg.MaxContentLen},
			{Field: FieldCompany, Required: true, MaxLen: cfg.MaxCompanyLen},
			{Field: FieldCategory, Required: true, MaxLen: cfg.MaxCategoryLen},
			{Field: FieldYear, Required: true, ExactLen: 4},
		},
	}
	if profile == nil {
		return rs
	}

	if profile.MinColumns != nil {
		rs.MinColumns = *profile.MinColumns
	}
	if profile.Mode != "" {
		rs.Mode = parseMode(profile.Mode)
	}
	for i := range rs.Fields {
		fp, ok := profile.Fields[rs.Fields[i].Field]
		if !ok {
			continue
		}
		if fp.Required != nil {
			rs.Fields[i].Required = *fp.Required
		}
		if fp.MaxLen != nil {
			rs.Fields[i].MaxLen = *fp.MaxLen
		}
		if fp.ExactLen != nil {
			rs.Fields[i].ExactLen = *fp.ExactLen
		}
	}

	return rs
}

// parseMode reads a configured mode name. Anything but "all" means ModeFirst.
func parseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeAll)) {
		return ModeAll
	}
	return ModeFirst
}

// ValidationError is a single rule violation.
type ValidationError struct {
	Field   string // empty for row-level rules
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// Violations is the set of rule violations of one row.
// Its message is the violations joined with "; ".
type Violations []ValidationError

func (v Violations) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Validator checks rows against a RuleSet. It is stateless and safe for
// concurrent use.
type Validator struct {
	rules   RuleSet
	columns Columns
	need    int
}

// NewValidator creates a validator reading fields at the given column positions.
// A row must reach MinColumns and also the column of every required field.
func NewValidator(rules RuleSet, columns Columns) *Validator {
	need := rules.MinColumns
	for _, rule := range rules.Fields {
		if rule.Required {
			need = max(need, columns.position(rule.Field)+1)
		}
	}
	return &Validator{rules: rules, columns: columns, need: need}
}

// Validate checks one row. It returns the trimmed question, or a Violations
// error when any rule fails.
func (v *Validator) Validate(row RawRow) (Question, error) {
	if len(row.Fields) < v.need {
		return Question{}, Violations{{
			Message: fmt.Sprintf("missing required columns (need %d, got %d)", v.need, len(row.Fields)),
		}}
	}

	q := Question{
		Row:      row.Number,
		Content:  cell(row.Fields, v.columns.Content),
		Category: cell(row.Fields, v.columns.Category),
		Company:  cell(row.Fields, v.columns.Company),
		Year:     cell(row.Fields, v.columns.Year),
	}

	var violations Violations
	for _, rule := range v.rules.Fields {
		err := checkField(rule, q.field(rule.Field))
		if err == nil {
			continue
		}
		violations = append(violations, *err)
		if v.rules.Mode != ModeAll {
			break
		}
	}

	if len(violations) > 0 {
		return Question{}, violations
	}
	return q, nil
}

func checkField(rule FieldRule, value string) *ValidationError {
	if value == "" {
		if rule.Required {
			return &ValidationError{Field: rule.Field, Message: rule.Field + " is required"}
		}
		return nil
	}

	n := utf8.RuneCountInString(value)
	if rule.MaxLen > 0 && n > rule.MaxLen {
		return &ValidationError{
			Field:   rule.Field,
			Value:   value,
			Message: fmt.Sprintf("%s exceeds %d characters (current: %d)", rule.Field, rule.MaxLen, n),
		}
	}
	if rule.ExactLen > 0 && n != rule.ExactLen {
		return &ValidationError{
			Field:   rule.Field,
			Value:   value,
			Message: fmt.Sprintf("%s must be exactly %d characters (current: %q)", rule.Field, rule.ExactLen, value),
		}
	}

	return nil
}

// cell returns the trimmed field at pos, or "" when the row is too short.
func cell(fields []string, pos int) string {
	if pos < 0 || pos >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[pos])
}

func (q Question) field(name string) string {
	switch name {
	case FieldContent:
		return q.Content
	case FieldCompany:
		return q.Company
	case FieldCategory:
		return q.Category
	case FieldYear:
		return q.Year
	}
	return ""
}
