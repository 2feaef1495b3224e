package ingest

import (
	"strings"
	"testing"

	"github.com/JonMunkholm/questionbank/internal/config"
)

func row(fields ...string) RawRow {
	return RawRow{Number: 2, Fields: fields}
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(DefaultRuleSet(), DefaultColumns)

	tests := []struct {
		name    string
		row     RawRow
		wantErr string
	}{
		{"valid", row("What is Go?", "Lang", "Acme", "2024"), ""},
		{"extra columns ignored", row("Q", "C", "Co", "2024", "extra"), ""},
		{"too few columns", row("Q", "C", "Co"), "missing required columns (need 4, got 3)"},
		{"empty content", row("", "C", "Co", "2024"), "content is required"},
		{"blank content", row("   ", "C", "Co", "2024"), "content is required"},
		{"content too long", row(strings.Repeat("x", 1001), "C", "Co", "2024"), "content exceeds 1000 characters (current: 1001)"},
		{"content at limit", row(strings.Repeat("x", 1000), "C", "Co", "2024"), ""},
		{"multibyte content counts runes", row(strings.Repeat("é", 1000), "C", "Co", "2024"), ""},
		{"empty company", row("Q", "C", "", "2024"), "company is required"},
		{"company too long", row("Q", "C", strings.Repeat("c", 101), "2024"), "company exceeds 100 characters (current: 101)"},
		{"empty category", row("Q", "", "Co", "2024"), "category is required"},
		{"category too long", row("Q", strings.Repeat("k", 51), "Co", "2024"), "category exceeds 50 characters (current: 51)"},
		{"empty year", row("Q", "C", "Co", ""), "year is required"},
		{"short year", row("Q", "C", "Co", "24"), `year must be exactly 4 characters (current: "24")`},
		{"long year", row("Q", "C", "Co", "20244"), `year must be exactly 4 characters (current: "20244")`},
		{"company checked before category", row("Q", "", "", "2024"), "company is required"},
		{"content checked before year", row("", "C", "Co", "x"), "content is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.row)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidator_TrimsFields(t *testing.T) {
	v := NewValidator(DefaultRuleSet(), DefaultColumns)

	q, err := v.Validate(RawRow{Number: 7, Fields: []string{"  What?  ", "\tLang", "Acme ", " 2024 "}})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	want := Question{Row: 7, Content: "What?", Category: "Lang", Company: "Acme", Year: "2024"}
	if q != want {
		t.Errorf("Validate() = %+v, want %+v", q, want)
	}
}

func TestValidator_ModeAll(t *testing.T) {
	rules := DefaultRuleSet()
	rules.Mode = ModeAll
	v := NewValidator(rules, DefaultColumns)

	_, err := v.Validate(row("", "", "Co", "99"))
	if err == nil {
		t.Fatal("Validate() error = nil, want violations")
	}

	want := `content is required; category is required; year must be exactly 4 characters (current: "99")`
	if err.Error() != want {
		t.Errorf("Validate() error = %q, want %q", err.Error(), want)
	}

	violations, ok := err.(Violations)
	if !ok {
		t.Fatalf("error type = %T, want Violations", err)
	}
	if len(violations) != 3 {
		t.Errorf("got %d violations, want 3", len(violations))
	}
	if violations[2].Field != FieldYear || violations[2].Value != "99" {
		t.Errorf("year violation = %+v", violations[2])
	}
}

func TestValidator_HeaderColumns(t *testing.T) {
	cols := ResolveColumns([]string{"year", "company", "category", "content"})
	v := NewValidator(DefaultRuleSet(), cols)

	q, err := v.Validate(row("2021", "Acme", "Lang", "What is Go?"))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if q.Content != "What is Go?" || q.Year != "2021" || q.Company != "Acme" || q.Category != "Lang" {
		t.Errorf("Validate() = %+v", q)
	}
}

func TestValidator_RevalidationIsClean(t *testing.T) {
	v := NewValidator(DefaultRuleSet(), DefaultColumns)

	inputs := []RawRow{
		row("  padded  ", "Lang", "Acme", "2024"),
		row(strings.Repeat("ü", 1000), strings.Repeat("k", 50), strings.Repeat("c", 100), "1999"),
	}

	for _, in := range inputs {
		q, err := v.Validate(in)
		if err != nil {
			t.Fatalf("Validate(%v) error = %v", in.Fields, err)
		}
		again, err := v.Validate(row(q.Content, q.Category, q.Company, q.Year))
		if err != nil {
			t.Errorf("revalidating %+v: %v", q, err)
		}
		again.Row = q.Row
		if again != q {
			t.Errorf("revalidation changed question: %+v -> %+v", q, again)
		}
	}
}

func TestRuleSetFromConfig(t *testing.T) {
	cfg := config.IngestConfig{
		MinColumns:     4,
		MaxContentLen:  20,
		MaxCompanyLen:  100,
		MaxCategoryLen: 50,
		ValidationMode: "first",
	}

	required := false
	maxLen := 0
	minCols := 3
	profile := &config.RuleProfile{
		MinColumns: &minCols,
		Mode:       "all",
		Fields: map[string]config.FieldProfile{
			"company": {Required: &required, MaxLen: &maxLen},
		},
	}

	rs := RuleSetFromConfig(cfg, profile)
	if rs.MinColumns != 3 {
		t.Errorf("MinColumns = %d, want 3", rs.MinColumns)
	}
	if rs.Mode != ModeAll {
		t.Errorf("Mode = %q, want %q", rs.Mode, ModeAll)
	}

	v := NewValidator(rs, DefaultColumns)

	tests := []struct {
		name    string
		row     RawRow
		wantErr string
	}{
		{"optional company may be empty", row("Q", "C", "", "2024"), ""},
		{"company length unchecked", row("Q", "C", strings.Repeat("c", 500), "2024"), ""},
		{"content limit from env", row(strings.Repeat("x", 21), "C", "Co", "2024"), "content exceeds 20 characters (current: 21)"},
		{"required year column still needed", row("Q", "C", "Co"), "missing required columns (need 4, got 3)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.row)
			got := ""
			if err != nil {
				got = err.Error()
			}
			if got != tt.wantErr {
				t.Errorf("Validate() error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestRuleSetFromConfig_ModeIgnoresCase(t *testing.T) {
	cfg := config.IngestConfig{MinColumns: 4, MaxContentLen: 1000, MaxCompanyLen: 100, MaxCategoryLen: 50}

	tests := []struct {
		envMode     string
		profileMode string
		want        Mode
	}{
		{"ALL", "", ModeAll},
		{" All ", "", ModeAll},
		{"FIRST", "", ModeFirst},
		{"first", "ALL", ModeAll},
		{"all", "First", ModeFirst},
	}

	for _, tt := range tests {
		cfg.ValidationMode = tt.envMode
		var profile *config.RuleProfile
		if tt.profileMode != "" {
			profile = &config.RuleProfile{Mode: tt.profileMode}
		}

		rs := RuleSetFromConfig(cfg, profile)
		if rs.Mode != tt.want {
			t.Errorf("mode env=%q profile=%q: got %q, want %q", tt.envMode, tt.profileMode, rs.Mode, tt.want)
		}
	}

	cfg.ValidationMode = "ALL"
	_, err := NewValidator(RuleSetFromConfig(cfg, nil), DefaultColumns).Validate(row("", "", "", "24"))
	want := "content is required; company is required; category is required; year must be exactly 4 characters (current: \"24\")"
	if err == nil || err.Error() != want {
		t.Errorf("Validate() error = %v, want %q", err, want)
	}
}

func TestValidator_ColumnsBeyondMinimum(t *testing.T) {
	cols := ResolveColumns([]string{"id", "content", "category", "company", "year"})
	v := NewValidator(DefaultRuleSet(), cols)

	_, err := v.Validate(row("1", "What is Go?", "Lang", "Acme"))
	if err == nil || err.Error() != "missing required columns (need 5, got 4)" {
		t.Errorf("Validate() error = %v, want missing required columns (need 5, got 4)", err)
	}

	q, err := v.Validate(row("1", "What is Go?", "Lang", "Acme", "2024"))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if q.Year != "2024" || q.Content != "What is Go?" {
		t.Errorf("Validate() = %+v", q)
	}
}

func TestValidator_OptionalTrailingColumn(t *testing.T) {
	rules := DefaultRuleSet()
	rules.MinColumns = 3
	rules.Fields[3].Required = false
	v := NewValidator(rules, DefaultColumns)

	q, err := v.Validate(row("Q", "C", "Co"))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if q.Year != "" {
		t.Errorf("Year = %q, want empty", q.Year)
	}
}

func TestRuleSetFromConfig_NoProfile(t *testing.T) {
	cfg := config.IngestConfig{MinColumns: 4, MaxContentLen: 1000, MaxCompanyLen: 100, MaxCategoryLen: 50, ValidationMode: "first"}

	got := RuleSetFromConfig(cfg, nil)
	want := DefaultRuleSet()

	if got.MinColumns != want.MinColumns || got.Mode != want.Mode || len(got.Fields) != len(want.Fields) {
		t.Fatalf("RuleSetFromConfig() = %+v, want %+v", got, want)
	}
	for i := range want.Fields {
		if got.Fields[i] != want.Fields[i] {
			t.Errorf("Fields[%d] = %+v, want %+v", i, got.Fields[i], want.Fields[i])
		}
	}
}
