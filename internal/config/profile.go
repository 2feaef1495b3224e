package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

const profileHint = "Fix INGEST_RULES_FILE (or --rules), or leave it empty to use the INGEST_* limits."

// RuleProfile is a validation profile loaded from INGEST_RULES_FILE.
// Any value left out of the file keeps the setting from the environment.
//
// Example:
//
//	min_columns: 4
//	mode: all
//	fields:
//	  content:  {max_len: 2000}
//	  company:  {required: false, max_len: 0}
type RuleProfile struct {
	MinColumns *int                    `yaml:"min_columns"`
	Mode       string                  `yaml:"mode"`
	Fields     map[string]FieldProfile `yaml:"fields"`
}

// FieldProfile overrides the rules for one field.
type FieldProfile struct {
	Required *bool `yaml:"required"`
	MaxLen   *int  `yaml:"max_len"`
	ExactLen *int  `yaml:"exact_len"`
}

// profileFields are the field names a profile may reference.
var profileFields = map[string]bool{"content": true, "company": true, "category": true, "year": true}

// LoadRuleProfile reads a rule profile from a YAML file.
// An empty path returns nil without error; a configured but unreadable
// or invalid file is an error so a typo never silently loosens validation.
func LoadRuleProfile(path string) (*RuleProfile, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted configuration
	if err != nil {
		return nil, errors.WithHint(errors.Wrapf(err, "read rule profile %s", path), profileHint)
	}

	p, err := ParseRuleProfile(data)
	if err != nil {
		return nil, errors.Wrapf(err, "rule profile %s", path)
	}
	return p, nil
}

// ParseRuleProfile decodes and checks a YAML rule profile.
func ParseRuleProfile(data []byte) (*RuleProfile, error) {
	var p RuleProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "parse rule profile"), profileHint)
	}

	var errs []string
	if p.MinColumns != nil && *p.MinColumns <= 0 {
		errs = append(errs, "min_columns must be positive")
	}
	if m := strings.ToLower(strings.TrimSpace(p.Mode)); m != "" && m != "first" && m != "all" {
		errs = append(errs, fmt.Sprintf("mode %q must be one of: first, all", p.Mode))
	}
	for name, f := range p.Fields {
		if !profileFields[name] {
			errs = append(errs, fmt.Sprintf("unknown field %q", name))
			continue
		}
		if f.MaxLen != nil && *f.MaxLen < 0 {
			errs = append(errs, fmt.Sprintf("fields.%s.max_len must be non-negative", name))
		}
		if f.ExactLen != nil && *f.ExactLen < 0 {
			errs = append(errs, fmt.Sprintf("fields.%s.exact_len must be non-negative", name))
		}
	}

	if len(errs) > 0 {
		return nil, errors.WithHint(errors.Newf("invalid rule profile:\n  - %s", strings.Join(errs, "\n  - ")), profileHint)
	}

	return &p, nil
}
