// Package catalog holds the static program catalog and the category vocabularies
// (regions, channels, disciplines, months) the generator draws from.
package catalog

import (
	"errors"
	"fmt"
	"math"
)

// PricingUnit says whether a program's price is charged per month or per week.
type PricingUnit string

const (
	PerMonth PricingUnit = "PerMonth"
	PerWeek  PricingUnit = "PerWeek"
)

// Defaults applied when a row carries no duration for its pricing unit.
const (
	DefaultDurationMonths = 6
	DefaultDurationWeeks  = 8
)

// ErrInvalidCatalog is wrapped by every ConfigError.
var ErrInvalidCatalog = errors.New("invalid catalog configuration")

// ConfigError reports a malformed catalog or generator configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidCatalog }

// Configf builds a ConfigError for the given field.
func Configf(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Program is a course or bootcamp template.
type Program struct {
	Name           string      `yaml:"name"`
	Format         string      `yaml:"format"`
	Unit           PricingUnit `yaml:"unit"`
	UnitPrice      float64     `yaml:"unit_price"`
	DurationMonths int         `yaml:"duration_months,omitempty"` // 0 = absent
	DurationWeeks  int         `yaml:"duration_weeks,omitempty"`  // 0 = absent

	// Enrollment band used by randomized offering.
	EnrollmentMin int `yaml:"enrollment_min"`
	EnrollmentMax int `yaml:"enrollment_max"`
}

// Vocabulary is a category list with optional selection weights.
// A nil Weights slice means uniform selection.
type Vocabulary struct {
	Values  []string  `yaml:"values"`
	Weights []float64 `yaml:"weights,omitempty"`
}

// Contains reports whether v is one of the vocabulary values.
func (v Vocabulary) Contains(value string) bool {
	return indexOf(v.Values, value) >= 0
}

// Probabilities returns the normalized weight vector (uniform if no weights).
func (v Vocabulary) Probabilities() []float64 {
	out := make([]float64, len(v.Values))
	if len(v.Weights) == 0 {
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return out
	}
	var sum float64
	for _, w := range v.Weights {
		sum += w
	}
	for i, w := range v.Weights {
		out[i] = w / sum
	}
	return out
}

func (v Vocabulary) validate(field string) error {
	if len(v.Values) == 0 {
		return Configf(field, "vocabulary is empty")
	}
	seen := make(map[string]bool, len(v.Values))
	for _, val := range v.Values {
		if val == "" {
			return Configf(field, "blank value")
		}
		if seen[val] {
			return Configf(field, "duplicate value %q", val)
		}
		seen[val] = true
	}
	if v.Weights == nil {
		return nil
	}
	if len(v.Weights) != len(v.Values) {
		return Configf(field, "%d weights for %d values", len(v.Weights), len(v.Values))
	}
	var sum float64
	for i, w := range v.Weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return Configf(field, "weight %d is %v", i, w)
		}
		sum += w
	}
	if sum <= 0 {
		return Configf(field, "weights sum to %v", sum)
	}
	return nil
}

// Catalog is the immutable program catalog plus vocabularies.
type Catalog struct {
	Programs    []Program  `yaml:"programs"`
	Regions     Vocabulary `yaml:"regions"`
	Channels    Vocabulary `yaml:"channels"`
	Disciplines Vocabulary `yaml:"disciplines"`
	Months      Vocabulary `yaml:"months"`
}

// Program looks up a program by name.
func (c *Catalog) Program(name string) (Program, bool) {
	for _, p := range c.Programs {
		if p.Name == name {
			return p, true
		}
	}
	return Program{}, false
}

// ProgramNames returns program names in catalog order.
func (c *Catalog) ProgramNames() []string {
	names := make([]string, len(c.Programs))
	for i, p := range c.Programs {
		names[i] = p.Name
	}
	return names
}

// MonthLabel returns the label for a 1-based month number.
func (c *Catalog) MonthLabel(month int) string {
	if month < 1 || month > len(c.Months.Values) {
		return ""
	}
	return c.Months.Values[month-1]
}

// MonthNumber returns the 1-based month for a label, or 0.
func (c *Catalog) MonthNumber(label string) int {
	return indexOf(c.Months.Values, label) + 1
}

// Validate fails fast on anything the generator or the merge path cannot handle.
func (c *Catalog) Validate() error {
	if len(c.Programs) == 0 {
		return Configf("programs", "catalog has no programs")
	}
	seen := make(map[string]bool, len(c.Programs))
	for i, p := range c.Programs {
		field := fmt.Sprintf("programs[%d]", i)
		if p.Name == "" {
			return Configf(field, "program name is empty")
		}
		if seen[p.Name] {
			return Configf(field, "duplicate program %q", p.Name)
		}
		seen[p.Name] = true
		if p.UnitPrice < 0 {
			return Configf(field, "negative unit price %v", p.UnitPrice)
		}
		switch p.Unit {
		case PerMonth:
			if p.DurationMonths <= 0 || p.DurationWeeks != 0 {
				return Configf(field, "%q is priced per month and needs only duration_months", p.Name)
			}
		case PerWeek:
			if p.DurationWeeks <= 0 || p.DurationMonths != 0 {
				return Configf(field, "%q is priced per week and needs only duration_weeks", p.Name)
			}
		default:
			return Configf(field, "unknown pricing unit %q", p.Unit)
		}
		if p.EnrollmentMin < 1 || p.EnrollmentMax < p.EnrollmentMin {
			return Configf(field, "enrollment band [%d, %d] for %q", p.EnrollmentMin, p.EnrollmentMax, p.Name)
		}
	}

	vocabs := []struct {
		field string
		v     Vocabulary
	}{
		{"regions", c.Regions},
		{"channels", c.Channels},
		{"disciplines", c.Disciplines},
		{"months", c.Months},
	}
	for _, vc := range vocabs {
		if err := vc.v.validate(vc.field); err != nil {
			return err
		}
	}
	if len(c.Months.Values) != 12 {
		return Configf("months", "need 12 month labels, got %d", len(c.Months.Values))
	}
	return nil
}

func indexOf(values []string, v string) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}
