package patterns

import (
	"fmt"
	"regexp"
	"time"

	"github.com/dlclark/regexp2"
)

// Dialect selects the regular-expression engine patterns are compiled with.
type Dialect string

const (
	// DialectRE2 compiles with Go's regexp package (RE2 syntax), the dialect
	// of the monitoring clients that consume the patterns.
	DialectRE2 Dialect = "re2"

	// DialectRegexp2 compiles with a backtracking engine that also accepts
	// look-around and backreferences.
	DialectRegexp2 Dialect = "regexp2"
)

// regexp2MatchTimeout bounds a single regexp2 match.
const regexp2MatchTimeout = time.Second

// ParseDialect parses a dialect name. An empty name selects DialectRE2.
func ParseDialect(name string) (Dialect, error) {
	switch Dialect(name) {
	case "", DialectRE2:
		return DialectRE2, nil
	case DialectRegexp2:
		return DialectRegexp2, nil
	default:
		return "", fmt.Errorf("unknown regex dialect %q (want %q or %q)", name, DialectRE2, DialectRegexp2)
	}
}

type matcher interface {
	MatchString(s string) bool
}

type regexp2Matcher struct {
	re *regexp2.Regexp
}

func (m regexp2Matcher) MatchString(s string) bool {
	ok, err := m.re.MatchString(s)
	return err == nil && ok
}

// ValidatedPattern is a literal that compiled under the validator's dialect.
type ValidatedPattern struct {
	Literal Literal
	Dialect Dialect

	matcher matcher
}

// String returns the decoded pattern source.
func (p ValidatedPattern) String() string {
	return p.Literal.Value
}

// MatchString reports whether s matches the compiled pattern.
func (p ValidatedPattern) MatchString(s string) bool {
	if p.matcher == nil {
		return false
	}
	return p.matcher.MatchString(s)
}

// Validator compiles pattern literals.
type Validator struct {
	dialect  Dialect
	failFast bool
}

// NewValidator creates a validator for the given dialect. With failFast the
// validator stops at the first literal that does not compile; otherwise
// every failure is reported.
func NewValidator(dialect Dialect, failFast bool) *Validator {
	if dialect == "" {
		dialect = DialectRE2
	}
	return &Validator{dialect: dialect, failFast: failFast}
}

// Dialect returns the validator's dialect.
func (v *Validator) Dialect() Dialect {
	return v.dialect
}

// Validate compiles every literal. It returns all patterns or an error,
// never both. Literal values are compiled as-is; no decoding happens here.
func (v *Validator) Validate(literals []Literal) ([]ValidatedPattern, error) {
	validated := make([]ValidatedPattern, 0, len(literals))
	errs := &ErrorList{}

	for _, lit := range literals {
		m, err := v.compile(lit.Value)
		if err != nil {
			errs.Add(&Error{
				Type:     ErrorTypeInvalidPattern,
				Message:  "could not compile pattern",
				Input:    lit.Value,
				Position: lit.Position,
				Cause:    err,
			})
			if v.failFast {
				break
			}
			continue
		}
		validated = append(validated, ValidatedPattern{Literal: lit, Dialect: v.dialect, matcher: m})
	}

	if errs.HasErrors() {
		return nil, errs
	}
	return validated, nil
}

func (v *Validator) compile(source string) (matcher, error) {
	switch v.dialect {
	case DialectRegexp2:
		re, err := regexp2.Compile(source, regexp2.None)
		if err != nil {
			return nil, err
		}
		re.MatchTimeout = regexp2MatchTimeout
		return regexp2Matcher{re: re}, nil
	default:
		re, err := regexp.Compile(source)
		if err != nil {
			return nil, err
		}
		return re, nil
	}
}
