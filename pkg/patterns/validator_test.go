package patterns

import (
	"strings"
	"testing"
)

func literals(values ...string) []Literal {
	out := make([]Literal, len(values))
	for i, v := range values {
		out[i] = Literal{Value: v, Raw: `"` + v + `"`}
	}
	return out
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(DialectRE2, false)

	validated, err := v.Validate(literals(`\d+`, "[0-9]+", `^/var/log/.*\.gz$`))
	if err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
	if len(validated) != 3 {
		t.Fatalf("Validate() returned %d patterns, want 3", len(validated))
	}
	if validated[0].String() != `\d+` {
		t.Errorf("validated[0] = %q, want %q", validated[0], `\d+`)
	}
	if validated[2].Dialect != DialectRE2 {
		t.Errorf("Dialect = %s, want %s", validated[2].Dialect, DialectRE2)
	}
	if !validated[2].MatchString("/var/log/syslog.1.gz") {
		t.Error("pattern did not match /var/log/syslog.1.gz")
	}
}

func TestValidator_InvalidPattern(t *testing.T) {
	v := NewValidator(DialectRE2, false)

	validated, err := v.Validate(literals(`\d+`, "[0-9]+", "("))
	if err == nil {
		t.Fatal("Validate() error = nil, want invalid pattern")
	}
	if validated != nil {
		t.Errorf("Validate() returned %d patterns alongside error", len(validated))
	}

	failures := Failures(err)
	if len(failures) != 1 {
		t.Fatalf("Failures() = %d, want 1", len(failures))
	}
	f := failures[0]
	if f.Type != ErrorTypeInvalidPattern {
		t.Errorf("Type = %s, want %s", f.Type, ErrorTypeInvalidPattern)
	}
	if f.Input != "(" {
		t.Errorf("Input = %q, want %q", f.Input, "(")
	}
	if f.Cause == nil || !strings.Contains(f.Cause.Error(), "missing closing )") {
		t.Errorf("Cause = %v, want compiler diagnostic", f.Cause)
	}
}

func TestValidator_AggregatesFailures(t *testing.T) {
	input := literals("(", "ok", "[", "a{2")

	_, err := NewValidator(DialectRE2, false).Validate(input)
	list, ok := err.(*ErrorList)
	if !ok {
		t.Fatalf("error type = %T, want *ErrorList", err)
	}
	if list.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", list.Count())
	}
	if list.Errors[0].Input != "(" || list.Errors[1].Input != "[" {
		t.Errorf("failures = %q, %q, want ( and [", list.Errors[0].Input, list.Errors[1].Input)
	}
	if !strings.HasPrefix(list.Error(), "2 pattern errors:") {
		t.Errorf("Error() = %q", list.Error())
	}
}

func TestValidator_FailFast(t *testing.T) {
	_, err := NewValidator(DialectRE2, true).Validate(literals("(", "ok", "["))
	failures := Failures(err)
	if len(failures) != 1 {
		t.Fatalf("Failures() = %d, want 1", len(failures))
	}
	if failures[0].Input != "(" {
		t.Errorf("first failure = %q, want %q", failures[0].Input, "(")
	}
}

func TestValidator_NoDoubleDecoding(t *testing.T) {
	decoded, err := Lex(`"100%2525"`)
	if err != nil {
		t.Fatal(err)
	}

	validated, err := NewValidator(DialectRE2, false).Validate(decoded)
	if err != nil {
		t.Fatal(err)
	}
	if got := validated[0].String(); got != "100%25" {
		t.Errorf("pattern = %q, want %q", got, "100%25")
	}
	if !validated[0].MatchString("100%25") || validated[0].MatchString("100%") {
		t.Error("pattern matched as if escapes were decoded twice")
	}
}

func TestValidator_InvalidUTF8(t *testing.T) {
	decoded, err := Lex(`"caf%C3"`)
	if err != nil {
		t.Fatalf("Lex() error = %v", err)
	}
	if _, err := NewValidator(DialectRE2, false).Validate(decoded); err == nil {
		t.Error("Validate() error = nil, want invalid UTF-8 rejection")
	}
}

func TestValidator_Regexp2Dialect(t *testing.T) {
	input := literals(`(?<=/home/)\w+`, `(a)\1`)

	if _, err := NewValidator(DialectRE2, false).Validate(input); err == nil {
		t.Error("RE2 accepted look-behind and backreference")
	}

	validated, err := NewValidator(DialectRegexp2, false).Validate(input)
	if err != nil {
		t.Fatalf("regexp2 Validate() error = %v", err)
	}
	if !validated[0].MatchString("/home/alice") {
		t.Error("look-behind pattern did not match /home/alice")
	}
	if !validated[1].MatchString("aa") || validated[1].MatchString("ab") {
		t.Error("backreference pattern matched incorrectly")
	}

	if _, err := NewValidator(DialectRegexp2, false).Validate(literals("(")); err == nil {
		t.Error("regexp2 accepted unbalanced parenthesis")
	}
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"", DialectRE2, false},
		{"re2", DialectRE2, false},
		{"regexp2", DialectRegexp2, false},
		{"pcre", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDialect(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDialect(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseDialect(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidatedPattern_ZeroValue(t *testing.T) {
	var p ValidatedPattern
	if p.MatchString("anything") {
		t.Error("zero ValidatedPattern matched")
	}
}
