package patterns

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
	"unicode/utf8"
)

func TestEngine_Extract(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"concrete scenario", `patterns = ["foo%20bar" , "baz"]`, []string{"foo bar", "baz"}},
		{"empty block", `patterns = []`, []string{}},
		{"no clause", "[watch]\ndirs = [\"/etc\"]\n", []string{}},
		{"empty text", "", []string{}},
		{"first clause only", samplePolicy, []string{`.*\.swp$`, "~$"}},
		{"bracket in pattern", `patterns = ["^/dev/[a-z]+$"]`, []string{"^/dev/[a-z]+$"}},
	}

	engine := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, err := engine.Extract(tt.raw)
			if err != nil {
				t.Fatalf("Extract() error = %v, want nil", err)
			}
			if got := clause.Strings(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEngine_Extract_NoClauseHasNoBlock(t *testing.T) {
	clause, err := NewEngine().Extract("dirs = []")
	if err != nil {
		t.Fatal(err)
	}
	if clause.Block != nil {
		t.Errorf("Block = %+v, want nil", clause.Block)
	}
	if clause.Patterns == nil {
		t.Error("Patterns = nil, want empty list")
	}
}

func TestEngine_Extract_Failures(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantType ErrorType
		wantLine int
		wantCol  int
	}{
		{"unterminated block", "x = 1\npatterns = [\"a\"", ErrorTypeUnterminatedBlock, 2, 1},
		{"stray marker", "x = 1\npatterns = [ 100% ]", ErrorTypeStrayEscapeMarker, 2, 17},
		{"unbalanced quote hides bracket", "patterns = [\"ok\", \"abc ]", ErrorTypeUnterminatedBlock, 1, 1},
		{"quote inside escape", "patterns = [\"a%2\"]", ErrorTypeQuoteInsideEscape, 1, 15},
		{"malformed digits", "\n\npatterns = [\"%GG\"]", ErrorTypeMalformedEscapeDigits, 3, 14},
		{"invalid pattern", `patterns = ["ok", "("]`, ErrorTypeInvalidPattern, 1, 19},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, err := NewEngine().Extract(tt.raw)
			if err == nil {
				t.Fatalf("Extract() = %q, want error", clause.Strings())
			}
			if clause != nil {
				t.Error("Extract() returned a clause alongside an error")
			}

			failures := Failures(err)
			if len(failures) != 1 {
				t.Fatalf("Failures() = %d, want 1", len(failures))
			}
			f := failures[0]
			if f.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", f.Type, tt.wantType)
			}
			if f.Position.Line != tt.wantLine || f.Position.Column != tt.wantCol {
				t.Errorf("Position = %s, want %d:%d", f.Position, tt.wantLine, tt.wantCol)
			}
		})
	}
}

func TestEngine_ExtractBlock(t *testing.T) {
	engine := NewEngine()

	got, err := engine.ExtractBlock(`"foo%20bar" , "baz"`)
	if err != nil {
		t.Fatalf("ExtractBlock() error = %v", err)
	}
	if len(got) != 2 || got[0].String() != "foo bar" || got[1].String() != "baz" {
		t.Errorf("ExtractBlock() = %v, want [foo bar baz]", got)
	}

	_, err = engine.ExtractBlock(`"abc`)
	if typ, _ := TypeOf(err); typ != ErrorTypeUnterminatedLiteral {
		t.Errorf("ExtractBlock(unterminated) type = %v, want %s", typ, ErrorTypeUnterminatedLiteral)
	}

	_, err = engine.ExtractBlock(`100% done "x"`)
	if typ, _ := TypeOf(err); typ != ErrorTypeStrayEscapeMarker {
		t.Errorf("ExtractBlock(stray) type = %v, want %s", typ, ErrorTypeStrayEscapeMarker)
	}

	_, err = engine.ExtractBlock(`"\d+", "[0-9]+", "("`)
	failures := Failures(err)
	if len(failures) != 1 || failures[0].Input != "(" {
		t.Errorf("ExtractBlock(invalid) failures = %v, want one naming \"(\"", failures)
	}
}

func TestEngine_ExtractAll(t *testing.T) {
	clauses, err := NewEngine().ExtractAll(samplePolicy)
	if err != nil {
		t.Fatalf("ExtractAll() error = %v", err)
	}
	if len(clauses) != 2 {
		t.Fatalf("ExtractAll() = %d clauses, want 2", len(clauses))
	}
	if got := clauses[1].Strings(); !reflect.DeepEqual(got, []string{"^/proc"}) {
		t.Errorf("clauses[1] = %q", got)
	}
	if clauses[1].Patterns[0].Literal.Position.Line != 4 {
		t.Errorf("literal line = %d, want 4", clauses[1].Patterns[0].Literal.Position.Line)
	}

	bad := samplePolicy + "\nextra = { patterns = [\"(\"] }\n"
	if _, err := NewEngine().ExtractAll(bad); err == nil {
		t.Error("ExtractAll() error = nil, want invalid pattern in third clause")
	}
}

func TestEngine_FailFastOption(t *testing.T) {
	raw := `patterns = ["(", "["]`

	_, err := NewEngine().Extract(raw)
	if n := len(Failures(err)); n != 2 {
		t.Errorf("default engine failures = %d, want 2", n)
	}

	_, err = NewEngine(WithFailFast()).Extract(raw)
	if n := len(Failures(err)); n != 1 {
		t.Errorf("fail-fast engine failures = %d, want 1", n)
	}
}

func TestEngine_DialectOption(t *testing.T) {
	raw := `patterns = ["(?!tmp)\w+"]`

	if _, err := NewEngine().Extract(raw); err == nil {
		t.Error("re2 engine accepted negative look-ahead")
	}
	if _, err := NewEngine(WithDialect(DialectRegexp2)).Extract(raw); err != nil {
		t.Errorf("regexp2 engine error = %v", err)
	}
}

func TestEngine_InvalidUTF8EscapeSameInBothDialects(t *testing.T) {
	for _, d := range []Dialect{DialectRE2, DialectRegexp2} {
		t.Run(string(d), func(t *testing.T) {
			got, err := NewEngine(WithDialect(d)).ExtractBlock(`"caf%E9"`)
			if err != nil {
				t.Fatalf("ExtractBlock() error = %v", err)
			}
			if len(got) != 1 || got[0].String() != "caf\uFFFD" {
				t.Fatalf("ExtractBlock() = %v, want one pattern \"caf\\uFFFD\"", got)
			}
			if !utf8.ValidString(got[0].String()) {
				t.Errorf("pattern %q is not valid UTF-8", got[0].String())
			}
		})
	}
}

func TestEngine_ConcurrentUse(t *testing.T) {
	engine := NewEngine()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw := fmt.Sprintf(`patterns = ["file%d%%2Elog", "x"]`, i)
			clause, err := engine.Extract(raw)
			if err != nil {
				errs <- err
				return
			}
			if want := fmt.Sprintf("file%d.log", i); clause.Strings()[0] != want {
				errs <- fmt.Errorf("got %q, want %q", clause.Strings()[0], want)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestExtract(t *testing.T) {
	got, err := Extract(`patterns = ["a%2Bb"]`)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"a+b"}) {
		t.Errorf("Extract() = %q, want [a+b]", got)
	}

	if _, err := Extract(`patterns = ["("]`); err == nil {
		t.Error("Extract() error = nil, want invalid pattern")
	}
}

func TestTypeOf(t *testing.T) {
	if _, ok := TypeOf(fmt.Errorf("plain")); ok {
		t.Error("TypeOf(plain error) ok = true")
	}

	wrapped := fmt.Errorf("policy alpha: %w", &Error{Type: ErrorTypeQuoteInsideEscape})
	if typ, ok := TypeOf(wrapped); !ok || typ != ErrorTypeQuoteInsideEscape {
		t.Errorf("TypeOf(wrapped) = %v, %v", typ, ok)
	}
}

func BenchmarkEngine_Extract(b *testing.B) {
	engine := NewEngine()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := engine.ExtractAll(samplePolicy); err != nil {
			b.Fatal(err)
		}
	}
}
