package patterns

// Option configures an Engine.
type Option func(*Engine)

// WithDialect selects the regex dialect literals are validated against.
func WithDialect(d Dialect) Option {
	return func(e *Engine) {
		e.dialect = d
	}
}

// WithFailFast stops validation at the first literal that does not compile.
func WithFailFast() Option {
	return func(e *Engine) {
		e.failFast = true
	}
}

// Engine runs locate, lex and validate over policy text. An Engine holds
// only immutable settings and is safe for concurrent use.
type Engine struct {
	dialect  Dialect
	failFast bool
}

// NewEngine creates an engine. By default it validates with DialectRE2 and
// reports every invalid pattern.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{dialect: DialectRE2}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clause is the validated content of one patterns clause.
type Clause struct {
	// Block is the located clause, nil when the text declares no patterns.
	Block *Block

	// Patterns are the validated literals in source order.
	Patterns []ValidatedPattern
}

// Strings returns the decoded pattern sources.
func (c *Clause) Strings() []string {
	out := make([]string, len(c.Patterns))
	for i, p := range c.Patterns {
		out[i] = p.String()
	}
	return out
}

// Extract validates the first patterns clause of raw. A policy without a
// clause yields an empty clause and no error.
func (e *Engine) Extract(raw string) (*Clause, error) {
	block, err := Locate(raw)
	if err != nil {
		return nil, err
	}
	if block == nil {
		return &Clause{Patterns: []ValidatedPattern{}}, nil
	}
	return e.extractBlock(raw, block)
}

// ExtractAll validates every patterns clause of raw in source order. The
// first clause that fails aborts the extraction.
func (e *Engine) ExtractAll(raw string) ([]*Clause, error) {
	blocks, err := LocateAll(raw)
	if err != nil {
		return nil, err
	}

	clauses := make([]*Clause, 0, len(blocks))
	for _, block := range blocks {
		clause, err := e.extractBlock(raw, block)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

// ExtractBlock validates bracketed block content, such as
// `"foo%20bar" , "baz"`. Positions in errors are relative to block.
func (e *Engine) ExtractBlock(block string) ([]ValidatedPattern, error) {
	literals, err := Lex(block)
	if err != nil {
		return nil, err
	}
	return NewValidator(e.dialect, e.failFast).Validate(literals)
}

func (e *Engine) extractBlock(raw string, block *Block) (*Clause, error) {
	literals, err := Lex(block.Text)
	if err != nil {
		for _, f := range Failures(err) {
			f.rebase(raw, block.Start)
		}
		return nil, err
	}

	for i := range literals {
		literals[i].Position = positionAt(raw, block.Start+literals[i].Position.Offset)
	}

	validated, err := NewValidator(e.dialect, e.failFast).Validate(literals)
	if err != nil {
		return nil, err
	}
	return &Clause{Block: block, Patterns: validated}, nil
}

// Extract validates the first patterns clause of raw with the default
// engine and returns the decoded patterns.
func Extract(raw string) ([]string, error) {
	clause, err := NewEngine().Extract(raw)
	if err != nil {
		return nil, err
	}
	return clause.Strings(), nil
}
