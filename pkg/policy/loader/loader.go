package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"unicode/utf8"

	"gfimx/policyd/pkg/patterns"
)

// DefaultMaxFileSize is the largest policy file accepted by default.
const DefaultMaxFileSize = 1 << 20

// Config controls policy loading.
type Config struct {
	// MaxFileSize is the largest file accepted, in bytes.
	MaxFileSize int64

	// AllClauses validates every patterns clause instead of the first.
	AllClauses bool
}

// DefaultConfig returns the loader defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize: DefaultMaxFileSize,
		AllClauses:  true,
	}
}

// Policy is a client policy whose patterns have been extracted and
// validated. Raw is distributed unchanged.
type Policy struct {
	// Client owns the policy.
	Client string

	// Path is the file the policy was read from.
	Path string

	// Raw is the policy text.
	Raw string

	// Checksum is the hex SHA-256 of Raw.
	Checksum string

	// Clauses are the validated patterns clauses in source order.
	Clauses []*patterns.Clause

	// Patterns are the decoded patterns of the first clause.
	Patterns []string
}

// PatternCount returns the number of patterns across all clauses.
func (p *Policy) PatternCount() int {
	n := 0
	for _, c := range p.Clauses {
		n += len(c.Patterns)
	}
	return n
}

// Loader reads policy files and validates their patterns.
type Loader struct {
	config *Config
	engine *patterns.Engine
}

// New creates a loader. A nil config uses DefaultConfig and a nil engine
// uses patterns.NewEngine.
func New(config *Config, engine *patterns.Engine) *Loader {
	if config == nil {
		config = DefaultConfig()
	}
	if engine == nil {
		engine = patterns.NewEngine()
	}
	return &Loader{
		config: config,
		engine: engine,
	}
}

// LoadFromFile loads the policy file at path for client. It performs file
// size and UTF-8 validation, then pattern extraction.
func (l *Loader) LoadFromFile(client, path string) (*Policy, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{
				FilePath: path,
				Message:  "file not found",
				Cause:    err,
			}
		}
		if os.IsPermission(err) {
			return nil, &LoadError{
				FilePath: path,
				Message:  "permission denied",
				Cause:    err,
			}
		}
		return nil, &LoadError{
			FilePath: path,
			Message:  "failed to access file",
			Cause:    err,
		}
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, &LoadError{
			FilePath: path,
			Message:  "not a regular file",
		}
	}

	if l.config.MaxFileSize > 0 && fileInfo.Size() > l.config.MaxFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", fileInfo.Size(), l.config.MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			FilePath: path,
			Message:  "failed to read file",
			Cause:    err,
		}
	}

	return l.Load(client, path, data)
}

// Load validates policy text that has already been read.
func (l *Loader) Load(client, path string, data []byte) (*Policy, error) {
	if !utf8.Valid(data) {
		return nil, &LoadError{
			FilePath: path,
			Message:  "file contains invalid UTF-8 encoding",
		}
	}

	raw := string(data)
	clauses, err := l.extract(raw)
	if err != nil {
		return nil, &ExtractError{
			FilePath: path,
			Client:   client,
			Cause:    err,
		}
	}

	sum := sha256.Sum256(data)
	policy := &Policy{
		Client:   client,
		Path:     path,
		Raw:      raw,
		Checksum: hex.EncodeToString(sum[:]),
		Clauses:  clauses,
		Patterns: []string{},
	}
	if len(clauses) > 0 {
		policy.Patterns = clauses[0].Strings()
	}

	return policy, nil
}

func (l *Loader) extract(raw string) ([]*patterns.Clause, error) {
	if l.config.AllClauses {
		return l.engine.ExtractAll(raw)
	}

	clause, err := l.engine.Extract(raw)
	if err != nil {
		return nil, err
	}
	if clause.Block == nil {
		return []*patterns.Clause{}, nil
	}
	return []*patterns.Clause{clause}, nil
}
