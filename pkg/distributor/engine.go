package distributor

import (
	"fmt"

	"gfimx/policyd/pkg/config"
	"gfimx/policyd/pkg/patterns"
	"gfimx/policyd/pkg/policy/loader"
)

// NewEngine builds the pattern engine described by cfg.Patterns.
func NewEngine(cfg *config.Config) (*patterns.Engine, error) {
	dialect, err := patterns.ParseDialect(cfg.Patterns.Dialect)
	if err != nil {
		return nil, fmt.Errorf("patterns.dialect: %w", err)
	}

	opts := []patterns.Option{patterns.WithDialect(dialect)}
	if cfg.Patterns.FailFast {
		opts = append(opts, patterns.WithFailFast())
	}
	return patterns.NewEngine(opts...), nil
}

// NewLoader builds the policy loader described by cfg.
func NewLoader(cfg *config.Config) (*loader.Loader, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return loader.New(&loader.Config{
		MaxFileSize: cfg.Policy.MaxFileSize,
		AllClauses:  cfg.Patterns.AllClauses,
	}, engine), nil
}
