package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"gfimx/policyd/pkg/cli"
	"gfimx/policyd/pkg/distributor"
	"gfimx/policyd/pkg/patterns"
	"gfimx/policyd/pkg/policy/loader"
)

var lintFlags struct {
	block  bool
	format string
	match  string
}

var lintCmd = &cobra.Command{
	Use:   "lint FILE...",
	Short: "Validate the ignore patterns of policy files",
	Long: `Extract and validate the ignore patterns of policy files.

Each file is read the way distribute reads a client's policy: the
patterns clauses are located, their literals decoded and every pattern
compiled under the configured regex dialect. Failures are reported with
their line and column.

With --block the files hold bare block content, the text between the
brackets of a patterns clause, e.g. "\.swp$", "^/tmp/%2E".

With --match every valid pattern is tested against PATH.

Examples:
  # Lint policies before committing them
  gfimx lint policy/web-01.toml policy/db-01.toml

  # Which patterns ignore this path?
  gfimx lint policy/web-01.toml --match /var/log/nginx/access.log

  # JSON output for CI/CD
  gfimx lint policy/*.toml --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: lintPolicies,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().BoolVar(&lintFlags.block, "block", false, "files contain bare pattern block content")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
	lintCmd.Flags().StringVar(&lintFlags.match, "match", "", "report which patterns match PATH")
}

// lintResult is the outcome for one file.
type lintResult struct {
	File     string        `json:"file"`
	Valid    bool          `json:"valid"`
	Patterns []lintPattern `json:"patterns"`
	Errors   []lintError   `json:"errors,omitempty"`
}

type lintPattern struct {
	Pattern string `json:"pattern"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Matches *bool  `json:"matches,omitempty"`
}

type lintError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Input   string `json:"input,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

func lintPolicies(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return &cli.ExitError{Code: cli.ExitUsage, Err: errors.New("at least one file must be specified")}
	}

	format, err := cli.ParseFormat(lintFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return cli.NewConfigError("format", "lint supports text or json output")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	l, err := distributor.NewLoader(cfg)
	if err != nil {
		return cli.NewConfigError("patterns", err.Error())
	}
	engine, err := distributor.NewEngine(cfg)
	if err != nil {
		return cli.NewConfigError("patterns", err.Error())
	}

	results := make([]lintResult, 0, len(args))
	for _, file := range args {
		var r lintResult
		if lintFlags.block {
			r = lintBlock(engine, file)
		} else {
			r = lintFile(l, file)
		}
		results = append(results, r)
	}

	out := outWriter(cmd)
	if format == cli.FormatJSON {
		if err := (&cli.JSONFormatter{Indent: true}).FormatTo(out, results); err != nil {
			return err
		}
	} else {
		printLintText(out, results)
	}

	for _, r := range results {
		if !r.Valid {
			return &cli.ExitError{Code: cli.ExitFailure}
		}
	}
	return nil
}

func lintFile(l *loader.Loader, path string) lintResult {
	result := lintResult{File: path}

	policy, err := l.LoadFromFile(filepath.Base(path), path)
	if err != nil {
		result.Errors = lintErrors(err)
		return result
	}

	for _, clause := range policy.Clauses {
		result.Patterns = append(result.Patterns, lintPatterns(clause.Patterns)...)
	}
	result.Valid = true
	return result
}

func lintBlock(engine *patterns.Engine, path string) lintResult {
	result := lintResult{File: path}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = []lintError{{Type: distributor.ErrorTypeLoad, Message: err.Error()}}
		return result
	}

	validated, err := engine.ExtractBlock(string(data))
	if err != nil {
		result.Errors = lintErrors(err)
		return result
	}
	result.Patterns = lintPatterns(validated)
	result.Valid = true
	return result
}

// lintPatterns lists validated patterns, testing each against --match
// when it is set.
func lintPatterns(validated []patterns.ValidatedPattern) []lintPattern {
	out := make([]lintPattern, 0, len(validated))
	for _, p := range validated {
		lp := lintPattern{
			Pattern: p.String(),
			Line:    p.Literal.Position.Line,
			Column:  p.Literal.Position.Column,
		}
		if lintFlags.match != "" {
			matched := p.MatchString(lintFlags.match)
			lp.Matches = &matched
		}
		out = append(out, lp)
	}
	return out
}

func lintErrors(err error) []lintError {
	failures := patterns.Failures(err)
	if len(failures) == 0 {
		return []lintError{{Type: distributor.ErrorTypeLoad, Message: err.Error()}}
	}

	out := make([]lintError, 0, len(failures))
	for _, f := range failures {
		msg := f.Message
		if f.Cause != nil {
			msg = fmt.Sprintf("%s: %v", f.Message, f.Cause)
		}
		out = append(out, lintError{
			Type:    string(f.Type),
			Message: msg,
			Input:   f.Input,
			Line:    f.Position.Line,
			Column:  f.Position.Column,
		})
	}
	return out
}

func printLintText(w io.Writer, results []lintResult) {
	invalid := 0
	for _, r := range results {
		if !r.Valid {
			invalid++
			fmt.Fprintf(w, "✗ %s\n", r.File)
			for _, e := range r.Errors {
				loc := ""
				if e.Line > 0 {
					loc = strconv.Itoa(e.Line) + ":" + strconv.Itoa(e.Column) + " "
				}
				fmt.Fprintf(w, "  %s[%s] %s", loc, e.Type, e.Message)
				if e.Input != "" {
					fmt.Fprintf(w, ": %q", e.Input)
				}
				fmt.Fprintln(w)
			}
			continue
		}

		fmt.Fprintf(w, "✓ %s (%d patterns)\n", r.File, len(r.Patterns))
		for _, p := range r.Patterns {
			mark := ""
			if p.Matches != nil {
				if *p.Matches {
					mark = "  matches"
				} else {
					mark = "  no match"
				}
			}
			fmt.Fprintf(w, "  %d:%d %s%s\n", p.Line, p.Column, p.Pattern, mark)
		}
	}

	fmt.Fprintf(w, "\n%d file(s), %d invalid\n", len(results), invalid)
}
