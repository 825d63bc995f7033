package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"gfimx/policyd/pkg/cli"
	"gfimx/policyd/pkg/distributor"
)

var distributeFlags struct {
	dryRun  bool
	onError string
	format  string
}

var distributeCmd = &cobra.Command{
	Use:   "distribute",
	Short: "Validate and publish every client's policy once",
	Long: `Validate every registered client's policy and publish the accepted ones.

Each client in the registry is processed in order: its policy file is
read, its ignore patterns are extracted and compiled, and the policy is
written to the store. A rejected policy is never published.

With --on-error skip (the default) a failing client is reported and the
run continues. With --on-error abort the first failure stops the run.

The command exits 1 when any client failed.

Examples:
  # Publish all policies
  gfimx distribute

  # Validate only; nothing is published or recorded
  gfimx distribute --dry-run

  # Stop at the first bad policy, JSON report for CI
  gfimx distribute --on-error abort --format json`,
	Args: cobra.NoArgs,
	RunE: runDistribute,
}

func init() {
	rootCmd.AddCommand(distributeCmd)

	distributeCmd.Flags().BoolVar(&distributeFlags.dryRun, "dry-run", false, "validate without publishing or recording")
	distributeCmd.Flags().StringVar(&distributeFlags.onError, "on-error", "", "failure policy: skip or abort (default from config)")
	distributeCmd.Flags().StringVar(&distributeFlags.format, "format", "text", "output format: text, json, csv")
}

func runDistribute(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(distributeFlags.format)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, appOptions{
		dryRun:  distributeFlags.dryRun,
		onError: distributeFlags.onError,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := cli.SetupSignalHandler(commandContext(cmd))
	defer cancel()

	report, runErr := a.dist.Run(ctx)
	if report != nil {
		out := outWriter(cmd)
		if err := cli.NewFormatter(format).FormatTo(out, newReportView(report)); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		if format == cli.FormatText {
			fmt.Fprintln(out, summarize(report))
		}
	}

	if runErr != nil {
		return cli.NewCommandError("distribute", runErr)
	}
	if !report.OK() {
		return &cli.ExitError{Code: cli.ExitFailure}
	}
	return nil
}

func summarize(r *distributor.Report) string {
	prefix := "run"
	if r.DryRun {
		prefix = "dry run"
	}
	s := fmt.Sprintf("%s %s: %d published, %d failed", prefix, r.RunID, r.Published(), r.Failed())
	if r.Skipped > 0 {
		s += fmt.Sprintf(", %d skipped", r.Skipped)
	}
	if r.Commit != "" {
		s += fmt.Sprintf(" at %s", shortSHA(r.Commit))
	}
	return s + fmt.Sprintf(" (%s)", r.Duration().Round(time.Millisecond))
}

// reportView is the printable form of a distributor.Report.
type reportView struct {
	RunID      string        `json:"run_id"`
	Commit     string        `json:"commit,omitempty"`
	DryRun     bool          `json:"dry_run"`
	Started    time.Time     `json:"started"`
	DurationMS int64         `json:"duration_ms"`
	Published  int           `json:"published"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Aborted    bool          `json:"aborted"`
	Outcomes   []outcomeView `json:"outcomes"`
}

type outcomeView struct {
	Client    string `json:"client"`
	Policy    string `json:"policy"`
	Status    string `json:"status"`
	Patterns  int    `json:"patterns"`
	Checksum  string `json:"checksum,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
	Error     string `json:"error,omitempty"`
}

func newReportView(r *distributor.Report) reportView {
	v := reportView{
		RunID:      r.RunID,
		Commit:     r.Commit,
		DryRun:     r.DryRun,
		Started:    r.Started,
		DurationMS: r.Duration().Milliseconds(),
		Published:  r.Published(),
		Failed:     r.Failed(),
		Skipped:    r.Skipped,
		Aborted:    r.Aborted,
		Outcomes:   make([]outcomeView, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		ov := outcomeView{
			Client:    o.Client,
			Policy:    o.PolicyPath,
			Status:    string(o.Status),
			Patterns:  o.Patterns,
			Checksum:  o.Checksum,
			ErrorType: o.ErrorType,
		}
		if o.Err != nil {
			ov.Error = o.Err.Error()
		}
		v.Outcomes = append(v.Outcomes, ov)
	}
	return v
}

func (v reportView) Headers() []string {
	return []string{"CLIENT", "STATUS", "PATTERNS", "CHECKSUM", "ERROR"}
}

func (v reportView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Outcomes))
	for _, o := range v.Outcomes {
		errText := o.ErrorType
		if o.Error != "" {
			errText = o.Error
		}
		rows = append(rows, []string{
			o.Client,
			o.Status,
			strconv.Itoa(o.Patterns),
			shortSHA(o.Checksum),
			errText,
		})
	}
	return rows
}

func shortSHA(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
