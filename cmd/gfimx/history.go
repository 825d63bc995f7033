package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"gfimx/policyd/pkg/cli"
	"gfimx/policyd/pkg/ledger"
)

var historyFlags struct {
	client string
	run    string
	status string
	since  string
	limit  int
	format string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded distribution decisions",
	Long: `Query the distribution ledger, newest entries first.

Every distribute run records one entry per client: whether its policy was
published, rejected or failed to publish, why, and from which commit.

Examples:
  # Last 20 decisions
  gfimx history

  # Every rejection of one client in the last week
  gfimx history --client web-01 --status rejected --since 168h

  # One run as CSV
  gfimx history --run 6f1c2d4e-... --format csv`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyFlags.client, "client", "", "only entries for this client")
	historyCmd.Flags().StringVar(&historyFlags.run, "run", "", "only entries of this run id")
	historyCmd.Flags().StringVar(&historyFlags.status, "status", "", "only entries with status: published, rejected, publish_failed")
	historyCmd.Flags().StringVar(&historyFlags.since, "since", "", "only entries newer than a duration (24h) or RFC 3339 time")
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", 20, "maximum entries, 0 for all")
	historyCmd.Flags().StringVar(&historyFlags.format, "format", "text", "output format: text, json, csv")
}

func runHistory(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(historyFlags.format)
	if err != nil {
		return err
	}

	filter := ledger.Filter{
		Client: historyFlags.client,
		RunID:  historyFlags.run,
		Limit:  historyFlags.limit,
	}
	if historyFlags.status != "" {
		filter.Status, err = parseStatus(historyFlags.status)
		if err != nil {
			return err
		}
	}
	if historyFlags.since != "" {
		filter.Since, err = parseSince(historyFlags.since, time.Now())
		if err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Ledger.Enabled {
		return cli.NewConfigError("ledger.enabled", "the distribution ledger is disabled")
	}

	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	entries, err := l.Query(commandContext(cmd), filter)
	if err != nil {
		return cli.NewCommandError("history", err)
	}

	return cli.NewFormatter(format).FormatTo(outWriter(cmd), newHistoryView(entries))
}

func parseStatus(s string) (ledger.Status, error) {
	switch st := ledger.Status(s); st {
	case ledger.StatusPublished, ledger.StatusRejected, ledger.StatusPublishFailed:
		return st, nil
	default:
		return "", cli.NewConfigError("status", fmt.Sprintf("unknown status %q", s))
	}
}

// parseSince accepts a duration counted back from now or an absolute
// RFC 3339 time.
func parseSince(s string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, cli.NewConfigError("since", fmt.Sprintf("want a duration or RFC 3339 time, got %q", s))
	}
	return t, nil
}

type historyEntry struct {
	Time      time.Time `json:"time"`
	RunID     string    `json:"run_id"`
	Client    string    `json:"client"`
	Status    string    `json:"status"`
	Patterns  int       `json:"patterns"`
	Checksum  string    `json:"checksum,omitempty"`
	Commit    string    `json:"commit,omitempty"`
	ErrorType string    `json:"error_type,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// historyView prints ledger entries; as JSON it is a plain array.
type historyView []historyEntry

func newHistoryView(entries []*ledger.Entry) historyView {
	v := make(historyView, 0, len(entries))
	for _, e := range entries {
		v = append(v, historyEntry{
			Time:      e.CreatedAt.UTC(),
			RunID:     e.RunID,
			Client:    e.Client,
			Status:    string(e.Status),
			Patterns:  e.Patterns,
			Checksum:  e.Checksum,
			Commit:    e.Commit,
			ErrorType: e.ErrorType,
			Error:     e.Error,
		})
	}
	return v
}

func (v historyView) Headers() []string {
	return []string{"TIME", "CLIENT", "STATUS", "PATTERNS", "CHECKSUM", "COMMIT", "ERROR"}
}

func (v historyView) Rows() [][]string {
	rows := make([][]string, 0, len(v))
	for _, e := range v {
		errText := e.ErrorType
		if e.Error != "" {
			errText = e.Error
		}
		rows = append(rows, []string{
			e.Time.Format(time.RFC3339),
			e.Client,
			e.Status,
			strconv.Itoa(e.Patterns),
			shortSHA(e.Checksum),
			shortSHA(e.Commit),
			errText,
		})
	}
	return rows
}
