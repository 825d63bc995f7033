package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gfimx/policyd/pkg/cli"
	"gfimx/policyd/pkg/registry"
	"gfimx/policyd/pkg/store"
	"gfimx/policyd/pkg/telemetry/logging"
)

var clientsFlags struct {
	checkStore bool
	format     string
}

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List registered clients",
	Long: `List the clients of the registry with their policy files.

Client keys are masked. With --check-store each client's currently
published policy is looked up in the store.

Examples:
  gfimx clients
  gfimx clients --check-store --format json`,
	Args: cobra.NoArgs,
	RunE: listClients,
}

func init() {
	rootCmd.AddCommand(clientsCmd)

	clientsCmd.Flags().BoolVar(&clientsFlags.checkStore, "check-store", false, "report whether each client has a published policy")
	clientsCmd.Flags().StringVar(&clientsFlags.format, "format", "text", "output format: text, json, csv")
}

type clientEntry struct {
	Name      string `json:"name"`
	Key       string `json:"key"`
	Policy    string `json:"policy"`
	Published string `json:"published,omitempty"`
}

type clientsView struct {
	entries    []clientEntry
	checkStore bool
}

func (v clientsView) Headers() []string {
	h := []string{"NAME", "POLICY", "KEY"}
	if v.checkStore {
		h = append(h, "PUBLISHED")
	}
	return h
}

func (v clientsView) Rows() [][]string {
	rows := make([][]string, 0, len(v.entries))
	for _, e := range v.entries {
		row := []string{e.Name, e.Policy, e.Key}
		if v.checkStore {
			row = append(row, e.Published)
		}
		rows = append(rows, row)
	}
	return rows
}

func listClients(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(clientsFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, err := registry.Load(cfg.ClientsPath())
	if err != nil {
		return cli.NewCommandError("clients", err)
	}

	view := clientsView{checkStore: clientsFlags.checkStore}
	for _, c := range reg.Clients() {
		view.entries = append(view.entries, clientEntry{
			Name:   c.Name,
			Key:    logging.MaskSecret(c.Key),
			Policy: c.PolicyPath(cfg.PolicyDir()),
		})
	}

	if clientsFlags.checkStore {
		st, err := store.New(cfg.Store)
		if err != nil {
			return cli.NewConfigError("store.backend", err.Error())
		}
		defer st.Close()

		ctx := commandContext(cmd)
		for i := range view.entries {
			view.entries[i].Published, err = publishedState(ctx, st, view.entries[i].Name)
			if err != nil {
				return cli.NewCommandError("clients", err)
			}
		}
	}

	out := outWriter(cmd)
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(out, view.entries)
	}
	return cli.NewFormatter(format).FormatTo(out, view)
}

// publishedState reports "yes" when the store holds a policy for client.
func publishedState(ctx context.Context, st store.Store, client string) (string, error) {
	_, err := st.Fetch(ctx, client)
	switch {
	case err == nil:
		return "yes", nil
	case errors.Is(err, store.ErrNotFound):
		return "no", nil
	default:
		return "", fmt.Errorf("failed to fetch policy for %s: %w", client, err)
	}
}
