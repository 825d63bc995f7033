package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

const (
	goodPolicy = `# web tier
[watch.ignore_files]
patterns = ["\.swp$", "^/var/log/", "^/tmp/%2E"]
`
	invalidPolicy = `[watch.ignore_files]
patterns = ["([a-z"]
`
)

type fixture struct {
	dir        string
	policyDir  string
	ledgerPath string
	configPath string
}

// newFixture writes a policy directory with one registry entry per
// policies key, a policy file for every non-empty value, and a config
// file selecting the memory store and a ledger under the test directory.
func newFixture(t *testing.T, policies map[string]string, extraConfig string) *fixture {
	t.Helper()

	f := &fixture{dir: t.TempDir()}
	f.policyDir = filepath.Join(f.dir, "policy")
	f.ledgerPath = filepath.Join(f.dir, "state", "ledger.db")
	f.configPath = filepath.Join(f.dir, "gfimx.yaml")

	if err := os.MkdirAll(f.policyDir, 0o755); err != nil {
		t.Fatal(err)
	}

	var registry strings.Builder
	for name, text := range policies {
		fmt.Fprintf(&registry, "[%s]\nkey = \"key-%s-0123456789\"\n\n", name, name)
		if text != "" {
			writeFile(t, filepath.Join(f.policyDir, name+".toml"), text)
		}
	}
	writeFile(t, filepath.Join(f.policyDir, "clients.toml"), registry.String())

	cfg := fmt.Sprintf(`policy:
  dir: %s
store:
  backend: memory
ledger:
  enabled: true
  path: %s
telemetry:
  logging:
    level: error
  metrics:
    listen_address: "127.0.0.1:0"
%s`, f.policyDir, f.ledgerPath, extraConfig)
	writeFile(t, f.configPath, cfg)

	resetFlags()
	cfgFile = f.configPath
	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func resetFlags() {
	cfgFile = "gfimx.yaml"
	verbose = false
	distributeFlags.dryRun = false
	distributeFlags.onError = ""
	distributeFlags.format = "text"
	lintFlags.block = false
	lintFlags.format = "text"
	lintFlags.match = ""
	historyFlags.client = ""
	historyFlags.run = ""
	historyFlags.status = ""
	historyFlags.since = ""
	historyFlags.limit = 20
	historyFlags.format = "text"
	clientsFlags.checkStore = false
	clientsFlags.format = "text"
}

// testCommand returns a command whose output is captured in the buffer.
func testCommand() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	return cmd, &out
}
