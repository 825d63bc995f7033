package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleRegistry = `
[web-01]
key = "k-web-01"

[db-01]
key = "k-db-01"
policy = "databases/db.toml"
`

func TestParse(t *testing.T) {
	r, err := Parse([]byte(sampleRegistry), "clients.toml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if r.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", r.Count())
	}

	clients := r.Clients()
	if clients[0].Name != "db-01" || clients[1].Name != "web-01" {
		t.Errorf("Clients() order = %s, %s; want sorted by name", clients[0].Name, clients[1].Name)
	}

	web, ok := r.Get("web-01")
	if !ok {
		t.Fatal("Get(web-01) not found")
	}
	if web.Policy != "web-01.toml" {
		t.Errorf("default Policy = %q, want web-01.toml", web.Policy)
	}
	if got := web.PolicyPath("/etc/gfimx/policy"); got != "/etc/gfimx/policy/web-01.toml" {
		t.Errorf("PolicyPath() = %q", got)
	}

	db, _ := r.Get("db-01")
	if db.Key != "k-db-01" || db.Policy != "databases/db.toml" {
		t.Errorf("db-01 = %+v", db)
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) = true")
	}
	if len(r.Version()) != 16 {
		t.Errorf("Version() = %q, want 16 hex chars", r.Version())
	}
}

func TestParse_Empty(t *testing.T) {
	r, err := Parse(nil, "clients.toml")
	if err != nil {
		t.Fatalf("Parse(empty) error = %v", err)
	}
	if r.Count() != 0 || len(r.Clients()) != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"bad toml", "[acme\nkey = 1", "invalid TOML"},
		{"non-table value", `acme = "x"`, "invalid TOML"},
		{"missing key", "[acme]\npolicy = \"a.toml\"", `client "acme": key: key is required`},
		{"absolute policy", "[acme]\nkey = \"k\"\npolicy = \"/etc/passwd\"", "relative path"},
		{"escaping policy", "[acme]\nkey = \"k\"\npolicy = \"../other.toml\"", "relative path"},
		{"duplicate key", "[a]\nkey = \"same\"\n[b]\nkey = \"same\"", `duplicate key, already used by "a"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), "clients.toml")
			if err == nil {
				t.Fatal("Parse() error = nil, want error")
			}

			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("error = %T, want *LoadError", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestParse_ReportsEveryBadClient(t *testing.T) {
	_, err := Parse([]byte("[a]\n[b]\n[c]\nkey = \"ok\""), "clients.toml")

	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("error = %v, want a *ClientError in the chain", err)
	}
	if !strings.Contains(err.Error(), `"a"`) || !strings.Contains(err.Error(), `"b"`) {
		t.Errorf("error = %q, want both a and b reported", err.Error())
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clients.toml")
	if err := os.WriteFile(path, []byte(sampleRegistry), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if r.Path() != path {
		t.Errorf("Path() = %q, want %q", r.Path(), path)
	}
	if r.LoadTime().IsZero() {
		t.Error("LoadTime() is zero")
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "clients.toml"))

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Load() error = %v, want *LoadError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error does not wrap os.ErrNotExist: %v", err)
	}
}
