package registry

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Client is one entry of the client registry.
type Client struct {
	// Name is the registry table name. It prefixes the client's store key.
	Name string

	// Key is the client's unique key.
	Key string

	// Policy is the policy file name, relative to the policy directory.
	Policy string
}

// PolicyPath resolves the client's policy file inside dir.
func (c Client) PolicyPath(dir string) string {
	return filepath.Join(dir, c.Policy)
}

type entry struct {
	Key    string `toml:"key"`
	Policy string `toml:"policy"`
}

// Registry is a loaded client registry. It is immutable and safe for
// concurrent use; reloading produces a new Registry.
type Registry struct {
	path     string
	clients  map[string]Client
	version  string
	loadTime time.Time
}

// Load reads and validates the registry file at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			FilePath: path,
			Message:  "cannot read file",
			Cause:    err,
		}
	}

	return Parse(data, path)
}

// Parse decodes registry TOML. Each top-level table is a client:
//
//	[acme]
//	key = "3f1c..."
//	policy = "acme.toml"   # optional, defaults to "<name>.toml"
//
// source names the data in errors.
func Parse(data []byte, source string) (*Registry, error) {
	var entries map[string]entry
	if _, err := toml.Decode(string(data), &entries); err != nil {
		return nil, &LoadError{
			FilePath: source,
			Message:  "invalid TOML",
			Cause:    err,
		}
	}

	r := &Registry{
		path:     source,
		clients:  make(map[string]Client, len(entries)),
		version:  fmt.Sprintf("%x", sha256.Sum256(data))[:16],
		loadTime: time.Now(),
	}

	var errs []error
	keys := make(map[string]string, len(entries))

	for _, name := range sortedNames(entries) {
		e := entries[name]
		c := Client{
			Name:   name,
			Key:    strings.TrimSpace(e.Key),
			Policy: strings.TrimSpace(e.Policy),
		}
		if c.Policy == "" {
			c.Policy = name + ".toml"
		}

		if err := validateClient(c); err != nil {
			errs = append(errs, err)
			continue
		}

		if other, dup := keys[c.Key]; dup {
			errs = append(errs, &ClientError{
				Client:  name,
				Field:   "key",
				Message: fmt.Sprintf("duplicate key, already used by %q", other),
			})
			continue
		}
		keys[c.Key] = name

		r.clients[name] = c
	}

	if len(errs) > 0 {
		return nil, &LoadError{
			FilePath: source,
			Message:  "invalid client entries",
			Cause:    errors.Join(errs...),
		}
	}

	return r, nil
}

func validateClient(c Client) error {
	if strings.TrimSpace(c.Name) == "" || strings.ContainsAny(c.Name, "/\\") {
		return &ClientError{Client: c.Name, Message: "name must be non-empty and contain no path separators"}
	}
	if c.Key == "" {
		return &ClientError{Client: c.Name, Field: "key", Message: "key is required"}
	}
	if !filepath.IsLocal(c.Policy) {
		return &ClientError{Client: c.Name, Field: "policy", Message: fmt.Sprintf("%q must be a relative path inside the policy directory", c.Policy)}
	}
	return nil
}

func sortedNames(entries map[string]entry) []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clients returns all clients sorted by name.
func (r *Registry) Clients() []Client {
	clients := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].Name < clients[j].Name
	})
	return clients
}

// Get retrieves a client by name.
func (r *Registry) Get(name string) (Client, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// Count returns the number of clients.
func (r *Registry) Count() int {
	return len(r.clients)
}

// Path returns the file the registry was loaded from.
func (r *Registry) Path() string {
	return r.path
}

// Version returns a short content hash of the registry file.
func (r *Registry) Version() string {
	return r.version
}

// LoadTime returns when the registry was loaded.
func (r *Registry) LoadTime() time.Time {
	return r.loadTime
}
