// Package registry loads the client registry, clients.toml, from the policy
// directory. The registry names every monitoring client, its unique key and
// the policy file that is distributed to it.
package registry
