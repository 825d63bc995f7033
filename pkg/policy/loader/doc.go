// Package loader reads client policy files and validates every pattern they
// declare before the policy is allowed to reach a client.
//
// A policy that fails to load yields a *LoadError; one whose patterns are
// malformed or do not compile yields an *ExtractError carrying the
// individual pattern failures with their line and column.
package loader
