// gfimx distributes per-client file-monitoring policies.
//
// Every client listed in the registry (clients.toml in the policy
// directory) has a policy file whose ignore patterns are extracted and
// validated before the policy is published to Redis, where the monitoring
// client on each host reads it.
//
// Usage:
//
//	# Validate and publish every client's policy once
//	gfimx distribute --config /etc/gfimx/gfimx.yaml
//
//	# Validate without publishing
//	gfimx distribute --dry-run
//
//	# Check a policy file, and test its patterns against a path
//	gfimx lint web-01.toml --match /var/log/app.log
//
//	# Run as a daemon: redistribute on change and on a schedule
//	gfimx serve
//
//	# Show recent distribution decisions
//	gfimx history --client web-01 --limit 20
package main

func main() {
	Execute()
}
