// Package git sources the policy directory from a git repository.
//
// The repository is cloned into a local path on first use and pulled before
// every distribution run, so the commit a policy was read from can be
// recorded next to the distribution outcome.
//
//	repo, err := git.NewRepository(&cfg.Policy.Git, logger)
//	if err != nil {
//		return err
//	}
//	sha, err := repo.Sync(ctx)
//
// # Authentication
//
//   - token: HTTPS basic auth with an access token as password
//   - ssh: private key file, optionally encrypted
//   - none: public repositories and local paths
package git
