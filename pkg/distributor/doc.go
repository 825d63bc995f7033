// Package distributor runs a policy distribution: every client in the
// registry gets its policy file loaded, its patterns extracted and
// validated, and, if valid, the unchanged policy text published to the
// store under the client's key.
//
// A client whose policy fails never has its stored policy replaced; the
// previous version stays in place. Whether the failure stops the run is
// decided by the policy.on_error setting.
//
//	d, err := distributor.New(cfg, st,
//		distributor.WithLedger(l),
//		distributor.WithMetrics(collector),
//		distributor.WithLogger(logger),
//	)
//	report, err := d.Run(ctx)
package distributor
