// Package server runs the admin HTTP listener used by "gfimx serve".
//
// The listener carries the Prometheus scrape endpoint and the health
// probes. It is started with the daemon's context and shuts down
// gracefully when that context is cancelled:
//
//	mux := http.NewServeMux()
//	mux.Handle("/metrics", collector.Handler())
//	health.Register(mux, checker, version, commit, buildTime)
//
//	srv := server.NewServer("127.0.0.1:9464", mux, logger)
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
package server
