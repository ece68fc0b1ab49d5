/*
Package health provides HTTP, TCP, and exec health checkers used to watch
Chronicle's upstream node connection and local process dependencies.

All three implement the Checker interface (Check(ctx) Result, Type()
CheckType); a Status tracks consecutive failures/successes with hysteresis
so a single transient failure doesn't flip a component unhealthy.

	checker := health.NewHTTPChecker("http://node:14265/api/routes/health")
	status := health.NewStatus()
	cfg := health.DefaultConfig()

	for {
		result := checker.Check(ctx)
		status.Update(result, cfg)
		if !status.Healthy {
			metrics.UpstreamHealthy.Set(0)
		}
		time.Sleep(cfg.Interval)
	}

cmd/chronicle polls the upstream node with a TCPChecker on its own ticker,
independent of the ingestion worker's connection, and serves the resulting
Status as JSON on /health and /ready.
*/
package health
