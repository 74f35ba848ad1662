// Package resilience provides reliability and fault tolerance patterns for
// the extraction service. It includes a process-wide TTL cache, a circuit
// breaker for the upstream hosting API, and retry logic with exponential
// backoff.
//
// The three patterns compose in a fixed, auditable order inside each
// extraction operation: cache check, then handle resolution under retry,
// then the breaker-wrapped upstream call, then cache write. The cache and
// the breaker are the only shared mutable state in the process; both keep
// their critical sections short and never hold a lock across a network call.
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.DefaultConfig("github-api"))
//	result, err := cb.Execute(func() (any, error) {
//	    return callUpstream()
//	})
//
//	err := retry.WithBackoff(ctx, retry.HandleResolveConfig(), func() error {
//	    return resolveHandle()
//	})
package resilience
