// Package resilience implements a circuit breaker used to shield the runtime
// from a misbehaving registry endpoint. The breaker opens after consecutive
// fetch failures and probes with a limited number of requests once the open
// timeout elapses.
package resilience
