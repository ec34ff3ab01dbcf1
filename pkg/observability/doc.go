/*
Package observability provides tools for monitoring the Lattice engine.

Metrics exposes Prometheus collectors fed by lifecycle hooks; LogHooks writes
an audit trail of runs and node invocations to a structured logger. Combine
merges several hook sets so both can be installed on one engine.
*/
package observability
