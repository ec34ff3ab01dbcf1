// Package nodes provides decorators that wrap a node's computation before it
// is registered: retries, time budgets, fixed updates and sequential chains.
//
// The engine itself never retries or times out a node; callers opt in here.
package nodes
