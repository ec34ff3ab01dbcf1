/*
Package domain contains the core domain models of the Lattice engine.

It defines the vocabulary shared by every other package: the State snapshot and
its PartialUpdates, the Node contract, static and conditional edges, the events
emitted while a graph runs, and the error taxonomy surfaced to callers. This
package is kept pure and free of I/O, persistence or transport concerns.

# Key Entities

  - State: the shared channel values a node reads (always a snapshot).
  - Update: the subset of channels one node invocation changes.
  - Node: a named computation `Compute(ctx, State) (Update, error)`.
  - Edge / ConditionalEdge: static and data-dependent routing.
  - Event: one tick of execution, in values or updates mode.
*/
package domain
