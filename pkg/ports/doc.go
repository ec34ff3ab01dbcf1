/*
Package ports defines the driven ports (interfaces) around the Lattice engine.

These interfaces decouple the core from external implementations, allowing
sessions, transports and tool nodes to work with various backends.

# Key Interfaces

  - Engine: the run surface (Invoke, Stream, Graph) consumed by adapters.
  - GraphLoader: builds a compiled graph from an external definition.
  - StateStore: persists session checkpoints between invocations.
  - DistributedLocker: distributed locking for concurrent session access.
  - ToolDispatcher: executes named tools, locally or remotely.
*/
package ports
