/*
Package ports defines the driven ports (interfaces) of the Turing engine.

These interfaces decouple the engine and its front ends from external
implementations, so checkpoints can live in memory, on disk or in Redis.

# Key Interfaces

  - SnapshotStore: persists and loads machine snapshots by session ID.
  - DistributedLocker: provides distributed locking for concurrent session access.
  - Watchable: notifies about changes of a watched program source.
*/
package ports
