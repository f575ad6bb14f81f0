/*
Package ports defines the driven ports (interfaces) of the Botinho engine.

These interfaces decouple the session and assessment engines from external
implementations, allowing them to work with various storage backends, chat
transports and scoring services.

# Key Interfaces

  - SessionStore, ResultStore, TranscriptStore: persistence of per-identity state.
  - TreeRepository: load-once source of the dialog tree document.
  - Sender / MediaSource: the chat transport boundary.
  - Scorer: the external scoring oracle.
  - DistributedLocker: cross-replica serialization of an identity's turns.
*/
package ports
