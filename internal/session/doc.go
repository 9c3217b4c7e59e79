/*
Package session remembers the last playlist built for each client.

A client is identified by its network address; there is no authentication.

Storage is split into two tiers behind the [Store] interface:

  - [MemoryStore] is an LRU cache and is authoritative for the process
    lifetime
  - [DurableStore] writes to the database's playlists table and survives
    restarts

[Chain] composes them: reads try memory first and fall back to the database,
reporting which tier answered; writes go to both, and a failed durable write
is only logged.

[Manager] adds the operations the HTTP layer needs on top: saving a built
playlist, restoring a client-supplied playlist after re-validating every
path, and summarizing a client's session.
*/
package session
