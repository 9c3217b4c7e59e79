/*
Package indexer keeps the image catalog in step with the filesystem.

Every sync is a reconcile of one scope (a file or directory):

 1. walk the scope and collect supported images with their mtimes
 2. load the catalog rows under the scope
 3. mark files that are new or whose mtime moved by more than 1ms
 4. extract metadata for the marked files, at most ExtractLimit at a time
 5. upsert every extracted entry in one transaction
 6. evict rows under the scope that the walk did not see, in a second
    transaction

A full reconcile covers the library root. It runs at startup, every
INDEX_INTERVAL if set, and when triggered through the API; only one runs at a
time. Rows stored outside the root are never evicted by it. If either
transaction cannot commit the reconcile fails and the catalog keeps its
previous rows; the next run starts over.

On-demand reconciles run while a playlist request waits. [Indexer.EnsureScopes]
syncs each scope that lies outside the root and has not been synced since
startup, and each scope with no catalog rows at all. Concurrent requests for
the same scope share one reconcile.
*/
package indexer
