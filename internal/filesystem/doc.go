/*
Package filesystem provides filesystem operations with automatic retry for
NFS stale file handle errors (ESTALE).

Image libraries are frequently NFS or SMB mounts; a stat or open racing a
server-side rename can fail with ESTALE even though the file is fine. The
helpers here retry only that error, with exponential backoff, and pass every
other error straight through:

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())

Defaults: 3 retries, 50ms initial backoff, 500ms cap.

Metrics are reported through an [Observer] registered with [SetObserver];
paths are labeled with a volume name via [VolumeResolver].
*/
package filesystem
