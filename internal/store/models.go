package store

import "time"

// Snapshot records one completed fetch of an SDK.
type Snapshot struct {
	ID        int64
	SDK       string
	SourceRef string // repo@branch or archive URL
	FetchedAt time.Time
	FileCount int
	SizeBytes int64
}

// FileRecord represents one file stored by a snapshot.
type FileRecord struct {
	Path      string
	Hash      string
	SizeBytes int64
}

// SelectionKey is the meta key holding the registry fingerprint of the
// file selection behind sdk's snapshot.
func SelectionKey(sdk string) string {
	return "selection:" + sdk
}
