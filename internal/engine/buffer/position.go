package buffer

import "sync/atomic"

// ByteOffset represents a byte position in the buffer.
type ByteOffset = int64

// Point is a 0-based line and byte column.
type Point struct {
	Line   uint32
	Column uint32
}

// RevisionID identifies a buffer snapshot. Every edit yields a new one.
type RevisionID uint64

var revisionCounter uint64

// NewRevisionID generates a new unique revision ID.
func NewRevisionID() RevisionID {
	return RevisionID(atomic.AddUint64(&revisionCounter, 1))
}
