// Package buffer provides the immutable document snapshot used by the editing
// core.
//
// A Buffer is a value that never changes once created. Applying edits returns
// a new Buffer with a fresh revision, so a transaction can hold both the
// document before and after a change without copying.
//
// The buffer package provides:
//
//   - Byte offset and line/column coordinate conversion
//   - A precomputed line index for O(log n) line lookups
//   - Change sets that apply several non-overlapping edits atomically
//   - Position mapping through a change set (used to move selections)
//
// Basic usage:
//
//	buf := buffer.New("Hello, World!")
//
//	changes, _ := buffer.NewChangeSet(buf.Len(), buffer.NewInsert(7, "Beautiful "))
//	next, _ := changes.Apply(buf) // "Hello, Beautiful World!"
//
//	// Move an offset through the change
//	changes.MapOffset(7, buffer.AssocAfter) // 17
//
// Line endings are normalized to "\n" on construction. Hosts that prefer a
// different line break convert on save.
package buffer
