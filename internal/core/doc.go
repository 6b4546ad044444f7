// Package core holds the pricing submission pipeline, independent of HTTP and
// of the storage backend.
//
// # Pipeline
//
// An upload flows through four stages, each usable on its own:
//
//  1. [DecodeUpload] picks a decoder by extension or media type (XLSX, CSV,
//     TSV) or splits pasted text, yielding a grid of trimmed cells.
//  2. [MapColumns] reads the first row as the header and binds columns to
//     pricing fields. Missing required columns fail with [SchemaError].
//  3. [ValidateBatch] checks every row against the row rules. Any failure
//     rejects the whole batch with [ValidationErrors].
//  4. [Builder.NewGroup] or a Store's AppendItems turns the items into a
//     stored group with generated "PH-" and "PI-" identifiers.
//
// [Service] runs the stages for new and addendum submissions, previews, and
// the position-based bulk add, bounded by an [UploadLimiter].
//
// # Error Handling
//
// Typed errors describe what went wrong; [MapError] turns any error into a
// [UserMessage] with a support code:
//
//   - DB001-DB007: storage errors
//   - VAL001-VAL007: submission and row validation
//   - FILE001-FILE006: upload size, format, and decoding
//   - UPL002-UPL005: submission concurrency and cancellation
//   - PRC001-PRC002: unknown groups and customers
package core
