package umd

import "errors"

// Sentinel errors returned by the umd package.
var (
	// ErrFormat indicates the stream is not a well-formed UMD container:
	// a bad magic signature, an unrecognized block tag or framing byte,
	// or a record cut short by the end of the stream.
	ErrFormat = errors.New("umd: malformed UMD stream")

	// ErrConsistency indicates a redundant field pair disagrees, or the
	// trailing segment index table does not match the segments actually
	// read. The format encodes several values twice as a built-in
	// checksum; any mismatch signals corruption.
	ErrConsistency = errors.New("umd: consistency check failed")

	// ErrChapterCount indicates the chapter offset table and the chapter
	// title table have different lengths, so the body cannot be sliced
	// into chapters.
	ErrChapterCount = errors.New("umd: chapter offsets and titles disagree")

	// ErrDecompress indicates a body segment's compressed payload is
	// malformed.
	ErrDecompress = errors.New("umd: corrupt compressed segment")
)
