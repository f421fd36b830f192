// Package umd provides a pure-Go decoder for the UMD binary e-book
// container format.
//
// A UMD file is a flat sequence of tagged, length-delimited records: a
// metadata header (category, title, author, publication date, chapter
// offset and title tables), a body of zlib-compressed UTF-16LE text
// segments, and an optional trailing JPEG cover. The decoder reassembles
// the body, cross-checks it against the format's built-in redundancy
// fields, and slices it into chapters.
//
// # Decoding a file
//
// Use [Open] to decode a file by path, or [NewReader] to decode from an
// [io.ReadSeeker]:
//
//	book, err := umd.Open("book.umd")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer book.Close()
//
//	for _, ch := range book.Chapters() {
//	    fmt.Println(ch.Title, len(ch.Content))
//	}
//
// # Metadata only
//
// [ReadMetadata] stops after the header blocks, skipping the body
// entirely; [ReadCover] additionally locates the cover image without
// decompressing any body segment:
//
//	md, err := umd.ReadMetadata(r)
//	if err == nil {
//	    fmt.Println(md.Title, md.Author)
//	}
//
// # Error handling
//
// The package defines sentinel errors for the decoder's failure classes:
//   - [ErrFormat] – bad magic, unknown tag, or truncated record
//   - [ErrConsistency] – a redundant field pair or the segment index
//     table failed its cross-check
//   - [ErrChapterCount] – chapter offset and title tables disagree
//   - [ErrDecompress] – a body segment's compressed payload is corrupt
//
// Non-fatal conditions, such as a container declaring the unsupported
// Comic category, are reported via [Book.Warnings] rather than as errors.
package umd
