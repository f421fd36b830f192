package umd

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

// Book is a fully decoded UMD container: header metadata, chapters in
// reading order, and the optional cover image. A Book is immutable once
// built; accessors return defensive copies.
type Book struct {
	meta       Metadata
	chapters   []Chapter
	cover      []byte
	identifier string
	warnings   []string
	closer     io.Closer // non-nil only when created via Open
}

// Open decodes the UMD file at the given path.
// The caller must call Close when done with the book.
func Open(path string) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("umd: open %s: %w", path, err)
	}

	b, err := decodeBook(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	b.closer = f
	return b, nil
}

// NewReader decodes a UMD container from r, starting at offset 0. The
// caller keeps ownership of r; Close on the returned Book is a no-op.
func NewReader(r io.ReadSeeker) (*Book, error) {
	return decodeBook(r)
}

// ReadMetadata decodes only the header block sequence of a UMD container,
// leaving the body untouched. It is the cheap path for consumers that need
// the title, author, publisher or publish date but not the text.
func ReadMetadata(r io.ReadSeeker) (Metadata, error) {
	c := newCursor(r)
	if err := c.seek(0); err != nil {
		return Metadata{}, err
	}
	return decodeMetadata(c)
}

// ReadCover extracts the optional cover image without decoding the body:
// segment payloads are skipped rather than inflated. A nil slice means the
// container has no cover.
func ReadCover(r io.ReadSeeker) ([]byte, error) {
	c := newCursor(r)
	if err := c.seek(0); err != nil {
		return nil, err
	}
	if _, err := decodeMetadata(c); err != nil {
		return nil, err
	}
	if _, err := decodeBody(c, false); err != nil {
		return nil, err
	}
	return decodeCover(c)
}

// decodeBook runs the full decode pipeline: metadata, body, cover, then
// chapter assembly. Each stage resumes at the offset its predecessor
// stopped at.
func decodeBook(r io.ReadSeeker) (*Book, error) {
	c := newCursor(r)
	if err := c.seek(0); err != nil {
		return nil, err
	}

	md, err := decodeMetadata(c)
	if err != nil {
		return nil, err
	}
	body, err := decodeBody(c, true)
	if err != nil {
		return nil, err
	}
	cover, err := decodeCover(c)
	if err != nil {
		return nil, err
	}

	runes := []rune(body)
	chapters, err := sliceChapters(md, runes)
	if err != nil {
		return nil, err
	}

	b := &Book{
		meta:       md,
		chapters:   chapters,
		cover:      cover,
		identifier: uuid.NewString(),
	}
	if md.Category != CategoryNovel {
		b.warnings = append(b.warnings, fmt.Sprintf("category %s is not supported; only Novel decodes fully", md.Category))
	}
	if md.FullLength != 0 && len(runes) != md.FullLength {
		b.warnings = append(b.warnings, fmt.Sprintf("header declares %d characters, body has %d", md.FullLength, len(runes)))
	}
	return b, nil
}

// sliceChapters cuts the body text into per-chapter substrings using the
// character offsets recorded in the metadata header. The last chapter runs
// to the end of the body.
func sliceChapters(md Metadata, body []rune) ([]Chapter, error) {
	if len(md.ChapterOffsets) != len(md.ChapterTitles) {
		return nil, fmt.Errorf("umd: %d offsets for %d titles: %w", len(md.ChapterOffsets), len(md.ChapterTitles), ErrChapterCount)
	}

	chapters := make([]Chapter, 0, len(md.ChapterTitles))
	for i, title := range md.ChapterTitles {
		start := md.ChapterOffsets[i]
		end := len(body)
		if i+1 < len(md.ChapterOffsets) {
			end = md.ChapterOffsets[i+1]
		}
		if start < 0 || start > len(body) || end < start || end > len(body) {
			return nil, fmt.Errorf("umd: chapter %d spans [%d, %d) of a %d-character body: %w", i, start, end, len(body), ErrFormat)
		}
		chapters = append(chapters, Chapter{Title: title, Content: string(body[start:end])})
	}
	return chapters, nil
}

// Metadata returns the decoded header fields.
func (b *Book) Metadata() Metadata {
	md := b.meta
	md.ChapterOffsets = append([]int(nil), b.meta.ChapterOffsets...)
	md.ChapterTitles = append([]string(nil), b.meta.ChapterTitles...)
	return md
}

// Chapters returns the chapters in reading order.
func (b *Book) Chapters() []Chapter {
	return append([]Chapter(nil), b.chapters...)
}

// Cover returns the raw cover image bytes (JPEG), or nil when the
// container carries no cover.
func (b *Book) Cover() []byte {
	if b.cover == nil {
		return nil
	}
	return append([]byte(nil), b.cover...)
}

// Identifier returns the unique identifier generated for this decode, for
// hosts that key documents by id.
func (b *Book) Identifier() string {
	return b.identifier
}

// Warnings returns the non-fatal advisories accumulated during decoding,
// such as an unsupported content category.
func (b *Book) Warnings() []string {
	return append([]string(nil), b.warnings...)
}

// Close releases the underlying file when the Book was created via Open.
// Close is idempotent and a no-op for books created via NewReader.
func (b *Book) Close() error {
	if b.closer != nil {
		err := b.closer.Close()
		b.closer = nil
		return err
	}
	return nil
}
