package umd

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/text/encoding/unicode"
)

// streamBuilder assembles synthetic UMD byte streams for tests, block by
// block. Methods chain; call bytes or reader to obtain the result.
type streamBuilder struct {
	t   *testing.T
	buf bytes.Buffer
}

func newStream(t *testing.T) *streamBuilder {
	t.Helper()
	return &streamBuilder{t: t}
}

func (sb *streamBuilder) raw(b ...byte) *streamBuilder {
	sb.buf.Write(b)
	return sb
}

func (sb *streamBuilder) u16(v uint16) *streamBuilder {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	sb.buf.Write(b[:])
	return sb
}

func (sb *streamBuilder) u32(v uint32) *streamBuilder {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	sb.buf.Write(b[:])
	return sb
}

// tag writes a record framing byte followed by the 16-bit block tag.
func (sb *streamBuilder) tag(tag uint16) *streamBuilder {
	sb.buf.WriteByte(frameMeta)
	return sb.u16(tag)
}

func (sb *streamBuilder) magic() *streamBuilder {
	sb.buf.Write(magic)
	return sb
}

func (sb *streamBuilder) category(cat Category) *streamBuilder {
	return sb.categoryChecks(0x0800, 0x0800, cat)
}

// categoryChecks writes a category block with explicit check values, for
// corruption tests.
func (sb *streamBuilder) categoryChecks(chk1, chk2 uint16, cat Category) *streamBuilder {
	return sb.tag(tagCategory).u16(chk1).raw(byte(cat)).u16(chk2)
}

func (sb *streamBuilder) text(tag uint16, s string) *streamBuilder {
	b := encodeUTF16(sb.t, s)
	sb.tag(tag).raw(0x00, byte(len(b)+stringOverhead))
	sb.buf.Write(b)
	return sb
}

func (sb *streamBuilder) fullLength(n uint32) *streamBuilder {
	return sb.tag(tagFullLength).u16(0x0900).u32(n)
}

// tableHeader writes the 15-byte header shared by the offset table, the
// title table and the body trailer. The framed tag, where one applies, must
// already have been written.
func (sb *streamBuilder) tableHeader(chk1, chk2, encodedLen uint32) *streamBuilder {
	return sb.u16(0x0901).u32(chk1).raw(0x24).u32(chk2).u32(encodedLen)
}

func (sb *streamBuilder) chapterOffsets(offsets ...int) *streamBuilder {
	sb.tag(tagChapterOffsets).
		tableHeader(0x39b0, 0x39b0, uint32(tableOverhead+len(offsets)*tableStride))
	for _, off := range offsets {
		sb.u32(uint32(off * 2)) // stored as byte offsets into the UTF-16 body
	}
	return sb
}

func (sb *streamBuilder) chapterTitles(titles ...string) *streamBuilder {
	var body bytes.Buffer
	for _, title := range titles {
		b := encodeUTF16(sb.t, title)
		body.WriteByte(byte(len(b)))
		body.Write(b)
	}
	sb.tag(tagChapterTitles).
		tableHeader(0x4c02, 0x4c02, uint32(tableOverhead+body.Len()))
	sb.buf.Write(body.Bytes())
	return sb
}

// segment compresses text as a body segment with the given sequence index.
func (sb *streamBuilder) segment(seq uint32, text string) *streamBuilder {
	return sb.rawSegment(seq, deflate(sb.t, encodeUTF16(sb.t, text)))
}

// rawSegment writes a segment record with an arbitrary (possibly invalid)
// payload.
func (sb *streamBuilder) rawSegment(seq uint32, payload []byte) *streamBuilder {
	sb.buf.WriteByte(frameSegment)
	sb.u32(seq).u32(uint32(tableOverhead + len(payload)))
	sb.buf.Write(payload)
	return sb
}

// control writes a `#`-framed control record with the given payload.
func (sb *streamBuilder) control(sub uint16, payload ...byte) *streamBuilder {
	sb.tag(sub)
	sb.buf.Write(payload)
	return sb
}

// endOfBody writes the end-of-body record and its trailing segment index
// table declaring seqs.
func (sb *streamBuilder) endOfBody(seqs ...uint32) *streamBuilder {
	sb.tag(tagEndOfBody).
		tableHeader(0x2313, 0x2313, uint32(tableOverhead+len(seqs)*tableStride))
	for _, seq := range seqs {
		sb.u32(seq)
	}
	return sb
}

func (sb *streamBuilder) cover(img []byte) *streamBuilder {
	return sb.coverChecks(0x1a2b, 0x1a2b, img)
}

func (sb *streamBuilder) coverChecks(chk1, chk2 uint32, img []byte) *streamBuilder {
	sb.tag(tagCover).
		raw(0x00, 0x01, 0x0a). // marker bytes
		u32(chk1).raw(0x24).u32(chk2).
		u32(uint32(tableOverhead + len(img)))
	sb.buf.Write(img)
	return sb
}

func (sb *streamBuilder) bytes() []byte {
	return sb.buf.Bytes()
}

func (sb *streamBuilder) reader() *bytes.Reader {
	return bytes.NewReader(sb.buf.Bytes())
}

// cursorOver positions a cursor at the start of the built stream, for tests
// that exercise a single decode stage.
func cursorOver(t *testing.T, sb *streamBuilder) *cursor {
	t.Helper()
	c := newCursor(sb.reader())
	if err := c.seek(0); err != nil {
		t.Fatalf("cursorOver: seek: %v", err)
	}
	return c
}

// simpleNovel builds a complete well-formed container: standard header,
// one body segment per element of segments (sequence indices 1..n), and a
// matching trailer. No cover.
func simpleNovel(t *testing.T, offsets []int, titles []string, segments ...string) *streamBuilder {
	t.Helper()
	chars := 0
	for _, s := range segments {
		chars += len([]rune(s))
	}
	sb := newStream(t).magic().
		category(CategoryNovel).
		text(tagTitle, "T").
		text(tagAuthor, "A").
		fullLength(uint32(chars)).
		chapterOffsets(offsets...).
		chapterTitles(titles...)
	seqs := make([]uint32, 0, len(segments))
	for i, s := range segments {
		seq := uint32(i + 1)
		sb.segment(seq, s)
		seqs = append(seqs, seq)
	}
	return sb.endOfBody(seqs...)
}

// encodeUTF16 converts s to the UTF-16LE bytes the container stores.
func encodeUTF16(t *testing.T, s string) []byte {
	t.Helper()
	b, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("encodeUTF16: %v", err)
	}
	return b
}

// deflate compresses b the way UMD encoders compress body segments.
func deflate(t *testing.T, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		t.Fatalf("deflate: write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("deflate: close: %v", err)
	}
	return buf.Bytes()
}
