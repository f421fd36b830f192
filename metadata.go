package umd

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// magic is the 4-byte signature that opens every UMD container.
var magic = []byte{0x89, 0x9b, 0x9a, 0xde}

// Record framing bytes. Every record starts with one of these, followed by
// a 16-bit tag (metadata/control records) or a segment header.
const (
	frameMeta    = '#' // metadata and control records
	frameSegment = '$' // compressed body segments
)

// Block tags in the order they appear in a container.
const (
	tagCategory       = 0x01
	tagTitle          = 0x02
	tagAuthor         = 0x03
	tagYear           = 0x04
	tagMonth          = 0x05
	tagDate           = 0x06
	tagBookType       = 0x07
	tagPublisher      = 0x08
	tagRetailer       = 0x09
	tagFullLength     = 0x0b
	tagChapterOffsets = 0x83
	tagChapterTitles  = 0x84 // last header block; body follows
	tagEndOfBody      = 0x81
	tagCover          = 0x82
	tagPageOffset     = 0x87 // written by some encoders, not consumed here
	tagEndOfFile      = 0x0c // written by some encoders, not consumed here
)

// Encoded lengths in the container count their own record header bytes.
// A string block's length byte covers the framing byte, the two tag bytes,
// the marker byte and the length byte itself; table blocks count a 9-byte
// framed header inside their encoded length and store 4-byte entries.
const (
	stringOverhead = 5
	tableOverhead  = 9
	tableStride    = 4
)

// decodeMetadata consumes the header block sequence: the magic signature,
// then `#`-framed tagged blocks up to and including the chapter title table.
// On return the cursor sits at the first byte of the compressed body, and
// that offset is recorded in Metadata.BodyOffset.
func decodeMetadata(c *cursor) (Metadata, error) {
	var md Metadata

	sig, err := c.read(len(magic))
	if err != nil {
		return md, err
	}
	if !bytes.Equal(sig, magic) {
		return md, fmt.Errorf("umd: bad magic signature % x: %w", sig, ErrFormat)
	}

	for {
		frame, err := c.readByte()
		if err != nil {
			return md, err
		}
		if frame != frameMeta {
			return md, fmt.Errorf("umd: unexpected framing byte 0x%02x at offset %d: %w", frame, c.tell()-1, ErrFormat)
		}
		tag, err := c.readUint16()
		if err != nil {
			return md, err
		}

		switch {
		case tag == tagCategory:
			if err := decodeCategory(c, &md); err != nil {
				return md, err
			}
		case tag >= tagTitle && tag <= tagRetailer:
			if err := decodeTextField(c, tag, &md); err != nil {
				return md, err
			}
		case tag == tagFullLength:
			if err := decodeFullLength(c, &md); err != nil {
				return md, err
			}
		case tag == tagChapterOffsets:
			if err := decodeChapterOffsets(c, &md); err != nil {
				return md, err
			}
		case tag == tagChapterTitles:
			if err := decodeChapterTitles(c, &md); err != nil {
				return md, err
			}
			// The chapter title table is always the last header block.
			md.BodyOffset = c.tell()
			return md, nil
		default:
			return md, fmt.Errorf("umd: unknown block tag 0x%02x in header: %w", tag, ErrFormat)
		}
	}
}

// decodeCategory reads the 5-byte category payload: a 16-bit check value,
// the category byte, and the check value's redundant copy.
func decodeCategory(c *cursor, md *Metadata) error {
	b, err := c.read(5)
	if err != nil {
		return err
	}
	chk1 := binary.LittleEndian.Uint16(b[0:2])
	chk2 := binary.LittleEndian.Uint16(b[3:5])
	if chk1 != chk2 {
		return fmt.Errorf("umd: category block check values 0x%04x != 0x%04x: %w", chk1, chk2, ErrConsistency)
	}
	switch cat := Category(b[2]); cat {
	case CategoryNovel, CategoryComic:
		md.Category = cat
	default:
		return fmt.Errorf("umd: unknown category 0x%02x: %w", b[2], ErrFormat)
	}
	return nil
}

// decodeTextField reads one of the UTF-16LE string blocks (title through
// retailer): a marker byte, an encoded length, then the text bytes.
func decodeTextField(c *cursor, tag uint16, md *Metadata) error {
	hdr, err := c.read(2) // marker byte + encoded length
	if err != nil {
		return err
	}
	n := int(hdr[1]) - stringOverhead
	if n < 0 || n%2 != 0 {
		return fmt.Errorf("umd: text block 0x%02x declares length %d: %w", tag, hdr[1], ErrFormat)
	}
	raw, err := c.read(n)
	if err != nil {
		return err
	}
	s, err := utf16le(raw)
	if err != nil {
		return err
	}
	switch tag {
	case tagTitle:
		md.Title = s
	case tagAuthor:
		md.Author = s
	case tagYear:
		md.Year = s
	case tagMonth:
		md.Month = s
	case tagDate:
		md.Date = s
	case tagBookType:
		md.BookType = s
	case tagPublisher:
		md.Publisher = s
	case tagRetailer:
		md.Retailer = s
	}
	return nil
}

// decodeFullLength reads the declared body character count: a 16-bit filler
// value followed by the 32-bit count.
func decodeFullLength(c *cursor, md *Metadata) error {
	b, err := c.read(6)
	if err != nil {
		return err
	}
	md.FullLength = int(binary.LittleEndian.Uint32(b[2:6]))
	return nil
}

// readTableHeader reads the 15-byte header shared by the chapter offset
// table, the chapter title table and the body trailer: a 16-bit field, a
// 32-bit check value, a marker byte, the check value's redundant copy, and
// the table's encoded length. The pair is validated before the length is
// returned.
func readTableHeader(c *cursor, what string) (int, error) {
	b, err := c.read(15)
	if err != nil {
		return 0, err
	}
	chk1 := binary.LittleEndian.Uint32(b[2:6])
	chk2 := binary.LittleEndian.Uint32(b[7:11])
	if chk1 != chk2 {
		return 0, fmt.Errorf("umd: %s check values 0x%08x != 0x%08x: %w", what, chk1, chk2, ErrConsistency)
	}
	return int(binary.LittleEndian.Uint32(b[11:15])), nil
}

// decodeChapterOffsets reads the chapter offset table. Offsets are stored
// as byte positions into the UTF-16 body and halved here to character
// offsets.
func decodeChapterOffsets(c *cursor, md *Metadata) error {
	enc, err := readTableHeader(c, "chapter offset table")
	if err != nil {
		return err
	}
	n := enc - tableOverhead
	if n < 0 || n%tableStride != 0 {
		return fmt.Errorf("umd: chapter offset table declares %d bytes: %w", enc, ErrFormat)
	}
	raw, err := c.read(n)
	if err != nil {
		return err
	}
	offsets := make([]int, n/tableStride)
	for i := range offsets {
		offsets[i] = int(binary.LittleEndian.Uint32(raw[i*tableStride:])) / 2
	}
	md.ChapterOffsets = offsets
	return nil
}

// decodeChapterTitles reads the chapter title table: length-prefixed
// UTF-16LE strings packed back to back until the table's declared size is
// exhausted. This block terminates the header phase.
func decodeChapterTitles(c *cursor, md *Metadata) error {
	enc, err := readTableHeader(c, "chapter title table")
	if err != nil {
		return err
	}
	n := enc - tableOverhead
	if n < 0 {
		return fmt.Errorf("umd: chapter title table declares %d bytes: %w", enc, ErrFormat)
	}
	raw, err := c.read(n)
	if err != nil {
		return err
	}
	var titles []string
	for i := 0; i < len(raw); {
		tl := int(raw[i])
		i++
		if i+tl > len(raw) {
			return fmt.Errorf("umd: chapter title overruns its table: %w", ErrFormat)
		}
		title, err := utf16le(raw[i : i+tl])
		if err != nil {
			return err
		}
		titles = append(titles, title)
		i += tl
	}
	md.ChapterTitles = titles
	return nil
}
