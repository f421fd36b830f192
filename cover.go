package umd

import (
	"encoding/binary"
	"fmt"
)

// coverHeaderSize is the fixed header following the cover tag: three marker
// bytes, a 32-bit check value, another marker byte, the check value's
// redundant copy, and the encoded image length.
const coverHeaderSize = 16

// decodeCover reads the optional cover image block that may follow the
// body. A stream that ends here, or one whose next record carries a
// different tag, simply has no cover; both yield a nil slice without error.
func decodeCover(c *cursor) ([]byte, error) {
	if _, ok, err := c.readFrame(); err != nil {
		return nil, err
	} else if !ok {
		return nil, nil
	}
	tag, err := c.readUint16()
	if err != nil {
		return nil, err
	}
	if tag != tagCover {
		return nil, nil
	}

	hdr, err := c.read(coverHeaderSize)
	if err != nil {
		return nil, err
	}
	chk1 := binary.LittleEndian.Uint32(hdr[3:7])
	chk2 := binary.LittleEndian.Uint32(hdr[8:12])
	if chk1 != chk2 {
		return nil, fmt.Errorf("umd: cover block check values 0x%08x != 0x%08x: %w", chk1, chk2, ErrConsistency)
	}
	n := int(binary.LittleEndian.Uint32(hdr[12:16])) - tableOverhead
	if n < 0 {
		return nil, fmt.Errorf("umd: cover block declares negative image length: %w", ErrFormat)
	}
	return c.read(n)
}
