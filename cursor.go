package umd

import (
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
)

// cursor is a positioned sequential reader over a finite byte source. It
// tracks the absolute offset of every read so each decode stage can resume
// where its predecessor stopped. The underlying source is borrowed: the
// cursor never closes it.
type cursor struct {
	r   io.ReadSeeker
	pos int64
	buf [4]byte // scratch for fixed-width integer reads
}

func newCursor(r io.ReadSeeker) *cursor {
	return &cursor{r: r}
}

// seek moves the cursor to an absolute offset.
func (c *cursor) seek(offset int64) error {
	if _, err := c.r.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("umd: seek to offset %d: %w", offset, err)
	}
	c.pos = offset
	return nil
}

// tell returns the absolute offset of the next read.
func (c *cursor) tell() int64 { return c.pos }

// read returns exactly n bytes. A short read means the stream ended inside
// a record and is reported as ErrFormat.
func (c *cursor) read(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(c.r, b); err != nil {
		return nil, fmt.Errorf("umd: need %d bytes at offset %d: %w", n, c.pos, ErrFormat)
	}
	c.pos += int64(n)
	return b, nil
}

// skip advances the cursor n bytes without materialising them.
func (c *cursor) skip(n int) error {
	if _, err := c.r.Seek(int64(n), io.SeekCurrent); err != nil {
		return fmt.Errorf("umd: skip %d bytes at offset %d: %w", n, c.pos, ErrFormat)
	}
	c.pos += int64(n)
	return nil
}

// fill reads exactly n bytes into the scratch buffer.
func (c *cursor) fill(n int) error {
	if _, err := io.ReadFull(c.r, c.buf[:n]); err != nil {
		return fmt.Errorf("umd: need %d bytes at offset %d: %w", n, c.pos, ErrFormat)
	}
	c.pos += int64(n)
	return nil
}

func (c *cursor) readByte() (byte, error) {
	if err := c.fill(1); err != nil {
		return 0, err
	}
	return c.buf[0], nil
}

func (c *cursor) readUint16() (uint16, error) {
	if err := c.fill(2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(c.buf[:2]), nil
}

func (c *cursor) readUint32() (uint32, error) {
	if err := c.fill(4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(c.buf[:4]), nil
}

// readFrame reads a record framing byte. ok is false when the stream has no
// further bytes, which the cover decoder treats as a normal outcome rather
// than an error.
func (c *cursor) readFrame() (b byte, ok bool, err error) {
	_, err = io.ReadFull(c.r, c.buf[:1])
	if err == io.EOF {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("umd: read framing byte at offset %d: %w", c.pos, ErrFormat)
	}
	c.pos++
	return c.buf[0], true, nil
}

// utf16le decodes UTF-16 little-endian bytes, the text encoding used by
// every string field in the container.
func utf16le(b []byte) (string, error) {
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("umd: decode UTF-16 text: %w", ErrFormat)
	}
	return string(out), nil
}
