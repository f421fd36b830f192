package umd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Control records interleaved with body segments. Their payloads carry no
// meaning for this decoder; the sizes are fixed by the format.
const (
	ctrlF1     = 0xf1
	ctrl0A     = 0x0a
	ctrlF1Size = 18
	ctrl0ASize = 6
)

// decodeBody consumes the compressed body block sequence: `$`-framed
// segments interleaved with `#`-framed control records, terminated by the
// end-of-body record and its trailing segment index table. Segments are
// inflated and concatenated in read order, then decoded as UTF-16LE.
//
// When inflate is false, segment payloads are skipped instead of
// decompressed and the result string is empty; this still carries the
// cursor to the trailing cover block and still performs the index table
// cross-check.
func decodeBody(c *cursor, inflate bool) (string, error) {
	var (
		assembled bytes.Buffer
		readOrder []uint32
	)

loop:
	for {
		frame, err := c.readByte()
		if err != nil {
			return "", err
		}
		switch frame {
		case frameMeta:
			sub, err := c.readUint16()
			if err != nil {
				return "", err
			}
			switch sub {
			case tagEndOfBody:
				break loop
			case ctrlF1:
				if err := c.skip(ctrlF1Size); err != nil {
					return "", err
				}
			case ctrl0A:
				if err := c.skip(ctrl0ASize); err != nil {
					return "", err
				}
			default:
				return "", fmt.Errorf("umd: unknown control record 0x%02x in body: %w", sub, ErrFormat)
			}
		case frameSegment:
			hdr, err := c.read(8)
			if err != nil {
				return "", err
			}
			seq := binary.LittleEndian.Uint32(hdr[0:4])
			n := int(binary.LittleEndian.Uint32(hdr[4:8])) - tableOverhead
			if n < 0 {
				return "", fmt.Errorf("umd: segment %d declares negative payload: %w", seq, ErrFormat)
			}
			readOrder = append(readOrder, seq)
			if !inflate {
				if err := c.skip(n); err != nil {
					return "", err
				}
				continue
			}
			payload, err := c.read(n)
			if err != nil {
				return "", err
			}
			text, err := inflateSegment(payload)
			if err != nil {
				return "", fmt.Errorf("umd: segment %d: %w", seq, err)
			}
			assembled.Write(text)
		default:
			return "", fmt.Errorf("umd: unexpected framing byte 0x%02x in body at offset %d: %w", frame, c.tell()-1, ErrFormat)
		}
	}

	if err := checkSegmentIndex(c, readOrder); err != nil {
		return "", err
	}
	if !inflate {
		return "", nil
	}
	return utf16le(assembled.Bytes())
}

// checkSegmentIndex reads the index table that follows the end-of-body
// record and verifies it lists exactly the segment sequence indices that
// were read, in the same order.
func checkSegmentIndex(c *cursor, readOrder []uint32) error {
	enc, err := readTableHeader(c, "segment index table")
	if err != nil {
		return err
	}
	n := enc - tableOverhead
	if n < 0 || n%tableStride != 0 {
		return fmt.Errorf("umd: segment index table declares %d bytes: %w", enc, ErrFormat)
	}
	if n/tableStride != len(readOrder) {
		return fmt.Errorf("umd: trailer lists %d segments, stream had %d: %w", n/tableStride, len(readOrder), ErrConsistency)
	}
	raw, err := c.read(n)
	if err != nil {
		return err
	}
	for i, seq := range readOrder {
		if declared := binary.LittleEndian.Uint32(raw[i*tableStride:]); declared != seq {
			return fmt.Errorf("umd: segment %d read with index %d but trailer declares %d: %w", i, seq, declared, ErrConsistency)
		}
	}
	return nil
}

// inflateSegment decompresses one zlib-framed body segment.
func inflateSegment(payload []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("open: %w", ErrDecompress)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", ErrDecompress)
	}
	return out, nil
}
