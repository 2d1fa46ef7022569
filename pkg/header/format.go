package header

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFormat is returned when a Format has an unsupported width,
// byte order or framing.
var ErrInvalidFormat = errors.New("header: invalid format")

// ByteOrder selects the position of the least significant length byte.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

// String returns the config spelling of the byte order.
func (o ByteOrder) String() string {
	switch o {
	case LittleEndian:
		return "little"
	case BigEndian:
		return "big"
	default:
		return "unknown"
	}
}

// ParseByteOrder parses "little"/"le" or "big"/"be".
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "little", "le", "little-endian":
		return LittleEndian, nil
	case "big", "be", "big-endian":
		return BigEndian, nil
	}
	return 0, fmt.Errorf("%w: unknown byte order %q", ErrInvalidFormat, s)
}

// Framing selects how the header is handed to the channel.
type Framing int

const (
	// Bulk writes the whole header in one write call.
	Bulk Framing = iota
	// Bytewise issues one write call (and flush) per header byte, for
	// receivers that read the length one byte at a time without buffering.
	Bytewise
)

// String returns the config spelling of the framing.
func (f Framing) String() string {
	switch f {
	case Bulk:
		return "bulk"
	case Bytewise:
		return "bytewise"
	default:
		return "unknown"
	}
}

// ParseFraming parses "bulk" or "bytewise".
func ParseFraming(s string) (Framing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bulk":
		return Bulk, nil
	case "bytewise", "byte", "single-byte":
		return Bytewise, nil
	}
	return 0, fmt.Errorf("%w: unknown framing %q", ErrInvalidFormat, s)
}

// Format describes the length header expected by a receiver.
type Format struct {
	// Width is the header size in bytes, 4 or 8.
	Width int

	// Order is the byte order of the encoded length.
	Order ByteOrder

	// Framing is the write granularity used for the header.
	Framing Framing
}

// Validate reports whether the format is supported.
func (f Format) Validate() error {
	if f.Width != 4 && f.Width != 8 {
		return fmt.Errorf("%w: width %d (want 4 or 8)", ErrInvalidFormat, f.Width)
	}
	if f.Order != LittleEndian && f.Order != BigEndian {
		return fmt.Errorf("%w: byte order %d", ErrInvalidFormat, int(f.Order))
	}
	if f.Framing != Bulk && f.Framing != Bytewise {
		return fmt.Errorf("%w: framing %d", ErrInvalidFormat, int(f.Framing))
	}
	return nil
}

// MaxLength returns the largest length representable in the header.
func (f Format) MaxLength() uint64 {
	if f.Width >= 8 {
		return ^uint64(0)
	}
	return 1<<(8*uint(f.Width)) - 1
}

// Fits reports whether length can be encoded without truncation.
func (f Format) Fits(length uint64) bool {
	return length <= f.MaxLength()
}

// String renders the format as e.g. "u32le/bulk".
func (f Format) String() string {
	order := "le"
	if f.Order == BigEndian {
		order = "be"
	}
	return fmt.Sprintf("u%d%s/%s", f.Width*8, order, f.Framing)
}
