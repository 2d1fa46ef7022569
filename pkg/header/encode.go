package header

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrEncodingOverflow is returned when a length does not fit in the header width.
var ErrEncodingOverflow = errors.New("header: length overflows header width")

// OverflowError carries the offending length and the configured width.
type OverflowError struct {
	Length uint64
	Width  int
}

// Error implements error.
func (e *OverflowError) Error() string {
	return fmt.Sprintf("header: length %d does not fit in %d-byte header (max %d)",
		e.Length, e.Width, Format{Width: e.Width}.MaxLength())
}

// Is matches ErrEncodingOverflow.
func (e *OverflowError) Is(target error) bool {
	return target == ErrEncodingOverflow
}

func byteOrder(o ByteOrder) binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Encode returns the header bytes announcing length, exactly f.Width long.
func Encode(length uint64, f Format) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if !f.Fits(length) {
		return nil, &OverflowError{Length: length, Width: f.Width}
	}

	b := make([]byte, f.Width)
	if f.Width == 4 {
		byteOrder(f.Order).PutUint32(b, uint32(length))
	} else {
		byteOrder(f.Order).PutUint64(b, length)
	}
	return b, nil
}

// Decode parses a header produced by Encode with the same format.
func Decode(b []byte, f Format) (uint64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	if len(b) != f.Width {
		return 0, fmt.Errorf("%w: got %d header bytes, want %d", ErrInvalidFormat, len(b), f.Width)
	}
	if f.Width == 4 {
		return uint64(byteOrder(f.Order).Uint32(b)), nil
	}
	return byteOrder(f.Order).Uint64(b), nil
}
