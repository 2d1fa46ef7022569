package header

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	testCases := []struct {
		name   string
		length uint64
		format Format
		expect []byte
	}{
		{"u32le", 2500, Format{Width: 4, Order: LittleEndian}, []byte{0xc4, 0x09, 0x00, 0x00}},
		{"u32be", 2500, Format{Width: 4, Order: BigEndian}, []byte{0x00, 0x00, 0x09, 0xc4}},
		{"u64le", 2500, Format{Width: 8, Order: LittleEndian, Framing: Bytewise}, []byte{0xc4, 0x09, 0, 0, 0, 0, 0, 0}},
		{"u64be", 0x0102030405060708, Format{Width: 8, Order: BigEndian}, []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{"zero", 0, Format{Width: 4, Order: LittleEndian}, []byte{0, 0, 0, 0}},
		{"u32 max", 0xffffffff, Format{Width: 4, Order: BigEndian}, []byte{0xff, 0xff, 0xff, 0xff}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Encode(tc.length, tc.format)
			require.NoError(t, err)
			require.Equal(t, tc.expect, b)
			require.Len(t, b, tc.format.Width)
		})
	}
}

func TestEncodeOverflow(t *testing.T) {
	f := Format{Width: 4, Order: LittleEndian}
	for _, n := range []uint64{1 << 32, 1<<32 + 1, ^uint64(0)} {
		b, err := Encode(n, f)
		require.Nil(t, b)
		require.ErrorIs(t, err, ErrEncodingOverflow)

		var oe *OverflowError
		require.True(t, errors.As(err, &oe))
		require.Equal(t, n, oe.Length)
		require.Equal(t, 4, oe.Width)
	}

	_, err := Encode(^uint64(0), Format{Width: 8})
	require.NoError(t, err)
}

func TestRoundTrip(t *testing.T) {
	lengths := []uint64{0, 1, 255, 256, 2500, 65535, 1 << 24, 1<<32 - 1}
	for _, width := range []int{4, 8} {
		for _, order := range []ByteOrder{LittleEndian, BigEndian} {
			f := Format{Width: width, Order: order}
			for _, n := range lengths {
				b, err := Encode(n, f)
				require.NoError(t, err)
				got, err := Decode(b, f)
				require.NoError(t, err)
				require.Equalf(t, n, got, "%s: %d", f, n)
			}
		}
	}

	f := Format{Width: 8, Order: BigEndian}
	for _, n := range []uint64{1 << 32, 1 << 40, ^uint64(0)} {
		b, err := Encode(n, f)
		require.NoError(t, err)
		got, err := Decode(b, f)
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
}

func TestDecodeWrongLength(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3}, Format{Width: 4})
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestFormat_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		format  Format
		wantErr bool
	}{
		{"u32", Format{Width: 4}, false},
		{"u64 bytewise", Format{Width: 8, Framing: Bytewise}, false},
		{"width 2", Format{Width: 2}, true},
		{"width 0", Format{}, true},
		{"bad order", Format{Width: 4, Order: ByteOrder(7)}, true},
		{"bad framing", Format{Width: 4, Framing: Framing(9)}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.format.Validate()
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidFormat)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParse(t *testing.T) {
	o, err := ParseByteOrder("BE")
	require.NoError(t, err)
	require.Equal(t, BigEndian, o)
	o, err = ParseByteOrder("little")
	require.NoError(t, err)
	require.Equal(t, LittleEndian, o)
	_, err = ParseByteOrder("middle")
	require.ErrorIs(t, err, ErrInvalidFormat)

	f, err := ParseFraming("bytewise")
	require.NoError(t, err)
	require.Equal(t, Bytewise, f)
	f, err = ParseFraming("bulk")
	require.NoError(t, err)
	require.Equal(t, Bulk, f)
	_, err = ParseFraming("nibble")
	require.ErrorIs(t, err, ErrInvalidFormat)

	require.Equal(t, "u32be/bulk", Format{Width: 4, Order: BigEndian}.String())
	require.Equal(t, "u64le/bytewise", Format{Width: 8, Framing: Bytewise}.String())
}
