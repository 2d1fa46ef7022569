// Package header encodes the image length announced ahead of the payload.
//
// Bootloaders in this family read a fixed-width unsigned length before the
// image bytes. The width, byte order and write granularity differ between
// receivers and must match the receiver exactly:
//
//   - 8-byte little-endian, written one byte per write call
//   - 4-byte little-endian, written as a single bulk write
//   - 4-byte big-endian, written as a single bulk write
//
// # Usage
//
//	f := header.Format{Width: 4, Order: header.LittleEndian, Framing: header.Bulk}
//	b, err := header.Encode(uint64(len(img)), f)
//	if errors.Is(err, header.ErrEncodingOverflow) {
//	    // image does not fit in a 4-byte length
//	}
//
// Encode never truncates: a length that does not fit in the configured width
// is an error.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package header
