package image

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/crypto/blake2b"
)

var (
	// ErrImageNotFound is returned when the image file does not exist.
	ErrImageNotFound = errors.New("image not found")

	// ErrNotRegular is returned when the path names a directory or device.
	ErrNotRegular = errors.New("image is not a regular file")
)

// Digest is a BLAKE2b-256 sum of the image contents.
type Digest [blake2b.Size256]byte

// String returns the digest in lowercase hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex characters, enough for log lines.
func (d Digest) Short() string {
	return d.String()[:12]
}

// Image is a loaded payload.
type Image struct {
	Path   string
	Data   []byte
	Digest Digest
}

// Size returns the payload length in bytes.
func (i *Image) Size() int64 {
	return int64(len(i.Data))
}

// Load reads the image at path.
func Load(path string) (*Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrImageNotFound, path)
		}
		return nil, fmt.Errorf("stat image: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return FromBytes(path, data), nil
}

// FromBytes wraps an in-memory payload.
func FromBytes(name string, data []byte) *Image {
	return &Image{
		Path:   name,
		Data:   data,
		Digest: blake2b.Sum256(data),
	}
}
