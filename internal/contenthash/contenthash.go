// Package contenthash implements jan's streaming content fingerprint.
//
// The hasher computes a fixed-length digest over the concatenation of all
// bytes passed to it, independent of chunk boundaries, using whichever
// algorithm the binary was built with (see hash_blake3.go / hash_sha256.go).
// A single build of jan uses exactly one algorithm for every hash it takes,
// so two ContentHash values are only ever meaningfully compared within the
// same run.
package contenthash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/procoperr/janice/internal/jerr"
)

// chunkSize is used both when streaming a file into a Hasher and as the
// read-ahead unit: 256 KiB matches modern SSD read-ahead and BLAKE3's own
// internal chunk size.
const chunkSize = 256 * 1024

// Algorithm identifies which digest a ContentHash was produced with.
type Algorithm uint8

const (
	// AlgorithmBLAKE3 is the default build.
	AlgorithmBLAKE3 Algorithm = iota
	// AlgorithmSHA256 is selected with the sha256 build tag.
	AlgorithmSHA256
)

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmBLAKE3:
		return "BLAKE3"
	case AlgorithmSHA256:
		return "SHA-256"
	default:
		return "UNKNOWN"
	}
}

// ContentHash is a tagged 32-byte digest. Two instances compare equal iff
// both the algorithm and the bytes match.
type ContentHash struct {
	Algorithm Algorithm
	Bytes     [32]byte
}

// Equal reports whether two ContentHash values are identical.
func (h ContentHash) Equal(other ContentHash) bool {
	return h.Algorithm == other.Algorithm && h.Bytes == other.Bytes
}

// String renders the digest as a lowercase hex string.
func (h ContentHash) String() string {
	return hex.EncodeToString(h.Bytes[:])
}

// Hasher accumulates bytes and produces a ContentHash. It mirrors the
// stdlib hash.Hash Write/Sum shape but Finalize consumes the hasher
// rather than allowing further writes afterward.
type Hasher interface {
	Write(p []byte) (int, error)
	Finalize() ContentHash
}

// New returns a fresh Hasher using the build's selected algorithm.
func New() Hasher {
	return newHasher()
}

// HashBytes computes the digest of b in one call. Empty input produces the
// well-defined empty-input digest of the selected algorithm.
func HashBytes(b []byte) ContentHash {
	h := New()
	_, _ = h.Write(b)
	return h.Finalize()
}

// HashFile opens path, streams it through a Hasher in chunkSize pieces,
// and returns the resulting digest. No partial hash is returned on error:
// a read or open failure is reported as an error with a zero-value
// ContentHash.
func HashFile(path string) (ContentHash, error) {
	f, err := os.Open(path)
	if err != nil {
		return ContentHash{}, fmt.Errorf("%w: open %s: %v", jerr.HashError, path, err)
	}
	defer f.Close()

	h := New()
	buf := make([]byte, chunkSize)
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			if _, werr := h.Write(buf[:n]); werr != nil {
				return ContentHash{}, fmt.Errorf("%w: %s: %v", jerr.HashError, path, werr)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return ContentHash{}, fmt.Errorf("%w: read %s: %v", jerr.HashError, path, readErr)
		}
	}
	return h.Finalize(), nil
}
