//go:build !sha256

package contenthash

import "github.com/zeebo/blake3"

// newHasher builds the default, BLAKE3-backed Hasher. BLAKE3 is highly
// parallelizable and roughly an order of magnitude faster single-threaded
// than SHA-256, which matters for the scan engine's throughput-bound
// hashing phase.
func newHasher() Hasher {
	return &blake3Hasher{inner: blake3.New()}
}

type blake3Hasher struct {
	inner *blake3.Hasher
}

func (h *blake3Hasher) Write(p []byte) (int, error) {
	return h.inner.Write(p)
}

func (h *blake3Hasher) Finalize() ContentHash {
	var out ContentHash
	out.Algorithm = AlgorithmBLAKE3
	sum := h.inner.Sum(nil)
	copy(out.Bytes[:], sum)
	return out
}
