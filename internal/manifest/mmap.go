package manifest

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/xxh3"
	"golang.org/x/exp/mmap"
)

const mmapReadChunk = 1 << 20 // 1 MiB per ReadAt

// hashLarge hashes a large file through a memory-mapped reader. It reads
// the file on the real filesystem directly; files that only exist in an
// in-memory FS never reach the size threshold.
func hashLarge(path string, size int64) (string, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return "", fmt.Errorf("mmap %q: %w", path, err)
	}
	defer r.Close()

	h := xxh3.New()
	buf := make([]byte, mmapReadChunk)
	for off := int64(0); off < size; off += mmapReadChunk {
		n := mmapReadChunk
		if off+int64(n) > size {
			n = int(size - off)
		}
		if _, err := r.ReadAt(buf[:n], off); err != nil {
			return "", fmt.Errorf("read mmap chunk at %d in %q: %w", off, path, err)
		}
		h.Write(buf[:n])
	}

	sum := h.Sum128().Bytes()
	return hex.EncodeToString(sum[:]), nil
}
