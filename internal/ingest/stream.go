package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// Reader passes bytes through unchanged while counting them and hashing
// them, so an upload can be logged with its size and digest without a
// second read of the source.
type Reader struct {
	r    io.Reader
	h    hash.Hash
	size int64
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, h: sha256.New()}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.h.Write(p[:n])
		r.size += int64(n)
	}
	return n, err
}

// SHA256 is the hex digest of everything read so far. Call it after the
// copy finishes; earlier calls see a prefix.
func (r *Reader) SHA256() string {
	return hex.EncodeToString(r.h.Sum(nil))
}

// Size is the byte count read so far.
func (r *Reader) Size() int64 { return r.size }
