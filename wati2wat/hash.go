package main

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/segmentio/fasthash/fnv1a"
	"github.com/zeebo/blake3"
)

// HashFile returns the hex blake3 digest of the file at path.
func HashFile(path string) (string, error) {
	r, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer r.Close()
	h := blake3.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashSource is HashFile for a buffer already in memory.
func HashSource(src []byte) string {
	sum := blake3.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// FingerprintHash condenses a pipeline fingerprint for the compile log.
func FingerprintHash(fingerprint string) uint64 {
	h := fnv1a.Init64
	h = fnv1a.AddString64(h, fingerprint)
	return h
}
