package main

import (
	"encoding/hex"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"

	"wati2wat/model"
	"wati2wat/rewrite"
)

var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// CacheKey identifies the output of fingerprint's pipeline over src.
func CacheKey(fingerprint string, src []byte) string {
	h := blake3.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write(src)
	return hex.EncodeToString(h.Sum(nil))
}

// NewCompileEntry builds the cache row for a successful compile.
func NewCompileEntry(name, key string, src []byte, out string, stats []rewrite.PassStat,
	compress bool, expire time.Duration) *model.CompileEntry {
	now := time.Now().Unix()
	entry := &model.CompileEntry{
		RequestID:       ulid.Make().String(),
		Name:            name,
		Key:             key,
		InputSize:       int64(len(src)),
		OutputSize:      int64(len(out)),
		CreatedAt:       now,
		LastAccess:      now,
		ExpiredDuration: int64(expire / time.Second),
	}
	if compress {
		entry.Output = encoder.EncodeAll([]byte(out), nil)
		entry.Compressed = true
	} else {
		entry.Output = []byte(out)
	}
	for i, st := range stats {
		entry.Passes = append(entry.Passes, &model.PassEntry{
			Seq:        i,
			Name:       st.Name,
			DurationNs: st.Duration.Nanoseconds(),
			BytesIn:    int64(st.BytesIn),
			BytesOut:   int64(st.BytesOut),
		})
	}
	return entry
}

// EntryOutput returns the wat text stored in entry.
func EntryOutput(entry *model.CompileEntry) ([]byte, error) {
	if !entry.Compressed {
		return entry.Output, nil
	}
	out, err := decoder.DecodeAll(entry.Output, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "decompressing entry %d", entry.ID)
	}
	return out, nil
}
