package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRapidhashAllLengths(t *testing.T) {
	buf := make([]byte, 256)
	for i := range buf {
		buf[i] = byte(i * 7)
	}
	seen := make(map[uint64]int)
	for n := 0; n <= len(buf); n++ {
		h := rapidhash(buf[:n])
		assert.Equal(t, h, rapidhash(append([]byte(nil), buf[:n]...)), "length %d", n)
		if prev, ok := seen[h]; ok {
			t.Errorf("lengths %d and %d collide", prev, n)
		}
		seen[h] = n
	}
}

func TestRapidhashSeed(t *testing.T) {
	key := []byte("(local.get $x)")
	assert.NotEqual(t, rapidhashWithSeed(key, 1), rapidhashWithSeed(key, 2))
	assert.NotEqual(t, rapidhash([]byte("(local.get $x)")), rapidhash([]byte("(local.get $y)")))
}

func TestFingerprintHash(t *testing.T) {
	assert.Equal(t, FingerprintHash("wati2wat/1:a,b"), FingerprintHash("wati2wat/1:a,b"))
	assert.NotEqual(t, FingerprintHash("wati2wat/1:a,b"), FingerprintHash("wati2wat/1:b,a"))
	assert.Len(t, HashSource([]byte("(module)")), 64)
}
