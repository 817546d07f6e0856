package main

import (
	"encoding/binary"

	"lukechampine.com/uint128"
)

// rapidhash, used to tell whether an output file was modified after we
// wrote it. Not cryptographic.

const rapidSeed uint64 = 0xbdd89aa982704029

var rapidSecret = [3]uint64{0x2d358dccaa6c78a5, 0x8bb84b93962eacc9, 0x4b33a62ed433d4a3}

// rapidMum is the 64x64->128 multiply, returning the low and high halves.
func rapidMum(a, b uint64) (uint64, uint64) {
	r := uint128.From64(a).Mul(uint128.From64(b))
	return r.Lo, r.Hi
}

func rapidMix(a, b uint64) uint64 {
	lo, hi := rapidMum(a, b)
	return lo ^ hi
}

func read64(p []byte, at int) uint64 { return binary.LittleEndian.Uint64(p[at:]) }
func read32(p []byte, at int) uint64 { return uint64(binary.LittleEndian.Uint32(p[at:])) }

func rapidReadSmall(p []byte, k int) uint64 {
	return uint64(p[0])<<56 | uint64(p[k>>1])<<32 | uint64(p[k-1])
}

func rapidhashWithSeed(key []byte, seed uint64) uint64 {
	n := len(key)
	secret := rapidSecret
	seed ^= rapidMix(seed^secret[0], secret[1]) ^ uint64(n)
	var a, b uint64

	if n <= 16 {
		if n >= 4 {
			last := n - 4
			a = read32(key, 0)<<32 | read32(key, last)
			delta := (n & 24) >> (n >> 3)
			b = read32(key, delta)<<32 | read32(key, last-delta)
		} else if n > 0 {
			a = rapidReadSmall(key, n)
		}
	} else {
		off, i := 0, n
		if i > 48 {
			see1, see2 := seed, seed
			for i >= 48 {
				seed = rapidMix(read64(key, off)^secret[0], read64(key, off+8)^seed)
				see1 = rapidMix(read64(key, off+16)^secret[1], read64(key, off+24)^see1)
				see2 = rapidMix(read64(key, off+32)^secret[2], read64(key, off+40)^see2)
				off += 48
				i -= 48
			}
			seed ^= see1 ^ see2
		}
		if i > 16 {
			seed = rapidMix(read64(key, off)^secret[2], read64(key, off+8)^seed^secret[1])
			if i > 32 {
				seed = rapidMix(read64(key, off+16)^secret[2], read64(key, off+24)^seed)
			}
		}
		// may reach back into the previous block
		a = read64(key, off+i-16)
		b = read64(key, off+i-8)
	}
	a ^= secret[1]
	b ^= seed
	a, b = rapidMum(a, b)
	return rapidMix(a^secret[0]^uint64(n), b^secret[1])
}

func rapidhash(key []byte) uint64 {
	return rapidhashWithSeed(key, rapidSeed)
}
