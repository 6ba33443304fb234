package genesisexec

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// Hashing hosts exposed to the runtime. Twox concatenates seeded 64-bit
// xxHash rounds, little-endian, seed counting up from zero.

func twoxRounds(data []byte, rounds int) []byte {
	out := make([]byte, 8*rounds)
	for i := 0; i < rounds; i++ {
		d := xxhash.NewWithSeed(uint64(i))
		d.Write(data)
		binary.LittleEndian.PutUint64(out[8*i:], d.Sum64())
	}
	return out
}

func twox64(data []byte) []byte  { return twoxRounds(data, 1) }
func twox128(data []byte) []byte { return twoxRounds(data, 2) }
func twox256(data []byte) []byte { return twoxRounds(data, 4) }

func blake2b128(data []byte) []byte {
	h, _ := blake2b.New(16, nil)
	h.Write(data)
	return h.Sum(nil)
}

func blake2b256(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}
