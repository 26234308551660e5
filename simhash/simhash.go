package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
)

// Fingerprint computes a 64-bit SimHash over the whitespace-separated
// tokens of text. Each token votes its FNV-64a bits into a signed lane
// accumulator; the sign of each lane becomes the output bit.
func Fingerprint(text string) uint64 {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return 0
	}

	var lanes [64]int
	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		for bit := range lanes {
			if sum>>uint(bit)&1 == 1 {
				lanes[bit]++
			} else {
				lanes[bit]--
			}
		}
	}

	var fp uint64
	for bit, vote := range lanes {
		if vote > 0 {
			fp |= 1 << uint(bit)
		}
	}
	return fp
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two fingerprints are within threshold bits of
// each other.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}
