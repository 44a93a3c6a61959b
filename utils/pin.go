package utils

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// GeneratePIN returns a 4-digit session PIN drawn from crypto/rand.
// Rejection sampling keeps the distribution over 0000-9999 uniform.
func GeneratePIN() (string, error) {
	const limit = 10000
	// Largest multiple of limit below 2^32, so values above it are re-drawn.
	const max = (1 << 32) / limit * limit

	var buf [4]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}
		v := binary.BigEndian.Uint32(buf[:])
		if v < max {
			return fmt.Sprintf("%04d", v%limit), nil
		}
	}
}
