package utils

import "math/rand"

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// codeAlphabet drops the characters players misread or mistype when a
// code is shared out loud (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCode returns a human-typeable room code of length n.
func GenerateCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}
