package services

import (
	"crypto/rand"
	"fmt"
)

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateCode returns "<prefix>-XXXXXXXX" with 8 random uppercase
// alphanumerics, used for transaction (TRX), receipt (RCP) and transfer (TR)
// codes.
func GenerateCode(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return prefix + "-" + string(buf)
}
