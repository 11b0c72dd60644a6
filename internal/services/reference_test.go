package services

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCode(t *testing.T) {
	pattern := regexp.MustCompile(`^TRX-[A-Z0-9]{8}$`)

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		code := GenerateCode("TRX")
		assert.Regexp(t, pattern, code)
		seen[code] = struct{}{}
	}

	// 1000 draws from a 36^8 space should never collide
	assert.Len(t, seen, 1000)
}

func TestGenerateCodePrefixes(t *testing.T) {
	assert.Regexp(t, `^RCP-[A-Z0-9]{8}$`, GenerateCode("RCP"))
	assert.Regexp(t, `^TR-[A-Z0-9]{8}$`, GenerateCode("TR"))
	assert.Regexp(t, `^BR-[A-Z0-9]{8}$`, GenerateCode("BR"))
}
