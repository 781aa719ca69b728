package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	// Well-known SHA-256 vectors.
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		Fingerprint([]byte("abc")))
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Fingerprint(nil))
}

func TestMatches(t *testing.T) {
	data := []byte("abc")
	assert.True(t, Matches(data, Fingerprint(data)))
	assert.False(t, Matches(data, "deadbeef"))
	assert.False(t, Matches(data, ""), "empty expectation never matches")
}
