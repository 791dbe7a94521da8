package internal

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// Session keys and generated passwords are drawn uniformly from the 94
// printable ASCII symbols (0x21–0x7E), excluding space. At ~6.55 bits per
// character, 20 characters clear 128 bits of entropy.
const printableAlphabet = "!\"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~"

// NewSessionKey returns a random key of n printable ASCII characters.
func NewSessionKey(n int) (string, error) {
	return randomString(n)
}

// NewPassword returns a random plaintext of n printable ASCII characters,
// used for externally vouched accounts whose password is never revealed.
func NewPassword(n int) (string, error) {
	return randomString(n)
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("random string length must be positive")
	}

	var b strings.Builder
	b.Grow(n)

	max := big.NewInt(int64(len(printableAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(printableAlphabet[idx.Int64()])
	}

	return b.String(), nil
}
