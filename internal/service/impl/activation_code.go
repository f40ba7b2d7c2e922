package impl

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const activationAlphabet = "0123456789"

// GenerateActivationCode returns length characters drawn uniformly and
// independently from the digits 0-9 using the OS CSPRNG.
func GenerateActivationCode(length int) (string, error) {
	if length <= 0 {
		return "", ErrCodeLength
	}
	base := big.NewInt(int64(len(activationAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		b.WriteByte(activationAlphabet[n.Int64()])
	}
	return b.String(), nil
}
