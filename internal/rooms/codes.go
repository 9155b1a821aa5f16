package rooms

import (
	"crypto/rand"
	"math/big"
)

// Alphabet excludes ambiguous characters: 0, O, 1, I, L
const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 5

// attemptsPerLength is how many draws Create makes at a given length
// before widening the code by one character.
const attemptsPerLength = 10

func codeLengthFor(attempt int) int {
	return codeLength + attempt/attemptsPerLength
}

func GenerateCode() (string, error) {
	return generateCode(codeLength)
}

func generateCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		code[i] = alphabet[n.Int64()]
	}
	return string(code), nil
}
