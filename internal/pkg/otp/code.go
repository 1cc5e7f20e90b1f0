package otp

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	codeMin = 100000
	codeMax = 999999
)

// CodeGenerator produces the secret part of a record.
type CodeGenerator interface {
	Generate() (string, error)
}

// NumericCode draws codes uniformly from [100000, 999999] using crypto/rand.
type NumericCode struct{}

// NewNumericCode returns the default code generator.
func NewNumericCode() *NumericCode {
	return &NumericCode{}
}

// Generate returns a 6-digit code without leading zeros.
func (*NumericCode) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}
