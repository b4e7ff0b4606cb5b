package domain

import (
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	pnrPrefix = "PNR"
	pnrLength = 8
)

// NewPNR returns a booking reference made of the PNR prefix and eight
// upper-case base-36 characters taken from a random UUID.
func NewPNR() string {
	id := uuid.New()
	code := strings.ToUpper(new(big.Int).SetBytes(id[:]).Text(36))
	if len(code) < pnrLength {
		code = strings.Repeat("0", pnrLength-len(code)) + code
	}
	return pnrPrefix + code[len(code)-pnrLength:]
}

func IsPNR(s string) bool {
	if len(s) != len(pnrPrefix)+pnrLength || !strings.HasPrefix(s, pnrPrefix) {
		return false
	}
	for _, r := range s[len(pnrPrefix):] {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
