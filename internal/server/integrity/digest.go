// Package integrity fingerprints stored objects.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/dmitrijs2005/refgate/internal/validation"
)

// ComputeDigest returns the lowercase hex SHA-256 of data.
func ComputeDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Stamp returns a copy of p carrying digest as its integrity value.
// p itself is left untouched.
func Stamp(p *validation.Payload, digest string) *validation.Payload {
	full := p.Clone()
	full.Integrity = &validation.Integrity{SHA256: digest}
	return full
}
