// Package signature provides helper functions for handling the ledger
// hashing and signature needs. The signature is a stamp that proves a
// transaction passed through the ledger, it is not a cryptographic proof
// of authorship.
package signature

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// cispStamp is mixed into every signature so signatures produced by this
// ledger are unique to it.
const cispStamp = "\x19CISP Signed Message:\n"

// =============================================================================

// Hash returns a unique string for the value. The value is encoded to JSON
// and hashed with SHA-256. Values that can't be encoded fall back to a
// 32-bit rolling hash of their printed form.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fallbackHash(fmt.Sprintf("%v", value))
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// Digits returns the hash without its 0x prefix. The proof of work
// difficulty is measured against these digits.
func Digits(hash string) string {
	return strings.TrimPrefix(hash, "0x")
}

// Sign produces the signature for the specified hash using the signing key.
func Sign(hash string, signingKey string) (string, error) {
	if hash == "" {
		return "", errors.New("hash is required")
	}

	if signingKey == "" {
		return "", errors.New("signing key is required")
	}

	return Hash(cispStamp + hash + signingKey), nil
}

// Verify checks the signature conforms to our standards. Since the signing
// key is not recoverable from the signature only the shape is checked.
func Verify(sig string) error {
	if sig == "" {
		return errors.New("signature is missing")
	}

	if _, err := hexutil.Decode(sig); err != nil {
		return fmt.Errorf("signature is malformed: %w", err)
	}

	return nil
}

// =============================================================================

// fallbackHash is the 32-bit rolling string hash (h = h*31 + c) padded out to
// the width of a SHA-256 hash.
func fallbackHash(s string) string {
	var h int32
	for _, c := range s {
		h = (h << 5) - h + int32(c)
	}

	return fmt.Sprintf("0x%064x", uint32(h))
}
