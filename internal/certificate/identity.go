package certificate

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// addressNamespace salts the digest so derived addresses live in their own
// namespace instead of colliding with hashes of bare numbers.
const addressNamespace = "student_"

// DeriveAddress maps a student id to a deterministic, well-formed chain
// address: sha256 over the namespaced id, first 20 bytes as hex, 0x prefix.
// The result is a valid address syntactically but has no private key behind
// it and can never sign. Use it only for students without an on-file wallet;
// a real wallet address always takes precedence.
func DeriveAddress(studentID int) string {
	sum := sha256.Sum256([]byte(addressNamespace + strconv.Itoa(studentID)))
	return "0x" + hex.EncodeToString(sum[:20])
}
