package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// fingerprintLen is the number of hex characters kept from the SHA-256
// digest of the canonicalized arguments.
const fingerprintLen = 16

// Fingerprint derives a deterministic, fixed-length key fragment from a set
// of call arguments. Arguments are canonicalized to JSON — Go's encoder
// emits map keys in sorted order, so logically equal maps produce the same
// bytes regardless of insertion order. An argument that cannot be encoded
// falls back to its fmt representation; key derivation never fails.
func Fingerprint(args ...any) string {
	h := sha256.New()
	for _, arg := range args {
		h.Write(canonicalize(arg))
		// Delimit so ("ab") and ("a","b") hash differently.
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:fingerprintLen]
}

func canonicalize(arg any) []byte {
	data, err := json.Marshal(arg)
	if err != nil {
		// Lossy textual fallback for channels, funcs, cycles and the like.
		return fmt.Appendf(nil, "%+v", arg)
	}
	return data
}

// MemoKey composes the cache key for a memoized call. Namespacing on
// prefix and function name keeps same-argument calls to different
// functions from colliding.
func MemoKey(prefix, name string, args ...any) string {
	return prefix + ":" + name + ":" + Fingerprint(args...)
}

func decodeValue(data []byte, out *any) error {
	return json.Unmarshal(data, out)
}
