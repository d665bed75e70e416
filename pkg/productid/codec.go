// Package productid maps human-readable product identifiers to the numeric
// point IDs required by the vector index.
//
// The mapping must be deterministic across process restarts, so canonical
// "product_NNN" identifiers are translated by parsing the numeric suffix
// directly and everything else goes through a stable FNV-1a hash. The hash
// path is reduced modulo 2^31 and therefore carries a non-zero collision
// probability; callers that cannot tolerate that should reject non-canonical
// identifiers at ingestion time.
package productid

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Prefix is the identifier prefix used for system-generated products.
const Prefix = "product_"

// hashSpace bounds hashed identifiers to the positive int32 range.
const hashSpace = 1 << 31

// Encode translates a product identifier into a numeric point ID.
//
// Identifiers of the form "product_<digits>" map to exactly <digits>, which is
// collision-free for the canonical generation scheme. Any other string falls
// back to a stable hash; the second return value reports whether the canonical
// path was taken. Encode is total: it never fails, for any input including the
// empty string and non-ASCII text.
func Encode(id string) (uint64, bool) {
	if digits, ok := strings.CutPrefix(id, Prefix); ok {
		if n, err := strconv.ParseUint(digits, 10, 64); err == nil {
			return n, true
		}
	}

	h := fnv.New64a()
	h.Write([]byte(id))
	return h.Sum64() % hashSpace, false
}

// Format renders a system-generated identifier with a zero-padded 3-digit
// sequence number, e.g. Format(8) == "product_008". Sequence numbers beyond
// 999 widen naturally.
func Format(n int) string {
	return fmt.Sprintf("%s%03d", Prefix, n)
}

// NumericSuffix extracts the sequence number of a canonical identifier.
// It reports false for identifiers outside the canonical scheme.
func NumericSuffix(id string) (int, bool) {
	digits, ok := strings.CutPrefix(id, Prefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Next returns the identifier following the highest canonical sequence number
// present in ids. With no canonical ids present it returns "product_001".
func Next(ids []string) string {
	max := 0
	for _, id := range ids {
		if n, ok := NumericSuffix(id); ok && n > max {
			max = n
		}
	}
	return Format(max + 1)
}
