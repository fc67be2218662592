package journey

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Fingerprint computes a content-addressed digest of the journey's
// reconciliation-relevant content: its name plus the projected fields of every
// step, in step order.
//
// Strings are NFC normalized before hashing so that visually identical text
// with different Unicode encodings produces the same fingerprint. Two journeys
// with equal fingerprints carry the same outward-facing content regardless of
// version counters or timestamps.
func (j *Journey) Fingerprint() string {
	var b strings.Builder
	writeField(&b, j.Name)

	steps := make([]Step, len(j.Steps))
	copy(steps, j.Steps)
	sort.Slice(steps, func(a, z int) bool { return steps[a].Order < steps[z].Order })

	for _, s := range steps {
		writeField(&b, s.Name)
		writeField(&b, string(s.Kind))
		writeField(&b, fmt.Sprintf("%d:%s", s.Delay, s.DelayUnit))
		if s.Message != nil {
			writeField(&b, s.Message.Subject)
			writeField(&b, s.Message.Body)
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// writeField appends an NFC-normalized, length-prefixed field. The length
// prefix prevents adjacent fields from colliding ("ab"+"c" vs "a"+"bc").
func writeField(b *strings.Builder, s string) {
	normalized := norm.NFC.String(s)
	fmt.Fprintf(b, "%d:%s;", len(normalized), normalized)
}
