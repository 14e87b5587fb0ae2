// Package refcode mints short human-readable references such as
// PP-20261016-7KQ3ZD for orders and bulk requests.
package refcode

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// alphabet leaves out 0/O and 1/I so references survive being read aloud.
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Each random byte picks a symbol from its low five bits, which is uniform
// only while the alphabet has exactly 32 symbols. This fails to compile otherwise.
var _ = [1]struct{}{}[len(alphabet)-32]

const suffixLen = 6

// New returns prefix, the UTC date of now and a random suffix joined by '-'.
func New(prefix string, now time.Time) (string, error) {
	buf := make([]byte, suffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random suffix: %w", err)
	}
	var sb strings.Builder
	sb.Grow(len(prefix) + 1 + 8 + 1 + suffixLen)
	sb.WriteString(prefix)
	sb.WriteByte('-')
	sb.WriteString(now.UTC().Format("20060102"))
	sb.WriteByte('-')
	for _, b := range buf {
		sb.WriteByte(alphabet[b&31])
	}
	return sb.String(), nil
}
