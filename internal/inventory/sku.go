package inventory

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// GenerateSKU builds NAM-FLA-PAC-1234 from the first three letters of each
// part. Empty parts are skipped.
func GenerateSKU(name, flavour, pack string) string {
	return generateSKU(name, flavour, pack, rand.IntN(10000))
}

func generateSKU(name, flavour, pack string, n int) string {
	parts := make([]string, 0, 4)
	for _, raw := range []string{name, flavour, pack} {
		if prefix := skuPrefix(raw); prefix != "" {
			parts = append(parts, prefix)
		}
	}
	parts = append(parts, fmt.Sprintf("%04d", n%10000))
	return strings.Join(parts, "-")
}

func skuPrefix(raw string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), raw)
	if err != nil {
		folded = raw
	}
	out := make([]rune, 0, 3)
	for _, r := range strings.ToUpper(folded) {
		if len(out) == 3 {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return string(out)
}
