package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Filler words stripped before hashing so routine title variations
// ("Highlights | Rally Finland" vs "Rally Finland Highlights") collapse
// to the same fingerprint.
var stopwords = map[string]struct{}{
	"highlights": {},
	"race":       {},
	"qualifying": {},
	"practice":   {},
	"session":    {},
	"live":       {},
	"full":       {},
	"rally":      {},
	"stage":      {},
	"wrc":        {},
	"special":    {},
}

var deaccent = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeTitle reduces a video title to its canonical token form:
// lowercased, accents folded, punctuation dropped, stopwords removed and
// the remaining tokens sorted. Word order never affects the result.
func NormalizeTitle(title string) string {
	s := strings.ToLower(title)

	if folded, _, err := transform.String(deaccent, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	tokens := strings.Fields(b.String())
	kept := tokens[:0]
	for _, tok := range tokens {
		if _, skip := stopwords[tok]; skip {
			continue
		}
		kept = append(kept, tok)
	}
	slices.Sort(kept)

	return strings.Join(kept, " ")
}

// TitleHash returns the 16-character fingerprint of a normalized title.
func TitleHash(title string) string {
	sum := md5.Sum([]byte(NormalizeTitle(title)))
	return hex.EncodeToString(sum[:])[:16]
}
