// Package name handles full names: it derives a rough, accent and case
// insensitive representation that can be compared between sources (so
// "JOSE LIMA SILVA" equals "José Lima da Silva"), and enumerates the
// username candidates for a student in the order accounts should try them.
package name

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Errors
var (
	// ErrInvalidCharacter means the name contains something that is not a
	// letter (with or without accents), a cedilla or a space
	ErrInvalidCharacter = errors.New("name contains unknown characters")
	// ErrTooFewWords means the name has fewer than two words, not counting
	// particles like "de" and "da"
	ErrTooFewWords = errors.New("name needs at least two words")
)

// particles are the grammatical connectives dropped from names. They never
// count as words and never appear in usernames.
var particles = map[string]bool{
	"de": true, "da": true, "do": true, "das": true, "dos": true,
}

// maxTokens caps absurdly long names rather than rejecting them.
const maxTokens = 10

// maxUsernameLen bounds generated usernames; candidates at or beyond this
// length are skipped.
const maxUsernameLen = 20

// Name is the rough, simplified representation of a person's name: a
// sequence of lowercase accent-stripped word tokens with particles removed.
// The first token is the given name, the rest are surname tokens. Two Names
// compare equal exactly when their token sequences match, which is the sole
// mechanism for deciding whether a self-reported name matches an
// authoritative one. Immutable once built.
type Name struct {
	tokens []string
}

// Parse converts a raw display name into a Name.
//
// Cedillas become "c", accented letters decompose to their base ASCII
// letter and everything is lowercased. Any remaining character that is not
// a lowercase ASCII letter or a space is an error. Particles ("de", "da",
// "do", "das", "dos") are dropped, the result is truncated to ten tokens
// and must keep at least two.
func Parse(raw string) (Name, error) {
	sanitized, err := sanitize(raw)
	if err != nil {
		return Name{}, err
	}

	var tokens []string
	for _, tok := range strings.Fields(sanitized) {
		if particles[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}

	if len(tokens) > maxTokens {
		tokens = tokens[:maxTokens]
	}
	if len(tokens) < 2 {
		return Name{}, ErrTooFewWords
	}

	return Name{tokens: tokens}, nil
}

// sanitize lowers, strips accents and validates the character set.
func sanitize(raw string) (string, error) {
	replaced := strings.NewReplacer("ç", "c", "Ç", "C").Replace(raw)

	var b strings.Builder
	for _, r := range norm.NFD.String(replaced) {
		// NFD separates accents into combining marks; dropping every
		// non-ASCII rune removes them and leaves the base letter.
		if r > unicode.MaxASCII {
			continue
		}
		r = unicode.ToLower(r)
		if (r < 'a' || r > 'z') && r != ' ' {
			return "", ErrInvalidCharacter
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// Equal reports whether two Names have the same token sequence.
func (n Name) Equal(other Name) bool {
	if len(n.tokens) != len(other.tokens) {
		return false
	}
	for i, tok := range n.tokens {
		if tok != other.tokens[i] {
			return false
		}
	}
	return true
}

// Tokens returns a copy of the token sequence.
func (n Name) Tokens() []string {
	out := make([]string, len(n.tokens))
	copy(out, n.tokens)
	return out
}

// String joins the tokens with spaces, mainly for logs and tests.
func (n Name) String() string {
	return strings.Join(n.tokens, " ")
}

// Usernames generates the username candidates for this name, every
// combination of surname tokens opened in full or reduced to their first
// letter, appended to the given name. Candidates with 20 or more characters
// are skipped.
//
// The order is significant and must not change: the masks over surname
// tokens count in binary with the last surname toggling fastest, so the
// shortest, most-likely-free candidates come first. For
// "JOÃO CARLOS PEREIRA DA SILVA" the sequence starts
// "joaocps", "joaocpsilva", "joaocpereiras", ... Collision resolution
// against the live directory happens at registration time, not here.
func (n Name) Usernames() []string {
	surnames := n.tokens[1:]
	k := len(surnames)

	var out []string
	for mask := 0; mask < 1<<k; mask++ {
		var b strings.Builder
		b.WriteString(n.tokens[0])
		for i, s := range surnames {
			// Leftmost surname carries the most significant bit.
			if mask>>(k-1-i)&1 == 1 {
				b.WriteString(s)
			} else {
				b.WriteByte(s[0])
			}
		}
		if b.Len() < maxUsernameLen {
			out = append(out, b.String())
		}
	}
	return out
}

// ASCIIFold strips diacritics from a string while preserving case, for
// legacy attributes that only take plain ASCII. Cedillas map to "c"/"C".
func ASCIIFold(s string) string {
	replaced := strings.NewReplacer("ç", "c", "Ç", "C").Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, replaced)
	if err != nil {
		return replaced
	}
	return folded
}
