// Package credential derives the password hashes stored on a directory
// entry: the NT hash consumed by the legacy Samba stack and the SSHA hash
// used for directory bind authentication in the labs.
package credential

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"unicode/utf16"

	"golang.org/x/crypto/md4" //nolint:staticcheck // NT hashes are MD4 by definition

	"github.com/ic-ufrj/alumnic/internal/dependencies/random"
	"github.com/ic-ufrj/alumnic/internal/model"
)

const (
	sshaPrefix = "{SSHA}"
	saltLen    = 4
	sha1Len    = sha1.Size
)

// NTHash computes the Samba NT hash of a secret: MD4 over the UTF-16LE
// encoding, hex encoded in uppercase. Kept only for compatibility with the
// old authentication subsystem; it is never used to verify directory logins.
func NTHash(secret *model.Secret) string {
	encoded := encodeUTF16LE(secret.Expose())

	h := md4.New()
	h.Write(encoded)
	sum := h.Sum(nil)

	wipe(encoded)

	return strings.ToUpper(hex.EncodeToString(sum))
}

// SSHAHash computes the salted SHA1 hash of a secret with a fresh
// cryptographically random 4-byte salt, in the "{SSHA}" + base64 form the
// directory expects.
//
// SSHA has been considered weak for a while now; moving the directory to
// bcrypt should be possible eventually.
func SSHAHash(secret *model.Secret, rnd random.Random) (string, error) {
	salt, err := rnd.Bytes(saltLen)
	if err != nil {
		return "", err
	}
	hashed := sshaWithSalt(secret, salt)
	wipe(salt)
	return hashed, nil
}

// VerifySSHA reports whether secret matches an "{SSHA}" hash produced by
// SSHAHash. Malformed stored hashes never match; the comparison of the full
// re-encoded value is constant time.
func VerifySSHA(secret *model.Secret, stored string) bool {
	encoded, ok := strings.CutPrefix(stored, sshaPrefix)
	if !ok {
		return false
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) != sha1Len+saltLen {
		return false
	}

	recomputed := sshaWithSalt(secret, raw[sha1Len:])
	wipe(raw)

	return subtle.ConstantTimeCompare([]byte(recomputed), []byte(stored)) == 1
}

func sshaWithSalt(secret *model.Secret, salt []byte) string {
	h := sha1.New()
	h.Write([]byte(secret.Expose()))
	h.Write(salt)
	sum := h.Sum(nil)

	hashed := sshaPrefix + base64.StdEncoding.EncodeToString(append(sum, salt...))

	wipe(sum)

	return hashed
}

// encodeUTF16LE converts a string to its UTF-16 little-endian byte form.
func encodeUTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[2*i:], u)
	}
	return out
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
