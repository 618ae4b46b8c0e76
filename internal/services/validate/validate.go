// Package validate normalizes the raw fields of a registration request,
// making sure not only that nothing malicious gets through but also that a
// well-meaning student's typos (stray spaces, missing zero padding,
// two-digit years) are repaired into the canonical form the academic system
// and our directory both use.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/ic-ufrj/alumnic/internal/model"
	"github.com/ic-ufrj/alumnic/internal/services/name"
)

var (
	enrollmentRe = regexp.MustCompile(`^\s*(\d{9})\s*$`)

	// Dates like "1/1/2025", "1/1/25", "01 / 01 / 2025"...
	slashDateRe = regexp.MustCompile(`^\s*(\d{1,2})\s*/\s*(\d{1,2})\s*/\s*(\d{1,4})\s*$`)
	// Dates like "01012025" or "0101 2025": fixed-width components.
	plainDateRe = regexp.MustCompile(`^\s*(\d{2})\s*(\d{2})\s*(\d{4})\s*$`)

	timeRe = regexp.MustCompile(`^\s*(\d{1,2})\s*:\s*(\d{1,2})\s*$`)

	codeRe = regexp.MustCompile(`^\s*([0-9A-F]{4})` +
		`\s*\.\s*([0-9A-F]{4})` +
		`\s*\.\s*([0-9A-F]{4})` +
		`\s*\.\s*([0-9A-F]{4})` +
		`\s*\.\s*([0-9A-F]{4})` +
		`\s*\.\s*([0-9A-F]{4})` +
		`\s*\.\s*([0-9A-F]{4})` +
		`\s*\.\s*([0-9A-F]{4})\s*$`)

	// Brazilian phone numbers: optional +55, area code with optional
	// parentheses and leading zero, then an 8 or 9 digit subscriber
	// number, possibly hyphenated before the last four digits.
	phoneRe = regexp.MustCompile(`^\s*(?:\+\s*55\s*)?(?:\(\s*0?(\d{2})\s*\)|0?(\d{2}))\s*(\d{4,5})\s*-?\s*(\d{4})\s*$`)
)

// passwordPolicy is the single source of truth for password strength. The
// bounds have changed over the years, so keep them here and nowhere else.
var passwordPolicy = struct {
	MinLen    int
	MaxLen    int
	NeedLower bool
	NeedUpper bool
	NeedDigit bool
}{
	MinLen:    8,
	MaxLen:    25,
	NeedLower: true,
	NeedUpper: true,
	NeedDigit: true,
}

// Enrollment validates an enrollment identifier (DRE): exactly nine digits,
// surrounding whitespace tolerated.
func Enrollment(raw string) (string, error) {
	m := enrollmentRe.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidEnrollment, raw)
	}
	return m[1], nil
}

// IssueDate normalizes a document issue date to dd/mm/yyyy. Accepts
// slash-separated components with one or two digit day and month and up to
// four digit year (years below 1000 land in the 2000s), or the concatenated
// ddmmyyyy form with fixed-width components.
func IssueDate(raw string) (string, error) {
	m := slashDateRe.FindStringSubmatch(raw)
	if m == nil {
		m = plainDateRe.FindStringSubmatch(raw)
	}
	if m == nil {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidIssueDate, raw)
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < 1000 {
		year += 2000
	}

	return fmt.Sprintf("%02d/%02d/%d", day, month, year), nil
}

// IssueTime normalizes a document issue time to hh:mm. Only the shape is
// checked; "24:00" and "12:60" pass, which is all the portal needs.
func IssueTime(raw string) (string, error) {
	m := timeRe.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidIssueTime, raw)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])

	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// SignatureCode validates a document authentication code: eight groups of
// four uppercase hexadecimal digits separated by dots. Spaces around the
// dots and at the ends are tolerated and stripped; lowercase is rejected.
func SignatureCode(raw string) (string, error) {
	m := codeRe.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidSignatureCode, raw)
	}
	return strings.Join(m[1:], "."), nil
}

// FullName validates a full name and recapitalizes it: the first letter of
// each word is uppercased, except particles ("de", "da", "do", "das",
// "dos"), which stay lowercase. The name must parse as a comparable Name,
// so it needs at least two non-particle words and only letters and spaces.
func FullName(raw string) (string, error) {
	if _, err := name.Parse(raw); err != nil {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidName, raw)
	}

	words := strings.Fields(strings.ToLower(raw))
	for i, w := range words {
		switch w {
		case "de", "da", "do", "das", "dos":
		default:
			r := []rune(w)
			r[0] = unicode.ToUpper(r[0])
			words[i] = string(r)
		}
	}

	return strings.Join(words, " "), nil
}

// Email normalizes an external email address: trims surrounding space and
// lowercases the domain while preserving the case of the local part.
func Email(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidEmail, raw)
	}

	at := strings.LastIndex(addr.Address, "@")
	normalized := addr.Address[:at] + "@" + strings.ToLower(addr.Address[at+1:])

	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidEmail, raw)
	}

	return normalized, nil
}

// Phone normalizes a Brazilian phone number to its canonical
// "+55" + area code + subscriber digits form, with no separators.
func Phone(raw string) (string, error) {
	m := phoneRe.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidPhone, raw)
	}

	area := m[1]
	if area == "" {
		area = m[2]
	}

	return "+55" + area + m[3] + m[4], nil
}

// Password checks a password against the strength policy: length between 8
// and 25 characters with at least one lowercase letter, one uppercase
// letter and one digit.
func Password(secret *model.Secret) error {
	value := secret.Expose()

	if len(value) < passwordPolicy.MinLen || len(value) > passwordPolicy.MaxLen {
		return model.ErrWeakPassword
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range value {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if passwordPolicy.NeedLower && !hasLower ||
		passwordPolicy.NeedUpper && !hasUpper ||
		passwordPolicy.NeedDigit && !hasDigit {
		return model.ErrWeakPassword
	}

	return nil
}
