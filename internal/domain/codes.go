package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var gymCodePrefixPattern = regexp.MustCompile(`^[A-Za-z0-9]{2,4}$`)

// IsGymCodePrefix reports whether s is 2-4 ASCII letters or digits.
func IsGymCodePrefix(s string) bool {
	return gymCodePrefixPattern.MatchString(s)
}

// NormalizeGymCodePrefix validates a founder-chosen prefix and returns its
// canonical (upper-case) form.
func NormalizeGymCodePrefix(prefix string) (string, error) {
	if !IsGymCodePrefix(prefix) {
		return "", fmt.Errorf("%w: gym code prefix must be 2-4 letters or digits", ErrValidation)
	}
	return strings.ToUpper(prefix), nil
}

// NormalizeGymCode canonicalises a full gym code for lookup.
func NormalizeGymCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GymCode joins a normalised prefix and its sequence suffix: ("BS", 0) -> "BS0".
func GymCode(prefix string, seq int64) string {
	return prefix + strconv.FormatInt(seq, 10)
}

// MemberCode formats the n-th member code issued by a gym: ("BS0", 7) -> "BS0-0007".
func MemberCode(gymCode string, seq int64) string {
	return fmt.Sprintf("%s-%04d", gymCode, seq)
}

// MemberCodeFromPayload extracts the member code from a scanned QR payload.
// Payloads are either the bare code or a link ending in /member/<code>.
func MemberCodeFromPayload(payload string) string {
	p := strings.TrimSpace(payload)
	if i := strings.LastIndex(p, "/member/"); i >= 0 {
		p = p[i+len("/member/"):]
	}
	p = strings.TrimSuffix(p, "/")
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return strings.ToUpper(p)
}
