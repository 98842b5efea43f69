// Package normalize canonicalizes raw search input before it reaches the
// exact-match and fuzzy-match paths.
package normalize

import (
	"strings"
	"unicode/utf8"

	"caseguard/internal/dedup/models"
	dErrors "caseguard/pkg/domain-errors"
	platformstrings "caseguard/pkg/platform/strings"
)

// MaxFieldLength is the largest accepted field, in runes, before trimming.
const MaxFieldLength = 256

// PhonePolicy selects how phone numbers are canonicalized after trimming.
type PhonePolicy string

const (
	// PhonePolicyTrim leaves the trimmed number as entered.
	PhonePolicyTrim PhonePolicy = "trim"
	// PhonePolicyDigits strips formatting, keeping digits and a leading '+'.
	PhonePolicyDigits PhonePolicy = "digits"
)

// ParsePhonePolicy accepts the configuration spelling of a policy.
// The empty string selects PhonePolicyTrim.
func ParsePhonePolicy(s string) (PhonePolicy, error) {
	switch p := PhonePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PhonePolicyTrim:
		return PhonePolicyTrim, nil
	case PhonePolicyDigits:
		return p, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown phone policy: "+s)
	}
}

// RawCriteria is user input as received; any field may be empty.
type RawCriteria struct {
	Name       string
	Phone      string
	NationalID string
}

// Normalizer turns RawCriteria into SearchCriteria.
type Normalizer struct {
	phonePolicy PhonePolicy
}

func New(policy PhonePolicy) *Normalizer {
	if policy == "" {
		policy = PhonePolicyTrim
	}
	return &Normalizer{phonePolicy: policy}
}

// Normalize canonicalizes each field independently:
//   - national ID: trimmed, upper-cased
//   - phone: trimmed, then the phone policy
//   - name: trimmed, whitespace collapsed, case preserved
//
// A field that is empty afterwards is absent. Oversized input is a
// validation error.
func (n *Normalizer) Normalize(raw RawCriteria) (models.SearchCriteria, error) {
	for _, f := range []struct{ name, value string }{
		{"name", raw.Name},
		{"phone", raw.Phone},
		{"national_id", raw.NationalID},
	} {
		if utf8.RuneCountInString(f.value) > MaxFieldLength {
			return models.SearchCriteria{}, dErrors.New(dErrors.CodeValidation, f.name+" is too long")
		}
	}

	return models.SearchCriteria{
		Name:       platformstrings.CollapseWhitespace(raw.Name),
		Phone:      n.Phone(raw.Phone),
		NationalID: NationalID(raw.NationalID),
	}, nil
}

// Phone applies the configured policy. The scorer uses it on candidate
// phones so both sides of the comparison share one canonical form.
func (n *Normalizer) Phone(s string) string {
	s = strings.TrimSpace(s)
	if n.phonePolicy != PhonePolicyDigits || s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if out := b.String(); out != "+" {
		return out
	}
	return ""
}

// NationalID trims and upper-cases an identifier.
func NationalID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
