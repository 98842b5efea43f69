// Package domain holds typed identifiers shared across modules.
//
// IDs are distinct named types over uuid.UUID so a case ID can never be passed
// where an actor ID is expected. Parse functions are the only way to build an
// ID from untrusted input.
package domain

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	dErrors "caseguard/pkg/domain-errors"
)

// maxIDLength bounds raw input before it reaches uuid.Parse.
const maxIDLength = 64

// UserID identifies an acting user (case worker, reviewer).
type UserID uuid.UUID

// CaseID is the stable identifier of a case record.
type CaseID uuid.UUID

// AuditEntryID identifies one dedup audit entry.
type AuditEntryID uuid.UUID

func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id CaseID) String() string       { return uuid.UUID(id).String() }
func (id CaseID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id AuditEntryID) String() string { return uuid.UUID(id).String() }
func (id AuditEntryID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs serialize as plain UUID strings in JSON.
func (id CaseID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *CaseID) UnmarshalText(b []byte) error {
	parsed, err := ParseCaseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id UserID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id AuditEntryID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *AuditEntryID) UnmarshalText(b []byte) error {
	parsed, err := parseUUID(string(b), "audit entry id")
	if err != nil {
		return err
	}
	*id = AuditEntryID(parsed)
	return nil
}

func NewAuditEntryID() AuditEntryID { return AuditEntryID(uuid.New()) }

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

func ParseCaseID(s string) (CaseID, error) {
	u, err := parseUUID(s, "case id")
	return CaseID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is too long")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be nil")
	}
	return u, nil
}

// NationalID is a government-issued identifier in canonical form:
// trimmed, upper-cased, letters and digits only.
type NationalID string

const maxNationalIDLength = 32

// ParseNationalID canonicalizes and validates a national ID.
func ParseNationalID(s string) (NationalID, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "national id is required")
	}
	if len(v) > maxNationalIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "national id is too long")
	}
	for _, r := range v {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "national id must be alphanumeric")
		}
	}
	return NationalID(v), nil
}

func (n NationalID) String() string { return string(n) }
