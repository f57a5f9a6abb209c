package auth

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// UserRef is a user identifier received at an external boundary (JWT
// claim, request payload). Identifiers from the pre-migration datastore
// are 24 hex characters; canonical identifiers are UUIDs. Both are
// normalized here so business logic only ever sees canonical UUIDs:
// legacy ids map deterministically into the UUID space by zero-padding.
type UserRef struct {
	ID     uuid.UUID
	Legacy bool
}

var legacyHexPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// ParseUserRef parses a canonical UUID or a legacy 24-hex identifier.
func ParseUserRef(raw string) (UserRef, error) {
	raw = strings.TrimSpace(raw)
	if id, err := uuid.Parse(raw); err == nil {
		return UserRef{ID: id}, nil
	}
	if legacyHexPattern.MatchString(raw) {
		id, err := uuid.Parse("00000000" + strings.ToLower(raw))
		if err != nil {
			return UserRef{}, fmt.Errorf("normalize legacy id %q: %w", raw, err)
		}
		return UserRef{ID: id, Legacy: true}, nil
	}
	return UserRef{}, fmt.Errorf("invalid user identifier %q", raw)
}
