// Package reference normalizes cross-entity references. Legacy data mixed
// bare uuid strings, "Type/uuid" strings and denormalized patient names;
// everything funnels through one parse step so the string and structured
// forms of the same identifier are always treated as equal.
package reference

import (
	"strings"

	"github.com/google/uuid"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/apperror"
)

// Ref is the canonical form of a cross-entity reference.
type Ref struct {
	Type string
	ID   uuid.UUID
}

func (r Ref) String() string {
	return r.Type + "/" + r.ID.String()
}

// NewRef builds a structured reference.
func NewRef(resourceType string, id uuid.UUID) Ref {
	return Ref{Type: resourceType, ID: id}
}

// Parse normalizes a raw reference value into a Ref of the expected type.
// Accepted forms: "<Type>/<uuid>" and a bare "<uuid>". Anything else,
// including a denormalized name string from legacy records, fails with
// ReferenceNotFound; name matching is never a lookup path.
func Parse(raw, expectedType string) (Ref, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Ref{}, apperror.Validation("reference", "reference is empty")
	}

	if idx := strings.IndexByte(raw, '/'); idx >= 0 {
		typ, idPart := raw[:idx], raw[idx+1:]
		if typ != expectedType {
			return Ref{}, apperror.Validation("reference",
				"reference type "+typ+" does not match expected "+expectedType)
		}
		raw = idPart
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return Ref{}, apperror.ReferenceNotFound(expectedType,
			"reference "+raw+" is not a valid "+expectedType+" identifier")
	}
	return Ref{Type: expectedType, ID: id}, nil
}
