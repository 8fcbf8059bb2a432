package clinician

import (
	"time"

	"github.com/google/uuid"
)

// Roles a staff member can hold. The practitioner role is "clinical"
// everywhere in the data model; older systems called it "therapist" but
// that rename is a display concern, not a data one.
const (
	RoleClinical  = "clinical"
	RoleAdmin     = "admin"
	RoleFrontDesk = "frontdesk"
)

var validRoles = map[string]bool{
	RoleClinical:  true,
	RoleAdmin:     true,
	RoleFrontDesk: true,
}

// Clinician maps to the clinicians table.
type Clinician struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	Role      string    `db:"role" json:"role"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
