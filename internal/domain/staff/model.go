package staff

import (
	"strings"

	"github.com/google/uuid"
)

// Nurse maps to the nurse table. Role is the job title ("cargo"); write
// privileges come from the caller's token roles, not from this column.
type Nurse struct {
	ID           uuid.UUID `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	PaternalName string    `db:"paternal_name" json:"paternal_name"`
	MaternalName string    `db:"maternal_name" json:"maternal_name,omitempty"`
	Role         string    `db:"role" json:"role"`
}

// FullName joins the non-empty name parts with single spaces.
func (n Nurse) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{n.FirstName, n.PaternalName, n.MaternalName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// IsCoordinator reports whether the directory lists the nurse as a
// coordinator.
func (n Nurse) IsCoordinator() bool {
	r := strings.ToLower(n.Role)
	return strings.Contains(r, "coordinator") || strings.Contains(r, "coordinador")
}
