package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. Age is derived from BirthDate and is
// never stored.
type Patient struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	FirstName    string     `db:"first_name" json:"first_name"`
	PaternalName string     `db:"paternal_name" json:"paternal_name"`
	MaternalName string     `db:"maternal_name" json:"maternal_name,omitempty"`
	BirthDate    *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Sex          string     `db:"sex" json:"sex,omitempty"`
	WeightKg     *float64   `db:"weight_kg" json:"weight_kg,omitempty"`
	HeightCm     *float64   `db:"height_cm" json:"height_cm,omitempty"`
	ExternalID   string     `db:"external_id" json:"external_id,omitempty"`
}

// FullName is "first paternal maternal", the string the name filter matches.
func (p Patient) FullName() string {
	return strings.Join([]string{p.FirstName, p.PaternalName, p.MaternalName}, " ")
}

// MatchesName reports whether filter is a case-insensitive substring of the
// full name. An empty filter matches every patient.
func (p Patient) MatchesName(filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.FullName()), strings.ToLower(filter))
}

// AgeAt returns completed years at now. The birthday counts from its
// anniversary date; a 29 February birthday is reached on 1 March in
// non-leap years. ok is false without a birth date.
func (p Patient) AgeAt(now time.Time) (age int, ok bool) {
	if p.BirthDate == nil {
		return 0, false
	}
	return Age(*p.BirthDate, now), true
}

// Age computes completed years between birth and now, compared as calendar
// dates.
func Age(birth, now time.Time) int {
	by, bm, bd := birth.Date()
	ny, nm, nd := now.Date()
	age := ny - by
	if nm < bm || (nm == bm && nd < bd) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// View is a patient with its derived age, as listed on the ward screens.
type View struct {
	Patient
	Age *int `json:"age,omitempty"`
}

// NewView derives the age at now.
func NewView(p Patient, now time.Time) View {
	v := View{Patient: p}
	if age, ok := p.AgeAt(now); ok {
		v.Age = &age
	}
	return v
}
