package roster

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wardroster/wardroster/internal/domain/facility"
	"github.com/wardroster/wardroster/internal/platform/apperr"
	"github.com/wardroster/wardroster/internal/platform/dates"
)

// Period maps to the roster_period table. It is created once by a
// coordinator and never changed afterwards.
type Period struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	CreatedBy uuid.UUID `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Contains reports whether d falls within [StartDate, EndDate], both
// inclusive, comparing calendar dates only.
func (p Period) Contains(d time.Time) bool {
	d = dates.Normalize(d)
	return !d.Before(dates.Normalize(p.StartDate)) && !d.After(dates.Normalize(p.EndDate))
}

func (p *Period) normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.StartDate = dates.Normalize(p.StartDate)
	p.EndDate = dates.Normalize(p.EndDate)
}

func (p Period) validate() error {
	if p.Name == "" {
		return apperr.Invalid("name is required")
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return apperr.Invalid("start_date and end_date are required")
	}
	if p.EndDate.Before(p.StartDate) {
		return apperr.Invalid("end_date must not be before start_date")
	}
	return nil
}

// Assignment maps to the roster_assignment table: one nurse on one shift in
// one area on one date. The name fields are filled by list queries for
// display and are ignored on insert.
type Assignment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PeriodID  uuid.UUID `db:"period_id" json:"period_id"`
	NurseID   uuid.UUID `db:"nurse_id" json:"nurse_id"`
	ShiftID   uuid.UUID `db:"shift_id" json:"shift_id"`
	AreaID    uuid.UUID `db:"area_id" json:"area_id"`
	Date      time.Time `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	NurseName     string                 `json:"nurse_name,omitempty"`
	ShiftName     string                 `json:"shift_name,omitempty"`
	ShiftCategory facility.ShiftCategory `json:"shift_category,omitempty"`
	AreaName      string                 `json:"area_name,omitempty"`
}

// Slot identifies the (nurse, date, shift) tuple that may be held by at most
// one assignment.
type Slot struct {
	NurseID uuid.UUID
	Date    time.Time
	ShiftID uuid.UUID
}

func (a Assignment) Slot() Slot {
	return Slot{NurseID: a.NurseID, Date: dates.Normalize(a.Date), ShiftID: a.ShiftID}
}

func (s Slot) String() string {
	return s.NurseID.String() + "/" + dates.Format(s.Date) + "/" + s.ShiftID.String()
}

// AssignmentFilter narrows List. Nil fields do not filter; From and To are
// inclusive dates.
type AssignmentFilter struct {
	PeriodID *uuid.UUID
	NurseID  *uuid.UUID
	From     *time.Time
	To       *time.Time
}
