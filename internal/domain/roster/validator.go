package roster

import (
	"context"

	"github.com/google/uuid"

	"github.com/wardroster/wardroster/internal/platform/apperr"
	"github.com/wardroster/wardroster/internal/platform/auth"
	"github.com/wardroster/wardroster/internal/platform/dates"
)

// Validator decides whether a candidate assignment may be stored. Rules run
// in a fixed order and the first failure is returned:
//
//  1. the caller must be a coordinator (no other rule runs otherwise)
//  2. period, nurse, shift and area must exist
//  3. the date must fall within the period
//  4. the (nurse, date, shift) slot must be free
type Validator struct {
	periods     PeriodRepository
	assignments AssignmentRepository
	nurses      NurseDirectory
	refs        References
}

func NewValidator(periods PeriodRepository, assignments AssignmentRepository, nurses NurseDirectory, refs References) *Validator {
	return &Validator{periods: periods, assignments: assignments, nurses: nurses, refs: refs}
}

func (v *Validator) Validate(ctx context.Context, caller auth.Identity, a *Assignment) error {
	if !caller.IsCoordinator() {
		return apperr.Forbidden("only a coordinator may create roster assignments")
	}
	if a.Date.IsZero() {
		return apperr.Invalid("date is required")
	}

	period, err := v.resolvePeriod(ctx, a.PeriodID)
	if err != nil {
		return err
	}
	if err := v.resolveRefs(ctx, a); err != nil {
		return err
	}

	if !period.Contains(a.Date) {
		return apperr.OutOfRange(dates.Format(a.Date), dates.Format(period.StartDate), dates.Format(period.EndDate))
	}

	existing, err := v.assignments.FindBySlot(ctx, a.Slot())
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Conflict("nurse is already assigned to this shift on this date", existing.ID.String())
	}
	return nil
}

func (v *Validator) resolvePeriod(ctx context.Context, id uuid.UUID) (*Period, error) {
	if id == uuid.Nil {
		return nil, apperr.NotFound("roster_period", "")
	}
	p, err := v.periods.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "roster_period", id)
	}
	return p, nil
}

func (v *Validator) resolveRefs(ctx context.Context, a *Assignment) error {
	checks := []struct {
		resource string
		id       uuid.UUID
		lookup   func(context.Context, uuid.UUID) error
	}{
		{"nurse", a.NurseID, func(ctx context.Context, id uuid.UUID) error {
			_, err := v.nurses.GetByID(ctx, id)
			return err
		}},
		{"shift", a.ShiftID, func(ctx context.Context, id uuid.UUID) error {
			_, err := v.refs.GetShift(ctx, id)
			return err
		}},
		{"area", a.AreaID, func(ctx context.Context, id uuid.UUID) error {
			_, err := v.refs.GetArea(ctx, id)
			return err
		}},
	}
	for _, c := range checks {
		if c.id == uuid.Nil {
			return apperr.NotFound(c.resource, "")
		}
		if err := c.lookup(ctx, c.id); err != nil {
			return notFoundAs(err, c.resource, c.id)
		}
	}
	return nil
}

// notFoundAs names the missing reference; other failures pass through.
func notFoundAs(err error, resource string, id uuid.UUID) error {
	if apperr.KindOf(err) == apperr.KindReferenceNotFound {
		return apperr.NotFound(resource, id.String())
	}
	return err
}
