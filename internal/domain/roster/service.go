// Package roster stores roster periods and nurse assignments and enforces
// the scheduling rules on every new assignment.
package roster

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wardroster/wardroster/internal/domain/facility"
	"github.com/wardroster/wardroster/internal/platform/apperr"
	"github.com/wardroster/wardroster/internal/platform/auth"
	"github.com/wardroster/wardroster/internal/platform/dates"
	"github.com/wardroster/wardroster/internal/platform/db"
	"github.com/wardroster/wardroster/internal/platform/metrics"
	"github.com/wardroster/wardroster/internal/platform/telemetry"
)

type Service struct {
	periods     PeriodRepository
	assignments AssignmentRepository
	validator   *Validator
	tx          db.TxRunner
	locks       *slotLocks
	loc         *time.Location
	logger      zerolog.Logger
}

func NewService(
	periods PeriodRepository,
	assignments AssignmentRepository,
	nurses NurseDirectory,
	refs References,
	tx db.TxRunner,
	logger zerolog.Logger,
) *Service {
	return &Service{
		periods:     periods,
		assignments: assignments,
		validator:   NewValidator(periods, assignments, nurses, refs),
		tx:          tx,
		locks:       newSlotLocks(),
		loc:         time.UTC,
		logger:      logger.With().Str("component", "roster").Logger(),
	}
}

// WithLocation sets the facility time zone used to turn instants into duty
// dates.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// -- Roster periods --

// CreatePeriod stores a new roster period authored by caller.
func (s *Service) CreatePeriod(ctx context.Context, caller auth.Identity, p *Period) error {
	if !caller.IsCoordinator() {
		return apperr.Forbidden("only a coordinator may create roster periods")
	}
	p.normalize()
	if err := p.validate(); err != nil {
		return err
	}
	p.CreatedBy = caller.NurseID
	if err := s.periods.Create(ctx, p); err != nil {
		return err
	}
	metrics.RecordPeriodCreated()
	s.logger.Info().Str("period_id", p.ID.String()).Str("name", p.Name).
		Str("start", dates.Format(p.StartDate)).Str("end", dates.Format(p.EndDate)).
		Msg("roster period created")
	return nil
}

func (s *Service) GetPeriod(ctx context.Context, id uuid.UUID) (*Period, error) {
	return s.periods.GetByID(ctx, id)
}

func (s *Service) ListPeriods(ctx context.Context, limit, offset int) ([]*Period, int, error) {
	return s.periods.List(ctx, limit, offset)
}

// -- Assignments --

// SubmitAssignment validates a and stores it, returning the new id. The
// check and the insert for one (nurse, date, shift) slot run under a
// per-slot lock and inside one transaction; the storage unique index catches
// writers in other processes.
func (s *Service) SubmitAssignment(ctx context.Context, caller auth.Identity, a *Assignment) (id uuid.UUID, err error) {
	ctx, span := telemetry.Tracer("roster").Start(ctx, "roster.SubmitAssignment")
	defer func() {
		outcome := "created"
		if err != nil {
			outcome = strings.ToLower(string(apperr.KindOf(err)))
			if outcome == "" {
				outcome = "error"
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.SetAttributes(attribute.String("roster.outcome", outcome))
		span.End()
		metrics.RecordAssignment(outcome)
	}()

	if !caller.IsCoordinator() {
		return uuid.Nil, apperr.Forbidden("only a coordinator may create roster assignments")
	}
	a.Date = dates.Normalize(a.Date)
	slot := a.Slot()

	unlock, err := s.locks.Lock(ctx, db.TenantFromContext(ctx)+"|"+slot.String())
	if err != nil {
		return uuid.Nil, apperr.Unavailable(err)
	}
	defer unlock()

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.validator.Validate(ctx, caller, a); err != nil {
			return err
		}
		return s.assignments.Create(ctx, a)
	})
	if err != nil {
		return uuid.Nil, s.describeConflict(ctx, slot, err)
	}

	s.logger.Info().Str("assignment_id", a.ID.String()).Str("slot", slot.String()).
		Str("caller", caller.NurseID.String()).Msg("assignment created")
	return a.ID, nil
}

// describeConflict fills in the colliding assignment when the conflict was
// raised by the storage index rather than by the validator.
func (s *Service) describeConflict(ctx context.Context, slot Slot, err error) error {
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind != apperr.KindSchedulingConflict {
		return err
	}
	s.logger.Warn().Str("slot", slot.String()).Msg("assignment rejected: slot already held")
	if e.Details["existing_assignment_id"] != "" {
		return err
	}
	existing, lookupErr := s.assignments.FindBySlot(ctx, slot)
	if lookupErr != nil || existing == nil {
		return err
	}
	return apperr.Conflict(e.Message, existing.ID.String())
}

func (s *Service) GetAssignment(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	return s.assignments.GetByID(ctx, id)
}

func (s *Service) ListAssignments(ctx context.Context, f AssignmentFilter) ([]*Assignment, error) {
	return s.assignments.List(ctx, f)
}

// AssignmentForDuty picks the assignment a nurse is working at instant at:
//
//   - before 07:00, a night shift that started the previous evening
//   - else an assignment on the day of at whose shift covers the hour
//   - else the earliest created assignment on that day
//
// It returns nil, nil when the nurse has no assignment on that day.
func (s *Service) AssignmentForDuty(ctx context.Context, nurseID uuid.UUID, at time.Time) (*Assignment, error) {
	local := at.In(s.loc)
	day := dates.Day(at, s.loc)
	hour := local.Hour()

	if hour < 7 {
		prev := day.AddDate(0, 0, -1)
		items, err := s.assignmentsOn(ctx, nurseID, prev)
		if err != nil {
			return nil, err
		}
		for _, a := range items {
			if a.ShiftCategory == facility.CategoryNight {
				return a, nil
			}
		}
	}

	items, err := s.assignmentsOn(ctx, nurseID, day)
	if err != nil {
		return nil, err
	}
	return pickDuty(items, facility.CategoryAt(hour)), nil
}

func (s *Service) assignmentsOn(ctx context.Context, nurseID uuid.UUID, day time.Time) ([]*Assignment, error) {
	return s.assignments.List(ctx, AssignmentFilter{NurseID: &nurseID, From: &day, To: &day})
}

func pickDuty(items []*Assignment, want facility.ShiftCategory) *Assignment {
	if len(items) == 0 {
		return nil
	}
	for _, a := range items {
		if a.ShiftCategory == want {
			return a
		}
	}
	sorted := make([]*Assignment, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})
	return sorted[0]
}
