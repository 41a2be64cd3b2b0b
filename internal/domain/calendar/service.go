package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wardroster/wardroster/internal/domain/roster"
	"github.com/wardroster/wardroster/internal/platform/apperr"
	"github.com/wardroster/wardroster/internal/platform/telemetry"
)

// AssignmentSource lists stored assignments; roster.Service satisfies it.
type AssignmentSource interface {
	ListAssignments(ctx context.Context, f roster.AssignmentFilter) ([]*roster.Assignment, error)
}

type Service struct {
	source AssignmentSource
}

func NewService(source AssignmentSource) *Service {
	return &Service{source: source}
}

// Month loads the assignments dated within year/month, optionally limited to
// one roster period, and lays them out on the grid.
func (s *Service) Month(ctx context.Context, year int, month time.Month, periodID *uuid.UUID) (Month, error) {
	ctx, span := telemetry.Tracer("calendar").Start(ctx, "calendar.Month")
	defer span.End()

	if month < time.January || month > time.December {
		return Month{}, apperr.Invalid("month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return Month{}, apperr.Invalid("year out of range")
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, month, DaysIn(year, month), 0, 0, 0, 0, time.UTC)
	items, err := s.source.ListAssignments(ctx, roster.AssignmentFilter{PeriodID: periodID, From: &first, To: &last})
	if err != nil {
		return Month{}, err
	}
	return BuildMonth(year, month, items), nil
}
