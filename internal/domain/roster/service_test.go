package roster

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wardroster/wardroster/internal/domain/facility"
	"github.com/wardroster/wardroster/internal/domain/staff"
	"github.com/wardroster/wardroster/internal/platform/apperr"
	"github.com/wardroster/wardroster/internal/platform/auth"
	"github.com/wardroster/wardroster/internal/platform/dates"
)

// -- Mock Repositories --

type mockPeriodRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Period
	gets    int
}

func newMockPeriodRepo() *mockPeriodRepo {
	return &mockPeriodRepo{records: make(map[uuid.UUID]*Period)}
}

func (m *mockPeriodRepo) Create(_ context.Context, p *Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.records[p.ID] = p
	return nil
}

func (m *mockPeriodRepo) GetByID(_ context.Context, id uuid.UUID) (*Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	p, ok := m.records[id]
	if !ok {
		return nil, apperr.NotFound("roster_period", "")
	}
	return p, nil
}

func (m *mockPeriodRepo) List(_ context.Context, limit, offset int) ([]*Period, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Period
	for _, p := range m.records {
		out = append(out, p)
	}
	return out, len(out), nil
}

type mockAssignmentRepo struct {
	mu       sync.Mutex
	records  map[uuid.UUID]*Assignment
	shifts   map[uuid.UUID]string
	unique   bool
	findWait time.Duration
	hideNext int
	createFn func(*Assignment) error
}

func newMockAssignmentRepo(shifts map[uuid.UUID]string) *mockAssignmentRepo {
	return &mockAssignmentRepo{records: make(map[uuid.UUID]*Assignment), shifts: shifts, unique: true}
}

func (m *mockAssignmentRepo) Create(_ context.Context, a *Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createFn != nil {
		if err := m.createFn(a); err != nil {
			return err
		}
	}
	if m.unique {
		for _, r := range m.records {
			if r.Slot() == a.Slot() {
				return apperr.Conflict("nurse is already assigned to this shift on this date", "")
			}
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Date(2024, 1, 1, 0, 0, len(m.records), 0, time.UTC)
	a.ShiftName = m.shifts[a.ShiftID]
	a.ShiftCategory = facility.CategoryOf(a.ShiftName)
	cp := *a
	m.records[a.ID] = &cp
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.records[id]
	if !ok {
		return nil, apperr.NotFound("roster_assignment", id.String())
	}
	return a, nil
}

func (m *mockAssignmentRepo) FindBySlot(_ context.Context, slot Slot) (*Assignment, error) {
	if m.findWait > 0 {
		time.Sleep(m.findWait)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideNext > 0 {
		m.hideNext--
		return nil, nil
	}
	for _, r := range m.records {
		if r.Slot() == slot {
			return r, nil
		}
	}
	return nil, nil
}

func (m *mockAssignmentRepo) List(_ context.Context, f AssignmentFilter) ([]*Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Assignment
	for _, a := range m.records {
		if f.PeriodID != nil && a.PeriodID != *f.PeriodID {
			continue
		}
		if f.NurseID != nil && a.NurseID != *f.NurseID {
			continue
		}
		if f.From != nil && a.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && a.Date.After(*f.To) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *mockAssignmentRepo) count(slot Slot) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.records {
		if r.Slot() == slot {
			n++
		}
	}
	return n
}

type mockNurses struct{ ids map[uuid.UUID]bool }

func (m *mockNurses) GetByID(_ context.Context, id uuid.UUID) (*staff.Nurse, error) {
	if !m.ids[id] {
		return nil, apperr.NotFound("nurse", "")
	}
	return &staff.Nurse{ID: id}, nil
}

type mockRefs struct {
	shifts map[uuid.UUID]string
	areas  map[uuid.UUID]bool
	err    error
}

func (m *mockRefs) GetShift(_ context.Context, id uuid.UUID) (*facility.Shift, error) {
	if m.err != nil {
		return nil, m.err
	}
	name, ok := m.shifts[id]
	if !ok {
		return nil, apperr.NotFound("shift", "")
	}
	return &facility.Shift{ID: id, Name: name}, nil
}

func (m *mockRefs) GetArea(_ context.Context, id uuid.UUID) (*facility.Area, error) {
	if !m.areas[id] {
		return nil, apperr.NotFound("area", "")
	}
	return &facility.Area{ID: id}, nil
}

type mockTx struct {
	mu    sync.Mutex
	calls int
}

func (m *mockTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return fn(ctx)
}

// -- Fixture --

type fixture struct {
	svc         *Service
	periods     *mockPeriodRepo
	assignments *mockAssignmentRepo
	refs        *mockRefs
	tx          *mockTx

	coordinator auth.Identity
	nurse       auth.Identity
	nurseID     uuid.UUID
	morning     uuid.UUID
	afternoon   uuid.UUID
	night       uuid.UUID
	areaA       uuid.UUID
	areaB       uuid.UUID
	period      *Period
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		nurseID:   uuid.New(),
		morning:   uuid.New(),
		afternoon: uuid.New(),
		night:     uuid.New(),
		areaA:     uuid.New(),
		areaB:     uuid.New(),
	}
	shifts := map[uuid.UUID]string{f.morning: "Morning", f.afternoon: "Tarde", f.night: "Noche"}
	f.periods = newMockPeriodRepo()
	f.assignments = newMockAssignmentRepo(shifts)
	f.refs = &mockRefs{shifts: shifts, areas: map[uuid.UUID]bool{f.areaA: true, f.areaB: true}}
	f.tx = &mockTx{}
	coordID := uuid.New()
	nurses := &mockNurses{ids: map[uuid.UUID]bool{f.nurseID: true, coordID: true}}

	f.svc = NewService(f.periods, f.assignments, nurses, f.refs, f.tx, zerolog.Nop())
	f.coordinator = auth.Identity{NurseID: coordID, Roles: []string{auth.RoleCoordinator}}
	f.nurse = auth.Identity{NurseID: f.nurseID, Roles: []string{auth.RoleNurse}}

	f.period = &Period{Name: "Marzo", StartDate: dates.Of(2024, time.March, 1), EndDate: dates.Of(2024, time.March, 31)}
	if err := f.svc.CreatePeriod(context.Background(), f.coordinator, f.period); err != nil {
		t.Fatalf("create period: %v", err)
	}
	return f
}

func (f *fixture) assignment(day int, shift, area uuid.UUID) *Assignment {
	return &Assignment{
		PeriodID: f.period.ID,
		NurseID:  f.nurseID,
		ShiftID:  shift,
		AreaID:   area,
		Date:     dates.Of(2024, time.March, day),
	}
}

// -- Periods --

func TestCreatePeriod_SetsCreator(t *testing.T) {
	f := newFixture(t)
	if f.period.CreatedBy != f.coordinator.NurseID {
		t.Errorf("expected creator %s, got %s", f.coordinator.NurseID, f.period.CreatedBy)
	}
	if f.period.ID == uuid.Nil {
		t.Error("expected id to be assigned")
	}
}

func TestCreatePeriod_Validation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		p    Period
	}{
		{"missing name", Period{Name: "  ", StartDate: dates.Of(2024, 4, 1), EndDate: dates.Of(2024, 4, 30)}},
		{"missing dates", Period{Name: "Abril"}},
		{"end before start", Period{Name: "Abril", StartDate: dates.Of(2024, 4, 30), EndDate: dates.Of(2024, 4, 1)}},
	}
	for _, tt := range tests {
		p := tt.p
		err := f.svc.CreatePeriod(context.Background(), f.coordinator, &p)
		if !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("%s: expected invalid, got %v", tt.name, err)
		}
	}
}

func TestCreatePeriod_SingleDay(t *testing.T) {
	f := newFixture(t)
	p := &Period{Name: "Feriado", StartDate: dates.Of(2024, 5, 1), EndDate: dates.Of(2024, 5, 1)}
	if err := f.svc.CreatePeriod(context.Background(), f.coordinator, p); err != nil {
		t.Fatalf("expected single-day period to be accepted: %v", err)
	}
}

func TestCreatePeriod_RequiresCoordinator(t *testing.T) {
	f := newFixture(t)
	p := &Period{Name: "Abril", StartDate: dates.Of(2024, 4, 1), EndDate: dates.Of(2024, 4, 30)}
	err := f.svc.CreatePeriod(context.Background(), f.nurse, p)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(f.periods.records) != 1 {
		t.Errorf("expected no new period, have %d", len(f.periods.records))
	}
}

// -- Assignments --

func TestSubmitAssignment_Success(t *testing.T) {
	f := newFixture(t)
	id, err := f.svc.SubmitAssignment(context.Background(), f.coordinator, f.assignment(1, f.morning, f.areaA))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("expected an id")
	}
	got, err := f.svc.GetAssignment(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !dates.SameDay(got.Date, dates.Of(2024, time.March, 1)) {
		t.Errorf("unexpected date %v", got.Date)
	}
	if f.tx.calls != 1 {
		t.Errorf("expected one transaction, got %d", f.tx.calls)
	}
}

func TestSubmitAssignment_ConflictSameSlotDifferentArea(t *testing.T) {
	f := newFixture(t)
	first, err := f.svc.SubmitAssignment(context.Background(), f.coordinator, f.assignment(1, f.morning, f.areaA))
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	second := f.assignment(1, f.morning, f.areaB)
	_, err = f.svc.SubmitAssignment(context.Background(), f.coordinator, second)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected scheduling conflict, got %v", err)
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Details["existing_assignment_id"] != first.String() {
		t.Errorf("expected conflict to name %s, got %+v", first, ae)
	}
	if n := f.assignments.count(second.Slot()); n != 1 {
		t.Errorf("expected exactly one row for the slot, got %d", n)
	}
}

func TestSubmitAssignment_OtherShiftSameDayAllowed(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.SubmitAssignment(context.Background(), f.coordinator, f.assignment(1, f.morning, f.areaA)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.SubmitAssignment(context.Background(), f.coordinator, f.assignment(1, f.night, f.areaA)); err != nil {
		t.Errorf("expected a second shift on the same day to be accepted: %v", err)
	}
}

func TestSubmitAssignment_PermissionDenied(t *testing.T) {
	f := newFixture(t)
	getsBefore := f.periods.gets

	_, err := f.svc.SubmitAssignment(context.Background(), f.nurse, f.assignment(1, f.morning, f.areaA))
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if len(f.assignments.records) != 0 {
		t.Errorf("expected no rows, got %d", len(f.assignments.records))
	}
	if f.periods.gets != getsBefore || f.tx.calls != 0 {
		t.Error("expected no rule to run for a non-coordinator")
	}
}

func TestSubmitAssignment_AdminIsNotCoordinator(t *testing.T) {
	f := newFixture(t)
	admin := auth.Identity{NurseID: uuid.New(), Roles: []string{auth.RoleAdmin}}
	_, err := f.svc.SubmitAssignment(context.Background(), admin, f.assignment(1, f.morning, f.areaA))
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestSubmitAssignment_OutOfRange(t *testing.T) {
	f := newFixture(t)
	a := f.assignment(1, f.morning, f.areaA)
	a.Date = dates.Of(2024, time.April, 1)
	_, err := f.svc.SubmitAssignment(context.Background(), f.coordinator, a)
	if !errors.Is(err, apperr.ErrOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}

	for _, d := range []time.Time{f.period.StartDate, f.period.EndDate} {
		a := f.assignment(1, f.morning, f.areaA)
		a.Date = d
		if _, err := f.svc.SubmitAssignment(context.Background(), f.coordinator, a); err != nil {
			t.Errorf("expected boundary date %s to be accepted: %v", dates.Format(d), err)
		}
	}
}

func TestSubmitAssignment_MissingReferences(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(f *fixture, a *Assignment)
		resource string
	}{
		{"period", func(f *fixture, a *Assignment) { a.PeriodID = uuid.New() }, "roster_period"},
		{"nurse", func(f *fixture, a *Assignment) { a.NurseID = uuid.New() }, "nurse"},
		{"shift", func(f *fixture, a *Assignment) { a.ShiftID = uuid.New() }, "shift"},
		{"area", func(f *fixture, a *Assignment) { a.AreaID = uuid.New() }, "area"},
		{"zero area", func(f *fixture, a *Assignment) { a.AreaID = uuid.Nil }, "area"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			a := f.assignment(2, f.morning, f.areaA)
			tt.mutate(f, a)
			_, err := f.svc.SubmitAssignment(context.Background(), f.coordinator, a)
			if !errors.Is(err, apperr.ErrNotFound) {
				t.Fatalf("expected reference not found, got %v", err)
			}
			var ae *apperr.Error
			errors.As(err, &ae)
			if ae.Details["resource"] != tt.resource {
				t.Errorf("expected resource %s, got %s", tt.resource, ae.Details["resource"])
			}
		})
	}
}

func TestSubmitAssignment_ReferenceCheckedBeforeRange(t *testing.T) {
	f := newFixture(t)
	a := f.assignment(1, f.morning, uuid.New())
	a.Date = dates.Of(2025, time.January, 1)
	_, err := f.svc.SubmitAssignment(context.Background(), f.coordinator, a)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected reference error first, got %v", err)
	}
}

func TestSubmitAssignment_StorageFaultIsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.refs.err = apperr.Unavailable(context.DeadlineExceeded)
	_, err := f.svc.SubmitAssignment(context.Background(), f.coordinator, f.assignment(1, f.morning, f.areaA))
	if !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestSubmitAssignment_StorageConflictNamesExisting(t *testing.T) {
	f := newFixture(t)
	first, err := f.svc.SubmitAssignment(context.Background(), f.coordinator, f.assignment(3, f.morning, f.areaA))
	if err != nil {
		t.Fatal(err)
	}
	// Another process won the race: the validator sees a free slot and the
	// unique index rejects the insert.
	f.assignments.hideNext = 1
	_, err = f.svc.SubmitAssignment(context.Background(), f.coordinator, f.assignment(3, f.morning, f.areaB))
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.KindSchedulingConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if ae.Details["existing_assignment_id"] != first.String() {
		t.Errorf("expected existing id %s, got %v", first, ae.Details)
	}
}

func TestSubmitAssignment_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)
	// Without the per-slot lock every goroutine would pass the check.
	f.assignments.unique = false
	f.assignments.findWait = 5 * time.Millisecond

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			area := f.areaA
			if i%2 == 1 {
				area = f.areaB
			}
			_, err := f.svc.SubmitAssignment(context.Background(), f.coordinator, f.assignment(5, f.morning, area))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, apperr.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if created != 1 || conflicts != workers-1 {
		t.Errorf("expected 1 created and %d conflicts, got %d and %d", workers-1, created, conflicts)
	}
	if n := f.assignments.count(f.assignment(5, f.morning, f.areaA).Slot()); n != 1 {
		t.Errorf("expected one stored row, got %d", n)
	}
	if f.svc.locks.size() != 0 {
		t.Errorf("expected slot locks to be released, %d left", f.svc.locks.size())
	}
}

func TestSubmitAssignment_CancelledWhileWaiting(t *testing.T) {
	f := newFixture(t)
	a := f.assignment(6, f.morning, f.areaA)
	unlock, err := f.svc.locks.Lock(context.Background(), "|"+a.Slot().String())
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.svc.SubmitAssignment(ctx, f.coordinator, a)
	if !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("expected unavailable after giving up on the lock, got %v", err)
	}
	if len(f.assignments.records) != 0 {
		t.Error("expected nothing written")
	}
}

func TestListAssignments_FilterByPeriod(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.SubmitAssignment(context.Background(), f.coordinator, f.assignment(1, f.morning, f.areaA)); err != nil {
		t.Fatal(err)
	}
	other := uuid.New()
	items, err := f.svc.ListAssignments(context.Background(), AssignmentFilter{PeriodID: &other})
	if err != nil || len(items) != 0 {
		t.Errorf("expected no assignments for another period, got %d (%v)", len(items), err)
	}
	items, err = f.svc.ListAssignments(context.Background(), AssignmentFilter{PeriodID: &f.period.ID})
	if err != nil || len(items) != 1 {
		t.Errorf("expected 1 assignment, got %d (%v)", len(items), err)
	}
}

// -- Duty selection --

func TestAssignmentForDuty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	morning, _ := f.svc.SubmitAssignment(ctx, f.coordinator, f.assignment(10, f.morning, f.areaA))
	night, _ := f.svc.SubmitAssignment(ctx, f.coordinator, f.assignment(10, f.night, f.areaB))
	prevNight, _ := f.svc.SubmitAssignment(ctx, f.coordinator, f.assignment(9, f.night, f.areaA))

	tests := []struct {
		name string
		at   time.Time
		want uuid.UUID
	}{
		{"morning hour matches morning shift", time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC), morning},
		{"late evening matches night shift", time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC), night},
		{"early hours belong to previous night", time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC), prevNight},
		{"no category match falls back to earliest", time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC), morning},
	}
	for _, tt := range tests {
		got, err := f.svc.AssignmentForDuty(ctx, f.nurseID, tt.at)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got == nil || got.ID != tt.want {
			t.Errorf("%s: expected %s, got %+v", tt.name, tt.want, got)
		}
	}

	none, err := f.svc.AssignmentForDuty(ctx, f.nurseID, time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC))
	if err != nil || none != nil {
		t.Errorf("expected no assignment, got %+v (%v)", none, err)
	}
}

func TestAssignmentForDuty_UsesFacilityZone(t *testing.T) {
	f := newFixture(t)
	f.svc.WithLocation(time.FixedZone("UTC-6", -6*3600))
	ctx := context.Background()
	id, _ := f.svc.SubmitAssignment(ctx, f.coordinator, f.assignment(11, f.afternoon, f.areaA))

	// 01:00 UTC on the 12th is 19:00 on the 11th locally.
	got, err := f.svc.AssignmentForDuty(ctx, f.nurseID, time.Date(2024, 3, 12, 1, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != id {
		t.Errorf("expected afternoon assignment on the 11th, got %+v", got)
	}
}

func TestPeriod_Contains(t *testing.T) {
	p := Period{StartDate: dates.Of(2024, 3, 1), EndDate: dates.Of(2024, 3, 31)}
	if !p.Contains(time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)) {
		t.Error("expected last day to be inside")
	}
	if p.Contains(dates.Of(2024, 2, 29)) {
		t.Error("expected day before start to be outside")
	}
}
