// Package nursing records nursing notes. Every note owns one vital signs
// snapshot and the two are stored as a single unit.
package nursing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wardroster/wardroster/internal/domain/patient"
	"github.com/wardroster/wardroster/internal/platform/apperr"
	"github.com/wardroster/wardroster/internal/platform/auth"
	"github.com/wardroster/wardroster/internal/platform/db"
	"github.com/wardroster/wardroster/internal/platform/metrics"
	"github.com/wardroster/wardroster/internal/platform/telemetry"
)

const (
	DefaultPatientRecords = 5
	DefaultRecentRecords  = 50
	maxRecords            = 200

	compensationTimeout = 5 * time.Second
)

type Service struct {
	vitals   VitalSignsRepository
	records  RecordRepository
	patients PatientLookup
	duty     DutyResolver
	tx       db.TxRunner
	fallback *uuid.UUID
	now      func() time.Time
	logger   zerolog.Logger
}

func NewService(
	vitals VitalSignsRepository,
	records RecordRepository,
	patients PatientLookup,
	duty DutyResolver,
	tx db.TxRunner,
	logger zerolog.Logger,
) *Service {
	return &Service{
		vitals:   vitals,
		records:  records,
		patients: patients,
		duty:     duty,
		tx:       tx,
		now:      time.Now,
		logger:   logger.With().Str("component", "nursing").Logger(),
	}
}

// WithFallbackAssignment sets the assignment used when the author has no
// duty assignment. Records stored that way are flagged. Nil disables the
// fallback and such requests fail.
func (s *Service) WithFallbackAssignment(id *uuid.UUID) *Service {
	s.fallback = id
	return s
}

// CreateRecord stores a vital signs snapshot and the nursing record that
// owns it. Either both rows are stored or neither is: the writes share one
// transaction, and if anything fails after the snapshot was written the
// snapshot is also deleted explicitly, on a context the caller cannot
// cancel. Such failures are reported as one PartialWriteFailure.
func (s *Service) CreateRecord(ctx context.Context, caller auth.Identity, req CreateRequest) (_ *CreateResult, err error) {
	ctx, span := telemetry.Tracer("nursing").Start(ctx, "nursing.CreateRecord")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(apperr.KindOf(err)))
		}
		span.End()
	}()

	if caller.NurseID == uuid.Nil {
		return nil, apperr.Forbidden("a nurse identity is required to write nursing records")
	}
	if err := req.Readings.validate(); err != nil {
		return nil, err
	}
	if err := s.requirePatient(ctx, req.PatientID); err != nil {
		return nil, err
	}

	now := s.now()
	assignmentID, fallback, err := s.resolveAssignment(ctx, caller.NurseID, now)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("nursing.assignment_fallback", fallback))

	measuredAt := now
	if req.MeasuredAt != nil && !req.MeasuredAt.IsZero() {
		measuredAt = *req.MeasuredAt
	}
	rec := &Record{
		PatientID:          req.PatientID,
		AssignmentID:       assignmentID,
		AssignmentFallback: fallback,
		AuthorID:           caller.NurseID,
		RecordedAt:         now,
		Observation:        strings.TrimSpace(req.Observation),
		Signed:             req.Signed,
	}
	if req.Signed {
		rec.SignedAt = &now
	}

	var vitalsID uuid.UUID
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		v := &VitalSigns{Readings: req.Readings, MeasuredAt: measuredAt}
		if err := s.vitals.Create(ctx, v); err != nil {
			return err
		}
		vitalsID = v.ID

		rec.VitalSignsID = v.ID
		if err := s.records.Create(ctx, rec); err != nil {
			return err
		}
		rec.VitalSigns = v
		return nil
	})
	if err != nil {
		if vitalsID == uuid.Nil {
			return nil, err
		}
		s.compensate(ctx, vitalsID, err)
		return nil, apperr.PartialWrite("nursing record could not be stored; its vital signs were discarded", err)
	}

	metrics.RecordNursingRecord(fallback)
	if rec.Signed {
		metrics.RecordSigned()
	}
	s.logger.Info().
		Str("record_id", rec.ID.String()).
		Str("patient_id", rec.PatientID.String()).
		Str("assignment_id", rec.AssignmentID.String()).
		Bool("assignment_fallback", fallback).
		Msg("nursing record created")
	return &CreateResult{Record: rec, AssignmentFallback: fallback}, nil
}

// compensate removes a vital signs row whose record was not stored. With a
// transactional store the rollback already did so and the delete matches
// nothing.
func (s *Service) compensate(ctx context.Context, vitalsID uuid.UUID, cause error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	err := s.vitals.Delete(cctx, vitalsID)
	metrics.RecordCompensation(err == nil)
	if err != nil {
		s.logger.Error().Err(err).AnErr("cause", cause).
			Str("vital_signs_id", vitalsID.String()).
			Msg("compensating delete of vital signs failed")
		return
	}
	s.logger.Warn().AnErr("cause", cause).
		Str("vital_signs_id", vitalsID.String()).
		Msg("nursing record failed; vital signs discarded")
}

func (s *Service) resolveAssignment(ctx context.Context, nurseID uuid.UUID, at time.Time) (uuid.UUID, bool, error) {
	a, err := s.duty.AssignmentForDuty(ctx, nurseID, at)
	if err != nil {
		return uuid.Nil, false, err
	}
	if a != nil {
		return a.ID, false, nil
	}
	if s.fallback != nil {
		s.logger.Warn().Str("nurse_id", nurseID.String()).
			Str("fallback_assignment_id", s.fallback.String()).
			Msg("no duty assignment for nurse; using fallback assignment")
		return *s.fallback, true, nil
	}
	e := apperr.NotFound("roster_assignment", "")
	e.Message = "nurse has no roster assignment for the current duty"
	e.Details["nurse_id"] = nurseID.String()
	return uuid.Nil, false, e
}

func (s *Service) requirePatient(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return apperr.NotFound("patient", "")
	}
	if _, err := s.patients.GetByID(ctx, id); err != nil {
		if apperr.KindOf(err) == apperr.KindReferenceNotFound {
			return apperr.NotFound("patient", id.String())
		}
		return err
	}
	return nil
}

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.records.GetByID(ctx, id)
}

// ListByPatient returns the latest records of a patient, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Record, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.records.ListByPatient(ctx, patientID, clampLimit(limit, DefaultPatientRecords))
}

// ListRecent returns the latest records across all patients, newest first.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	return s.records.ListRecent(ctx, clampLimit(limit, DefaultRecentRecords))
}

// PatientChart returns the patient with its derived age and latest records.
func (s *Service) PatientChart(ctx context.Context, patientID uuid.UUID, limit int) (*Chart, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindReferenceNotFound {
			return nil, apperr.NotFound("patient", patientID.String())
		}
		return nil, err
	}
	records, err := s.records.ListByPatient(ctx, patientID, clampLimit(limit, DefaultPatientRecords))
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*Record{}
	}
	return &Chart{Patient: patient.NewView(*p, s.now()), Records: records}, nil
}

// UpdateRecord changes the observation and readings of an unsigned record.
func (s *Service) UpdateRecord(ctx context.Context, caller auth.Identity, id uuid.UUID, req UpdateRequest) (*Record, error) {
	if _, err := s.editable(ctx, caller, id); err != nil {
		return nil, err
	}
	if req.Readings != nil {
		if err := req.Readings.validate(); err != nil {
			return nil, err
		}
	}

	// The repository writes re-check the signed flag, so a record signed
	// after editable ran is left untouched.
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if req.Observation != nil {
			if err := s.records.UpdateObservation(ctx, id, strings.TrimSpace(*req.Observation)); err != nil {
				return err
			}
		}
		if req.Readings != nil {
			if err := s.records.UpdateReadings(ctx, id, *req.Readings); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.records.GetByID(ctx, id)
}

// SignRecord marks a record as signed. Signed records can no longer change.
func (s *Service) SignRecord(ctx context.Context, caller auth.Identity, id uuid.UUID) (*Record, error) {
	if _, err := s.editable(ctx, caller, id); err != nil {
		return nil, err
	}
	if err := s.records.Sign(ctx, id, s.now()); err != nil {
		return nil, err
	}
	metrics.RecordSigned()
	s.logger.Info().Str("record_id", id.String()).Str("signed_by", caller.NurseID.String()).Msg("nursing record signed")
	return s.records.GetByID(ctx, id)
}

// editable loads a record the caller may still change: unsigned, and written
// by the caller unless the caller is a coordinator.
func (s *Service) editable(ctx context.Context, caller auth.Identity, id uuid.UUID) (*Record, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("nursing_record", id.String())
		}
		return nil, err
	}
	if rec.Signed {
		return nil, apperr.Signed(id.String())
	}
	if rec.AuthorID != caller.NurseID && !caller.IsCoordinator() {
		return nil, apperr.Forbidden("only the author or a coordinator may change a nursing record")
	}
	return rec, nil
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxRecords {
		return maxRecords
	}
	return limit
}
