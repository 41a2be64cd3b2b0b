// Package ward resolves bed occupancy: which patient lies in which bed of
// which room on a floor.
package ward

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/wardroster/wardroster/internal/domain/facility"
	"github.com/wardroster/wardroster/internal/domain/patient"
	"github.com/wardroster/wardroster/internal/platform/cache"
	"github.com/wardroster/wardroster/internal/platform/db"
	"github.com/wardroster/wardroster/internal/platform/metrics"
	"github.com/wardroster/wardroster/internal/platform/telemetry"
)

// loadTimeout bounds a shared ward map load, which outlives the caller that
// started it.
const loadTimeout = 10 * time.Second

// FloorLister is the slice of the reference data the ward screens need.
type FloorLister interface {
	ListFloors(ctx context.Context) ([]*facility.Floor, error)
}

type Service struct {
	repo     Repository
	floors   FloorLister
	patients patient.Repository
	logger   zerolog.Logger
	now      func() time.Time

	kv    cache.KV
	ttl   time.Duration
	group singleflight.Group
}

func NewService(repo Repository, floors FloorLister, patients patient.Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		floors:   floors,
		patients: patients,
		logger:   logger.With().Str("component", "ward").Logger(),
		now:      time.Now,
	}
}

// WithCache enables the read-through ward map cache. A zero ttl disables it.
func (s *Service) WithCache(kv cache.KV, ttl time.Duration) *Service {
	if ttl > 0 {
		s.kv = kv
		s.ttl = ttl
	}
	return s
}

func cacheKey(ctx context.Context, floorID uuid.UUID) string {
	tenant := db.TenantFromContext(ctx)
	if tenant == "" {
		tenant = "-"
	}
	return "wardmap:" + tenant + ":" + floorID.String()
}

// WardMap returns the beds of a floor ordered by room then bed number, each
// with its room and current patient. The zero floor id (no selection) and
// unknown floors give an empty map. The result belongs to the caller.
func (s *Service) WardMap(ctx context.Context, floorID uuid.UUID) ([]BedOccupancy, error) {
	ctx, span := telemetry.Tracer("ward").Start(ctx, "ward.WardMap")
	defer span.End()

	if floorID == uuid.Nil {
		return []BedOccupancy{}, nil
	}
	if s.kv == nil {
		return s.load(ctx, floorID)
	}

	key := cacheKey(ctx, floorID)
	if items, ok := s.cached(ctx, key); ok {
		return items, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		// Callers collapsed onto this load must not fail because the first
		// one went away.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		items, err := s.load(ctx, floorID)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(items); err == nil {
			if err := s.kv.Set(ctx, key, string(raw), s.ttl); err != nil {
				s.logger.Warn().Err(err).Str("key", key).Msg("ward map cache write failed")
			}
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneAll(v.([]BedOccupancy)), nil
}

func (s *Service) cached(ctx context.Context, key string) ([]BedOccupancy, bool) {
	raw, err := s.kv.Get(ctx, key)
	switch {
	case errors.Is(err, cache.ErrMiss):
		metrics.RecordCacheLookup("miss")
		return nil, false
	case err != nil:
		metrics.RecordCacheLookup("error")
		s.logger.Warn().Err(err).Str("key", key).Msg("ward map cache read failed")
		return nil, false
	}
	var items []BedOccupancy
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		metrics.RecordCacheLookup("error")
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding unreadable ward map cache entry")
		return nil, false
	}
	metrics.RecordCacheLookup("hit")
	return items, true
}

func (s *Service) load(ctx context.Context, floorID uuid.UUID) ([]BedOccupancy, error) {
	items, err := s.repo.WardMap(ctx, floorID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []BedOccupancy{}
	}
	sortOccupancy(items)
	return items, nil
}

// Invalidate drops the cached map of a floor after its occupancy changed.
func (s *Service) Invalidate(ctx context.Context, floorID uuid.UUID) error {
	if s.kv == nil {
		return nil
	}
	return s.kv.Delete(ctx, cacheKey(ctx, floorID))
}

// ListPatients lists patients whose "first paternal maternal" name contains
// filter, ignoring case. An empty filter lists everyone.
func (s *Service) ListPatients(ctx context.Context, filter string) ([]patient.View, error) {
	items, err := s.patients.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]patient.View, 0, len(items))
	for _, p := range items {
		out = append(out, patient.NewView(*p, now))
	}
	return out, nil
}

func (s *Service) Floors(ctx context.Context) ([]*facility.Floor, error) {
	return s.floors.ListFloors(ctx)
}
