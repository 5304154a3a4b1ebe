package agency

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/viajante/agency-analytics/events"
)

// ResultCache stores serialized aggregation results.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// EventPublisher announces completed imports.
type EventPublisher interface {
	PublishImportCompleted(ctx context.Context, ev events.ImportCompleted) error
}

// ServiceStore is what the Service needs from the store.
type ServiceStore interface {
	Store
	ImportLog
}

// Service wraps the core operations with import history, the aggregation
// cache and import events. Cache and event failures are logged and never
// fail the request.
type Service struct {
	store    ServiceStore
	cache    ResultCache
	events   EventPublisher
	cacheTTL time.Duration
	now      func() time.Time

	// generation counts successful imports. A result computed under an
	// older generation is never left in the cache.
	generation atomic.Uint64
}

// Option configures a Service.
type Option func(*Service)

// WithCache caches aggregation results for ttl.
func WithCache(c ResultCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithEvents publishes an event after each successful import.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service over the given store.
func NewService(store ServiceStore, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// IMPORT
// =============================================================================

// ImportWorkbook imports the workbook and records the attempt. On success
// the aggregation cache is dropped and an ImportCompleted event is sent.
func (s *Service) ImportWorkbook(ctx context.Context, filename string, data []byte) (*ImportSummary, error) {
	run := ImportRun{
		ID:        uuid.NewString(),
		Filename:  filename,
		StartedAt: s.now(),
	}

	summary, err := ImportWorkbook(ctx, s.store, filename, data)

	run.CompletedAt = s.now()
	if err != nil {
		run.Status = StatusFailure
		run.Error = err.Error()
		if IsClientError(err) {
			log.Warningf("import %s rejected: %v", filename, err)
		} else {
			log.Errorf("import %s failed: %v", filename, err)
		}
	} else {
		summary.ID = run.ID
		run.Status = StatusSuccess
		run.Reservations = summary.Reservations
		run.Customers = summary.Customers
		run.Destinations = summary.Destinations
	}

	if rerr := s.store.SaveImportRun(ctx, run); rerr != nil {
		log.Warningf("failed to record import run %s: %v", run.ID, rerr)
	}
	if err != nil {
		return nil, err
	}

	s.generation.Add(1)
	s.invalidate(ctx)
	s.publish(ctx, run)

	return summary, nil
}

// ImportHistory returns the most recent import runs, newest first.
func (s *Service) ImportHistory(ctx context.Context, limit int) ([]ImportRun, error) {
	return s.store.ListImportRuns(ctx, limit)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(Aggregations()))
	for _, a := range Aggregations() {
		keys = append(keys, cacheKey(a))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Warningf("failed to invalidate aggregation cache: %v", err)
	}
}

func (s *Service) publish(ctx context.Context, run ImportRun) {
	if s.events == nil {
		return
	}
	ev := events.ImportCompleted{
		ID:           run.ID,
		Filename:     run.Filename,
		Reservations: run.Reservations,
		Customers:    run.Customers,
		Destinations: run.Destinations,
		ImportedAt:   run.CompletedAt,
	}
	if err := s.events.PublishImportCompleted(ctx, ev); err != nil {
		log.Warningf("failed to publish import %s: %v", run.ID, err)
	}
}

// =============================================================================
// READS
// =============================================================================

// ListReservations runs the filtered reservation listing.
func (s *Service) ListReservations(ctx context.Context, f ReservationFilters) ([]Row, error) {
	return ListReservations(ctx, s.store, f)
}

// RunAggregation returns the rows of one aggregation, from the cache when
// present.
func (s *Service) RunAggregation(ctx context.Context, a Aggregation) ([]Row, error) {
	gen := s.generation.Load()
	if s.cache != nil {
		if b, ok, err := s.cache.Get(ctx, cacheKey(a)); err != nil {
			log.Warningf("aggregation cache read %s: %v", a, err)
		} else if ok {
			var rows []Row
			if err := json.Unmarshal(b, &rows); err == nil {
				return rows, nil
			}
		}
	}

	rows, err := RunAggregation(ctx, s.store, a)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.storeResult(ctx, a, gen, rows)
	}
	return rows, nil
}

// storeResult caches rows computed under generation gen. An import that
// lands while the rows are written has either already bumped the
// generation (checked after Set) or will delete the key itself.
func (s *Service) storeResult(ctx context.Context, a Aggregation, gen uint64, rows []Row) {
	if s.generation.Load() != gen {
		return
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(a), b, s.cacheTTL); err != nil {
		log.Warningf("aggregation cache write %s: %v", a, err)
		return
	}
	if s.generation.Load() != gen {
		if err := s.cache.Delete(ctx, cacheKey(a)); err != nil {
			log.Warningf("failed to drop stale aggregation %s: %v", a, err)
		}
	}
}

func cacheKey(a Aggregation) string {
	return "analytics:" + string(a)
}
