package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/campusplan/planner-api/internal/calendar"
	"github.com/campusplan/planner-api/internal/models"
	appErrors "github.com/campusplan/planner-api/pkg/errors"
)

type termRepository interface {
	List(ctx context.Context) ([]models.TermCalendar, error)
	GetByTerm(ctx context.Context, term string) (*models.TermCalendar, error)
	Upsert(ctx context.Context, tc *models.TermCalendar) error
}

// CalendarService assembles the renderable calendar for a schedule: it loads
// stored events, resolves catalog sections, and expands recurrence rules into
// concrete occurrences inside a requested window.
type CalendarService struct {
	events       eventRepository
	sections     sectionResolver
	terms        termRepository
	schedules    scheduleGetter
	cache        *CacheService
	materializer *calendar.Materializer
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewCalendarService constructs the service. cache may be nil.
func NewCalendarService(events eventRepository, sections sectionResolver, terms termRepository, schedules scheduleGetter, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &CalendarService{
		events:       events,
		sections:     sections,
		terms:        terms,
		schedules:    schedules,
		cache:        cache,
		materializer: calendar.NewMaterializer(logger),
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// CalendarResult is the rendered window plus any per-event rule failures.
// A rule failure on one event never hides the others.
type CalendarResult struct {
	Occurrences []models.Occurrence   `json:"occurrences"`
	Errors      []calendar.EventError `json:"errors,omitempty"`
	Window      calendar.Window       `json:"window"`
}

// Render expands every event of the schedule into occurrences overlapping
// [from, to).
func (s *CalendarService) Render(ctx context.Context, userID, scheduleID string, from, to time.Time) (*CalendarResult, error) {
	if !to.After(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "window end must be after window start")
	}
	if _, err := s.schedules.Get(ctx, userID, scheduleID); err != nil {
		return nil, err
	}

	events, err := s.LoadEvents(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	termCalendars, err := s.termLookup(ctx)
	if err != nil {
		return nil, err
	}

	win := calendar.Window{Start: from, End: to}
	occurrences, eventErrors := s.materializer.Materialize(events, termCalendars, win)
	return &CalendarResult{Occurrences: occurrences, Errors: eventErrors, Window: win}, nil
}

// LoadEvents returns the schedule's events with course rows resolved against
// the catalog. Course rows whose section no longer exists are dropped.
func (s *CalendarService) LoadEvents(ctx context.Context, scheduleID string) ([]models.CalendarEvent, error) {
	courseRows, customRows, err := s.events.GetEvents(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events")
	}

	keys := make([]models.SectionKey, 0, len(courseRows))
	seen := make(map[models.SectionKey]bool, len(courseRows))
	for _, row := range courseRows {
		key := models.SectionKey{Code: row.SectionCode, Term: row.Term}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	sections, err := s.resolveSections(ctx, keys)
	if err != nil {
		return nil, err
	}
	return calendar.Normalize(courseRows, customRows, sections), nil
}

// resolveSections looks up section details, consulting the cache per key
// before touching the catalog tables.
func (s *CalendarService) resolveSections(ctx context.Context, keys []models.SectionKey) (map[models.SectionKey]models.SectionInfo, error) {
	resolved := make(map[models.SectionKey]models.SectionInfo, len(keys))
	var misses []models.SectionKey

	if s.cache != nil && s.cache.Enabled() {
		for _, key := range keys {
			var info models.SectionInfo
			hit, err := s.cache.Get(ctx, sectionCacheKey(key), &info)
			if err != nil {
				s.logger.Warn("section cache lookup failed", zap.Error(err))
			}
			if hit {
				resolved[key] = info
			} else {
				misses = append(misses, key)
			}
		}
	} else {
		misses = keys
	}

	if len(misses) > 0 {
		infos, err := s.sections.ResolveSections(ctx, misses)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve sections")
		}
		for _, info := range infos {
			key := info.Key()
			resolved[key] = info
			if s.cache != nil && s.cache.Enabled() {
				if err := s.cache.Set(ctx, sectionCacheKey(key), info, s.cacheTTL); err != nil {
					s.logger.Warn("section cache write failed", zap.Error(err))
				}
			}
		}
	}
	return resolved, nil
}

// termLookup loads all term calendars, serving from the cache when warm.
func (s *CalendarService) termLookup(ctx context.Context) ([]models.TermCalendar, error) {
	const cacheKey = "terms:all"

	var terms []models.TermCalendar
	if s.cache != nil && s.cache.Enabled() {
		if hit, err := s.cache.Get(ctx, cacheKey, &terms); err == nil && hit {
			return terms, nil
		}
	}

	terms, err := s.terms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term calendars")
	}
	if s.cache != nil && s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, terms, s.cacheTTL); err != nil {
			s.logger.Warn("term cache write failed", zap.Error(err))
		}
	}
	return terms, nil
}

func sectionCacheKey(key models.SectionKey) string {
	return fmt.Sprintf("section:%s:%d", key.Term, key.Code)
}

// UpsertTerm creates or updates a term calendar. Admin only; routing
// enforces the role.
func (s *CalendarService) UpsertTerm(ctx context.Context, tc *models.TermCalendar) error {
	if tc.Term == "" {
		return appErrors.Clone(appErrors.ErrValidation, "term code is required")
	}
	if !tc.InstructionEnds.After(tc.InstructionBegins) {
		return appErrors.Clone(appErrors.ErrValidation, "instruction end must be after instruction begin")
	}
	if err := s.terms.Upsert(ctx, tc); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save term calendar")
	}
	if s.cache != nil && s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, "terms:*"); err != nil {
			s.logger.Warn("term cache invalidation failed", zap.Error(err))
		}
	}
	return nil
}

// Terms returns all known term calendars, most recent first.
func (s *CalendarService) Terms(ctx context.Context) ([]models.TermCalendar, error) {
	terms, err := s.terms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term calendars")
	}
	sort.Slice(terms, func(i, j int) bool {
		return terms[i].InstructionBegins.After(terms[j].InstructionBegins)
	})
	return terms, nil
}
