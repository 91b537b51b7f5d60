package calendar

import (
	"context"
	"time"

	"github.com/campusplan/planner-api/internal/models"
	appErrors "github.com/campusplan/planner-api/pkg/errors"
)

// SessionState names the interaction states of one open schedule view.
type SessionState string

const (
	// StateIdle indicates nothing is selected.
	StateIdle SessionState = "IDLE"
	// StateCreating indicates a "new" pseudo-event exists but is not persisted.
	StateCreating SessionState = "CREATING"
	// StateViewing indicates an existing occurrence is selected read-only.
	StateViewing SessionState = "VIEWING"
	// StateEditing indicates a custom event's fields are being changed.
	StateEditing SessionState = "EDITING"
)

// SessionStore is the persistence boundary the session commits through.
type SessionStore interface {
	InsertCustomEvent(ctx context.Context, ev *models.CustomEvent) error
	UpdateCustomEvent(ctx context.Context, ev *models.CustomEvent) error
}

// SessionConfig carries the defaults applied to newly created events.
type SessionConfig struct {
	DefaultDuration time.Duration
	DefaultColor    string
}

// Session is the explicit interactive state of one schedule's calendar
// view. It backs the client-side editing flow: a consumer holding a view
// open keeps one Session per schedule and commits drafts through the
// SessionStore boundary, which EventRepository satisfies. It is a plain
// constructible value with no shared mutable state; its lifecycle is tied
// to the view being open.
type Session struct {
	scheduleID string
	store      SessionStore
	cfg        SessionConfig

	state SessionState
	// draft is the local, unpersisted projection being created or
	// edited. In StateCreating its ID is models.NewEventID.
	draft *models.CustomEvent
	// saved holds the last-persisted values of the event being edited
	// so cancel and failed commits can restore them.
	saved *models.CustomEvent
	// savedRecurrence is the last confirmed recurrence selection; the
	// custom-recurrence dialog reverts to it on cancel.
	savedRecurrence models.Recurrence
	selected        *models.Occurrence
}

// NewSession opens an interaction session for a schedule view.
func NewSession(scheduleID string, store SessionStore, cfg SessionConfig) *Session {
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = time.Hour
	}
	if cfg.DefaultColor == "" {
		cfg.DefaultColor = "#2196f3"
	}
	return &Session{
		scheduleID:      scheduleID,
		store:           store,
		cfg:             cfg,
		state:           StateIdle,
		savedRecurrence: models.Recurrence{Frequency: models.FreqNone, Interval: 1},
	}
}

// State returns the current interaction state.
func (s *Session) State() SessionState { return s.state }

// Draft returns the in-progress local projection, if any.
func (s *Session) Draft() *models.CustomEvent { return s.draft }

// Selected returns the occurrence being viewed, if any.
func (s *Session) Selected() *models.Occurrence { return s.selected }

// StartCreate synthesizes the "new" pseudo-event at the clicked slot
// with the default span and color and moves to StateCreating. The
// pseudo-event exists only in this session until Commit.
func (s *Session) StartCreate(at time.Time) *models.CustomEvent {
	s.draft = &models.CustomEvent{
		ID:         models.NewEventID,
		ScheduleID: s.scheduleID,
		StartAt:    at,
		EndAt:      at.Add(s.cfg.DefaultDuration),
		Color:      s.cfg.DefaultColor,
		Interval:   1,
	}
	s.saved = nil
	s.selected = nil
	s.savedRecurrence = models.Recurrence{Frequency: models.FreqNone, Interval: 1}
	s.state = StateCreating
	return s.draft
}

// Select opens the read-only popover for an existing occurrence.
func (s *Session) Select(occ models.Occurrence) {
	s.selected = &occ
	s.draft = nil
	s.saved = nil
	s.state = StateViewing
}

// BeginEdit moves from viewing into editing the given custom event. The
// passed value must be the last-persisted row; it is snapshotted for
// rollback.
func (s *Session) BeginEdit(ev models.CustomEvent) error {
	if s.state != StateViewing {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "no occurrence is selected")
	}
	snapshot := ev
	s.saved = &snapshot
	working := ev
	s.draft = &working
	s.savedRecurrence = ev.Recurrence()
	s.state = StateEditing
	return nil
}

// Drag moves the draft to a new start, preserving its duration. Only
// the local projection changes; nothing is persisted.
func (s *Session) Drag(newStart time.Time) error {
	if s.draft == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "no event is being created or edited")
	}
	dur := s.draft.EndAt.Sub(s.draft.StartAt)
	s.draft.StartAt = newStart
	s.draft.EndAt = newStart.Add(dur)
	return nil
}

// Resize changes the draft's end instant.
func (s *Session) Resize(newEnd time.Time) error {
	if s.draft == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "no event is being created or edited")
	}
	if !newEnd.After(s.draft.StartAt) {
		return appErrors.Clone(appErrors.ErrValidation, "event end must be after its start")
	}
	s.draft.EndAt = newEnd
	return nil
}

// SetTitle updates the draft title.
func (s *Session) SetTitle(title string) error {
	if s.draft == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "no event is being created or edited")
	}
	s.draft.Title = title
	return nil
}

// SetColor updates the draft color.
func (s *Session) SetColor(color string) error {
	if s.draft == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "no event is being created or edited")
	}
	s.draft.Color = color
	return nil
}

// SetRecurrencePreset applies one of the fixed presets to the draft and
// records it as the confirmed selection. A weekly preset with no day
// carried over defaults to the weekday of the draft's start instant, so
// the day set is never left empty.
func (s *Session) SetRecurrencePreset(freq models.Frequency) error {
	if s.draft == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "no event is being created or edited")
	}
	if freq.Custom() {
		return appErrors.Clone(appErrors.ErrValidation, "custom recurrence requires the recurrence dialog")
	}
	if !freq.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown recurrence preset")
	}

	rec := models.Recurrence{Frequency: freq, Interval: 1}
	switch freq {
	case models.FreqWeekly:
		rec.Days = []time.Weekday{s.draft.StartAt.Weekday()}
	case models.FreqWeekday:
		rec.Days = append(rec.Days, models.Weekdays...)
	}
	s.draft.SetRecurrence(rec)
	s.savedRecurrence = rec
	return nil
}

// ProposeCustomRecurrence opens the custom-recurrence dialog, seeded
// with the last confirmed selection.
func (s *Session) ProposeCustomRecurrence() models.Recurrence {
	return s.savedRecurrence
}

// ConfirmCustomRecurrence applies a fully configured custom recurrence
// on explicit confirmation. A weekly rule with an empty day set falls
// back to the weekday of the draft's start instant.
func (s *Session) ConfirmCustomRecurrence(rec models.Recurrence) error {
	if s.draft == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "no event is being created or edited")
	}
	if !rec.Frequency.Custom() {
		return appErrors.Clone(appErrors.ErrValidation, "recurrence dialog only produces custom rules")
	}
	if rec.Interval < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "recurrence interval must be at least 1")
	}
	if rec.Frequency.Weekly() && len(rec.Days) == 0 {
		rec.Days = []time.Weekday{s.draft.StartAt.Weekday()}
	}
	s.draft.SetRecurrence(rec)
	s.savedRecurrence = rec
	return nil
}

// CancelCustomRecurrence closes the dialog without confirming: the
// recurrence selector reverts to the last confirmed value instead of
// keeping a half-configured state.
func (s *Session) CancelCustomRecurrence() {
	if s.draft == nil {
		return
	}
	s.draft.SetRecurrence(s.savedRecurrence)
}

// Commit persists the draft: an insert when creating, an update when
// editing. On success the session returns to idle. On a persistence
// failure the draft rolls back to the last known-good values and the
// session stays in its current state so the user can retry.
func (s *Session) Commit(ctx context.Context) (*models.CustomEvent, error) {
	switch s.state {
	case StateCreating:
		ev := *s.draft
		ev.ID = "" // the repository assigns a real identifier
		if err := s.store.InsertCustomEvent(ctx, &ev); err != nil {
			return nil, err
		}
		s.reset()
		return &ev, nil
	case StateEditing:
		ev := *s.draft
		if err := s.store.UpdateCustomEvent(ctx, &ev); err != nil {
			restored := *s.saved
			s.draft = &restored
			return nil, err
		}
		s.reset()
		return &ev, nil
	}
	return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "nothing to commit")
}

// Cancel discards local-only changes and returns to idle. A pseudo-event
// being created is discarded entirely; an edit reverts to the
// last-persisted values.
func (s *Session) Cancel() *models.CustomEvent {
	var restored *models.CustomEvent
	if s.state == StateEditing && s.saved != nil {
		r := *s.saved
		restored = &r
	}
	s.reset()
	return restored
}

func (s *Session) reset() {
	s.draft = nil
	s.saved = nil
	s.selected = nil
	s.savedRecurrence = models.Recurrence{Frequency: models.FreqNone, Interval: 1}
	s.state = StateIdle
}
