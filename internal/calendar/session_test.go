package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/planner-api/internal/models"
)

type sessionStoreStub struct {
	inserted  []models.CustomEvent
	updated   []models.CustomEvent
	insertErr error
	updateErr error
}

func (s *sessionStoreStub) InsertCustomEvent(ctx context.Context, ev *models.CustomEvent) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	ev.ID = "cu-persisted"
	s.inserted = append(s.inserted, *ev)
	return nil
}

func (s *sessionStoreStub) UpdateCustomEvent(ctx context.Context, ev *models.CustomEvent) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = append(s.updated, *ev)
	return nil
}

var slot = time.Date(2026, time.September, 22, 15, 0, 0, 0, time.UTC) // a Tuesday

func TestSessionCreateFlow(t *testing.T) {
	store := &sessionStoreStub{}
	sess := NewSession("sch-1", store, SessionConfig{})
	require.Equal(t, StateIdle, sess.State())

	draft := sess.StartCreate(slot)
	assert.Equal(t, StateCreating, sess.State())
	assert.Equal(t, models.NewEventID, draft.ID)
	assert.Equal(t, slot, draft.StartAt)
	assert.Equal(t, slot.Add(time.Hour), draft.EndAt, "default one-hour span")
	assert.NotEmpty(t, draft.Color, "default color")

	require.NoError(t, sess.Drag(slot.Add(2*time.Hour)))
	assert.Equal(t, slot.Add(2*time.Hour), draft.StartAt)
	assert.Equal(t, slot.Add(3*time.Hour), draft.EndAt, "duration preserved across drag")
	assert.Empty(t, store.inserted, "drag mutates only the local projection")

	require.NoError(t, sess.Resize(slot.Add(4*time.Hour)))
	require.NoError(t, sess.SetTitle("Office hours"))

	ev, err := sess.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateIdle, sess.State())
	assert.Equal(t, "cu-persisted", ev.ID, "pseudo identifier replaced on insert")
	require.Len(t, store.inserted, 1)
}

func TestSessionCancelCreateDiscards(t *testing.T) {
	store := &sessionStoreStub{}
	sess := NewSession("sch-1", store, SessionConfig{})
	sess.StartCreate(slot)

	restored := sess.Cancel()
	assert.Nil(t, restored, "a pseudo-event is discarded entirely")
	assert.Equal(t, StateIdle, sess.State())
	assert.Nil(t, sess.Draft())
	assert.Empty(t, store.inserted)
}

func TestSessionViewingThenEditing(t *testing.T) {
	store := &sessionStoreStub{}
	sess := NewSession("sch-1", store, SessionConfig{})

	persisted := models.CustomEvent{ID: "cu-1", ScheduleID: "sch-1", Title: "Gym", StartAt: slot, EndAt: slot.Add(time.Hour), Color: "#111111"}
	sess.Select(models.Occurrence{EventID: "cu-1", Kind: models.EventKindCustom, Start: slot, End: slot.Add(time.Hour)})
	assert.Equal(t, StateViewing, sess.State())

	require.NoError(t, sess.BeginEdit(persisted))
	assert.Equal(t, StateEditing, sess.State())
	require.NoError(t, sess.SetTitle("Gym (moved)"))
	require.NoError(t, sess.Drag(slot.Add(24*time.Hour)))

	restored := sess.Cancel()
	require.NotNil(t, restored)
	assert.Equal(t, "Gym", restored.Title, "cancel restores last-persisted values")
	assert.Equal(t, slot, restored.StartAt)
	assert.Equal(t, StateIdle, sess.State())
}

func TestSessionEditWithoutSelection(t *testing.T) {
	sess := NewSession("sch-1", &sessionStoreStub{}, SessionConfig{})
	err := sess.BeginEdit(models.CustomEvent{ID: "cu-1"})
	require.Error(t, err)
}

func TestSessionWeeklyPresetDaySetNeverEmpty(t *testing.T) {
	sess := NewSession("sch-1", &sessionStoreStub{}, SessionConfig{})
	draft := sess.StartCreate(slot)

	require.NoError(t, sess.SetRecurrencePreset(models.FreqWeekly))
	rec := draft.Recurrence()
	assert.Equal(t, []time.Weekday{time.Tuesday}, rec.Days, "defaults to the weekday of the start instant")

	// Switching away and back without re-selecting days restores the
	// start instant's weekday rather than an empty set.
	require.NoError(t, sess.SetRecurrencePreset(models.FreqNone))
	require.NoError(t, sess.SetRecurrencePreset(models.FreqWeekly))
	rec = draft.Recurrence()
	require.NotEmpty(t, rec.Days)
	assert.Equal(t, []time.Weekday{time.Tuesday}, rec.Days)
}

func TestSessionWeekdayPreset(t *testing.T) {
	sess := NewSession("sch-1", &sessionStoreStub{}, SessionConfig{})
	draft := sess.StartCreate(slot)

	require.NoError(t, sess.SetRecurrencePreset(models.FreqWeekday))
	rec := draft.Recurrence()
	assert.Equal(t, models.FreqWeekday, rec.Frequency)
	assert.ElementsMatch(t, models.Weekdays, rec.Days)
	assert.Equal(t, 1, rec.Interval)
}

func TestSessionCustomRecurrenceDialog(t *testing.T) {
	sess := NewSession("sch-1", &sessionStoreStub{}, SessionConfig{})
	draft := sess.StartCreate(slot)
	require.NoError(t, sess.SetRecurrencePreset(models.FreqWeekly))

	seed := sess.ProposeCustomRecurrence()
	assert.Equal(t, models.FreqWeekly, seed.Frequency, "dialog opens seeded with the confirmed selection")

	until := slot.AddDate(0, 2, 0)
	require.NoError(t, sess.ConfirmCustomRecurrence(models.Recurrence{
		Frequency: models.FreqCustomWeekly,
		Interval:  2,
		Days:      []time.Weekday{time.Monday, time.Friday},
		Until:     &until,
	}))
	rec := draft.Recurrence()
	assert.Equal(t, models.FreqCustomWeekly, rec.Frequency)
	assert.Equal(t, 2, rec.Interval)

	// Cancelling a later dialog reverts the selector to the last
	// confirmed value, not a half-configured state.
	sess.CancelCustomRecurrence()
	rec = draft.Recurrence()
	assert.Equal(t, models.FreqCustomWeekly, rec.Frequency)
	assert.Equal(t, 2, rec.Interval)
	assert.ElementsMatch(t, []time.Weekday{time.Monday, time.Friday}, rec.Days)
}

func TestSessionConfirmCustomEmptyDaysDefaults(t *testing.T) {
	sess := NewSession("sch-1", &sessionStoreStub{}, SessionConfig{})
	draft := sess.StartCreate(slot)

	require.NoError(t, sess.ConfirmCustomRecurrence(models.Recurrence{Frequency: models.FreqCustomWeekly, Interval: 1}))
	assert.Equal(t, []time.Weekday{time.Tuesday}, draft.Recurrence().Days)
}

func TestSessionConfirmCustomRejectsBadInterval(t *testing.T) {
	sess := NewSession("sch-1", &sessionStoreStub{}, SessionConfig{})
	sess.StartCreate(slot)
	err := sess.ConfirmCustomRecurrence(models.Recurrence{Frequency: models.FreqCustomDaily, Interval: 0})
	require.Error(t, err)
}

func TestSessionCommitFailureRollsBack(t *testing.T) {
	store := &sessionStoreStub{updateErr: errors.New("connection reset")}
	sess := NewSession("sch-1", store, SessionConfig{})

	persisted := models.CustomEvent{ID: "cu-1", ScheduleID: "sch-1", Title: "Gym", StartAt: slot, EndAt: slot.Add(time.Hour)}
	sess.Select(models.Occurrence{EventID: "cu-1"})
	require.NoError(t, sess.BeginEdit(persisted))
	require.NoError(t, sess.SetTitle("Renamed"))

	_, err := sess.Commit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateEditing, sess.State(), "session stays editable for retry")
	assert.Equal(t, "Gym", sess.Draft().Title, "draft rolled back to last known-good state")
}

func TestSessionCommitIdleRejected(t *testing.T) {
	sess := NewSession("sch-1", &sessionStoreStub{}, SessionConfig{})
	_, err := sess.Commit(context.Background())
	require.Error(t, err)
}
