package processor

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopslive/hoops-data/internal/event"
	"github.com/hoopslive/hoops-data/internal/store"
)

// ------------------------
// Fake stats store
// ------------------------

type fakeStore struct {
	trace    []string
	inserted []store.StatRecord

	ActiveSeasonFunc    func(ctx context.Context) (*store.Season, error)
	InsertStatEventFunc func(ctx context.Context, rec store.StatRecord) (int64, int64, error)
}

func (f *fakeStore) record(step string) { f.trace = append(f.trace, step) }

func (f *fakeStore) ActiveSeason(ctx context.Context) (*store.Season, error) {
	f.record("ActiveSeason")
	if f.ActiveSeasonFunc != nil {
		return f.ActiveSeasonFunc(ctx)
	}
	return &store.Season{ID: "S1", Name: "2024-25", Active: true}, nil
}

func (f *fakeStore) InsertStatEvent(ctx context.Context, rec store.StatRecord) (int64, int64, error) {
	f.record("InsertStatEvent")
	f.inserted = append(f.inserted, rec)
	if f.InsertStatEventFunc != nil {
		return f.InsertStatEventFunc(ctx, rec)
	}
	return 42, rec.Version, nil
}

// ------------------------
// Fake invalidator
// ------------------------

type fakeInvalidator struct {
	trace []string
	calls [][3]string

	InvalidateFunc func(ctx context.Context, playerID, teamID, seasonID string) error
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, playerID, teamID, seasonID string) error {
	f.trace = append(f.trace, "Invalidate")
	f.calls = append(f.calls, [3]string{playerID, teamID, seasonID})
	if f.InvalidateFunc != nil {
		return f.InvalidateFunc(ctx, playerID, teamID, seasonID)
	}
	return nil
}

func pointEvent() event.GameEvent {
	return event.GameEvent{
		Version: 1, GameID: "2024030100", TeamID: "BOS", PlayerID: "jt0",
		Kind: event.StatPoint, Value: 3,
	}
}

// ------------------------
// Tests
// ------------------------

func TestProcessWritesRecordAndInvalidates(t *testing.T) {
	st := &fakeStore{}
	inv := &fakeInvalidator{}
	p := New(st, inv, slog.Default())

	require.NoError(t, p.Process(context.Background(), pointEvent()))

	require.Len(t, st.inserted, 1)
	rec := st.inserted[0]
	assert.Equal(t, "jt0", rec.PlayerID)
	assert.Equal(t, "2024030100", rec.GameID)
	assert.Equal(t, "BOS", rec.TeamID)
	assert.Equal(t, "S1", rec.SeasonID)
	assert.Equal(t, event.StatPoint, rec.StatType)
	assert.Equal(t, float64(3), rec.StatValue)
	assert.Equal(t, int64(1), rec.Version)

	require.Len(t, inv.calls, 1)
	assert.Equal(t, [3]string{"jt0", "BOS", "S1"}, inv.calls[0])
}

func TestProcessNoActiveSeason(t *testing.T) {
	st := &fakeStore{ActiveSeasonFunc: func(ctx context.Context) (*store.Season, error) {
		return nil, nil
	}}
	inv := &fakeInvalidator{}
	p := New(st, inv, slog.Default())

	err := p.Process(context.Background(), pointEvent())
	assert.ErrorIs(t, err, ErrNoActiveSeason)
	assert.Empty(t, st.inserted, "no write without a season")
	assert.Empty(t, inv.calls)
}

func TestProcessSeasonLookupFailure(t *testing.T) {
	st := &fakeStore{ActiveSeasonFunc: func(ctx context.Context) (*store.Season, error) {
		return nil, errors.New("connection reset")
	}}
	inv := &fakeInvalidator{}
	p := New(st, inv, slog.Default())

	err := p.Process(context.Background(), pointEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve active season")
	assert.Empty(t, st.inserted)
}

func TestProcessInsertFailureSkipsInvalidation(t *testing.T) {
	st := &fakeStore{InsertStatEventFunc: func(ctx context.Context, rec store.StatRecord) (int64, int64, error) {
		return 0, 0, errors.New("constraint violation")
	}}
	inv := &fakeInvalidator{}
	p := New(st, inv, slog.Default())

	err := p.Process(context.Background(), pointEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist stat event")
	assert.Empty(t, inv.calls, "invalidation only after a confirmed write")
}

func TestProcessInvalidationFailurePropagates(t *testing.T) {
	st := &fakeStore{}
	inv := &fakeInvalidator{InvalidateFunc: func(ctx context.Context, playerID, teamID, seasonID string) error {
		return errors.New("redis down")
	}}
	p := New(st, inv, slog.Default())

	err := p.Process(context.Background(), pointEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalidate")
}

func TestProcessAcceptsStoreVersion(t *testing.T) {
	st := &fakeStore{InsertStatEventFunc: func(ctx context.Context, rec store.StatRecord) (int64, int64, error) {
		return 42, rec.Version + 1, nil // store bumps the version
	}}
	inv := &fakeInvalidator{}
	p := New(st, inv, slog.Default())

	// Reconciliation must not turn into an error.
	require.NoError(t, p.Process(context.Background(), pointEvent()))
	require.Len(t, inv.calls, 1)
}

func TestProcessResolvesSeasonEveryCall(t *testing.T) {
	st := &fakeStore{}
	inv := &fakeInvalidator{}
	p := New(st, inv, slog.Default())

	ctx := context.Background()
	require.NoError(t, p.Process(ctx, pointEvent()))
	require.NoError(t, p.Process(ctx, pointEvent()))

	lookups := 0
	for _, step := range st.trace {
		if step == "ActiveSeason" {
			lookups++
		}
	}
	// Season transitions must be observed promptly: no caching across calls.
	assert.Equal(t, 2, lookups)
}
