package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfall/sawshift/internal/domain/models"
)

func savedEntry() models.HistoryEntry {
	return models.HistoryEntry{
		BoardID:      "board-42",
		BatchID:      "batch-7",
		Dimensions:   "2000x150x50",
		Earnings:     300,
		YieldPercent: 26,
		ItemCount:    2,
		Cart:         []models.CartItem{{Product: testProduct, Quantity: 2}},
		Status:       models.EntryActive,
		WorkerID:     "worker-1",
	}
}

func TestEditDownToEmptySoftDeletes(t *testing.T) {
	remote := &fakeRemote{}
	history := newFakeHistory()
	require.NoError(t, history.Upsert(context.Background(), savedEntry()))

	edit := NewEdit(savedEntry(), remote, history, nil)
	edit.ApplyDelta(testProduct, -2)

	updated, err := edit.Confirm(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.EntryDeleted, updated.Status)
	assert.Zero(t, updated.Earnings)
	assert.Zero(t, updated.YieldPercent)
	assert.Zero(t, updated.ItemCount)

	// Soft delete is a status change, exactly once; the entry is never
	// removed from history.
	assert.Equal(t, []string{"board-42"}, remote.softDeletes)
	assert.Equal(t, models.EntryDeleted, history.entries["board-42"].Status)
	assert.Contains(t, history.entries, "board-42")
}

func TestEditRecomputesAndUpdates(t *testing.T) {
	remote := &fakeRemote{}
	history := newFakeHistory()

	edit := NewEdit(savedEntry(), remote, history, nil)
	edit.ApplyDelta(testProduct, -1)

	updated, err := edit.Confirm(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, updated.ItemCount)
	assert.InDelta(t, 150, updated.Earnings, 1e-9)
	assert.Equal(t, 13, updated.YieldPercent)
	assert.Equal(t, models.EntryActive, updated.Status)

	require.Len(t, remote.updates, 1)
	assert.Equal(t, "board-42", remote.updates[0].BoardID)
	assert.Empty(t, remote.softDeletes)
	assert.Equal(t, 1, history.entries["board-42"].ItemCount)
}

func TestEditSetItems(t *testing.T) {
	edit := NewEdit(savedEntry(), &fakeRemote{}, newFakeHistory(), nil)
	edit.SetItems([]models.CartItem{{Product: testProduct, Quantity: 5}})

	updated, err := edit.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, updated.ItemCount)
	assert.InDelta(t, 750, updated.Earnings, 1e-9)
}

func TestEditRemoteFailureKeepsEntry(t *testing.T) {
	remote := &fakeRemote{updateErr: errors.New("webhook 502")}
	edit := NewEdit(savedEntry(), remote, newFakeHistory(), nil)
	edit.ApplyDelta(testProduct, -1)

	_, err := edit.Confirm(context.Background())
	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)

	// Pre-call state preserved for a manual retry.
	assert.InDelta(t, 300, edit.entry.Earnings, 1e-9)
	assert.Equal(t, 2, edit.entry.ItemCount)
}

func TestEditConfirmInFlightBlocksSecond(t *testing.T) {
	remote := &fakeRemote{
		blockUpdate:   make(chan struct{}),
		updateStarted: make(chan struct{}),
	}
	edit := NewEdit(savedEntry(), remote, newFakeHistory(), nil)
	edit.ApplyDelta(testProduct, -1)

	done := make(chan error, 1)
	go func() {
		_, err := edit.Confirm(context.Background())
		done <- err
	}()

	<-remote.updateStarted
	_, err := edit.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrSaveInFlight)

	close(remote.blockUpdate)
	require.NoError(t, <-done)
	require.Len(t, remote.updates, 1)
}

func TestEditManagerSharesSessionPerBoard(t *testing.T) {
	em := NewEditManager()
	open := func() (*Edit, error) {
		return NewEdit(savedEntry(), &fakeRemote{}, newFakeHistory(), nil), nil
	}

	first, err := em.Get("board-42", open)
	require.NoError(t, err)
	again, err := em.Get("board-42", open)
	require.NoError(t, err)
	assert.Same(t, first, again)

	other, err := em.Get("board-43", open)
	require.NoError(t, err)
	assert.NotSame(t, first, other)

	em.Clear("board-42")
	fresh, err := em.Get("board-42", open)
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
}

func TestEditManagerOpenFailure(t *testing.T) {
	em := NewEditManager()
	_, err := em.Get("board-missing", func() (*Edit, error) {
		return nil, errors.New("not found")
	})
	assert.Error(t, err)
}

func TestEditMalformedDimensions(t *testing.T) {
	entry := savedEntry()
	entry.Dimensions = "not-a-size"

	edit := NewEdit(entry, &fakeRemote{}, newFakeHistory(), nil)
	_, err := edit.Confirm(context.Background())
	assert.Error(t, err)
}
