package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfall/sawshift/internal/domain/models"
)

type fakeRemote struct {
	mu          sync.Mutex
	saves       []models.HistoryEntry
	updates     []models.HistoryEntry
	softDeletes []string

	saveErr   error
	updateErr error
	deleteErr error

	blockSave chan struct{} // when set, SaveShift waits until closed
	started   chan struct{} // closed once a blocked save has begun

	blockUpdate   chan struct{} // when set, UpdateShift waits until closed
	updateStarted chan struct{} // closed once a blocked update has begun
}

func (f *fakeRemote) SaveShift(ctx context.Context, entry models.HistoryEntry) error {
	if f.blockSave != nil {
		close(f.started)
		<-f.blockSave
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves = append(f.saves, entry)
	return nil
}

func (f *fakeRemote) UpdateShift(ctx context.Context, entry models.HistoryEntry) error {
	if f.blockUpdate != nil {
		close(f.updateStarted)
		<-f.blockUpdate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, entry)
	return nil
}

func (f *fakeRemote) SoftDeleteShift(ctx context.Context, boardID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.softDeletes = append(f.softDeletes, boardID)
	return nil
}

type fakeHistory struct {
	mu      sync.Mutex
	entries map[string]models.HistoryEntry
	failing bool
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{entries: make(map[string]models.HistoryEntry)}
}

func (f *fakeHistory) Upsert(ctx context.Context, entry models.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("history store down")
	}
	f.entries[entry.BoardID] = entry
	return nil
}

func (f *fakeHistory) MarkDeleted(ctx context.Context, boardID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("history store down")
	}
	entry := f.entries[boardID]
	entry.Status = models.EntryDeleted
	f.entries[boardID] = entry
	return nil
}

var testProduct = models.Product{ID: "lath-20", Name: "Lath 20", Price: 150, LengthMm: 800, WidthMm: 60, ThicknessMm: 40}

func reviewedLedger(t *testing.T, remote RemoteStore, history HistoryStore) *Ledger {
	t.Helper()
	l := New("worker-1", remote, history, nil, YieldGate{}, nil)

	_, err := l.SelectBoard(2000, 150, 50, "batch-7")
	require.NoError(t, err)
	_, err = l.Review(context.Background())
	require.NoError(t, err)
	_, err = l.ApplyDelta(testProduct, 1)
	require.NoError(t, err)
	_, err = l.ApplyDelta(testProduct, 1)
	require.NoError(t, err)
	return l
}

func TestShiftLifecycle(t *testing.T) {
	remote := &fakeRemote{}
	history := newFakeHistory()
	l := reviewedLedger(t, remote, history)

	snap := l.Snapshot()
	require.NotNil(t, snap.Result)
	assert.Equal(t, StateReviewed, snap.State)
	assert.InDelta(t, 300, snap.Result.Earnings, 1e-9)
	assert.Equal(t, 26, snap.Result.YieldPercent)

	entry, err := l.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSaved, l.State())
	assert.Equal(t, "2000x150x50", entry.Dimensions)
	assert.Equal(t, 2, entry.ItemCount)
	assert.Equal(t, models.EntryActive, entry.Status)

	require.Len(t, remote.saves, 1)
	assert.Equal(t, entry.BoardID, remote.saves[0].BoardID)
	assert.Contains(t, history.entries, entry.BoardID)

	require.NoError(t, l.NextBoard())
	assert.Equal(t, StateEmpty, l.State())
}

func TestSelectBoardValidation(t *testing.T) {
	l := New("worker-1", nil, nil, nil, YieldGate{}, nil)

	_, err := l.SelectBoard(0, 150, 50, "batch-7")
	assert.ErrorIs(t, err, ErrBoardDimensions)

	_, err = l.SelectBoard(2000, 150, 50, "")
	assert.ErrorIs(t, err, ErrEmptyBatch)

	// Rejections leave the ledger untouched.
	assert.Equal(t, StateEmpty, l.State())

	_, err = l.SelectBoard(2000, 150, 50, "batch-7")
	require.NoError(t, err)
	_, err = l.SelectBoard(1000, 100, 25, "batch-7")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReviewRequiresBoard(t *testing.T) {
	l := New("worker-1", nil, nil, nil, YieldGate{}, nil)
	_, err := l.Review(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReviewWithEmptyCart(t *testing.T) {
	l := New("worker-1", nil, nil, nil, YieldGate{}, nil)
	_, err := l.SelectBoard(2000, 150, 50, "batch-7")
	require.NoError(t, err)

	result, err := l.Review(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Earnings)
	assert.Zero(t, result.YieldPercent)
	assert.InDelta(t, 0.015, result.BoardVolumeM3, 1e-12)
}

func TestCartEditRecomputesWhileReviewed(t *testing.T) {
	l := reviewedLedger(t, &fakeRemote{}, newFakeHistory())

	snap, err := l.ApplyDelta(testProduct, -1)
	require.NoError(t, err)
	require.NotNil(t, snap.Result)
	assert.InDelta(t, 150, snap.Result.Earnings, 1e-9)
	assert.Equal(t, 13, snap.Result.YieldPercent)

	snap, err = l.ClearCart()
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
	assert.Zero(t, snap.Result.Earnings)
	assert.Zero(t, snap.Result.YieldPercent)
	assert.Equal(t, StateReviewed, snap.State)
}

func TestSaveEmptyCart(t *testing.T) {
	l := New("worker-1", nil, nil, nil, YieldGate{}, nil)
	_, err := l.SelectBoard(2000, 150, 50, "batch-7")
	require.NoError(t, err)
	_, err = l.Review(context.Background())
	require.NoError(t, err)

	_, err = l.Save(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, StateReviewed, l.State())
}

func TestYieldGate(t *testing.T) {
	gate := YieldGate{Enabled: true, MinPercent: 40, MaxPercent: 90}

	l := New("worker-1", &fakeRemote{}, newFakeHistory(), nil, gate, nil)
	_, err := l.SelectBoard(2000, 150, 50, "batch-7")
	require.NoError(t, err)
	_, err = l.Review(context.Background())
	require.NoError(t, err)
	_, err = l.ApplyDelta(testProduct, 1) // yield 13%, below the band
	require.NoError(t, err)

	_, err = l.Save(context.Background())
	var gateErr *YieldOutOfRangeError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, 13, gateErr.YieldPercent)
	assert.Equal(t, StateReviewed, l.State())

	// Disabled gate lets the same shift through.
	assert.NoError(t, YieldGate{}.Check(13))
}

func TestSaveRemoteFailureKeepsStateAndLocalHistory(t *testing.T) {
	remote := &fakeRemote{saveErr: errors.New("webhook 502")}
	history := newFakeHistory()
	l := reviewedLedger(t, remote, history)

	_, err := l.Save(context.Background())
	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, StateReviewed, l.State())

	// The worker's data survived locally despite the failed sync.
	assert.Len(t, history.entries, 1)
}

func TestSaveRetryOverwritesByBoardID(t *testing.T) {
	remote := &fakeRemote{saveErr: errors.New("webhook 502")}
	history := newFakeHistory()
	l := reviewedLedger(t, remote, history)

	_, err := l.Save(context.Background())
	require.Error(t, err)

	// Cart changes, manual retry succeeds: one logical record, second cart.
	_, err = l.ApplyDelta(testProduct, 1)
	require.NoError(t, err)
	remote.saveErr = nil

	entry, err := l.Save(context.Background())
	require.NoError(t, err)

	require.Len(t, history.entries, 1)
	assert.Equal(t, 3, history.entries[entry.BoardID].ItemCount)
	assert.Equal(t, 3, remote.saves[0].ItemCount)
}

func TestSaveWithoutRemote(t *testing.T) {
	history := newFakeHistory()
	l := reviewedLedger(t, nil, history)

	entry, err := l.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSaved, l.State())
	assert.Contains(t, history.entries, entry.BoardID)
}

func TestSaveLocalFailure(t *testing.T) {
	remote := &fakeRemote{}
	history := newFakeHistory()
	history.failing = true
	l := reviewedLedger(t, remote, history)

	_, err := l.Save(context.Background())
	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Empty(t, remote.saves, "remote must not be called when the local write fails")
	assert.Equal(t, StateReviewed, l.State())
}

func TestSaveRecordsTimings(t *testing.T) {
	remote := &fakeRemote{}
	l := reviewedLedger(t, remote, newFakeHistory())

	timings := models.ShiftTimings{FetchSeconds: 45, MeasureSeconds: 30, SawSeconds: 600}
	require.NoError(t, l.SetTimings(timings))

	entry, err := l.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, timings, entry.Timings)
	require.Len(t, remote.saves, 1)
	assert.Equal(t, timings, remote.saves[0].Timings)

	// The shift is closed; further timing updates are rejected.
	assert.ErrorIs(t, l.SetTimings(models.ShiftTimings{SawSeconds: 1}), ErrInvalidTransition)
}

func TestSaveInFlightBlocksSecondSave(t *testing.T) {
	remote := &fakeRemote{
		blockSave: make(chan struct{}),
		started:   make(chan struct{}),
	}
	l := reviewedLedger(t, remote, newFakeHistory())

	done := make(chan error, 1)
	go func() {
		_, err := l.Save(context.Background())
		done <- err
	}()

	<-remote.started
	_, err := l.Save(context.Background())
	assert.ErrorIs(t, err, ErrSaveInFlight)

	close(remote.blockSave)
	require.NoError(t, <-done)
	assert.Equal(t, StateSaved, l.State())
}

func TestNextBoardOnlyAfterSave(t *testing.T) {
	l := New("worker-1", nil, nil, nil, YieldGate{}, nil)
	assert.ErrorIs(t, l.NextBoard(), ErrInvalidTransition)
}

type fakeCommentator struct {
	text string
	err  error
}

func (f *fakeCommentator) Comment(ctx context.Context, board models.Board, items []models.CartItem, result models.AnalysisResult) (string, error) {
	return f.text, f.err
}

func TestReviewCommentary(t *testing.T) {
	l := New("worker-1", nil, nil, &fakeCommentator{text: "solid yield for this batch"}, YieldGate{}, nil)
	_, err := l.SelectBoard(2000, 150, 50, "batch-7")
	require.NoError(t, err)

	result, err := l.Review(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "solid yield for this batch", result.Commentary)
}

func TestReviewCommentaryFailureIsIgnored(t *testing.T) {
	l := New("worker-1", nil, nil, &fakeCommentator{err: errors.New("api down")}, YieldGate{}, nil)
	_, err := l.SelectBoard(2000, 150, 50, "batch-7")
	require.NoError(t, err)

	result, err := l.Review(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Commentary)
}

func TestSessionManager(t *testing.T) {
	sm := NewSessionManager(func(workerID string) *Ledger {
		return New(workerID, nil, nil, nil, YieldGate{}, nil)
	})

	first := sm.Get("worker-1")
	assert.Same(t, first, sm.Get("worker-1"))
	assert.NotSame(t, first, sm.Get("worker-2"))

	sm.Clear("worker-1")
	assert.NotSame(t, first, sm.Get("worker-1"))
}
