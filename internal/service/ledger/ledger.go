// Package ledger owns the in-progress shift: the current board, the cart of
// products cut from it, the derived analysis, and the save/edit/soft-delete
// protocol against the remote persistence collaborator.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bfall/sawshift/internal/domain/models"
	"github.com/bfall/sawshift/internal/service/cart"
	"github.com/bfall/sawshift/internal/service/stats"
)

// State enumerates the shift lifecycle.
type State string

const (
	StateEmpty         State = "empty"
	StateBoardSelected State = "board_selected"
	StateReviewed      State = "reviewed"
	StateSaved         State = "saved"
)

// RemoteStore is the external persistence collaborator (the Apps Script
// webhook). It may be absent entirely; the ledger then works against local
// history alone. SaveShift must be idempotent per board id.
type RemoteStore interface {
	SaveShift(ctx context.Context, entry models.HistoryEntry) error
	UpdateShift(ctx context.Context, entry models.HistoryEntry) error
	SoftDeleteShift(ctx context.Context, boardID string) error
}

// HistoryStore is the local record of saved shifts, keyed by board id. It
// is the fallback of record when the remote collaborator is unreachable.
type HistoryStore interface {
	Upsert(ctx context.Context, entry models.HistoryEntry) error
	MarkDeleted(ctx context.Context, boardID string) error
}

// Commentator optionally enriches a review with free-text commentary. A
// commentary failure never fails the review.
type Commentator interface {
	Comment(ctx context.Context, board models.Board, items []models.CartItem, result models.AnalysisResult) (string, error)
}

// YieldGate optionally rejects saves whose yield falls outside a band.
type YieldGate struct {
	Enabled    bool
	MinPercent int
	MaxPercent int
}

// Check returns a YieldOutOfRangeError when the gate is enabled and the
// yield falls outside the band.
func (g YieldGate) Check(yieldPercent int) error {
	if !g.Enabled {
		return nil
	}
	if yieldPercent < g.MinPercent || yieldPercent > g.MaxPercent {
		return &YieldOutOfRangeError{YieldPercent: yieldPercent, MinPercent: g.MinPercent, MaxPercent: g.MaxPercent}
	}
	return nil
}

// Ledger tracks a single worker's in-progress shift. All methods are safe
// for the single-flow usage the HTTP layer drives; the mutex exists to
// serialize saves, not to support concurrent shifts.
type Ledger struct {
	workerID    string
	remote      RemoteStore
	history     HistoryStore
	commentator Commentator
	gate        YieldGate
	logger      *zap.Logger
	now         func() time.Time

	mu      sync.Mutex
	state   State
	board   *models.Board
	items   []models.CartItem
	result  *models.AnalysisResult
	timings models.ShiftTimings
	saving  bool
}

// New wires a ledger for one worker. remote may be nil when no webhook is
// configured; history may be nil in degraded setups.
func New(workerID string, remote RemoteStore, history HistoryStore, commentator Commentator, gate YieldGate, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		workerID:    workerID,
		remote:      remote,
		history:     history,
		commentator: commentator,
		gate:        gate,
		logger:      logger,
		now:         time.Now,
		state:       StateEmpty,
	}
}

// State returns the current lifecycle state.
func (l *Ledger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Snapshot is a read-only view of the current shift handed to the HTTP layer.
type Snapshot struct {
	State   State                  `json:"state"`
	Board   *models.Board          `json:"board,omitempty"`
	Items   []models.CartItem      `json:"items"`
	Result  *models.AnalysisResult `json:"result,omitempty"`
	Timings models.ShiftTimings    `json:"timings"`
}

// Snapshot copies the current shift state for rendering.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// SelectBoard confirms the board being processed and starts the shift.
// Rejected when dimensions are non-positive or the batch id is empty; the
// caller re-prompts, the ledger stays Empty.
func (l *Ledger) SelectBoard(lengthMm, widthMm, thicknessMm int, batchID string) (models.Board, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateEmpty {
		return models.Board{}, fmt.Errorf("select board in state %s: %w", l.state, ErrInvalidTransition)
	}
	if lengthMm <= 0 || widthMm <= 0 || thicknessMm <= 0 {
		return models.Board{}, ErrBoardDimensions
	}
	if batchID == "" {
		return models.Board{}, ErrEmptyBatch
	}

	board := models.NewBoard(lengthMm, widthMm, thicknessMm, batchID, l.now())
	l.board = &board
	l.items = nil
	l.result = nil
	l.timings = models.ShiftTimings{}
	l.state = StateBoardSelected

	l.logger.Info("board selected",
		zap.String("worker_id", l.workerID),
		zap.String("board_id", board.ID),
		zap.String("dimensions", board.DimensionString()),
		zap.String("batch_id", batchID))

	return board, nil
}

// Review computes the analysis for the current board and cart and moves the
// shift to Reviewed. Works with an empty cart (used to produce a "no items
// yet" view). Commentary enrichment is best-effort.
func (l *Ledger) Review(ctx context.Context) (models.AnalysisResult, error) {
	l.mu.Lock()
	if l.state != StateBoardSelected && l.state != StateReviewed {
		state := l.state
		l.mu.Unlock()
		return models.AnalysisResult{}, fmt.Errorf("review in state %s: %w", state, ErrInvalidTransition)
	}
	board := *l.board
	items := append([]models.CartItem(nil), l.items...)
	l.mu.Unlock()

	result := stats.Compute(&board, items)

	if l.commentator != nil {
		commentary, err := l.commentator.Comment(ctx, board, items, result)
		if err != nil {
			l.logger.Warn("commentary unavailable", zap.String("board_id", board.ID), zap.Error(err))
		} else {
			result.Commentary = commentary
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.result = &result
	l.state = StateReviewed
	return result, nil
}

// ApplyDelta adjusts a product quantity in the cart. When the shift is
// already Reviewed, the analysis is recomputed synchronously so the view
// never diverges from the cart; no fresh commentary round-trip happens for
// a cart-only change.
func (l *Ledger) ApplyDelta(product models.Product, delta int) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateBoardSelected && l.state != StateReviewed {
		return Snapshot{}, fmt.Errorf("edit cart in state %s: %w", l.state, ErrInvalidTransition)
	}

	l.items = cart.ApplyDelta(l.items, product, delta)
	l.recomputeLocked()
	return l.snapshotLocked(), nil
}

// RemoveProduct drops a product from the cart regardless of quantity.
func (l *Ledger) RemoveProduct(productID string) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateBoardSelected && l.state != StateReviewed {
		return Snapshot{}, fmt.Errorf("edit cart in state %s: %w", l.state, ErrInvalidTransition)
	}

	l.items = cart.RemoveItem(l.items, productID)
	l.recomputeLocked()
	return l.snapshotLocked(), nil
}

// ClearCart empties the cart.
func (l *Ledger) ClearCart() (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateBoardSelected && l.state != StateReviewed {
		return Snapshot{}, fmt.Errorf("edit cart in state %s: %w", l.state, ErrInvalidTransition)
	}

	l.items = cart.Clear(l.items)
	l.recomputeLocked()
	return l.snapshotLocked(), nil
}

// SetTimings records the elapsed-time breakdown for the shift. Display-only
// data; allowed any time before the shift is saved.
func (l *Ledger) SetTimings(timings models.ShiftTimings) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateSaved {
		return fmt.Errorf("set timings in state %s: %w", l.state, ErrInvalidTransition)
	}
	l.timings = timings
	return nil
}

// Save produces the history entry for the reviewed shift and hands it to
// the stores: local history first so the worker's data survives a remote
// outage, then the remote collaborator. A remote failure surfaces as a
// PersistenceError and leaves the ledger in Reviewed for a manual retry;
// saving the same board twice overwrites the earlier record. One save at a
// time per shift.
func (l *Ledger) Save(ctx context.Context) (models.HistoryEntry, error) {
	l.mu.Lock()
	if l.saving {
		l.mu.Unlock()
		return models.HistoryEntry{}, ErrSaveInFlight
	}
	if l.state != StateReviewed {
		state := l.state
		l.mu.Unlock()
		return models.HistoryEntry{}, fmt.Errorf("save in state %s: %w", state, ErrInvalidTransition)
	}
	if len(l.items) == 0 {
		l.mu.Unlock()
		return models.HistoryEntry{}, ErrEmptyCart
	}
	if err := l.gate.Check(l.result.YieldPercent); err != nil {
		l.mu.Unlock()
		return models.HistoryEntry{}, err
	}

	entry := models.HistoryEntry{
		BoardID:      l.board.ID,
		BatchID:      l.board.BatchID,
		Dimensions:   l.board.DimensionString(),
		Earnings:     l.result.Earnings,
		YieldPercent: l.result.YieldPercent,
		ItemCount:    cart.ItemCount(l.items),
		Cart:         append([]models.CartItem(nil), l.items...),
		Timings:      l.timings,
		Status:       models.EntryActive,
		WorkerID:     l.workerID,
		SavedAt:      l.now(),
	}
	l.saving = true
	l.mu.Unlock()

	err := l.persist(ctx, entry)

	l.mu.Lock()
	l.saving = false
	if err == nil {
		l.state = StateSaved
	}
	l.mu.Unlock()

	if err != nil {
		l.logger.Warn("shift save failed", zap.String("board_id", entry.BoardID), zap.Error(err))
		return models.HistoryEntry{}, err
	}

	l.logger.Info("shift saved",
		zap.String("worker_id", l.workerID),
		zap.String("board_id", entry.BoardID),
		zap.Float64("earnings", entry.Earnings),
		zap.Int("yield_percent", entry.YieldPercent))

	return entry, nil
}

func (l *Ledger) persist(ctx context.Context, entry models.HistoryEntry) error {
	if l.history != nil {
		if err := l.history.Upsert(ctx, entry); err != nil {
			return &PersistenceError{Op: "store shift locally", Err: err}
		}
	}
	if l.remote == nil {
		return nil
	}
	if err := l.remote.SaveShift(ctx, entry); err != nil {
		return &PersistenceError{Op: "sync shift to sheet", Err: err}
	}
	return nil
}

// NextBoard resets the ledger for the next shift.
func (l *Ledger) NextBoard() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateSaved {
		return fmt.Errorf("next board in state %s: %w", l.state, ErrInvalidTransition)
	}

	l.board = nil
	l.items = nil
	l.result = nil
	l.timings = models.ShiftTimings{}
	l.state = StateEmpty
	return nil
}

// recomputeLocked refreshes the analysis after a cart change while the
// shift is in Reviewed. Caller holds the mutex.
func (l *Ledger) recomputeLocked() {
	if l.state != StateReviewed {
		return
	}
	commentary := ""
	if l.result != nil {
		commentary = l.result.Commentary
	}
	result := stats.Compute(l.board, l.items)
	result.Commentary = commentary
	l.result = &result
}

func (l *Ledger) snapshotLocked() Snapshot {
	snap := Snapshot{State: l.state, Timings: l.timings}
	if l.board != nil {
		board := *l.board
		snap.Board = &board
	}
	snap.Items = append([]models.CartItem(nil), l.items...)
	if l.result != nil {
		result := *l.result
		snap.Result = &result
	}
	return snap
}
