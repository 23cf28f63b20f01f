package ledger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/bfall/sawshift/internal/domain/models"
	"github.com/bfall/sawshift/internal/service/cart"
	"github.com/bfall/sawshift/internal/service/stats"
)

// Edit re-opens a previously saved history entry so its cart can be
// adjusted. Confirming with an empty cart soft-deletes the entry (a status
// update, never a row removal, so the remote side keeps its audit trail)
// and zeroes the local stats; otherwise the stats are recomputed and the
// remote record updated in place, keyed by board id.
type Edit struct {
	remote  RemoteStore
	history HistoryStore
	logger  *zap.Logger

	mu    sync.Mutex
	entry models.HistoryEntry
	items []models.CartItem
	busy  bool
}

// NewEdit starts an edit session over a saved entry.
func NewEdit(entry models.HistoryEntry, remote RemoteStore, history HistoryStore, logger *zap.Logger) *Edit {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Edit{
		remote:  remote,
		history: history,
		logger:  logger,
		entry:   entry,
		items:   append([]models.CartItem(nil), entry.Cart...),
	}
}

// Items returns the working cart.
func (e *Edit) Items() []models.CartItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.CartItem(nil), e.items...)
}

// ApplyDelta adjusts a product quantity in the working cart.
func (e *Edit) ApplyDelta(product models.Product, delta int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = cart.ApplyDelta(e.items, product, delta)
}

// RemoveProduct drops a product from the working cart.
func (e *Edit) RemoveProduct(productID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = cart.RemoveItem(e.items, productID)
}

// SetItems replaces the working cart wholesale. Used when the client
// submits the edited cart in one request.
func (e *Edit) SetItems(items []models.CartItem) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = append([]models.CartItem(nil), items...)
}

// Confirm applies the edit. Store failures leave the entry in its pre-call
// state and surface as a PersistenceError for a manual retry.
func (e *Edit) Confirm(ctx context.Context) (models.HistoryEntry, error) {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return models.HistoryEntry{}, ErrSaveInFlight
	}

	updated := e.entry
	updated.Cart = append([]models.CartItem(nil), e.items...)
	updated.ItemCount = cart.ItemCount(e.items)

	deleting := len(e.items) == 0
	if deleting {
		updated.Status = models.EntryDeleted
		updated.Earnings = 0
		updated.YieldPercent = 0
		updated.Cart = nil
	} else {
		lengthMm, widthMm, thicknessMm, err := models.ParseDimensionString(e.entry.Dimensions)
		if err != nil {
			e.mu.Unlock()
			return models.HistoryEntry{}, fmt.Errorf("recompute edited entry: %w", err)
		}
		board := models.Board{LengthMm: lengthMm, WidthMm: widthMm, ThicknessMm: thicknessMm}
		result := stats.Compute(&board, e.items)
		updated.Earnings = result.Earnings
		updated.YieldPercent = result.YieldPercent
	}

	e.busy = true
	e.mu.Unlock()

	err := e.persist(ctx, updated, deleting)

	e.mu.Lock()
	e.busy = false
	if err == nil {
		e.entry = updated
	}
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("history edit failed", zap.String("board_id", updated.BoardID), zap.Error(err))
		return models.HistoryEntry{}, err
	}

	e.logger.Info("history entry updated",
		zap.String("board_id", updated.BoardID),
		zap.String("status", string(updated.Status)),
		zap.Int("item_count", updated.ItemCount))

	return updated, nil
}

func (e *Edit) persist(ctx context.Context, updated models.HistoryEntry, deleting bool) error {
	if e.history != nil {
		if deleting {
			if err := e.history.MarkDeleted(ctx, updated.BoardID); err != nil {
				return &PersistenceError{Op: "mark local entry deleted", Err: err}
			}
		} else if err := e.history.Upsert(ctx, updated); err != nil {
			return &PersistenceError{Op: "store edited entry locally", Err: err}
		}
	}

	if e.remote == nil {
		return nil
	}

	if deleting {
		if err := e.remote.SoftDeleteShift(ctx, updated.BoardID); err != nil {
			return &PersistenceError{Op: "soft-delete shift on sheet", Err: err}
		}
		return nil
	}

	if err := e.remote.UpdateShift(ctx, updated); err != nil {
		return &PersistenceError{Op: "update shift on sheet", Err: err}
	}
	return nil
}
