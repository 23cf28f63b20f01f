package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bfall/sawshift/internal/domain/models"
	"github.com/bfall/sawshift/internal/repository/sheets"
	"github.com/bfall/sawshift/internal/service/ledger"
)

// workerHeader identifies the worker driving a shift flow. The mobile
// client sends it on every call after login.
const workerHeader = "X-Worker-ID"

// ShiftHandler exposes the shift workflow and reference data over HTTP.
type ShiftHandler struct {
	sessions *ledger.SessionManager
	refs     *sheets.ReferenceRepository
	logger   *zap.Logger
}

// NewShiftHandler constructs the HTTP handler adapter.
func NewShiftHandler(sessions *ledger.SessionManager, refs *sheets.ReferenceRepository, logger *zap.Logger) *ShiftHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShiftHandler{sessions: sessions, refs: refs, logger: logger}
}

func workerID(c *gin.Context) (string, bool) {
	id := c.GetHeader(workerHeader)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + workerHeader + " header"})
		return "", false
	}
	return id, true
}

// ledgerError maps ledger failures onto HTTP statuses.
func ledgerError(c *gin.Context, err error) {
	var gateErr *ledger.YieldOutOfRangeError
	var persistErr *ledger.PersistenceError

	switch {
	case errors.Is(err, ledger.ErrBoardDimensions),
		errors.Is(err, ledger.ErrEmptyBatch),
		errors.Is(err, ledger.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &gateErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrSaveInFlight), errors.Is(err, ledger.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &persistErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Catalog returns the product catalog.
func (h *ShiftHandler) Catalog(c *gin.Context) {
	products, err := h.refs.FetchCatalog(c.Request.Context())
	if err != nil {
		h.logger.Error("failed loading catalog", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// Batches returns the partitions currently accepting boards.
func (h *ShiftHandler) Batches(c *gin.Context) {
	batches, err := h.refs.FetchOpenBatches(c.Request.Context())
	if err != nil {
		h.logger.Error("failed loading batches", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "batch list unavailable"})
		return
	}
	c.JSON(http.StatusOK, batches)
}

type selectBoardRequest struct {
	LengthMm    int    `json:"length_mm" binding:"required"`
	WidthMm     int    `json:"width_mm" binding:"required"`
	ThicknessMm int    `json:"thickness_mm" binding:"required"`
	BatchID     string `json:"batch_id" binding:"required"`
}

// SelectBoard confirms the board being processed.
func (h *ShiftHandler) SelectBoard(c *gin.Context) {
	id, ok := workerID(c)
	if !ok {
		return
	}

	var req selectBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	board, err := h.sessions.Get(id).SelectBoard(req.LengthMm, req.WidthMm, req.ThicknessMm, req.BatchID)
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, board)
}

// Review computes the analysis for the current shift.
func (h *ShiftHandler) Review(c *gin.Context) {
	id, ok := workerID(c)
	if !ok {
		return
	}

	result, err := h.sessions.Get(id).Review(c.Request.Context())
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type cartDeltaRequest struct {
	Product models.Product `json:"product" binding:"required"`
	Delta   int            `json:"delta"`
}

// ApplyDelta adjusts a product quantity in the cart.
func (h *ShiftHandler) ApplyDelta(c *gin.Context) {
	id, ok := workerID(c)
	if !ok {
		return
	}

	var req cartDeltaRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Product.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	snap, err := h.sessions.Get(id).ApplyDelta(req.Product, req.Delta)
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// RemoveProduct drops a product from the cart.
func (h *ShiftHandler) RemoveProduct(c *gin.Context) {
	id, ok := workerID(c)
	if !ok {
		return
	}

	snap, err := h.sessions.Get(id).RemoveProduct(c.Param("productID"))
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ClearCart empties the cart.
func (h *ShiftHandler) ClearCart(c *gin.Context) {
	id, ok := workerID(c)
	if !ok {
		return
	}

	snap, err := h.sessions.Get(id).ClearCart()
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// SetTimings records the elapsed-time breakdown.
func (h *ShiftHandler) SetTimings(c *gin.Context) {
	id, ok := workerID(c)
	if !ok {
		return
	}

	var timings models.ShiftTimings
	if err := c.ShouldBindJSON(&timings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.sessions.Get(id).SetTimings(timings); err != nil {
		ledgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Save persists the reviewed shift.
func (h *ShiftHandler) Save(c *gin.Context) {
	id, ok := workerID(c)
	if !ok {
		return
	}

	entry, err := h.sessions.Get(id).Save(c.Request.Context())
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// NextBoard resets the worker's shift for the next board.
func (h *ShiftHandler) NextBoard(c *gin.Context) {
	id, ok := workerID(c)
	if !ok {
		return
	}

	if err := h.sessions.Get(id).NextBoard(); err != nil {
		ledgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Snapshot returns the worker's current shift view.
func (h *ShiftHandler) Snapshot(c *gin.Context) {
	id, ok := workerID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.sessions.Get(id).Snapshot())
}
