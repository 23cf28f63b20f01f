package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bfall/sawshift/internal/domain/models"
	"github.com/bfall/sawshift/internal/repository/mongodb"
	"github.com/bfall/sawshift/internal/service/ledger"
	"github.com/bfall/sawshift/internal/service/reporting"
)

const queryDateLayout = "2006-01-02"

// HistoryHandler serves the saved-shift list, the edit-existing-entry flow
// and the period summaries.
type HistoryHandler struct {
	store     mongodb.Repository
	remote    ledger.RemoteStore
	reporting *reporting.Service
	edits     *ledger.EditManager
	logger    *zap.Logger
}

// NewHistoryHandler constructs the history handler adapter.
func NewHistoryHandler(store mongodb.Repository, remote ledger.RemoteStore, reportingSvc *reporting.Service, logger *zap.Logger) *HistoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryHandler{
		store:     store,
		remote:    remote,
		reporting: reportingSvc,
		edits:     ledger.NewEditManager(),
		logger:    logger,
	}
}

func parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now()
	start := now.AddDate(0, 0, -7)
	end := now

	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse(queryDateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
			return time.Time{}, time.Time{}, false
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse(queryDateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
			return time.Time{}, time.Time{}, false
		}
		// Inclusive end date.
		end = parsed.AddDate(0, 0, 1).Add(-time.Second)
	}

	return start, end, true
}

// List returns locally stored history entries in a date window.
func (h *HistoryHandler) List(c *gin.Context) {
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	entries, err := h.store.List(c.Request.Context(), start, end)
	if err != nil {
		h.logger.Error("failed listing history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

type editRequest struct {
	Items []models.CartItem `json:"items"`
}

// Edit confirms an edit of a previously saved entry. An empty cart soft
// deletes the entry; otherwise stats are recomputed and the remote record
// updated in place.
func (h *HistoryHandler) Edit(c *gin.Context) {
	boardID := c.Param("boardID")

	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// One edit session per board id; a second request while a confirm is
	// in flight sees the same session and gets rejected by its flag.
	edit, err := h.edits.Get(boardID, func() (*ledger.Edit, error) {
		entry, err := h.store.Get(c.Request.Context(), boardID)
		if err != nil {
			return nil, err
		}
		return ledger.NewEdit(entry, h.remote, h.store, h.logger.Named("edit")), nil
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown board id"})
		return
	}

	edit.SetItems(req.Items)

	updated, err := edit.Confirm(c.Request.Context())
	if err != nil {
		ledgerError(c, err)
		return
	}
	h.edits.Clear(boardID)
	c.JSON(http.StatusOK, updated)
}

// Summary returns the aggregated shift figures for a date window.
func (h *HistoryHandler) Summary(c *gin.Context) {
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	stats, err := h.reporting.Summary(c.Request.Context(), start, end)
	if err != nil {
		h.logger.Error("failed building summary", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "summary unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":   stats,
		"message": h.reporting.FormatSummary(stats, start, end),
	})
}
