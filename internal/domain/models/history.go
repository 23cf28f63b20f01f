package models

import "time"

// EntryStatus marks whether a history entry is live or soft-deleted.
// Deletion is always a status flip so the remote side keeps an audit trail.
type EntryStatus string

const (
	EntryActive  EntryStatus = "active"
	EntryDeleted EntryStatus = "deleted"
)

// AnalysisResult is derived from a (board, cart) pair and is never mutated
// independently; any cart change recomputes it. Suspect flags a yield above
// 100%, which is surfaced as-is rather than clamped.
type AnalysisResult struct {
	Earnings         float64 `bson:"earnings" json:"earnings"`
	YieldPercent     int     `bson:"yield_percent" json:"yield_percent"`
	BoardVolumeM3    float64 `bson:"board_volume_m3" json:"board_volume_m3"`
	ProductsVolumeM3 float64 `bson:"products_volume_m3" json:"products_volume_m3"`
	Suspect          bool    `bson:"suspect" json:"suspect"`
	Commentary       string  `bson:"commentary,omitempty" json:"commentary,omitempty"`
}

// ShiftTimings is the optional elapsed-time breakdown recorded per shift.
type ShiftTimings struct {
	FetchSeconds   int `bson:"fetch_seconds" json:"fetch_seconds"`
	MeasureSeconds int `bson:"measure_seconds" json:"measure_seconds"`
	SawSeconds     int `bson:"saw_seconds" json:"saw_seconds"`
}

// HistoryEntry is a persisted snapshot of one completed shift. At most one
// entry exists per board id; a second save for the same board overwrites.
type HistoryEntry struct {
	BoardID      string       `bson:"board_id" json:"board_id"`
	BatchID      string       `bson:"batch_id" json:"batch_id"`
	Dimensions   string       `bson:"dimensions" json:"dimensions"`
	Earnings     float64      `bson:"earnings" json:"earnings"`
	YieldPercent int          `bson:"yield_percent" json:"yield_percent"`
	ItemCount    int          `bson:"item_count" json:"item_count"`
	Cart         []CartItem   `bson:"cart" json:"cart"`
	Timings      ShiftTimings `bson:"timings" json:"timings"`
	Status       EntryStatus  `bson:"status" json:"status"`
	WorkerID     string       `bson:"worker_id" json:"worker_id"`
	SavedAt      time.Time    `bson:"saved_at" json:"saved_at"`
}

// DailySummary is the aggregated day snapshot stored by the scheduler.
type DailySummary struct {
	Date             time.Time `bson:"date" json:"date"`
	ShiftCount       int       `bson:"shift_count" json:"shift_count"`
	TotalEarnings    float64   `bson:"total_earnings" json:"total_earnings"`
	AverageYield     float64   `bson:"average_yield" json:"average_yield"`
	BoardVolumeM3    float64   `bson:"board_volume_m3" json:"board_volume_m3"`
	ProductsVolumeM3 float64   `bson:"products_volume_m3" json:"products_volume_m3"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
}
