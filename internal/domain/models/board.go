package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Board represents one unprocessed plank being tracked through a shift.
// Dimensions are linear millimeters. The id is opaque; CreatedAt is the
// separate elapsed-time anchor used for duration display.
type Board struct {
	ID          string    `bson:"board_id" json:"id"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	LengthMm    int       `bson:"length_mm" json:"length_mm"`
	WidthMm     int       `bson:"width_mm" json:"width_mm"`
	ThicknessMm int       `bson:"thickness_mm" json:"thickness_mm"`
	BatchID     string    `bson:"batch_id" json:"batch_id"`
}

// NewBoard mints a board with a fresh identifier and creation timestamp.
func NewBoard(lengthMm, widthMm, thicknessMm int, batchID string, now time.Time) Board {
	return Board{
		ID:          uuid.NewString(),
		CreatedAt:   now,
		LengthMm:    lengthMm,
		WidthMm:     widthMm,
		ThicknessMm: thicknessMm,
		BatchID:     batchID,
	}
}

// HasValidDimensions reports whether all three dimensions are positive.
func (b Board) HasValidDimensions() bool {
	return b.LengthMm > 0 && b.WidthMm > 0 && b.ThicknessMm > 0
}

// DimensionString renders the dimensions in the LxWxT form stored on
// history rows.
func (b Board) DimensionString() string {
	return fmt.Sprintf("%dx%dx%d", b.LengthMm, b.WidthMm, b.ThicknessMm)
}

// ParseDimensionString parses the LxWxT form back into millimeter
// dimensions. History entries store dimensions as a string; the edit flow
// needs the numbers back to recompute yield.
func ParseDimensionString(s string) (lengthMm, widthMm, thicknessMm int, err error) {
	parts := strings.Split(strings.TrimSpace(s), "x")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("malformed dimension string %q", s)
	}

	dims := make([]int, 3)
	for i, part := range parts {
		value, convErr := strconv.Atoi(strings.TrimSpace(part))
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("malformed dimension string %q: %w", s, convErr)
		}
		dims[i] = value
	}

	return dims[0], dims[1], dims[2], nil
}

// Partition is an externally managed grouping identifier boards are
// assigned to. Only open partitions accept new boards.
type Partition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Open bool   `json:"open"`
}
