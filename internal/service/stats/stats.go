// Package stats derives earnings, yield and volume figures from a board and
// the cart of products cut from it. Everything here is pure; callers invoke
// Compute on every cart mutation for live feedback.
package stats

import (
	"math"

	"github.com/bfall/sawshift/internal/domain/models"
)

const mm3PerM3 = 1e9

// VolumeMm3 returns the cubic-millimeter volume of a rectangular piece.
// Non-positive dimensions yield 0 so a "no board yet" state still renders
// zero volume without error; positivity checks belong to the caller.
func VolumeMm3(lengthMm, widthMm, thicknessMm int) float64 {
	if lengthMm <= 0 || widthMm <= 0 || thicknessMm <= 0 {
		return 0
	}
	return float64(lengthMm) * float64(widthMm) * float64(thicknessMm)
}

// VolumeM3 converts linear millimeter dimensions to cubic meters.
func VolumeM3(lengthMm, widthMm, thicknessMm int) float64 {
	return VolumeMm3(lengthMm, widthMm, thicknessMm) / mm3PerM3
}

// Compute derives the analysis figures for a board and cart. The board may
// be nil (warehouse/browsing mode); the result is then all zeros. Product
// volume is accumulated in cubic millimeters and divided once to avoid
// per-item rounding drift. Yield is round-half-up and never clamped; a
// value above 100 is marked Suspect but reported as computed.
func Compute(board *models.Board, cart []models.CartItem) models.AnalysisResult {
	var result models.AnalysisResult

	var boardMm3 float64
	if board != nil {
		boardMm3 = VolumeMm3(board.LengthMm, board.WidthMm, board.ThicknessMm)
	}

	var productsMm3 float64
	for _, item := range cart {
		result.Earnings += item.Product.Price * float64(item.Quantity)
		productsMm3 += VolumeMm3(item.Product.LengthMm, item.Product.WidthMm, item.Product.ThicknessMm) * float64(item.Quantity)
	}

	result.BoardVolumeM3 = boardMm3 / mm3PerM3
	result.ProductsVolumeM3 = productsMm3 / mm3PerM3

	if boardMm3 > 0 {
		result.YieldPercent = int(math.Round(productsMm3 / boardMm3 * 100))
	}
	result.Suspect = result.YieldPercent > 100

	return result
}
