package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bfall/sawshift/internal/domain/models"
)

const (
	productsRange = "Products!A2:H"
	batchesRange  = "Batches!A2:C"
	usersRange    = "Users!A2:D"

	batchStatusOpen = "open"
)

// ReferenceRepository reads the catalog, batch list and user list from the
// spreadsheet. All of it is reference data the service consumes but never
// mutates.
type ReferenceRepository struct {
	repo   Repository
	logger *zap.Logger
}

// NewReferenceRepository wires a reference reader over the sheet adapter.
func NewReferenceRepository(repo Repository, logger *zap.Logger) *ReferenceRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceRepository{repo: repo, logger: logger}
}

// FetchCatalog loads the product catalog. Rows with malformed dimensions or
// prices are skipped rather than failing the whole read; owners fix them in
// the sheet directly.
func (r *ReferenceRepository) FetchCatalog(ctx context.Context) ([]models.Product, error) {
	rows, err := r.repo.ReadRange(ctx, productsRange)
	if err != nil {
		return nil, fmt.Errorf("load products range: %w", err)
	}

	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		if len(row) < 7 {
			continue
		}

		lengthMm, errL := parseInt(row[3])
		widthMm, errW := parseInt(row[4])
		thicknessMm, errT := parseInt(row[5])
		price, errP := parseFloat(row[6])
		if errL != nil || errW != nil || errT != nil || errP != nil {
			r.logger.Debug("skip product row with invalid numbers", zap.Any("row", row))
			continue
		}

		product := models.Product{
			ID:          cell(row, 0),
			Name:        cell(row, 1),
			TypeID:      cell(row, 2),
			LengthMm:    lengthMm,
			WidthMm:     widthMm,
			ThicknessMm: thicknessMm,
			Price:       price,
			ImageURL:    cell(row, 7),
		}
		if product.ID == "" {
			continue
		}
		products = append(products, product)
	}

	return products, nil
}

// FetchOpenBatches loads the partitions currently accepting boards.
func (r *ReferenceRepository) FetchOpenBatches(ctx context.Context) ([]models.Partition, error) {
	rows, err := r.repo.ReadRange(ctx, batchesRange)
	if err != nil {
		return nil, fmt.Errorf("load batches range: %w", err)
	}

	batches := make([]models.Partition, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 || cell(row, 0) == "" {
			continue
		}

		open := strings.EqualFold(cell(row, 2), batchStatusOpen)
		if !open {
			continue
		}

		batches = append(batches, models.Partition{
			ID:   cell(row, 0),
			Name: cell(row, 1),
			Open: true,
		})
	}

	return batches, nil
}

// FetchUsers loads the sheet-backed user list for authentication.
func (r *ReferenceRepository) FetchUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.repo.ReadRange(ctx, usersRange)
	if err != nil {
		return nil, fmt.Errorf("load users range: %w", err)
	}

	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 || cell(row, 0) == "" {
			continue
		}

		role := models.ParseRole(cell(row, 2))
		if role == models.RoleUnknown {
			r.logger.Debug("skip user row with unknown role", zap.String("login", cell(row, 0)), zap.Any("role", row[2]))
			continue
		}

		users = append(users, models.User{
			Login:   cell(row, 0),
			PinHash: cell(row, 1),
			Role:    role,
			Name:    cell(row, 3),
		})
	}

	return users, nil
}

func cell(row []interface{}, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[idx]))
}

func parseInt(value interface{}) (int, error) {
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.Atoi(str)
}

func parseFloat(value interface{}) (float64, error) {
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseFloat(str, 64)
}
