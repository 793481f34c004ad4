// Package reporting produces the low-stock / near-expiry inventory report
// consumed by the weekly scheduler job and the admin report endpoint.
package reporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"biostorex/internal/auth"
	"biostorex/internal/domain/apperr"
	"biostorex/internal/domain/models"
	"biostorex/internal/repository"
)

const dateLayout = "2006-01-02"

// SheetWriter is the spreadsheet export target; nil disables the export.
type SheetWriter interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
}

// Service exposes inventory health reporting.
type Service struct {
	items        repository.ItemStore
	sheets       SheetWriter
	sheetRange   string
	expiryWindow time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewService wires a reporting service instance.
func NewService(items repository.ItemStore, sheets SheetWriter, sheetRange string, expiryWindowDays int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		items:        items,
		sheets:       sheets,
		sheetRange:   sheetRange,
		expiryWindow: time.Duration(expiryWindowDays) * 24 * time.Hour,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// LowStockEntry flags an item at or below its minimum threshold.
type LowStockEntry struct {
	ItemName      string `json:"itemName"`
	SKU           string `json:"sku"`
	TotalQuantity int    `json:"totalQuantity"`
	MinThreshold  int    `json:"minThreshold"`
}

// ExpiringBatch flags a batch whose expiry falls inside the report window.
type ExpiringBatch struct {
	ItemName   string    `json:"itemName"`
	BatchNo    string    `json:"batchNo"`
	Quantity   int       `json:"quantity"`
	ExpiryDate time.Time `json:"expiryDate"`
}

// InventoryReport is a point-in-time health snapshot of the catalog.
type InventoryReport struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	ItemCount   int             `json:"itemCount"`
	LowStock    []LowStockEntry `json:"lowStock"`
	Expiring    []ExpiringBatch `json:"expiring"`
}

// InventoryReportFor is the gated entry point used by the admin endpoint.
func (s *Service) InventoryReportFor(ctx context.Context, actor *models.User) (*InventoryReport, error) {
	if err := auth.Authorize(actor, auth.OpInventoryReport); err != nil {
		return nil, err
	}
	return s.Generate(ctx)
}

// Generate scans the catalog and builds the report.
func (s *Service) Generate(ctx context.Context) (*InventoryReport, error) {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list items", err)
	}

	now := s.now()
	horizon := now.Add(s.expiryWindow)
	report := &InventoryReport{GeneratedAt: now, ItemCount: len(items)}

	for _, item := range items {
		if item.TotalQuantity <= item.MinThreshold {
			report.LowStock = append(report.LowStock, LowStockEntry{
				ItemName:      item.Name,
				SKU:           item.SKU,
				TotalQuantity: item.TotalQuantity,
				MinThreshold:  item.MinThreshold,
			})
		}
		for _, batch := range item.Batches {
			if batch.ExpiryDate == nil || batch.Quantity == 0 {
				continue
			}
			if batch.ExpiryDate.Before(horizon) {
				report.Expiring = append(report.Expiring, ExpiringBatch{
					ItemName:   item.Name,
					BatchNo:    batch.BatchNo,
					Quantity:   batch.Quantity,
					ExpiryDate: *batch.ExpiryDate,
				})
			}
		}
	}

	return report, nil
}

// Export appends one row per finding to the configured spreadsheet. A nil
// sheet writer makes this a no-op.
func (s *Service) Export(ctx context.Context, report *InventoryReport) error {
	if s.sheets == nil {
		return nil
	}

	stamp := report.GeneratedAt.Format(dateLayout)
	for _, entry := range report.LowStock {
		row := []interface{}{stamp, "LOW_STOCK", entry.ItemName, entry.SKU, entry.TotalQuantity, entry.MinThreshold, ""}
		if err := s.sheets.WriteRow(ctx, s.sheetRange, row); err != nil {
			return fmt.Errorf("export low stock row: %w", err)
		}
	}
	for _, batch := range report.Expiring {
		row := []interface{}{stamp, "EXPIRING", batch.ItemName, batch.BatchNo, batch.Quantity, "", batch.ExpiryDate.Format(dateLayout)}
		if err := s.sheets.WriteRow(ctx, s.sheetRange, row); err != nil {
			return fmt.Errorf("export expiring row: %w", err)
		}
	}

	return nil
}

// Summary renders a short human-readable digest for the job log.
func (s *Service) Summary(report *InventoryReport) string {
	if len(report.LowStock) == 0 && len(report.Expiring) == 0 {
		return fmt.Sprintf("Inventory report %s: %d items, no findings.", report.GeneratedAt.Format(dateLayout), report.ItemCount)
	}
	return fmt.Sprintf("Inventory report %s: %d items, %d below threshold, %d batches expiring soon.",
		report.GeneratedAt.Format(dateLayout), report.ItemCount, len(report.LowStock), len(report.Expiring))
}
