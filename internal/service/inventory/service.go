// Package inventory owns the batch ledger: stock additions, removals and
// the depletion/restoration primitives the request lifecycle builds on.
// Every stock-affecting mutation is serialized through a per-item lock so
// concurrent operations cannot oversell.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"biostorex/internal/auth"
	"biostorex/internal/domain/apperr"
	"biostorex/internal/domain/models"
	"biostorex/internal/keyedlock"
	"biostorex/internal/repository"
	"biostorex/pkg/clients/cloudinary"
)

// Service implements the stock mutation operations.
type Service struct {
	items  repository.ItemStore
	logs   repository.LogStore
	images cloudinary.Client // nil when image storage is not configured
	logger *zap.Logger
	locks  keyedlock.Locks
	newSKU func() string
}

// NewService wires an inventory service instance.
func NewService(items repository.ItemStore, logs repository.LogStore, images cloudinary.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		items:  items,
		logs:   logs,
		images: images,
		logger: logger,
		newSKU: generateSKU,
	}
}

func generateSKU() string {
	return "SKU-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// AddStockInput carries the add-stock parameters. Image is optional.
type AddStockInput struct {
	Name       string
	Category   string
	UnitType   string
	Quantity   int
	BatchNo    string
	ExpiryDate *time.Time
	ImageName  string
	Image      io.Reader
}

// AddStock creates the item on first sight of a name, otherwise appends a
// new batch. Batches are never merged, even for a repeated batch number.
func (s *Service) AddStock(ctx context.Context, actor *models.User, in AddStockInput) (*models.Item, error) {
	if err := auth.Authorize(actor, auth.OpAddStock); err != nil {
		return nil, err
	}

	if in.Name == "" || in.Category == "" || in.UnitType == "" || in.BatchNo == "" || in.Quantity == 0 {
		return nil, apperr.Validation("all fields are required")
	}
	if in.Quantity < 0 {
		return nil, apperr.Validation("quantity must be positive")
	}

	category, err := models.ParseCategory(in.Category)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	unitType, err := models.ParseUnitType(in.UnitType)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	imageURL, imagePublicID := s.uploadImage(ctx, in)

	// The name lock serializes first creation only; two concurrent first-adds
	// of the same name cannot create the item twice. Mutations of an existing
	// item take the item-ID lock below, the same lock every other stock path
	// holds. Name then ID is the only lock ordering, so no deadlock.
	name := models.NormalizeItemName(in.Name)
	unlockName := s.locks.Acquire("name:" + name)
	defer unlockName()

	batch := models.Batch{BatchNo: in.BatchNo, Quantity: in.Quantity, ExpiryDate: in.ExpiryDate}

	item, err := s.items.FindItemByName(ctx, name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if item, err = s.createItem(ctx, name, category, unitType, imageURL, imagePublicID, batch); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, apperr.Internal("failed to look up item", err)
	default:
		unlockItem := s.locks.Acquire(item.ID)
		defer unlockItem()

		// Re-read under the item lock; the name lookup ran outside it.
		item, err = s.items.FindItemByID(ctx, item.ID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			// A concurrent removal deleted the item on zero stock. The name
			// lock is still held, so creating anew stays race-free.
			if item, err = s.createItem(ctx, name, category, unitType, imageURL, imagePublicID, batch); err != nil {
				return nil, err
			}
		case err != nil:
			return nil, apperr.Internal("failed to find item", err)
		default:
			item.AppendBatch(batch)
			if imageURL != "" {
				item.Image = imageURL
				item.ImagePublicID = imagePublicID
			}
			if err := s.items.UpdateItem(ctx, item); err != nil {
				return nil, apperr.Internal("failed to update item", err)
			}
		}
	}

	note := fmt.Sprintf("Added batch %s", in.BatchNo)
	if in.ExpiryDate != nil {
		note = fmt.Sprintf("%s (Expiry: %s)", note, in.ExpiryDate.Format("2006-01-02"))
	}
	if err := s.appendStockLog(ctx, item.ID, models.StockLogAdd, in.Quantity, actor.ID, note); err != nil {
		return nil, err
	}

	return item, nil
}

func (s *Service) createItem(ctx context.Context, name string, category models.Category, unitType models.UnitType, imageURL, imagePublicID string, batch models.Batch) (*models.Item, error) {
	item := &models.Item{
		Name:          name,
		Category:      category,
		UnitType:      unitType,
		Image:         imageURL,
		ImagePublicID: imagePublicID,
		Batches:       []models.Batch{batch},
		TotalQuantity: batch.Quantity,
		MinThreshold:  5,
		SKU:           s.newSKU(),
	}
	if err := s.items.InsertItem(ctx, item); err != nil {
		return nil, apperr.Internal("failed to create item", err)
	}
	return item, nil
}

// uploadImage is best-effort: a failed upload is logged and the stock
// addition proceeds without an image.
func (s *Service) uploadImage(ctx context.Context, in AddStockInput) (url, publicID string) {
	if s.images == nil || in.Image == nil {
		return "", ""
	}
	res, err := s.images.Upload(ctx, in.ImageName, in.Image)
	if err != nil {
		s.logger.Warn("image upload failed", zap.String("file", in.ImageName), zap.Error(err))
		return "", ""
	}
	return res.SecureURL, res.PublicID
}

// RemoveStockInput carries the remove-stock parameters. BatchNo empty means
// FIFO depletion across the batch list.
type RemoveStockInput struct {
	ItemID   string
	Quantity int
	BatchNo  string
	Note     string
}

// RemoveStock decrements stock and deletes the item outright when its total
// reaches zero. The returned item is nil after such a deletion.
func (s *Service) RemoveStock(ctx context.Context, actor *models.User, in RemoveStockInput) (*models.Item, error) {
	if err := auth.Authorize(actor, auth.OpRemoveStock); err != nil {
		return nil, err
	}

	if in.ItemID == "" || in.Quantity == 0 {
		return nil, apperr.Validation("item ID and quantity are required")
	}
	if in.Quantity < 0 {
		return nil, apperr.Validation("quantity must be positive")
	}

	unlock := s.locks.Acquire(in.ItemID)
	defer unlock()

	item, err := s.findItem(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}

	if in.BatchNo != "" {
		batch := item.BatchByNo(in.BatchNo)
		if batch == nil {
			return nil, apperr.NotFound(fmt.Sprintf("batch %s not found", in.BatchNo))
		}
		if batch.Quantity < in.Quantity {
			return nil, apperr.InsufficientStock(fmt.Sprintf("insufficient stock in batch %s", in.BatchNo))
		}
		item.DepleteBatch(in.BatchNo, in.Quantity)
	} else {
		if item.TotalQuantity < in.Quantity {
			return nil, apperr.InsufficientStock("insufficient total stock")
		}
		item.DepleteFIFO(in.Quantity)
	}

	note := in.Note
	if note == "" {
		note = fmt.Sprintf("Removed %d units", in.Quantity)
		if in.BatchNo != "" {
			note = fmt.Sprintf("%s from batch %s", note, in.BatchNo)
		}
	}
	if err := s.appendStockLog(ctx, item.ID, models.StockLogRemove, in.Quantity, actor.ID, note); err != nil {
		return nil, err
	}

	if item.TotalQuantity <= 0 {
		s.releaseImage(ctx, item)
		if err := s.items.DeleteItem(ctx, item.ID); err != nil {
			return nil, apperr.Internal("failed to delete item", err)
		}
		s.logger.Info("item deleted on zero stock", zap.String("item", item.ID), zap.String("name", item.Name))
		return nil, nil
	}

	if err := s.items.UpdateItem(ctx, item); err != nil {
		return nil, apperr.Internal("failed to update item", err)
	}
	return item, nil
}

// releaseImage is best-effort cleanup of the externally hosted asset;
// failures are logged, never escalated.
func (s *Service) releaseImage(ctx context.Context, item *models.Item) {
	if s.images == nil || item.ImagePublicID == "" {
		return
	}
	if err := s.images.Destroy(ctx, item.ImagePublicID); err != nil {
		s.logger.Warn("failed to release item image",
			zap.String("item", item.ID),
			zap.String("publicId", item.ImagePublicID),
			zap.Error(err))
	}
}

// DepleteForIssue removes qty units FIFO on behalf of an issuance. The
// sufficiency check runs under the item lock, so concurrent issues against
// the same item cannot both pass it. Authorization belongs to the caller.
func (s *Service) DepleteForIssue(ctx context.Context, itemID string, qty int) (*models.Item, error) {
	unlock := s.locks.Acquire(itemID)
	defer unlock()

	item, err := s.findItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.TotalQuantity < qty {
		return nil, apperr.InsufficientStock("insufficient stock")
	}

	item.DepleteFIFO(qty)
	if err := s.items.UpdateItem(ctx, item); err != nil {
		return nil, apperr.Internal("failed to update item", err)
	}
	return item, nil
}

// RestoreForReturn credits qty units back to the item's first batch on
// behalf of a processed return.
func (s *Service) RestoreForReturn(ctx context.Context, itemID string, qty int) (*models.Item, error) {
	unlock := s.locks.Acquire(itemID)
	defer unlock()

	item, err := s.findItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	item.RestoreFront(qty)
	if err := s.items.UpdateItem(ctx, item); err != nil {
		return nil, apperr.Internal("failed to update item", err)
	}
	return item, nil
}

// GetItem fetches a single catalog entry.
func (s *Service) GetItem(ctx context.Context, itemID string) (*models.Item, error) {
	return s.findItem(ctx, itemID)
}

// ListItems lists the whole catalog.
func (s *Service) ListItems(ctx context.Context) ([]models.Item, error) {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list items", err)
	}
	return items, nil
}

// StockLogs returns the audit trail of add/remove operations for an item.
func (s *Service) StockLogs(ctx context.Context, actor *models.User, itemID string) ([]models.StockLog, error) {
	if err := auth.Authorize(actor, auth.OpViewAuditLogs); err != nil {
		return nil, err
	}
	logs, err := s.logs.ListStockLogsByItem(ctx, itemID)
	if err != nil {
		return nil, apperr.Internal("failed to list stock logs", err)
	}
	return logs, nil
}

// IssueLogs returns the audit trail of issues and returns for an item.
func (s *Service) IssueLogs(ctx context.Context, actor *models.User, itemID string) ([]models.IssueLog, error) {
	if err := auth.Authorize(actor, auth.OpViewAuditLogs); err != nil {
		return nil, err
	}
	logs, err := s.logs.ListIssueLogsByItem(ctx, itemID)
	if err != nil {
		return nil, apperr.Internal("failed to list issue logs", err)
	}
	return logs, nil
}

func (s *Service) findItem(ctx context.Context, itemID string) (*models.Item, error) {
	item, err := s.items.FindItemByID(ctx, itemID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("item not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to find item", err)
	}
	return item, nil
}

func (s *Service) appendStockLog(ctx context.Context, itemID string, typ models.StockLogType, qty int, actorID, note string) error {
	entry := &models.StockLog{
		ItemID:      itemID,
		Type:        typ,
		Quantity:    qty,
		PerformedBy: actorID,
		Note:        note,
	}
	if err := s.logs.AppendStockLog(ctx, entry); err != nil {
		return apperr.Internal("failed to append stock log", err)
	}
	return nil
}
