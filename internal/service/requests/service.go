// Package requests implements the material-request lifecycle:
// PENDING -> APPROVED -> ISSUED -> RETURNED, with DECLINED as the other
// terminal branch. Stock is only touched at issue and return time, through
// the inventory service's locked depletion/restoration primitives. State
// transitions serialize on the request ID, so a transition cannot run twice
// against the same snapshot.
package requests

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"biostorex/internal/auth"
	"biostorex/internal/domain/apperr"
	"biostorex/internal/domain/models"
	"biostorex/internal/keyedlock"
	"biostorex/internal/repository"
	"biostorex/internal/service/inventory"
)

// Service implements the request state machine.
type Service struct {
	requests  repository.RequestStore
	items     repository.ItemStore
	logs      repository.LogStore
	inventory *inventory.Service
	logger    *zap.Logger
	locks     keyedlock.Locks
	now       func() time.Time
}

// NewService wires a request service instance.
func NewService(requests repository.RequestStore, items repository.ItemStore, logs repository.LogStore, inv *inventory.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		requests:  requests,
		items:     items,
		logs:      logs,
		inventory: inv,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RequestItem creates a PENDING request. The stock check here is advisory:
// nothing is reserved until issue time.
func (s *Service) RequestItem(ctx context.Context, actor *models.User, itemID string, quantity int) (*models.Request, error) {
	if err := auth.Authorize(actor, auth.OpRequestItem); err != nil {
		return nil, err
	}

	if itemID == "" || quantity == 0 {
		return nil, apperr.Validation("item ID and quantity are required")
	}
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}

	item, err := s.findItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if quantity > item.TotalQuantity {
		return nil, apperr.InsufficientStock("requested quantity exceeds available stock")
	}

	_, err = s.requests.FindPendingRequest(ctx, actor.ID, itemID)
	if err == nil {
		return nil, apperr.Conflict("a pending request for this item already exists")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal("failed to check pending requests", err)
	}

	req := &models.Request{
		UserID:            actor.ID,
		ItemID:            itemID,
		QuantityRequested: quantity,
		Status:            models.StatusPending,
	}
	if err := s.requests.InsertRequest(ctx, req); err != nil {
		return nil, apperr.Internal("failed to create request", err)
	}

	s.logger.Info("request created",
		zap.String("request", req.ID),
		zap.String("user", actor.ID),
		zap.String("item", itemID),
		zap.Int("quantity", quantity))
	return req, nil
}

// Approve moves PENDING -> APPROVED. Stock stays untouched; sufficiency is
// re-checked as a second advisory gate.
func (s *Service) Approve(ctx context.Context, actor *models.User, requestID string) (*models.Request, error) {
	if err := auth.Authorize(actor, auth.OpApproveRequest); err != nil {
		return nil, err
	}

	unlock := s.locks.Acquire(requestID)
	defer unlock()

	req, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransition(models.StatusApproved) {
		return nil, apperr.Conflict("request is already processed")
	}

	item, err := s.findItem(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if req.QuantityRequested > item.TotalQuantity {
		return nil, apperr.InsufficientStock("not enough stock available")
	}

	req.Status = models.StatusApproved
	req.QuantityApproved = req.QuantityRequested
	req.ApprovedBy = actor.ID

	if err := s.requests.UpdateRequest(ctx, req); err != nil {
		return nil, apperr.Internal("failed to update request", err)
	}
	return req, nil
}

// Decline moves PENDING -> DECLINED, a terminal state.
func (s *Service) Decline(ctx context.Context, actor *models.User, requestID, reason string) (*models.Request, error) {
	if err := auth.Authorize(actor, auth.OpDeclineRequest); err != nil {
		return nil, err
	}

	unlock := s.locks.Acquire(requestID)
	defer unlock()

	req, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransition(models.StatusDeclined) {
		return nil, apperr.Conflict("request is already processed")
	}

	if reason == "" {
		reason = "No reason provided"
	}
	req.Status = models.StatusDeclined
	req.DeclineReason = reason
	req.ApprovedBy = actor.ID

	if err := s.requests.UpdateRequest(ctx, req); err != nil {
		return nil, apperr.Internal("failed to update request", err)
	}
	return req, nil
}

// Issue moves APPROVED -> ISSUED, depleting stock FIFO under the item lock
// and emitting a positive IssueLog row.
func (s *Service) Issue(ctx context.Context, actor *models.User, requestID string) (*models.Request, error) {
	if err := auth.Authorize(actor, auth.OpIssueItem); err != nil {
		return nil, err
	}

	unlock := s.locks.Acquire(requestID)
	defer unlock()

	req, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransition(models.StatusIssued) {
		if req.Status.Terminal() {
			return nil, apperr.Conflict("request is already processed")
		}
		return nil, apperr.Conflict("request must be approved before issuing")
	}

	item, err := s.inventory.DepleteForIssue(ctx, req.ItemID, req.QuantityApproved)
	if err != nil {
		return nil, err
	}

	issuedAt := s.now()
	req.Status = models.StatusIssued
	req.IssuedAt = &issuedAt

	if err := s.requests.UpdateRequest(ctx, req); err != nil {
		return nil, apperr.Internal("failed to update request", err)
	}

	if err := s.appendIssueLog(ctx, item.ID, req.UserID, req.QuantityApproved, actor.ID, ""); err != nil {
		return nil, err
	}

	s.logger.Info("item issued",
		zap.String("request", req.ID),
		zap.String("item", item.ID),
		zap.Int("quantity", req.QuantityApproved))
	return req, nil
}

// Return moves ISSUED -> RETURNED. The returned quantity is credited to the
// item's first batch and logged as a negative IssueLog row.
func (s *Service) Return(ctx context.Context, actor *models.User, requestID string, quantity int, note string) (*models.Request, error) {
	if err := auth.Authorize(actor, auth.OpReturnItem); err != nil {
		return nil, err
	}

	if quantity == 0 {
		return nil, apperr.Validation("quantity is required")
	}
	if quantity < 0 {
		return nil, apperr.Validation("quantity must be positive")
	}

	unlock := s.locks.Acquire(requestID)
	defer unlock()

	req, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransition(models.StatusReturned) {
		if req.Status.Terminal() {
			return nil, apperr.Conflict("request is already processed")
		}
		return nil, apperr.Conflict("item must be issued before it can be returned")
	}
	if quantity > req.QuantityApproved {
		return nil, apperr.Validation("return quantity exceeds issued quantity")
	}

	item, err := s.inventory.RestoreForReturn(ctx, req.ItemID, quantity)
	if err != nil {
		return nil, err
	}

	returnedAt := s.now()
	req.Status = models.StatusReturned
	req.QuantityReturned = quantity
	req.ReturnedAt = &returnedAt
	req.ReturnProcessedBy = actor.ID

	if err := s.requests.UpdateRequest(ctx, req); err != nil {
		return nil, apperr.Internal("failed to update request", err)
	}

	if note == "" {
		note = "Item returned"
	}
	if err := s.appendIssueLog(ctx, item.ID, req.UserID, -quantity, actor.ID, note); err != nil {
		return nil, err
	}

	s.logger.Info("item returned",
		zap.String("request", req.ID),
		zap.String("item", item.ID),
		zap.Int("quantity", quantity))
	return req, nil
}

// MyRequests lists the caller's own requests.
func (s *Service) MyRequests(ctx context.Context, actor *models.User) ([]models.Request, error) {
	if err := auth.Authorize(actor, auth.OpViewOwnRequests); err != nil {
		return nil, err
	}
	reqs, err := s.requests.ListRequestsByUser(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Internal("failed to list requests", err)
	}
	return reqs, nil
}

// AllRequests lists every request for processing staff.
func (s *Service) AllRequests(ctx context.Context, actor *models.User) ([]models.Request, error) {
	if err := auth.Authorize(actor, auth.OpViewAllRequests); err != nil {
		return nil, err
	}
	reqs, err := s.requests.ListRequests(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list requests", err)
	}
	return reqs, nil
}

func (s *Service) findRequest(ctx context.Context, requestID string) (*models.Request, error) {
	req, err := s.requests.FindRequestByID(ctx, requestID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("request not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to find request", err)
	}
	return req, nil
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

func (s *Service) appendIssueLog(ctx context.Context, itemID, issuedTo string, qty int, issuedBy, note string) error {
	entry := &models.IssueLog{
		ItemID:   itemID,
		IssuedTo: issuedTo,
		Quantity: qty,
		IssuedBy: issuedBy,
		Note:     note,
	}
	if err := s.logs.AppendIssueLog(ctx, entry); err != nil {
		return apperr.Internal("failed to append issue log", err)
	}
	return nil
}
