// Package repository defines the persistence ports consumed by the core
// services. Implementations must provide single-document atomicity per
// save call; nothing beyond that is assumed of the backing store.
package repository

import (
	"context"
	"errors"

	"biostorex/internal/domain/models"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// ItemStore persists catalog items. Insert assigns the ID.
type ItemStore interface {
	InsertItem(ctx context.Context, item *models.Item) error
	FindItemByID(ctx context.Context, id string) (*models.Item, error)
	FindItemByName(ctx context.Context, normalizedName string) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, id string) error
	ListItems(ctx context.Context) ([]models.Item, error)
}

// RequestStore persists material requests.
type RequestStore interface {
	InsertRequest(ctx context.Context, req *models.Request) error
	FindRequestByID(ctx context.Context, id string) (*models.Request, error)
	FindPendingRequest(ctx context.Context, userID, itemID string) (*models.Request, error)
	UpdateRequest(ctx context.Context, req *models.Request) error
	ListRequestsByUser(ctx context.Context, userID string) ([]models.Request, error)
	ListRequests(ctx context.Context) ([]models.Request, error)
}

// UserStore persists accounts.
type UserStore interface {
	InsertUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUserName(ctx context.Context, userName string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByRole(ctx context.Context, role models.Role) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

// LogStore appends and reads the audit ledgers.
type LogStore interface {
	AppendStockLog(ctx context.Context, entry *models.StockLog) error
	AppendIssueLog(ctx context.Context, entry *models.IssueLog) error
	ListStockLogsByItem(ctx context.Context, itemID string) ([]models.StockLog, error)
	ListIssueLogsByItem(ctx context.Context, itemID string) ([]models.IssueLog, error)
}

// Store aggregates every port for implementations backing the whole app.
type Store interface {
	ItemStore
	RequestStore
	UserStore
	LogStore
}
