package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"biostorex/internal/domain/models"
)

func (r *Repository) AppendStockLog(ctx context.Context, entry *models.StockLog) error {
	if entry.ID == "" {
		entry.ID = primitive.NewObjectID().Hex()
	}
	entry.CreatedAt = time.Now().UTC()

	if _, err := r.coll(stockLogsCollection).InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append stock log: %w", err)
	}
	return nil
}

func (r *Repository) AppendIssueLog(ctx context.Context, entry *models.IssueLog) error {
	if entry.ID == "" {
		entry.ID = primitive.NewObjectID().Hex()
	}
	entry.CreatedAt = time.Now().UTC()

	if _, err := r.coll(issueLogsCollection).InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append issue log: %w", err)
	}
	return nil
}

func (r *Repository) ListStockLogsByItem(ctx context.Context, itemID string) ([]models.StockLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.coll(stockLogsCollection).Find(ctx, bson.M{"item": itemID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock logs: %w", err)
	}
	defer cursor.Close(ctx)

	var logs []models.StockLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode stock logs: %w", err)
	}
	return logs, nil
}

func (r *Repository) ListIssueLogsByItem(ctx context.Context, itemID string) ([]models.IssueLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.coll(issueLogsCollection).Find(ctx, bson.M{"item": itemID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list issue logs: %w", err)
	}
	defer cursor.Close(ctx)

	var logs []models.IssueLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode issue logs: %w", err)
	}
	return logs, nil
}
