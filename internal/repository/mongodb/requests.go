package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"biostorex/internal/domain/models"
	"biostorex/internal/repository"
)

func (r *Repository) InsertRequest(ctx context.Context, req *models.Request) error {
	if req.ID == "" {
		req.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	if _, err := r.coll(requestsCollection).InsertOne(ctx, req); err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

func (r *Repository) FindRequestByID(ctx context.Context, id string) (*models.Request, error) {
	var req models.Request
	err := r.coll(requestsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find request: %w", err)
	}
	return &req, nil
}

func (r *Repository) FindPendingRequest(ctx context.Context, userID, itemID string) (*models.Request, error) {
	filter := bson.M{"user": userID, "item": itemID, "status": models.StatusPending}

	var req models.Request
	err := r.coll(requestsCollection).FindOne(ctx, filter).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending request: %w", err)
	}
	return &req, nil
}

func (r *Repository) UpdateRequest(ctx context.Context, req *models.Request) error {
	req.UpdatedAt = time.Now().UTC()

	res, err := r.coll(requestsCollection).ReplaceOne(ctx, bson.M{"_id": req.ID}, req)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *Repository) ListRequestsByUser(ctx context.Context, userID string) ([]models.Request, error) {
	return r.listRequests(ctx, bson.M{"user": userID})
}

func (r *Repository) ListRequests(ctx context.Context) ([]models.Request, error) {
	return r.listRequests(ctx, bson.M{})
}

func (r *Repository) listRequests(ctx context.Context, filter bson.M) ([]models.Request, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.coll(requestsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []models.Request
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode requests: %w", err)
	}
	return requests, nil
}
