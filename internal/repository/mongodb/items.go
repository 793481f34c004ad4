package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"biostorex/internal/domain/models"
	"biostorex/internal/repository"
)

func (r *Repository) InsertItem(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		item.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	if _, err := r.coll(itemsCollection).InsertOne(ctx, item); err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

func (r *Repository) FindItemByID(ctx context.Context, id string) (*models.Item, error) {
	return r.findItem(ctx, bson.M{"_id": id})
}

func (r *Repository) FindItemByName(ctx context.Context, normalizedName string) (*models.Item, error) {
	return r.findItem(ctx, bson.M{"name": normalizedName})
}

func (r *Repository) findItem(ctx context.Context, filter bson.M) (*models.Item, error) {
	var item models.Item
	err := r.coll(itemsCollection).FindOne(ctx, filter).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return &item, nil
}

func (r *Repository) UpdateItem(ctx context.Context, item *models.Item) error {
	item.UpdatedAt = time.Now().UTC()

	res, err := r.coll(itemsCollection).ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, id string) error {
	res, err := r.coll(itemsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *Repository) ListItems(ctx context.Context) ([]models.Item, error) {
	cursor, err := r.coll(itemsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []models.Item
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	return items, nil
}
