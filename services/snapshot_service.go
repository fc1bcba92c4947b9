package services

import (
	"context"
	"fmt"

	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/repository"
	"github.com/yeremiapane/table-order/utils"
)

// SnapshotService copies dishes into immutable snapshots.
type SnapshotService struct{}

func NewSnapshotService() *SnapshotService {
	return &SnapshotService{}
}

// Snapshot inserts a new snapshot of dishID through store, which may be
// transaction-bound. Every call inserts a fresh row.
func (s *SnapshotService) Snapshot(ctx context.Context, store *repository.Store, dishID uint) (*models.DishSnapshot, error) {
	dish, err := store.Dishes.FindByID(ctx, dishID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, utils.NewNotFoundError("Dish #%d not found", dishID)
		}
		return nil, utils.NewInternalError("failed to load dish", err)
	}
	return s.FromDish(ctx, store, *dish)
}

// FromDish snapshots an already loaded dish.
func (s *SnapshotService) FromDish(ctx context.Context, store *repository.Store, dish models.Dish) (*models.DishSnapshot, error) {
	snapshot := models.NewSnapshot(dish)
	if err := store.Snapshots.Create(ctx, &snapshot); err != nil {
		return nil, utils.NewInternalError(fmt.Sprintf("failed to snapshot dish #%d", dish.ID), err)
	}
	return &snapshot, nil
}
