package services

import (
	"context"

	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/repository"
	"github.com/yeremiapane/table-order/utils"
)

type DishInput struct {
	Name        string
	Price       float64
	Description string
	Image       string
	Type        string
	Status      string
}

// DishService manages the menu. Editing a dish never touches snapshots
// already attached to orders.
type DishService struct {
	store *repository.Store
}

func NewDishService(store *repository.Store) *DishService {
	return &DishService{store: store}
}

func (s *DishService) List(ctx context.Context, includeHidden bool) ([]models.Dish, error) {
	dishes, err := s.store.Dishes.List(ctx, includeHidden)
	if err != nil {
		return nil, utils.NewInternalError("failed to list dishes", err)
	}
	return dishes, nil
}

// Get loads a dish; a Hidden dish is reported missing unless includeHidden.
func (s *DishService) Get(ctx context.Context, id uint, includeHidden bool) (*models.Dish, error) {
	dish, err := s.store.Dishes.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, utils.NewNotFoundError("Dish #%d not found", id)
		}
		return nil, utils.NewInternalError("failed to load dish", err)
	}
	if dish.Status == models.DishStatusHidden && !includeHidden {
		return nil, utils.NewNotFoundError("Dish #%d not found", id)
	}
	return dish, nil
}

func (s *DishService) Create(ctx context.Context, in DishInput) (*models.Dish, error) {
	if in.Status == "" {
		in.Status = models.DishStatusAvailable
	}
	if err := validateDish(in); err != nil {
		return nil, err
	}
	dish := &models.Dish{
		Name:        in.Name,
		Price:       in.Price,
		Description: in.Description,
		Image:       in.Image,
		Type:        in.Type,
		Status:      in.Status,
	}
	if err := s.store.Dishes.Create(ctx, dish); err != nil {
		return nil, utils.NewInternalError("failed to create dish", err)
	}
	return dish, nil
}

func (s *DishService) Update(ctx context.Context, id uint, in DishInput) (*models.Dish, error) {
	current, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = current.Status
	}
	if err := validateDish(in); err != nil {
		return nil, err
	}
	err = s.store.Dishes.Update(ctx, id, map[string]interface{}{
		"name":        in.Name,
		"price":       in.Price,
		"description": in.Description,
		"image":       in.Image,
		"type":        in.Type,
		"status":      in.Status,
	})
	if err != nil {
		return nil, utils.NewInternalError("failed to update dish", err)
	}
	return s.Get(ctx, id, true)
}

func (s *DishService) Delete(ctx context.Context, id uint) (*models.Dish, error) {
	dish, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if err := s.store.Dishes.Delete(ctx, id); err != nil {
		return nil, utils.NewInternalError("failed to delete dish", err)
	}
	return dish, nil
}

func validateDish(in DishInput) error {
	if in.Name == "" {
		return utils.NewFieldError("name", "Name is required")
	}
	if in.Price < 0 {
		return utils.NewFieldError("price", "Price cannot be negative")
	}
	for _, st := range models.DishStatuses {
		if st == in.Status {
			return nil
		}
	}
	return utils.NewFieldError("status", "Status must be Available, Unavailable or Hidden")
}
