package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/repository"
	"github.com/yeremiapane/table-order/utils"
	"gorm.io/gorm"
)

type CreateTableInput struct {
	Number   int
	Capacity int
	Status   string
}

type UpdateTableInput struct {
	Capacity    *int
	Status      *string
	ChangeToken bool
}

// TableService manages tables and their login tokens.
type TableService struct {
	store *repository.Store
}

func NewTableService(store *repository.Store) *TableService {
	return &TableService{store: store}
}

func (s *TableService) List(ctx context.Context) ([]models.Table, error) {
	tables, err := s.store.Tables.List(ctx)
	if err != nil {
		return nil, utils.NewInternalError("failed to list tables", err)
	}
	return tables, nil
}

func (s *TableService) Get(ctx context.Context, number int) (*models.Table, error) {
	table, err := s.store.Tables.FindByNumber(ctx, number)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, utils.NewNotFoundError("Table %d does not exist", number)
		}
		return nil, utils.NewInternalError("failed to load table", err)
	}
	return table, nil
}

// Create adds a table with a fresh random token. Status defaults to Hidden.
func (s *TableService) Create(ctx context.Context, in CreateTableInput) (*models.Table, error) {
	if in.Number <= 0 {
		return nil, utils.NewFieldError("number", "Table number must be greater than 0")
	}
	if in.Capacity <= 0 {
		return nil, utils.NewFieldError("capacity", "Capacity must be greater than 0")
	}
	if in.Status == "" {
		in.Status = models.TableStatusHidden
	}
	if !validTableStatus(in.Status) {
		return nil, utils.NewFieldError("status", "Status must be Available, Hidden or Reserved")
	}

	table := &models.Table{
		Number:   in.Number,
		Capacity: in.Capacity,
		Status:   in.Status,
		Token:    newTableToken(),
	}
	if err := s.store.Tables.Create(ctx, table); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.NewFieldError("number", "Table number already exists")
		}
		return nil, utils.NewInternalError("failed to create table", err)
	}
	utils.InfoLogger.Printf("Table %d created", table.Number)
	return table, nil
}

func (s *TableService) Update(ctx context.Context, number int, in UpdateTableInput) (*models.Table, error) {
	table, err := s.Get(ctx, number)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Capacity != nil {
		if *in.Capacity <= 0 {
			return nil, utils.NewFieldError("capacity", "Capacity must be greater than 0")
		}
		fields["capacity"] = *in.Capacity
	}
	if in.Status != nil {
		if !validTableStatus(*in.Status) {
			return nil, utils.NewFieldError("status", "Status must be Available, Hidden or Reserved")
		}
		fields["status"] = *in.Status
	}
	if in.ChangeToken {
		fields["token"] = newTableToken()
	}
	if len(fields) > 0 {
		if err := s.store.Tables.Update(ctx, table.ID, fields); err != nil {
			return nil, utils.NewInternalError("failed to update table", err)
		}
	}
	return s.Get(ctx, number)
}

// Delete removes a table. Sessions still pointing at it can no longer order.
func (s *TableService) Delete(ctx context.Context, number int) (*models.Table, error) {
	table, err := s.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := s.store.Tables.Delete(ctx, table.ID); err != nil {
		return nil, utils.NewInternalError("failed to delete table", err)
	}
	return table, nil
}

func validTableStatus(status string) bool {
	for _, st := range models.TableStatuses {
		if st == status {
			return true
		}
	}
	return false
}

func newTableToken() string {
	return uuid.NewString()
}
