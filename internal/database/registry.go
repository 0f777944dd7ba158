package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/xelth-com/eckdepotgo/internal/models"
	"github.com/xelth-com/eckdepotgo/internal/yard"
	"gorm.io/gorm"
)

// StackRegistry is the GORM-backed implementation of yard.Registry
type StackRegistry struct {
	db *DB
}

// NewStackRegistry wraps the database connection as a yard.Registry
func NewStackRegistry(db *DB) *StackRegistry {
	return &StackRegistry{db: db}
}

var _ yard.Registry = (*StackRegistry)(nil)

func (r *StackRegistry) CreateYard(ctx context.Context, y *models.Yard) error {
	return r.db.WithContext(ctx).Create(y).Error
}

func (r *StackRegistry) GetYard(ctx context.Context, id string) (*models.Yard, error) {
	var y models.Yard
	err := r.db.WithContext(ctx).First(&y, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, yard.ErrYardNotFound
	}
	if err != nil {
		return nil, err
	}
	return &y, nil
}

func (r *StackRegistry) ListYards(ctx context.Context) ([]models.Yard, error) {
	var yards []models.Yard
	err := r.db.WithContext(ctx).Order("code").Find(&yards).Error
	return yards, err
}

func (r *StackRegistry) CreateStack(ctx context.Context, stack *models.Stack) error {
	err := r.db.WithContext(ctx).Create(stack).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return yard.ErrDuplicateStack
	}
	return err
}

func (r *StackRegistry) GetStack(ctx context.Context, id string) (*models.Stack, error) {
	var stack models.Stack
	err := r.db.WithContext(ctx).First(&stack, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, yard.ErrStackNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stack, nil
}

func (r *StackRegistry) GetStackByNumber(ctx context.Context, yardID string, stackNumber int) (*models.Stack, error) {
	var stack models.Stack
	err := r.db.WithContext(ctx).
		First(&stack, "yard_id = ? AND stack_number = ?", yardID, stackNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, yard.ErrStackNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stack, nil
}

func (r *StackRegistry) ListStacksByYard(ctx context.Context, yardID string) ([]models.Stack, error) {
	var stacks []models.Stack
	err := r.db.WithContext(ctx).
		Where("yard_id = ?", yardID).
		Order("stack_number").
		Find(&stacks).Error
	return stacks, err
}

func (r *StackRegistry) ListBufferStacks(ctx context.Context, yardID string) ([]models.Stack, error) {
	var stacks []models.Stack
	err := r.db.WithContext(ctx).
		Where("yard_id = ? AND is_buffer_zone = ?", yardID, true).
		Order("stack_number").
		Find(&stacks).Error
	return stacks, err
}

func (r *StackRegistry) FindBufferStack(ctx context.Context, bufferKey string) (*models.Stack, error) {
	var stack models.Stack
	err := r.db.WithContext(ctx).First(&stack, "buffer_key = ?", bufferKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, yard.ErrStackNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stack, nil
}

func (r *StackRegistry) UpdateStack(ctx context.Context, stack *models.Stack) error {
	res := r.db.WithContext(ctx).Save(stack)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return yard.ErrStackNotFound
	}
	return nil
}

// DeleteStack hard-deletes the stack and cascades to its locations in
// one transaction. Irreversible.
func (r *StackRegistry) DeleteStack(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("stack_id = ?", id).Delete(&models.Location{}).Error; err != nil {
			return fmt.Errorf("delete locations: %w", err)
		}
		res := tx.Delete(&models.Stack{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return yard.ErrStackNotFound
		}
		return nil
	})
}

// AdjustOccupancy performs the conditional occupancy update that keeps
// check-then-commit admission atomic: the row only changes if the
// stored counter still equals what the caller observed and the result
// stays within 0..capacity.
func (r *StackRegistry) AdjustOccupancy(ctx context.Context, stackID string, expected, delta int) error {
	res := r.db.WithContext(ctx).Model(&models.Stack{}).
		Where("id = ? AND current_occupancy = ?", stackID, expected).
		Where("current_occupancy + ? >= 0 AND current_occupancy + ? <= capacity", delta, delta).
		Update("current_occupancy", gorm.Expr("current_occupancy + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Stack{}).Where("id = ?", stackID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return yard.ErrStackNotFound
		}
		return yard.ErrOccupancyConflict
	}
	return nil
}

func (r *StackRegistry) CreateLocations(ctx context.Context, locations []models.Location) error {
	if len(locations) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&locations).Error
}

func (r *StackRegistry) ListLocations(ctx context.Context, stackID string) ([]models.Location, error) {
	var locations []models.Location
	err := r.db.WithContext(ctx).
		Where("stack_id = ?", stackID).
		Order("row_no, tier_no").
		Find(&locations).Error
	return locations, err
}

func (r *StackRegistry) CountOccupiedLocations(ctx context.Context, stackID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Location{}).
		Where("stack_id = ? AND is_occupied = ? AND is_active = ?", stackID, true, true).
		Count(&count).Error
	return int(count), err
}

func (r *StackRegistry) SetLocationsActive(ctx context.Context, stackID string, active bool) error {
	return r.db.WithContext(ctx).Model(&models.Location{}).
		Where("stack_id = ?", stackID).
		Update("is_active", active).Error
}

func (r *StackRegistry) SetLocationOccupied(ctx context.Context, stackID string, row, tier int, occupied bool) error {
	res := r.db.WithContext(ctx).Model(&models.Location{}).
		Where("stack_id = ? AND row_no = ? AND tier_no = ?", stackID, row, tier).
		Update("is_occupied", occupied)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return yard.ErrStackNotFound
	}
	return nil
}
