package yard

import (
	"context"
	"errors"

	"github.com/xelth-com/eckdepotgo/internal/models"
)

// Registry sentinel errors. Anything else returned by a Registry is a
// storage I/O fault and is masked at the API boundary.
var (
	ErrYardNotFound      = errors.New("yard not found")
	ErrStackNotFound     = errors.New("stack not found")
	ErrDuplicateStack    = errors.New("stack number already in use")
	ErrOccupancyConflict = errors.New("occupancy changed concurrently")
)

// Registry is the externally-owned stack/location store. The yard
// services never hold locks across Registry calls; admission decisions
// are made safe by AdjustOccupancy being conditional on the occupancy
// the caller observed.
type Registry interface {
	CreateYard(ctx context.Context, yard *models.Yard) error
	GetYard(ctx context.Context, id string) (*models.Yard, error)
	ListYards(ctx context.Context) ([]models.Yard, error)

	CreateStack(ctx context.Context, stack *models.Stack) error
	GetStack(ctx context.Context, id string) (*models.Stack, error)
	GetStackByNumber(ctx context.Context, yardID string, stackNumber int) (*models.Stack, error)
	ListStacksByYard(ctx context.Context, yardID string) ([]models.Stack, error)
	ListBufferStacks(ctx context.Context, yardID string) ([]models.Stack, error)
	FindBufferStack(ctx context.Context, bufferKey string) (*models.Stack, error)
	UpdateStack(ctx context.Context, stack *models.Stack) error
	// DeleteStack removes the stack row and cascades to its locations.
	DeleteStack(ctx context.Context, id string) error

	// AdjustOccupancy applies current_occupancy += delta only if the
	// stored value still equals expected, otherwise it returns
	// ErrOccupancyConflict and changes nothing.
	AdjustOccupancy(ctx context.Context, stackID string, expected, delta int) error

	CreateLocations(ctx context.Context, locations []models.Location) error
	ListLocations(ctx context.Context, stackID string) ([]models.Location, error)
	CountOccupiedLocations(ctx context.Context, stackID string) (int, error)
	SetLocationsActive(ctx context.Context, stackID string, active bool) error
	SetLocationOccupied(ctx context.Context, stackID string, row, tier int, occupied bool) error
}
