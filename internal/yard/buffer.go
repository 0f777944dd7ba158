package yard

import (
	"context"
	"errors"
	"fmt"

	"github.com/xelth-com/eckdepotgo/internal/models"
	"gorm.io/datatypes"
)

const (
	// Buffer stacks are numbered from bufferNumberBase+1 upward,
	// outside the 1-99 physical range.
	bufferNumberBase = 9000

	// Reserved capacity block per quarantine stack
	bufferStackCapacity = 20
)

// BufferKey derives the deterministic get-or-create key for a
// quarantine stack. One buffer stack exists per distinct key.
func BufferKey(yardID string, size models.ContainerSize, damageType models.DamageType) string {
	return fmt.Sprintf("%s|%s|%s", yardID, size, damageType)
}

// BufferZoneStats aggregates a yard's quarantine stacks
type BufferZoneStats struct {
	TotalBufferStacks int `json:"total_buffer_stacks"`
	TotalCapacity     int `json:"total_capacity"`
	CurrentOccupancy  int `json:"current_occupancy"`
	AvailableSpaces   int `json:"available_spaces"`
}

// BufferAssignment is the routing outcome for a damaged container
type BufferAssignment struct {
	Stack    *models.Stack `json:"stack"`
	Position string        `json:"position"`
}

// BufferService diverts damaged containers into quarantine stacks
type BufferService struct {
	registry Registry
}

// NewBufferService creates a buffer allocator backed by the registry
func NewBufferService(registry Registry) *BufferService {
	return &BufferService{registry: registry}
}

// GetOrCreateBufferStack resolves the quarantine stack for
// (yard, containerSize, damageType), creating it on first use.
// The call is idempotent: identical keys always resolve to the same
// stack identity, distinct keys never share one.
func (s *BufferService) GetOrCreateBufferStack(ctx context.Context, yardID string, size models.ContainerSize, damageType models.DamageType) (*models.Stack, error) {
	key := BufferKey(yardID, size, damageType)

	existing, err := s.registry.FindBufferStack(ctx, key)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrStackNotFound) {
		return nil, fmt.Errorf("find buffer stack %s: %w", key, err)
	}

	number, err := s.nextBufferNumber(ctx, yardID)
	if err != nil {
		return nil, err
	}

	stack := &models.Stack{
		YardID:        yardID,
		StackNumber:   number,
		Rows:          1,
		MaxTiers:      1,
		Capacity:      bufferStackCapacity,
		ContainerSize: size,
		State:         models.StackActive,
		IsBufferZone:  true,
		BufferKey:     &key,
		DamageMeta:    damageMeta(size, damageType),
	}
	if err := s.registry.CreateStack(ctx, stack); err != nil {
		// A concurrent caller may have created the same key; the
		// unique buffer_key index makes the race safe to resolve by
		// re-reading.
		if errors.Is(err, ErrDuplicateStack) {
			return s.registry.FindBufferStack(ctx, key)
		}
		return nil, fmt.Errorf("create buffer stack %s: %w", key, err)
	}

	loc := models.Location{
		StackID:  stack.ID,
		Row:      1,
		Tier:     1,
		Code:     FormatBufferPosition(stack.StackNumber, 1, 1),
		IsActive: true,
	}
	if err := s.registry.CreateLocations(ctx, []models.Location{loc}); err != nil {
		return nil, fmt.Errorf("create buffer location: %w", err)
	}

	return stack, nil
}

// RouteDamagedContainer is the damage-triggered routing entry point:
// instead of the compatibility filter, a flagged container lands on the
// quarantine stack for its (size, damageType), labeled in the buffer
// position form.
func (s *BufferService) RouteDamagedContainer(ctx context.Context, yardID string, size models.ContainerSize, damageType models.DamageType) (*BufferAssignment, error) {
	stack, err := s.GetOrCreateBufferStack(ctx, yardID, size, damageType)
	if err != nil {
		return nil, err
	}
	return &BufferAssignment{
		Stack:    stack,
		Position: FormatBufferPosition(stack.StackNumber, 1, 1),
	}, nil
}

// GetBufferZoneStats aggregates over the yard's buffer stacks
func (s *BufferService) GetBufferZoneStats(ctx context.Context, yardID string) (BufferZoneStats, error) {
	stacks, err := s.registry.ListBufferStacks(ctx, yardID)
	if err != nil {
		return BufferZoneStats{}, fmt.Errorf("list buffer stacks for yard %s: %w", yardID, err)
	}

	stats := BufferZoneStats{TotalBufferStacks: len(stacks)}
	for _, st := range stacks {
		stats.TotalCapacity += st.Capacity
		stats.CurrentOccupancy += st.CurrentOccupancy
	}
	stats.AvailableSpaces = stats.TotalCapacity - stats.CurrentOccupancy
	return stats, nil
}

func (s *BufferService) nextBufferNumber(ctx context.Context, yardID string) (int, error) {
	stacks, err := s.registry.ListBufferStacks(ctx, yardID)
	if err != nil {
		return 0, fmt.Errorf("list buffer stacks for yard %s: %w", yardID, err)
	}
	next := bufferNumberBase + 1
	for _, st := range stacks {
		if st.StackNumber >= next {
			next = st.StackNumber + 1
		}
	}
	return next, nil
}

func damageMeta(size models.ContainerSize, damageType models.DamageType) datatypes.JSON {
	raw := fmt.Sprintf(`{"container_size":%q,"damage_type":%q}`, size, damageType)
	return datatypes.JSON([]byte(raw))
}
