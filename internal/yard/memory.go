package yard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xelth-com/eckdepotgo/internal/models"
)

// MemoryRegistry is an in-memory Registry used by tests and the demo
// seeder. It mirrors the persistent registry's semantics, including the
// conditional occupancy update and the (yard, stackNumber) and
// buffer-key uniqueness rules.
type MemoryRegistry struct {
	mu        sync.RWMutex
	yards     map[string]models.Yard
	stacks    map[string]models.Stack
	locations map[string][]models.Location // stack id -> cells
}

// NewMemoryRegistry creates an empty in-memory registry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		yards:     make(map[string]models.Yard),
		stacks:    make(map[string]models.Stack),
		locations: make(map[string][]models.Location),
	}
}

var _ Registry = (*MemoryRegistry)(nil)

func (r *MemoryRegistry) CreateYard(ctx context.Context, yard *models.Yard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if yard.ID == "" {
		yard.ID = uuid.NewString()
	}
	yard.CreatedAt = time.Now().UTC()
	yard.UpdatedAt = yard.CreatedAt
	r.yards[yard.ID] = *yard
	return nil
}

func (r *MemoryRegistry) GetYard(ctx context.Context, id string) (*models.Yard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	yard, ok := r.yards[id]
	if !ok {
		return nil, ErrYardNotFound
	}
	return &yard, nil
}

func (r *MemoryRegistry) ListYards(ctx context.Context) ([]models.Yard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Yard, 0, len(r.yards))
	for _, y := range r.yards {
		out = append(out, y)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *MemoryRegistry) CreateStack(ctx context.Context, stack *models.Stack) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.stacks {
		if s.YardID == stack.YardID && s.StackNumber == stack.StackNumber {
			return ErrDuplicateStack
		}
		if stack.BufferKey != nil && s.BufferKey != nil && *s.BufferKey == *stack.BufferKey {
			return ErrDuplicateStack
		}
	}
	if stack.ID == "" {
		stack.ID = uuid.NewString()
	}
	stack.CreatedAt = time.Now().UTC()
	stack.UpdatedAt = stack.CreatedAt
	r.stacks[stack.ID] = *stack
	return nil
}

func (r *MemoryRegistry) GetStack(ctx context.Context, id string) (*models.Stack, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stack, ok := r.stacks[id]
	if !ok {
		return nil, ErrStackNotFound
	}
	return &stack, nil
}

func (r *MemoryRegistry) GetStackByNumber(ctx context.Context, yardID string, stackNumber int) (*models.Stack, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.stacks {
		if s.YardID == yardID && s.StackNumber == stackNumber {
			stack := s
			return &stack, nil
		}
	}
	return nil, ErrStackNotFound
}

func (r *MemoryRegistry) ListStacksByYard(ctx context.Context, yardID string) ([]models.Stack, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Stack
	for _, s := range r.stacks {
		if s.YardID == yardID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StackNumber < out[j].StackNumber })
	return out, nil
}

func (r *MemoryRegistry) ListBufferStacks(ctx context.Context, yardID string) ([]models.Stack, error) {
	stacks, _ := r.ListStacksByYard(ctx, yardID)
	var out []models.Stack
	for _, s := range stacks {
		if s.IsBufferZone {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *MemoryRegistry) FindBufferStack(ctx context.Context, bufferKey string) (*models.Stack, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.stacks {
		if s.BufferKey != nil && *s.BufferKey == bufferKey {
			stack := s
			return &stack, nil
		}
	}
	return nil, ErrStackNotFound
}

func (r *MemoryRegistry) UpdateStack(ctx context.Context, stack *models.Stack) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stacks[stack.ID]; !ok {
		return ErrStackNotFound
	}
	stack.UpdatedAt = time.Now().UTC()
	r.stacks[stack.ID] = *stack
	return nil
}

func (r *MemoryRegistry) DeleteStack(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stacks[id]; !ok {
		return ErrStackNotFound
	}
	delete(r.stacks, id)
	delete(r.locations, id)
	return nil
}

func (r *MemoryRegistry) AdjustOccupancy(ctx context.Context, stackID string, expected, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stack, ok := r.stacks[stackID]
	if !ok {
		return ErrStackNotFound
	}
	if stack.CurrentOccupancy != expected {
		return ErrOccupancyConflict
	}
	next := stack.CurrentOccupancy + delta
	if next < 0 || next > stack.Capacity {
		return ErrOccupancyConflict
	}
	stack.CurrentOccupancy = next
	stack.UpdatedAt = time.Now().UTC()
	r.stacks[stackID] = stack
	return nil
}

func (r *MemoryRegistry) CreateLocations(ctx context.Context, locations []models.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, loc := range locations {
		if loc.ID == "" {
			loc.ID = uuid.NewString()
		}
		loc.CreatedAt = time.Now().UTC()
		loc.UpdatedAt = loc.CreatedAt
		r.locations[loc.StackID] = append(r.locations[loc.StackID], loc)
	}
	return nil
}

func (r *MemoryRegistry) ListLocations(ctx context.Context, stackID string) ([]models.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Location, len(r.locations[stackID]))
	copy(out, r.locations[stackID])
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Tier < out[j].Tier
	})
	return out, nil
}

func (r *MemoryRegistry) CountOccupiedLocations(ctx context.Context, stackID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, loc := range r.locations[stackID] {
		if loc.IsOccupied && loc.IsActive {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRegistry) SetLocationsActive(ctx context.Context, stackID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	locs := r.locations[stackID]
	for i := range locs {
		locs[i].IsActive = active
		locs[i].UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *MemoryRegistry) SetLocationOccupied(ctx context.Context, stackID string, row, tier int, occupied bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	locs := r.locations[stackID]
	for i := range locs {
		if locs[i].Row == row && locs[i].Tier == tier {
			locs[i].IsOccupied = occupied
			locs[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrStackNotFound
}
