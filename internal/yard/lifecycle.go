package yard

import (
	"context"
	"errors"
	"fmt"

	"github.com/xelth-com/eckdepotgo/internal/models"
)

// OperationResult carries the outcome of a mutating operation.
// Precondition failures come back as {success:false, message}; a Go
// error means the registry itself failed.
type OperationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func failf(format string, args ...interface{}) OperationResult {
	return OperationResult{Success: false, Message: fmt.Sprintf(format, args...)}
}

func okf(format string, args ...interface{}) OperationResult {
	return OperationResult{Success: true, Message: fmt.Sprintf(format, args...)}
}

// CreateStackParams describes a stack to create or recreate
type CreateStackParams struct {
	YardID             string               `json:"yard_id"`
	StackNumber        int                  `json:"stack_number"`
	Rows               int                  `json:"rows"`
	MaxTiers           int                  `json:"max_tiers"`
	Capacity           int                  `json:"capacity"`
	ContainerSize      models.ContainerSize `json:"container_size"`
	IsSpecialStack     bool                 `json:"is_special_stack"`
	AssignedClientCode string               `json:"assigned_client_code,omitempty"`
	CreatedBy          string               `json:"created_by,omitempty"`
}

// RecreateResult extends OperationResult with the recovery bookkeeping
// of RecreateStackWithLocationRecovery
type RecreateResult struct {
	OperationResult
	Stack             *models.Stack `json:"stack,omitempty"`
	Recovered         bool          `json:"recovered"`
	ExistingLocations int           `json:"existing_locations"`
	CreatedLocations  int           `json:"created_locations"`
}

// StackStatusSummary is a pure read over a yard's stacks
type StackStatusSummary struct {
	YardID           string  `json:"yard_id"`
	TotalStacks      int     `json:"total_stacks"`
	ActiveStacks     int     `json:"active_stacks"`
	InactiveStacks   int     `json:"inactive_stacks"`
	BufferStacks     int     `json:"buffer_stacks"`
	TotalCapacity    int     `json:"total_capacity"`
	CurrentOccupancy int     `json:"current_occupancy"`
	Utilization      float64 `json:"utilization"`
}

// LifecycleService manages stack creation, deactivation, reactivation
// and permanent deletion. Destructive transitions are refused while a
// stack holds occupied locations: no transition may make occupied
// containers invisible, deleted or double-counted.
type LifecycleService struct {
	registry Registry
}

// NewLifecycleService creates a lifecycle manager backed by the registry
func NewLifecycleService(registry Registry) *LifecycleService {
	return &LifecycleService{registry: registry}
}

func (s *LifecycleService) validateParams(p CreateStackParams) *OperationResult {
	if p.StackNumber < MinStackNumber || p.StackNumber > MaxStackNumber {
		r := failf("stack number %d out of range %d-%d", p.StackNumber, MinStackNumber, MaxStackNumber)
		return &r
	}
	if p.Rows < 1 || p.Rows > MaxRows {
		r := failf("rows %d out of range 1-%d", p.Rows, MaxRows)
		return &r
	}
	if p.MaxTiers < 1 || p.MaxTiers > MaxTiers {
		r := failf("max tiers %d out of range 1-%d", p.MaxTiers, MaxTiers)
		return &r
	}
	return nil
}

func gridLocations(stack *models.Stack) []models.Location {
	locations := make([]models.Location, 0, stack.Rows*stack.MaxTiers)
	for row := 1; row <= stack.Rows; row++ {
		for tier := 1; tier <= stack.MaxTiers; tier++ {
			locations = append(locations, models.Location{
				StackID:  stack.ID,
				Row:      row,
				Tier:     tier,
				Code:     FormatPosition(stack.StackNumber, row, tier),
				IsActive: true,
			})
		}
	}
	return locations
}

// CreateStack inserts a new active stack plus one location per grid cell
func (s *LifecycleService) CreateStack(ctx context.Context, p CreateStackParams) (*models.Stack, OperationResult, error) {
	if r := s.validateParams(p); r != nil {
		return nil, *r, nil
	}

	existing, err := s.registry.GetStackByNumber(ctx, p.YardID, p.StackNumber)
	if err != nil && !errors.Is(err, ErrStackNotFound) {
		return nil, OperationResult{}, fmt.Errorf("lookup stack S%02d: %w", p.StackNumber, err)
	}
	if existing != nil {
		if existing.State == models.StackInactive {
			return nil, failf("stack S%02d exists but is inactive, recreate it to recover its locations", p.StackNumber), nil
		}
		return nil, failf("stack S%02d already exists in yard", p.StackNumber), nil
	}

	capacity := p.Capacity
	if capacity <= 0 {
		capacity = p.Rows * p.MaxTiers
	}

	stack := &models.Stack{
		YardID:             p.YardID,
		StackNumber:        p.StackNumber,
		Rows:               p.Rows,
		MaxTiers:           p.MaxTiers,
		Capacity:           capacity,
		ContainerSize:      p.ContainerSize,
		IsSpecialStack:     p.IsSpecialStack,
		AssignedClientCode: p.AssignedClientCode,
		State:              models.StackActive,
		CreatedBy:          p.CreatedBy,
		UpdatedBy:          p.CreatedBy,
	}
	if err := s.registry.CreateStack(ctx, stack); err != nil {
		if errors.Is(err, ErrDuplicateStack) {
			return nil, failf("stack S%02d already exists in yard", p.StackNumber), nil
		}
		return nil, OperationResult{}, fmt.Errorf("create stack S%02d: %w", p.StackNumber, err)
	}
	if err := s.registry.CreateLocations(ctx, gridLocations(stack)); err != nil {
		return nil, OperationResult{}, fmt.Errorf("create locations for S%02d: %w", p.StackNumber, err)
	}

	return stack, okf("stack S%02d created with %d locations", p.StackNumber, stack.Rows*stack.MaxTiers), nil
}

// SoftDeleteStack deactivates a stack and its locations, preserving the
// data for possible reactivation. Refused while locations are occupied.
func (s *LifecycleService) SoftDeleteStack(ctx context.Context, stackID string) (OperationResult, error) {
	stack, err := s.registry.GetStack(ctx, stackID)
	if err != nil {
		if errors.Is(err, ErrStackNotFound) {
			return failf("stack %s not found", stackID), nil
		}
		return OperationResult{}, fmt.Errorf("load stack %s: %w", stackID, err)
	}

	if !stack.State.CanTransitionTo(models.StackInactive) {
		return failf("stack S%02d is already inactive", stack.StackNumber), nil
	}

	occupied, err := s.registry.CountOccupiedLocations(ctx, stackID)
	if err != nil {
		return OperationResult{}, fmt.Errorf("count occupied locations for S%02d: %w", stack.StackNumber, err)
	}
	if occupied > 0 {
		return failf("cannot deactivate stack S%02d: %d occupied locations", stack.StackNumber, occupied), nil
	}

	stack.State = models.StackInactive
	if err := s.registry.UpdateStack(ctx, stack); err != nil {
		return OperationResult{}, fmt.Errorf("deactivate stack S%02d: %w", stack.StackNumber, err)
	}
	if err := s.registry.SetLocationsActive(ctx, stackID, false); err != nil {
		return OperationResult{}, fmt.Errorf("deactivate locations for S%02d: %w", stack.StackNumber, err)
	}

	return okf("stack S%02d deactivated", stack.StackNumber), nil
}

// ReactivateStack brings an inactive stack and its locations back;
// locations are recovered, never regenerated.
func (s *LifecycleService) ReactivateStack(ctx context.Context, stackID string) (OperationResult, error) {
	stack, err := s.registry.GetStack(ctx, stackID)
	if err != nil {
		if errors.Is(err, ErrStackNotFound) {
			return failf("stack %s not found", stackID), nil
		}
		return OperationResult{}, fmt.Errorf("load stack %s: %w", stackID, err)
	}

	if stack.State == models.StackActive {
		return failf("stack S%02d is already active", stack.StackNumber), nil
	}
	if !stack.State.CanTransitionTo(models.StackActive) {
		return failf("stack S%02d cannot be reactivated from state %s", stack.StackNumber, stack.State), nil
	}

	stack.State = models.StackActive
	if err := s.registry.UpdateStack(ctx, stack); err != nil {
		return OperationResult{}, fmt.Errorf("reactivate stack S%02d: %w", stack.StackNumber, err)
	}
	if err := s.registry.SetLocationsActive(ctx, stackID, true); err != nil {
		return OperationResult{}, fmt.Errorf("reactivate locations for S%02d: %w", stack.StackNumber, err)
	}

	return okf("stack S%02d reactivated", stack.StackNumber), nil
}

// RecreateStackWithLocationRecovery reactivates an inactive stack under
// the same (yard, stackNumber), reconciling its location grid against
// the requested geometry, or falls back to a fresh create when no stack
// exists. Existing locations are recovered, only missing cells are
// generated.
func (s *LifecycleService) RecreateStackWithLocationRecovery(ctx context.Context, p CreateStackParams) (RecreateResult, error) {
	if r := s.validateParams(p); r != nil {
		return RecreateResult{OperationResult: *r}, nil
	}

	existing, err := s.registry.GetStackByNumber(ctx, p.YardID, p.StackNumber)
	if err != nil && !errors.Is(err, ErrStackNotFound) {
		return RecreateResult{}, fmt.Errorf("lookup stack S%02d: %w", p.StackNumber, err)
	}

	if existing == nil {
		stack, result, err := s.CreateStack(ctx, p)
		if err != nil || !result.Success {
			return RecreateResult{OperationResult: result}, err
		}
		return RecreateResult{
			OperationResult:  result,
			Stack:            stack,
			Recovered:        false,
			CreatedLocations: stack.Rows * stack.MaxTiers,
		}, nil
	}

	if existing.State == models.StackActive {
		return RecreateResult{OperationResult: failf("stack S%02d already exists and is active", p.StackNumber)}, nil
	}

	// Recovery path: reactivate and reconcile the grid
	existing.State = models.StackActive
	existing.Rows = p.Rows
	existing.MaxTiers = p.MaxTiers
	if p.Capacity > 0 {
		existing.Capacity = p.Capacity
	}
	existing.ContainerSize = p.ContainerSize
	existing.IsSpecialStack = p.IsSpecialStack
	existing.AssignedClientCode = p.AssignedClientCode
	existing.UpdatedBy = p.CreatedBy
	if err := s.registry.UpdateStack(ctx, existing); err != nil {
		return RecreateResult{}, fmt.Errorf("reactivate stack S%02d: %w", p.StackNumber, err)
	}
	if err := s.registry.SetLocationsActive(ctx, existing.ID, true); err != nil {
		return RecreateResult{}, fmt.Errorf("reactivate locations for S%02d: %w", p.StackNumber, err)
	}

	locations, err := s.registry.ListLocations(ctx, existing.ID)
	if err != nil {
		return RecreateResult{}, fmt.Errorf("list locations for S%02d: %w", p.StackNumber, err)
	}
	have := make(map[[2]int]bool, len(locations))
	for _, loc := range locations {
		have[[2]int{loc.Row, loc.Tier}] = true
	}

	var missing []models.Location
	for row := 1; row <= p.Rows; row++ {
		for tier := 1; tier <= p.MaxTiers; tier++ {
			if have[[2]int{row, tier}] {
				continue
			}
			missing = append(missing, models.Location{
				StackID:  existing.ID,
				Row:      row,
				Tier:     tier,
				Code:     FormatPosition(p.StackNumber, row, tier),
				IsActive: true,
			})
		}
	}
	if len(missing) > 0 {
		if err := s.registry.CreateLocations(ctx, missing); err != nil {
			return RecreateResult{}, fmt.Errorf("create missing locations for S%02d: %w", p.StackNumber, err)
		}
	}

	return RecreateResult{
		OperationResult:   okf("stack S%02d recovered: %d existing locations, %d created", p.StackNumber, len(locations), len(missing)),
		Stack:             existing,
		Recovered:         true,
		ExistingLocations: len(locations),
		CreatedLocations:  len(missing),
	}, nil
}

// PermanentlyDeleteStack irreversibly removes an inactive, empty stack
// and all its location records. Active stacks are always refused.
func (s *LifecycleService) PermanentlyDeleteStack(ctx context.Context, stackID string) (OperationResult, error) {
	stack, err := s.registry.GetStack(ctx, stackID)
	if err != nil {
		if errors.Is(err, ErrStackNotFound) {
			return failf("stack %s not found", stackID), nil
		}
		return OperationResult{}, fmt.Errorf("load stack %s: %w", stackID, err)
	}

	if !stack.State.CanTransitionTo(models.StackDeleted) {
		return failf("stack S%02d must be deactivated before permanent deletion", stack.StackNumber), nil
	}

	occupied, err := s.registry.CountOccupiedLocations(ctx, stackID)
	if err != nil {
		return OperationResult{}, fmt.Errorf("count occupied locations for S%02d: %w", stack.StackNumber, err)
	}
	if occupied > 0 {
		return failf("cannot permanently delete stack S%02d: %d occupied locations", stack.StackNumber, occupied), nil
	}

	if err := s.registry.DeleteStack(ctx, stackID); err != nil {
		return OperationResult{}, fmt.Errorf("delete stack S%02d: %w", stack.StackNumber, err)
	}

	return okf("stack S%02d permanently deleted", stack.StackNumber), nil
}

// GetStackStatusSummary is a pure read over the yard's current state
func (s *LifecycleService) GetStackStatusSummary(ctx context.Context, yardID string) (StackStatusSummary, error) {
	stacks, err := s.registry.ListStacksByYard(ctx, yardID)
	if err != nil {
		return StackStatusSummary{}, fmt.Errorf("list stacks for yard %s: %w", yardID, err)
	}

	summary := StackStatusSummary{YardID: yardID, TotalStacks: len(stacks)}
	for _, st := range stacks {
		switch st.State {
		case models.StackActive:
			summary.ActiveStacks++
		case models.StackInactive:
			summary.InactiveStacks++
		}
		if st.IsBufferZone {
			summary.BufferStacks++
		}
		summary.TotalCapacity += st.Capacity
		summary.CurrentOccupancy += st.CurrentOccupancy
	}
	if summary.TotalCapacity > 0 {
		summary.Utilization = float64(summary.CurrentOccupancy) / float64(summary.TotalCapacity)
	}
	return summary, nil
}

// GetActiveStacks lists the yard's active stacks
func (s *LifecycleService) GetActiveStacks(ctx context.Context, yardID string) ([]models.Stack, error) {
	return s.stacksInState(ctx, yardID, models.StackActive)
}

// GetInactiveStacks lists the yard's soft-deleted stacks
func (s *LifecycleService) GetInactiveStacks(ctx context.Context, yardID string) ([]models.Stack, error) {
	return s.stacksInState(ctx, yardID, models.StackInactive)
}

func (s *LifecycleService) stacksInState(ctx context.Context, yardID string, state models.StackState) ([]models.Stack, error) {
	stacks, err := s.registry.ListStacksByYard(ctx, yardID)
	if err != nil {
		return nil, fmt.Errorf("list stacks for yard %s: %w", yardID, err)
	}
	var out []models.Stack
	for _, st := range stacks {
		if st.State == state {
			out = append(out, st)
		}
	}
	return out, nil
}
