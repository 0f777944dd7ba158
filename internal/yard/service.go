package yard

import (
	"context"
	"errors"
	"fmt"

	"github.com/xelth-com/eckdepotgo/internal/models"
)

// PositionService answers placement queries for gate-in flows
type PositionService struct {
	registry Registry
}

// NewPositionService creates a position service backed by the registry
func NewPositionService(registry Registry) *PositionService {
	return &PositionService{registry: registry}
}

// GetAvailablePositions returns the yard-wide candidate list for a
// container request, ordered by (stackNumber, row, tier)
func (s *PositionService) GetAvailablePositions(ctx context.Context, yardID string, size models.ContainerSize, quantity int, clientCode string) ([]CandidatePosition, error) {
	stacks, err := s.registry.ListStacksByYard(ctx, yardID)
	if err != nil {
		return nil, fmt.Errorf("list stacks for yard %s: %w", yardID, err)
	}

	compatible := FilterCompatibleStacks(stacks, size, quantity, clientCode)

	var candidates []CandidatePosition
	for i := range compatible {
		candidates = append(candidates, GeneratePositions(&compatible[i], size, quantity, clientCode)...)
	}
	SortCandidates(candidates)
	return candidates, nil
}

// CheckPositionAvailability re-validates a previously suggested
// position against live registry data, immediately before commit.
// Codec failures and refusals come back as data; only registry faults
// are errors.
func (s *PositionService) CheckPositionAvailability(ctx context.Context, stackID, positionText string, size models.ContainerSize, quantity int, clientCode string) (Availability, error) {
	pos, err := ParsePosition(positionText)
	if err != nil {
		return Availability{IsAvailable: false, Reason: err.Error()}, nil
	}

	stack, err := s.registry.GetStack(ctx, stackID)
	if err != nil {
		if errors.Is(err, ErrStackNotFound) {
			return refuse("stack %s not found", stackID), nil
		}
		return Availability{}, fmt.Errorf("load stack %s: %w", stackID, err)
	}

	if pos.StackNumber != stack.StackNumber {
		return refuse("position %s does not belong to stack S%02d", positionText, stack.StackNumber), nil
	}

	return CheckStackAvailability(stack, PlacementRequest{
		Row:        pos.Row,
		Tier:       pos.Tier,
		Size:       size,
		Quantity:   quantity,
		ClientCode: clientCode,
	}), nil
}
