package yard

import (
	"sort"

	"github.com/xelth-com/eckdepotgo/internal/models"
)

// CandidatePosition is one concrete placement suggestion
type CandidatePosition struct {
	StackID     string `json:"stack_id"`
	StackNumber int    `json:"stack_number"`
	Row         int    `json:"row"`
	Tier        int    `json:"tier"`
	Code        string `json:"code"`
}

// IsBufferStack reports whether the stack is a quarantine stack
func IsBufferStack(s *models.Stack) bool {
	return s.Kind() == models.KindBuffer
}

// FilterCompatibleStacks narrows a yard's stacks to those that can take
// the requested container. Buffer stacks never appear in physical
// placement. An empty clientCode skips the exclusivity rule.
func FilterCompatibleStacks(stacks []models.Stack, size models.ContainerSize, quantity int, clientCode string) []models.Stack {
	var out []models.Stack
	for _, s := range stacks {
		if !s.IsActive() || IsBufferStack(&s) {
			continue
		}
		if s.CurrentOccupancy >= s.Capacity {
			continue
		}
		if size == models.Size40ft && (s.ContainerSize == models.Size20ft || s.IsSpecialStack) {
			continue
		}
		if s.AssignedClientCode != "" && clientCode != "" && s.AssignedClientCode != clientCode {
			continue
		}
		if s.SpareCapacity() < quantity {
			continue
		}
		out = append(out, s)
	}
	return out
}

// GeneratePositions enumerates candidate cells of one stack. A cell is
// included when it checks out available, or when the stack still has
// spare capacity at all: the richer set feeds UI suggestions and is
// re-validated before commit, so it is not a placement guarantee.
func GeneratePositions(stack *models.Stack, size models.ContainerSize, quantity int, clientCode string) []CandidatePosition {
	var out []CandidatePosition
	for row := 1; row <= stack.Rows; row++ {
		for tier := 1; tier <= stack.MaxTiers; tier++ {
			avail := CheckStackAvailability(stack, PlacementRequest{
				Row:        row,
				Tier:       tier,
				Size:       size,
				Quantity:   quantity,
				ClientCode: clientCode,
			})
			if !avail.IsAvailable && stack.SpareCapacity() == 0 {
				continue
			}
			out = append(out, CandidatePosition{
				StackID:     stack.ID,
				StackNumber: stack.StackNumber,
				Row:         row,
				Tier:        tier,
				Code:        FormatPosition(stack.StackNumber, row, tier),
			})
		}
	}
	return out
}

// SortCandidates orders candidates by (stackNumber, row, tier). The
// ordering is total and stable given the same snapshot; suggestion
// order must be reproducible.
func SortCandidates(candidates []CandidatePosition) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.StackNumber != b.StackNumber {
			return a.StackNumber < b.StackNumber
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Tier < b.Tier
	})
}
