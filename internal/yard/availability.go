package yard

import (
	"fmt"

	"github.com/xelth-com/eckdepotgo/internal/models"
)

// PlacementRequest describes one placement attempt against a stack.
// Quantity 2 means two 20ft containers sharing a slot pair. ClientCode
// is the requesting client; empty means no client context, in which
// case exclusivity is not evaluated.
type PlacementRequest struct {
	Row        int                  `json:"row"`
	Tier       int                  `json:"tier"`
	Size       models.ContainerSize `json:"size"`
	Quantity   int                  `json:"quantity"`
	ClientCode string               `json:"client_code,omitempty"`
}

// Availability is the outcome of an availability check. Refusals carry
// a human-readable reason and are data, never errors.
type Availability struct {
	IsAvailable bool   `json:"is_available"`
	Reason      string `json:"reason,omitempty"`
}

func refuse(format string, args ...interface{}) Availability {
	return Availability{IsAvailable: false, Reason: fmt.Sprintf(format, args...)}
}

// CheckStackAvailability evaluates the placement rules in strict order
// and short-circuits on the first failure. The rule order is part of
// the contract: callers rely on the reason of the first failing rule.
func CheckStackAvailability(stack *models.Stack, req PlacementRequest) Availability {
	if req.Quantity < 1 || req.Quantity > 2 {
		return refuse("quantity %d is not supported, must be 1 or 2", req.Quantity)
	}

	// 1. Lifecycle
	if !stack.IsActive() {
		return refuse("stack S%02d is not active", stack.StackNumber)
	}

	// 2. Size compatibility
	if req.Size == models.Size40ft && stack.ContainerSize == models.Size20ft {
		return refuse("stack S%02d only accepts 20ft containers", stack.StackNumber)
	}

	// 3. Geometry bounds
	if req.Row > stack.Rows || req.Tier > stack.MaxTiers {
		return refuse("position R%dH%d is out of range for stack S%02d (%d rows, %d tiers)",
			req.Row, req.Tier, stack.StackNumber, stack.Rows, stack.MaxTiers)
	}

	// 4. Capacity
	if stack.CurrentOccupancy >= stack.Capacity {
		return refuse("stack S%02d is at full capacity (%d/%d)",
			stack.StackNumber, stack.CurrentOccupancy, stack.Capacity)
	}

	// 5. Paired placement needs two free slots
	if req.Quantity == 2 {
		if req.Size != models.Size20ft {
			return refuse("paired placement is only supported for 20ft containers")
		}
		if stack.SpareCapacity() < 2 {
			return refuse("stack S%02d has insufficient capacity for paired placement (%d free)",
				stack.StackNumber, stack.SpareCapacity())
		}
	}

	// 6. Special stacks never take 40ft, regardless of ContainerSize
	if stack.IsSpecialStack && req.Size == models.Size40ft {
		return refuse("special stack S%02d cannot hold 40ft containers", stack.StackNumber)
	}

	// 7. Client exclusivity, only when the caller supplied a client
	if stack.AssignedClientCode != "" && req.ClientCode != "" && stack.AssignedClientCode != req.ClientCode {
		return refuse("stack S%02d is reserved for client %s", stack.StackNumber, stack.AssignedClientCode)
	}

	return Availability{IsAvailable: true}
}
