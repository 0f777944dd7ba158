package yard

import (
	"strings"
	"testing"

	"github.com/xelth-com/eckdepotgo/internal/models"
)

func testStack() *models.Stack {
	return &models.Stack{
		ID:            "stack-1",
		YardID:        "yard-1",
		StackNumber:   1,
		Rows:          6,
		MaxTiers:      4,
		Capacity:      24,
		ContainerSize: models.Size40ft,
		State:         models.StackActive,
	}
}

func TestCheckAvailabilityAccepts(t *testing.T) {
	avail := CheckStackAvailability(testStack(), PlacementRequest{Row: 1, Tier: 1, Size: models.Size20ft, Quantity: 1})
	if !avail.IsAvailable {
		t.Fatalf("expected available, got refusal: %s", avail.Reason)
	}
}

func TestCheckAvailabilityInactive(t *testing.T) {
	stack := testStack()
	stack.State = models.StackInactive

	avail := CheckStackAvailability(stack, PlacementRequest{Row: 1, Tier: 1, Size: models.Size20ft, Quantity: 1})
	if avail.IsAvailable {
		t.Fatal("inactive stack accepted a placement")
	}
	if !strings.Contains(avail.Reason, "not active") {
		t.Errorf("unexpected reason: %s", avail.Reason)
	}
}

func TestCheckAvailabilitySizeMismatch(t *testing.T) {
	stack := testStack()
	stack.ContainerSize = models.Size20ft

	// Regardless of occupancy
	for _, occupancy := range []int{0, 10, 24} {
		stack.CurrentOccupancy = occupancy
		avail := CheckStackAvailability(stack, PlacementRequest{Row: 1, Tier: 1, Size: models.Size40ft, Quantity: 1})
		if avail.IsAvailable {
			t.Fatalf("20ft-only stack accepted a 40ft container at occupancy %d", occupancy)
		}
		if !strings.Contains(avail.Reason, "20ft") {
			t.Errorf("unexpected reason: %s", avail.Reason)
		}
	}
}

func TestCheckAvailabilityBounds(t *testing.T) {
	cases := []struct{ row, tier int }{
		{7, 1}, {1, 5}, {7, 5},
	}
	for _, tc := range cases {
		avail := CheckStackAvailability(testStack(), PlacementRequest{Row: tc.row, Tier: tc.tier, Size: models.Size20ft, Quantity: 1})
		if avail.IsAvailable {
			t.Errorf("out-of-bounds (%d,%d) accepted", tc.row, tc.tier)
		}
	}
}

func TestCheckAvailabilityFull(t *testing.T) {
	stack := testStack()
	stack.CurrentOccupancy = stack.Capacity

	// Any in-bounds cell refuses on a full stack
	for row := 1; row <= stack.Rows; row++ {
		for tier := 1; tier <= stack.MaxTiers; tier++ {
			avail := CheckStackAvailability(stack, PlacementRequest{Row: row, Tier: tier, Size: models.Size20ft, Quantity: 1})
			if avail.IsAvailable {
				t.Fatalf("full stack accepted placement at (%d,%d)", row, tier)
			}
			if !strings.Contains(avail.Reason, "full capacity") {
				t.Fatalf("unexpected reason: %s", avail.Reason)
			}
		}
	}
}

func TestCheckAvailabilityPairedPlacement(t *testing.T) {
	stack := testStack()
	stack.CurrentOccupancy = stack.Capacity - 1

	avail := CheckStackAvailability(stack, PlacementRequest{Row: 1, Tier: 1, Size: models.Size20ft, Quantity: 2})
	if avail.IsAvailable {
		t.Fatal("paired placement accepted with a single free slot")
	}
	if !strings.Contains(avail.Reason, "paired placement") {
		t.Errorf("unexpected reason: %s", avail.Reason)
	}

	stack.CurrentOccupancy = stack.Capacity - 2
	avail = CheckStackAvailability(stack, PlacementRequest{Row: 1, Tier: 1, Size: models.Size20ft, Quantity: 2})
	if !avail.IsAvailable {
		t.Fatalf("paired placement refused with two free slots: %s", avail.Reason)
	}
}

func TestCheckAvailabilityPairedRequires20ft(t *testing.T) {
	avail := CheckStackAvailability(testStack(), PlacementRequest{Row: 1, Tier: 1, Size: models.Size40ft, Quantity: 2})
	if avail.IsAvailable {
		t.Fatal("paired 40ft placement accepted")
	}
}

func TestCheckAvailabilitySpecialStack(t *testing.T) {
	stack := testStack()
	stack.IsSpecialStack = true

	// 40ft-capable on paper, still refuses 40ft
	avail := CheckStackAvailability(stack, PlacementRequest{Row: 1, Tier: 1, Size: models.Size40ft, Quantity: 1})
	if avail.IsAvailable {
		t.Fatal("special stack accepted a 40ft container")
	}
	if !strings.Contains(avail.Reason, "special") {
		t.Errorf("unexpected reason: %s", avail.Reason)
	}

	// 20ft is fine
	avail = CheckStackAvailability(stack, PlacementRequest{Row: 1, Tier: 1, Size: models.Size20ft, Quantity: 1})
	if !avail.IsAvailable {
		t.Fatalf("special stack refused a 20ft container: %s", avail.Reason)
	}
}

func TestCheckAvailabilityClientExclusivity(t *testing.T) {
	stack := testStack()
	stack.AssignedClientCode = "ACME"

	avail := CheckStackAvailability(stack, PlacementRequest{Row: 1, Tier: 1, Size: models.Size20ft, Quantity: 1, ClientCode: "OTHER"})
	if avail.IsAvailable {
		t.Fatal("client-assigned stack accepted a different client")
	}
	if !strings.Contains(avail.Reason, "ACME") {
		t.Errorf("unexpected reason: %s", avail.Reason)
	}

	avail = CheckStackAvailability(stack, PlacementRequest{Row: 1, Tier: 1, Size: models.Size20ft, Quantity: 1, ClientCode: "ACME"})
	if !avail.IsAvailable {
		t.Fatalf("assigned client refused: %s", avail.Reason)
	}

	// No client context skips the rule
	avail = CheckStackAvailability(stack, PlacementRequest{Row: 1, Tier: 1, Size: models.Size20ft, Quantity: 1})
	if !avail.IsAvailable {
		t.Fatalf("anonymous request refused: %s", avail.Reason)
	}
}

func TestCheckAvailabilityQuantityDomain(t *testing.T) {
	for _, q := range []int{0, 3, -1} {
		avail := CheckStackAvailability(testStack(), PlacementRequest{Row: 1, Tier: 1, Size: models.Size20ft, Quantity: q})
		if avail.IsAvailable {
			t.Errorf("quantity %d accepted", q)
		}
	}
}

func TestCheckAvailabilityRuleOrder(t *testing.T) {
	// Inactive wins over size mismatch: rule 1 fires first
	stack := testStack()
	stack.State = models.StackInactive
	stack.ContainerSize = models.Size20ft

	avail := CheckStackAvailability(stack, PlacementRequest{Row: 1, Tier: 1, Size: models.Size40ft, Quantity: 1})
	if !strings.Contains(avail.Reason, "not active") {
		t.Errorf("rule order violated, got reason: %s", avail.Reason)
	}

	// Size mismatch wins over bounds: rule 2 before rule 3
	stack = testStack()
	stack.ContainerSize = models.Size20ft
	avail = CheckStackAvailability(stack, PlacementRequest{Row: 99, Tier: 99, Size: models.Size40ft, Quantity: 1})
	if !strings.Contains(avail.Reason, "20ft") {
		t.Errorf("rule order violated, got reason: %s", avail.Reason)
	}
}
