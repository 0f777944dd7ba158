package yard

import (
	"context"
	"errors"
	"testing"

	"github.com/xelth-com/eckdepotgo/internal/models"
)

func newLifecycleFixture(t *testing.T) (context.Context, *MemoryRegistry, *LifecycleService, string) {
	t.Helper()
	ctx := context.Background()
	registry := NewMemoryRegistry()
	y := &models.Yard{Code: "Y1", Name: "Main Yard", IsActive: true}
	if err := registry.CreateYard(ctx, y); err != nil {
		t.Fatalf("create yard: %v", err)
	}
	return ctx, registry, NewLifecycleService(registry), y.ID
}

func mustCreateStack(t *testing.T, ctx context.Context, svc *LifecycleService, p CreateStackParams) *models.Stack {
	t.Helper()
	stack, result, err := svc.CreateStack(ctx, p)
	if err != nil {
		t.Fatalf("create stack S%02d: %v", p.StackNumber, err)
	}
	if !result.Success {
		t.Fatalf("create stack S%02d refused: %s", p.StackNumber, result.Message)
	}
	return stack
}

func TestCreateStackGeneratesGrid(t *testing.T) {
	ctx, registry, svc, yardID := newLifecycleFixture(t)

	stack := mustCreateStack(t, ctx, svc, CreateStackParams{
		YardID: yardID, StackNumber: 7, Rows: 3, MaxTiers: 2, ContainerSize: models.Size20ft,
	})
	if stack.State != models.StackActive {
		t.Errorf("new stack state = %s", stack.State)
	}
	// Capacity defaults to the grid size when not given
	if stack.Capacity != 6 {
		t.Errorf("default capacity = %d, want 6", stack.Capacity)
	}

	locations, err := registry.ListLocations(ctx, stack.ID)
	if err != nil {
		t.Fatalf("list locations: %v", err)
	}
	if len(locations) != 6 {
		t.Fatalf("created %d locations, want 6", len(locations))
	}
	if locations[0].Code != "S07R1H1" || locations[5].Code != "S07R3H2" {
		t.Errorf("location codes wrong: first=%s last=%s", locations[0].Code, locations[5].Code)
	}
	for _, loc := range locations {
		if !loc.IsActive || loc.IsOccupied {
			t.Errorf("fresh location %s: active=%v occupied=%v", loc.Code, loc.IsActive, loc.IsOccupied)
		}
	}
}

func TestCreateStackValidation(t *testing.T) {
	ctx, _, svc, yardID := newLifecycleFixture(t)

	cases := []CreateStackParams{
		{YardID: yardID, StackNumber: 0, Rows: 1, MaxTiers: 1},
		{YardID: yardID, StackNumber: 100, Rows: 1, MaxTiers: 1},
		{YardID: yardID, StackNumber: 5, Rows: 0, MaxTiers: 1},
		{YardID: yardID, StackNumber: 5, Rows: 7, MaxTiers: 1},
		{YardID: yardID, StackNumber: 5, Rows: 1, MaxTiers: 0},
		{YardID: yardID, StackNumber: 5, Rows: 1, MaxTiers: 5},
	}
	for _, p := range cases {
		_, result, err := svc.CreateStack(ctx, p)
		if err != nil {
			t.Fatalf("S%02d rows=%d tiers=%d: %v", p.StackNumber, p.Rows, p.MaxTiers, err)
		}
		if result.Success {
			t.Errorf("S%02d rows=%d tiers=%d accepted, want refusal", p.StackNumber, p.Rows, p.MaxTiers)
		}
	}
}

func TestCreateStackDuplicateNumber(t *testing.T) {
	ctx, _, svc, yardID := newLifecycleFixture(t)
	params := CreateStackParams{YardID: yardID, StackNumber: 1, Rows: 1, MaxTiers: 1, ContainerSize: models.Size20ft}
	mustCreateStack(t, ctx, svc, params)

	_, result, err := svc.CreateStack(ctx, params)
	if err != nil {
		t.Fatalf("duplicate create: %v", err)
	}
	if result.Success {
		t.Fatal("duplicate stack number accepted")
	}
}

func TestSoftDeleteRefusedWhileOccupied(t *testing.T) {
	ctx, registry, svc, yardID := newLifecycleFixture(t)
	stack := mustCreateStack(t, ctx, svc, CreateStackParams{
		YardID: yardID, StackNumber: 1, Rows: 2, MaxTiers: 2, ContainerSize: models.Size20ft,
	})

	for _, cell := range [][2]int{{1, 1}, {1, 2}, {2, 1}} {
		if err := registry.SetLocationOccupied(ctx, stack.ID, cell[0], cell[1], true); err != nil {
			t.Fatalf("occupy R%dH%d: %v", cell[0], cell[1], err)
		}
	}

	result, err := svc.SoftDeleteStack(ctx, stack.ID)
	if err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if result.Success {
		t.Fatal("occupied stack deactivated")
	}

	for _, cell := range [][2]int{{1, 1}, {1, 2}, {2, 1}} {
		if err := registry.SetLocationOccupied(ctx, stack.ID, cell[0], cell[1], false); err != nil {
			t.Fatalf("vacate R%dH%d: %v", cell[0], cell[1], err)
		}
	}

	result, err = svc.SoftDeleteStack(ctx, stack.ID)
	if err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if !result.Success {
		t.Fatalf("empty stack refused deactivation: %s", result.Message)
	}

	got, err := registry.GetStack(ctx, stack.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.State != models.StackInactive {
		t.Errorf("state after soft delete = %s", got.State)
	}
	locations, _ := registry.ListLocations(ctx, stack.ID)
	for _, loc := range locations {
		if loc.IsActive {
			t.Errorf("location %s still active after soft delete", loc.Code)
		}
	}
}

func TestReactivateStack(t *testing.T) {
	ctx, registry, svc, yardID := newLifecycleFixture(t)
	stack := mustCreateStack(t, ctx, svc, CreateStackParams{
		YardID: yardID, StackNumber: 1, Rows: 1, MaxTiers: 1, ContainerSize: models.Size20ft,
	})

	if result, err := svc.ReactivateStack(ctx, stack.ID); err != nil || result.Success {
		t.Fatalf("reactivating an active stack: err=%v result=%+v", err, result)
	}

	if result, err := svc.SoftDeleteStack(ctx, stack.ID); err != nil || !result.Success {
		t.Fatalf("soft delete: err=%v result=%+v", err, result)
	}
	if result, err := svc.ReactivateStack(ctx, stack.ID); err != nil || !result.Success {
		t.Fatalf("reactivate: err=%v result=%+v", err, result)
	}

	got, _ := registry.GetStack(ctx, stack.ID)
	if got.State != models.StackActive {
		t.Errorf("state after reactivation = %s", got.State)
	}
	locations, _ := registry.ListLocations(ctx, stack.ID)
	for _, loc := range locations {
		if !loc.IsActive {
			t.Errorf("location %s inactive after reactivation", loc.Code)
		}
	}
}

func TestRecreateStackRecoversLocations(t *testing.T) {
	ctx, registry, svc, yardID := newLifecycleFixture(t)
	stack := mustCreateStack(t, ctx, svc, CreateStackParams{
		YardID: yardID, StackNumber: 1, Rows: 2, MaxTiers: 2, ContainerSize: models.Size20ft,
	})
	if result, err := svc.SoftDeleteStack(ctx, stack.ID); err != nil || !result.Success {
		t.Fatalf("soft delete: err=%v result=%+v", err, result)
	}

	// Recreate with a larger grid: the 4 existing cells are recovered,
	// only the 2 new ones are generated
	res, err := svc.RecreateStackWithLocationRecovery(ctx, CreateStackParams{
		YardID: yardID, StackNumber: 1, Rows: 3, MaxTiers: 2, ContainerSize: models.Size20ft,
	})
	if err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if !res.Success || !res.Recovered {
		t.Fatalf("recreate did not recover: %+v", res.OperationResult)
	}
	if res.ExistingLocations != 4 || res.CreatedLocations != 2 {
		t.Errorf("recovery counts existing=%d created=%d, want 4/2", res.ExistingLocations, res.CreatedLocations)
	}
	if res.Stack.ID != stack.ID {
		t.Errorf("recreate produced a new identity %s, want %s", res.Stack.ID, stack.ID)
	}

	locations, _ := registry.ListLocations(ctx, stack.ID)
	if len(locations) != 6 {
		t.Fatalf("have %d locations after recreate, want 6", len(locations))
	}
	for _, loc := range locations {
		if !loc.IsActive {
			t.Errorf("location %s inactive after recreate", loc.Code)
		}
	}
}

func TestRecreateStackFreshCreate(t *testing.T) {
	ctx, _, svc, yardID := newLifecycleFixture(t)

	res, err := svc.RecreateStackWithLocationRecovery(ctx, CreateStackParams{
		YardID: yardID, StackNumber: 2, Rows: 2, MaxTiers: 1, ContainerSize: models.Size40ft,
	})
	if err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if !res.Success || res.Recovered {
		t.Fatalf("fresh recreate: %+v recovered=%v", res.OperationResult, res.Recovered)
	}
	if res.CreatedLocations != 2 || res.ExistingLocations != 0 {
		t.Errorf("fresh recreate counts existing=%d created=%d, want 0/2", res.ExistingLocations, res.CreatedLocations)
	}
}

func TestRecreateStackRefusedWhileActive(t *testing.T) {
	ctx, _, svc, yardID := newLifecycleFixture(t)
	params := CreateStackParams{YardID: yardID, StackNumber: 1, Rows: 1, MaxTiers: 1, ContainerSize: models.Size20ft}
	mustCreateStack(t, ctx, svc, params)

	res, err := svc.RecreateStackWithLocationRecovery(ctx, params)
	if err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if res.Success {
		t.Fatal("recreate over an active stack accepted")
	}
}

func TestPermanentDeleteRequiresInactiveAndEmpty(t *testing.T) {
	ctx, registry, svc, yardID := newLifecycleFixture(t)
	stack := mustCreateStack(t, ctx, svc, CreateStackParams{
		YardID: yardID, StackNumber: 1, Rows: 1, MaxTiers: 1, ContainerSize: models.Size20ft,
	})

	// Active stacks are always refused, empty or not
	result, err := svc.PermanentlyDeleteStack(ctx, stack.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if result.Success {
		t.Fatal("active stack permanently deleted")
	}

	if result, err := svc.SoftDeleteStack(ctx, stack.ID); err != nil || !result.Success {
		t.Fatalf("soft delete: err=%v result=%+v", err, result)
	}
	if err := registry.SetLocationOccupied(ctx, stack.ID, 1, 1, true); err != nil {
		t.Fatalf("occupy: %v", err)
	}

	result, err = svc.PermanentlyDeleteStack(ctx, stack.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if result.Success {
		t.Fatal("inactive stack with occupied location permanently deleted")
	}

	if err := registry.SetLocationOccupied(ctx, stack.ID, 1, 1, false); err != nil {
		t.Fatalf("vacate: %v", err)
	}
	result, err = svc.PermanentlyDeleteStack(ctx, stack.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !result.Success {
		t.Fatalf("empty inactive stack refused deletion: %s", result.Message)
	}

	if _, err := registry.GetStack(ctx, stack.ID); !errors.Is(err, ErrStackNotFound) {
		t.Errorf("deleted stack still retrievable, err=%v", err)
	}
	if locations, _ := registry.ListLocations(ctx, stack.ID); len(locations) != 0 {
		t.Errorf("%d location records survived permanent deletion", len(locations))
	}
}

func TestStackStatusSummary(t *testing.T) {
	ctx, registry, svc, yardID := newLifecycleFixture(t)

	a := mustCreateStack(t, ctx, svc, CreateStackParams{
		YardID: yardID, StackNumber: 1, Rows: 2, MaxTiers: 2, Capacity: 10, ContainerSize: models.Size20ft,
	})
	b := mustCreateStack(t, ctx, svc, CreateStackParams{
		YardID: yardID, StackNumber: 2, Rows: 2, MaxTiers: 2, Capacity: 10, ContainerSize: models.Size40ft,
	})
	if result, err := svc.SoftDeleteStack(ctx, b.ID); err != nil || !result.Success {
		t.Fatalf("soft delete: err=%v result=%+v", err, result)
	}
	if err := registry.AdjustOccupancy(ctx, a.ID, 0, 5); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	buffers := NewBufferService(registry)
	if _, err := buffers.GetOrCreateBufferStack(ctx, yardID, models.Size20ft, models.DamageStructural); err != nil {
		t.Fatalf("buffer: %v", err)
	}

	summary, err := svc.GetStackStatusSummary(ctx, yardID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalStacks != 3 || summary.ActiveStacks != 2 || summary.InactiveStacks != 1 || summary.BufferStacks != 1 {
		t.Errorf("summary counts = %+v", summary)
	}
	if summary.TotalCapacity != 10+10+bufferStackCapacity {
		t.Errorf("total capacity = %d", summary.TotalCapacity)
	}
	if summary.CurrentOccupancy != 5 {
		t.Errorf("occupancy = %d, want 5", summary.CurrentOccupancy)
	}
	want := float64(5) / float64(10+10+bufferStackCapacity)
	if summary.Utilization != want {
		t.Errorf("utilization = %v, want %v", summary.Utilization, want)
	}

	active, err := svc.GetActiveStacks(ctx, yardID)
	if err != nil {
		t.Fatalf("active list: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("active stacks = %d, want 2", len(active))
	}
	inactive, err := svc.GetInactiveStacks(ctx, yardID)
	if err != nil {
		t.Fatalf("inactive list: %v", err)
	}
	if len(inactive) != 1 || inactive[0].ID != b.ID {
		t.Errorf("inactive list wrong: %d entries", len(inactive))
	}
}
