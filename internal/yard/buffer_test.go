package yard

import (
	"context"
	"testing"

	"github.com/xelth-com/eckdepotgo/internal/models"
)

func newBufferFixture(t *testing.T) (context.Context, *MemoryRegistry, *BufferService, string) {
	t.Helper()
	ctx := context.Background()
	registry := NewMemoryRegistry()
	y := &models.Yard{Code: "Y1", Name: "Main Yard", IsActive: true}
	if err := registry.CreateYard(ctx, y); err != nil {
		t.Fatalf("create yard: %v", err)
	}
	return ctx, registry, NewBufferService(registry), y.ID
}

func TestGetOrCreateBufferStackIdempotent(t *testing.T) {
	ctx, _, svc, yardID := newBufferFixture(t)

	first, err := svc.GetOrCreateBufferStack(ctx, yardID, models.Size20ft, models.DamageStructural)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.GetOrCreateBufferStack(ctx, yardID, models.Size20ft, models.DamageStructural)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("same key resolved to different stacks: %s vs %s", first.ID, second.ID)
	}

	if !first.IsBufferZone {
		t.Error("buffer stack not flagged as buffer zone")
	}
	if first.Kind() != models.KindBuffer {
		t.Errorf("buffer stack kind = %s", first.Kind())
	}
	if first.Capacity != bufferStackCapacity {
		t.Errorf("buffer capacity = %d, want %d", first.Capacity, bufferStackCapacity)
	}
	if first.StackNumber <= bufferNumberBase {
		t.Errorf("buffer stack numbered %d, want > %d", first.StackNumber, bufferNumberBase)
	}
}

func TestGetOrCreateBufferStackDistinctKeys(t *testing.T) {
	ctx, _, svc, yardID := newBufferFixture(t)

	structural, err := svc.GetOrCreateBufferStack(ctx, yardID, models.Size20ft, models.DamageStructural)
	if err != nil {
		t.Fatalf("structural: %v", err)
	}
	surface, err := svc.GetOrCreateBufferStack(ctx, yardID, models.Size20ft, models.DamageSurface)
	if err != nil {
		t.Fatalf("surface: %v", err)
	}
	bigger, err := svc.GetOrCreateBufferStack(ctx, yardID, models.Size40ft, models.DamageStructural)
	if err != nil {
		t.Fatalf("40ft structural: %v", err)
	}

	ids := map[string]bool{structural.ID: true, surface.ID: true, bigger.ID: true}
	if len(ids) != 3 {
		t.Fatal("distinct keys shared a buffer stack")
	}

	// Numbers are allocated sequentially above the base
	numbers := map[int]bool{structural.StackNumber: true, surface.StackNumber: true, bigger.StackNumber: true}
	for _, n := range []int{9001, 9002, 9003} {
		if !numbers[n] {
			t.Errorf("expected buffer stack number %d, have %v", n, numbers)
		}
	}
}

func TestBufferStackExcludedFromPlacement(t *testing.T) {
	ctx, registry, svc, yardID := newBufferFixture(t)

	if _, err := svc.GetOrCreateBufferStack(ctx, yardID, models.Size20ft, models.DamageMechanical); err != nil {
		t.Fatalf("create buffer: %v", err)
	}

	positions := NewPositionService(registry)
	candidates, err := positions.GetAvailablePositions(ctx, yardID, models.Size20ft, 1, "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("buffer stack leaked %d candidates into physical placement", len(candidates))
	}
}

func TestRouteDamagedContainer(t *testing.T) {
	ctx, _, svc, yardID := newBufferFixture(t)

	assignment, err := svc.RouteDamagedContainer(ctx, yardID, models.Size40ft, models.DamageContamination)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if assignment.Stack == nil || !assignment.Stack.IsBufferZone {
		t.Fatal("routing did not land on a buffer stack")
	}

	want := FormatBufferPosition(assignment.Stack.StackNumber, 1, 1)
	if assignment.Position != want {
		t.Errorf("position = %s, want %s", assignment.Position, want)
	}
	pos, err := ParseBufferPosition(assignment.Position)
	if err != nil {
		t.Fatalf("assigned position does not parse: %v", err)
	}
	if pos.StackNumber != assignment.Stack.StackNumber || pos.Row != 1 || pos.Tier != 1 {
		t.Errorf("assigned position decoded to %+v", pos)
	}
}

func TestGetBufferZoneStats(t *testing.T) {
	ctx, registry, svc, yardID := newBufferFixture(t)

	a, err := svc.GetOrCreateBufferStack(ctx, yardID, models.Size20ft, models.DamageStructural)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.GetOrCreateBufferStack(ctx, yardID, models.Size40ft, models.DamageSurface); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := registry.AdjustOccupancy(ctx, a.ID, 0, 3); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	stats, err := svc.GetBufferZoneStats(ctx, yardID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalBufferStacks != 2 {
		t.Errorf("total buffer stacks = %d, want 2", stats.TotalBufferStacks)
	}
	if stats.TotalCapacity != 2*bufferStackCapacity {
		t.Errorf("total capacity = %d, want %d", stats.TotalCapacity, 2*bufferStackCapacity)
	}
	if stats.CurrentOccupancy != 3 {
		t.Errorf("occupancy = %d, want 3", stats.CurrentOccupancy)
	}
	if stats.AvailableSpaces != 2*bufferStackCapacity-3 {
		t.Errorf("available = %d, want %d", stats.AvailableSpaces, 2*bufferStackCapacity-3)
	}
}
