package yard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xelth-com/eckdepotgo/internal/models"
)

const (
	// DefaultLeaseTTL is the hold window between suggesting a
	// position and committing it.
	DefaultLeaseTTL = 5 * time.Minute

	// commitRetries bounds how often a commit re-reads after losing
	// an occupancy race.
	commitRetries = 3
)

// Lease is a time-bounded hold on one cell. Until it expires or is
// released, no other lease can be acquired on the same cell; committing
// converts it into an occupancy increment.
type Lease struct {
	ID         string               `json:"id"`
	StackID    string               `json:"stack_id"`
	Position   Position             `json:"position"`
	Code       string               `json:"code"`
	Size       models.ContainerSize `json:"size"`
	Quantity   int                  `json:"quantity"`
	ClientCode string               `json:"client_code,omitempty"`
	ExpiresAt  time.Time            `json:"expires_at"`
}

func (l *Lease) expired(now time.Time) bool { return now.After(l.ExpiresAt) }

func cellKey(stackID string, row, tier int) string {
	return fmt.Sprintf("%s:%d:%d", stackID, row, tier)
}

// LeaseManager hands out placement leases. Leases live in process
// memory; the commit path stays safe across processes because the
// registry occupancy update is conditional on the observed value.
type LeaseManager struct {
	registry Registry
	ttl      time.Duration

	mu     sync.Mutex
	leases map[string]*Lease // lease id -> lease
	cells  map[string]string // cell key -> lease id
	now    func() time.Time
}

// NewLeaseManager creates a lease manager with the given hold TTL;
// ttl <= 0 selects DefaultLeaseTTL.
func NewLeaseManager(registry Registry, ttl time.Duration) *LeaseManager {
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	return &LeaseManager{
		registry: registry,
		ttl:      ttl,
		leases:   make(map[string]*Lease),
		cells:    make(map[string]string),
		now:      time.Now,
	}
}

// Acquire validates the position against live data and takes a hold on
// it. Refusals (codec failures, availability rules, a competing lease)
// come back as data.
func (m *LeaseManager) Acquire(ctx context.Context, stackID, positionText string, size models.ContainerSize, quantity int, clientCode string) (*Lease, Availability, error) {
	pos, err := ParsePosition(positionText)
	if err != nil {
		return nil, Availability{IsAvailable: false, Reason: err.Error()}, nil
	}

	stack, err := m.registry.GetStack(ctx, stackID)
	if err != nil {
		if errors.Is(err, ErrStackNotFound) {
			return nil, refuse("stack %s not found", stackID), nil
		}
		return nil, Availability{}, fmt.Errorf("load stack %s: %w", stackID, err)
	}
	if pos.StackNumber != stack.StackNumber {
		return nil, refuse("position %s does not belong to stack S%02d", positionText, stack.StackNumber), nil
	}

	avail := CheckStackAvailability(stack, PlacementRequest{
		Row:        pos.Row,
		Tier:       pos.Tier,
		Size:       size,
		Quantity:   quantity,
		ClientCode: clientCode,
	})
	if !avail.IsAvailable {
		return nil, avail, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked(m.now())

	key := cellKey(stackID, pos.Row, pos.Tier)
	if holder, held := m.cells[key]; held {
		return nil, refuse("position %s is held by lease %s", positionText, holder), nil
	}

	lease := &Lease{
		ID:         uuid.NewString(),
		StackID:    stackID,
		Position:   pos,
		Code:       positionText,
		Size:       size,
		Quantity:   quantity,
		ClientCode: clientCode,
		ExpiresAt:  m.now().Add(m.ttl),
	}
	m.leases[lease.ID] = lease
	m.cells[key] = lease.ID

	return lease, Availability{IsAvailable: true}, nil
}

// Commit converts a live lease into occupancy: the stack counter is
// incremented conditionally on the occupancy observed in the same
// attempt, and the location is flagged occupied. Losing the conditional
// update retries against fresh state; exhausting capacity refuses.
func (m *LeaseManager) Commit(ctx context.Context, leaseID string) (OperationResult, error) {
	m.mu.Lock()
	lease, ok := m.leases[leaseID]
	if ok && lease.expired(m.now()) {
		m.removeLocked(lease)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return failf("lease %s not found or expired", leaseID), nil
	}

	for attempt := 0; attempt < commitRetries; attempt++ {
		stack, err := m.registry.GetStack(ctx, lease.StackID)
		if err != nil {
			return OperationResult{}, fmt.Errorf("load stack %s: %w", lease.StackID, err)
		}

		avail := CheckStackAvailability(stack, PlacementRequest{
			Row:        lease.Position.Row,
			Tier:       lease.Position.Tier,
			Size:       lease.Size,
			Quantity:   lease.Quantity,
			ClientCode: lease.ClientCode,
		})
		if !avail.IsAvailable {
			m.Release(leaseID)
			return failf("position %s no longer available: %s", lease.Code, avail.Reason), nil
		}

		err = m.registry.AdjustOccupancy(ctx, stack.ID, stack.CurrentOccupancy, lease.Quantity)
		if errors.Is(err, ErrOccupancyConflict) {
			continue
		}
		if err != nil {
			return OperationResult{}, fmt.Errorf("commit occupancy on S%02d: %w", stack.StackNumber, err)
		}

		if err := m.registry.SetLocationOccupied(ctx, lease.StackID, lease.Position.Row, lease.Position.Tier, true); err != nil {
			return OperationResult{}, fmt.Errorf("mark location %s occupied: %w", lease.Code, err)
		}

		m.Release(leaseID)
		return okf("position %s committed", lease.Code), nil
	}

	return failf("position %s contended, retry with a fresh suggestion", lease.Code), nil
}

// Release frees a lease; a caller abandoning a suggestion simply never
// commits, so releasing an unknown lease is not an error.
func (m *LeaseManager) Release(leaseID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	lease, ok := m.leases[leaseID]
	if !ok {
		return false
	}
	m.removeLocked(lease)
	return true
}

// Vacate is the gate-out path: decrement occupancy conditionally and
// clear the location flag.
func (m *LeaseManager) Vacate(ctx context.Context, stackID, positionText string) (OperationResult, error) {
	pos, err := ParsePosition(positionText)
	if err != nil {
		return failf("%s", err.Error()), nil
	}

	for attempt := 0; attempt < commitRetries; attempt++ {
		stack, err := m.registry.GetStack(ctx, stackID)
		if err != nil {
			if errors.Is(err, ErrStackNotFound) {
				return failf("stack %s not found", stackID), nil
			}
			return OperationResult{}, fmt.Errorf("load stack %s: %w", stackID, err)
		}
		if pos.StackNumber != stack.StackNumber {
			return failf("position %s does not belong to stack S%02d", positionText, stack.StackNumber), nil
		}
		if stack.CurrentOccupancy <= 0 {
			return failf("stack S%02d is already empty", stack.StackNumber), nil
		}

		err = m.registry.AdjustOccupancy(ctx, stackID, stack.CurrentOccupancy, -1)
		if errors.Is(err, ErrOccupancyConflict) {
			continue
		}
		if err != nil {
			return OperationResult{}, fmt.Errorf("vacate occupancy on S%02d: %w", stack.StackNumber, err)
		}

		if err := m.registry.SetLocationOccupied(ctx, stackID, pos.Row, pos.Tier, false); err != nil {
			return OperationResult{}, fmt.Errorf("clear location %s: %w", positionText, err)
		}
		return okf("position %s vacated", positionText), nil
	}

	return failf("position %s contended, retry", positionText), nil
}

// Sweep drops expired leases and returns how many were removed
func (m *LeaseManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.now())
}

func (m *LeaseManager) sweepLocked(now time.Time) int {
	removed := 0
	for _, lease := range m.leases {
		if lease.expired(now) {
			m.removeLocked(lease)
			removed++
		}
	}
	return removed
}

func (m *LeaseManager) removeLocked(lease *Lease) {
	delete(m.leases, lease.ID)
	delete(m.cells, cellKey(lease.StackID, lease.Position.Row, lease.Position.Tier))
}
