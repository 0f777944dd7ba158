package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContainerSize is the footprint class a stack accepts
type ContainerSize string

const (
	Size20ft ContainerSize = "20ft"
	Size40ft ContainerSize = "40ft"
)

// DamageType classifies a damage assessment for buffer routing
type DamageType string

const (
	DamageStructural    DamageType = "structural"
	DamageSurface       DamageType = "surface"
	DamageMechanical    DamageType = "mechanical"
	DamageContamination DamageType = "contamination"
)

// StackState is the lifecycle state of a stack
type StackState string

const (
	StackActive   StackState = "active"
	StackInactive StackState = "inactive"
	// StackDeleted is terminal; the row is removed from the registry,
	// the state only exists for transition checks.
	StackDeleted StackState = "deleted"
)

// stackTransitions lists the legal lifecycle transitions
var stackTransitions = map[StackState][]StackState{
	StackActive:   {StackInactive},
	StackInactive: {StackActive, StackDeleted},
	StackDeleted:  {},
}

// CanTransitionTo reports whether the lifecycle move is legal
func (s StackState) CanTransitionTo(target StackState) bool {
	for _, t := range stackTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// StackKind distinguishes physical stacks from buffer (quarantine) stacks
type StackKind string

const (
	KindPhysical StackKind = "physical"
	KindBuffer   StackKind = "buffer"
)

// Yard represents a depot yard section that owns stacks
type Yard struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string    `gorm:"type:varchar(20);not null;unique" json:"code"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Stacks []Stack `gorm:"foreignKey:YardID" json:"stacks,omitempty"`
}

func (Yard) TableName() string { return "yards" }

// BeforeCreate assigns a UUID if the caller did not
func (y *Yard) BeforeCreate(tx *gorm.DB) error {
	if y.ID == "" {
		y.ID = uuid.NewString()
	}
	return nil
}

// Stack represents a rectangular storage unit inside a yard.
// Physical stacks are numbered 1-99; buffer stacks live outside that
// range and never take part in physical position generation.
type Stack struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	YardID      string `gorm:"type:uuid;not null;uniqueIndex:idx_yard_stack_number" json:"yard_id"`
	StackNumber int    `gorm:"not null;uniqueIndex:idx_yard_stack_number" json:"stack_number"`

	// Geometry: cells are addressed 1-based as (row, tier)
	Rows     int `gorm:"not null;default:1" json:"rows"`
	MaxTiers int `gorm:"not null;default:1" json:"max_tiers"`

	Capacity         int `gorm:"not null" json:"capacity"`
	CurrentOccupancy int `gorm:"not null;default:0" json:"current_occupancy"`

	ContainerSize      ContainerSize `gorm:"type:varchar(10);not null;default:'20ft'" json:"container_size"`
	IsSpecialStack     bool          `gorm:"default:false" json:"is_special_stack"`
	AssignedClientCode string        `gorm:"type:varchar(20)" json:"assigned_client_code,omitempty"`

	State StackState `gorm:"type:varchar(10);not null;default:'active';index" json:"state"`

	IsBufferZone bool           `gorm:"default:false;index" json:"is_buffer_zone"`
	BufferKey    *string        `gorm:"type:varchar(160);uniqueIndex" json:"buffer_key,omitempty"`
	DamageMeta   datatypes.JSON `gorm:"type:jsonb" json:"damage_meta,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `gorm:"type:varchar(64)" json:"created_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `gorm:"type:varchar(64)" json:"updated_by,omitempty"`

	Yard      *Yard      `gorm:"foreignKey:YardID" json:"yard,omitempty"`
	Locations []Location `gorm:"foreignKey:StackID" json:"locations,omitempty"`
}

func (Stack) TableName() string { return "stacks" }

func (s *Stack) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// IsActive reports whether the stack is in the active lifecycle state
func (s *Stack) IsActive() bool { return s.State == StackActive }

// Kind returns the stack variant
func (s *Stack) Kind() StackKind {
	if s.IsBufferZone {
		return KindBuffer
	}
	return KindPhysical
}

// SpareCapacity returns how many more containers the stack can take
func (s *Stack) SpareCapacity() int {
	spare := s.Capacity - s.CurrentOccupancy
	if spare < 0 {
		return 0
	}
	return spare
}

// Location is one addressable cell (stack, row, tier)
type Location struct {
	ID      string `gorm:"type:uuid;primaryKey" json:"id"`
	StackID string `gorm:"type:uuid;not null;uniqueIndex:idx_stack_row_tier" json:"stack_id"`
	// row is a reserved word in Postgres, hence the explicit columns
	Row  int `gorm:"column:row_no;not null;uniqueIndex:idx_stack_row_tier" json:"row"`
	Tier int `gorm:"column:tier_no;not null;uniqueIndex:idx_stack_row_tier" json:"tier"`

	// Code is the canonical position text, e.g. S01R1H1
	Code string `gorm:"type:varchar(20)" json:"code"`

	IsActive   bool `gorm:"default:true" json:"is_active"`
	IsOccupied bool `gorm:"default:false" json:"is_occupied"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Stack *Stack `gorm:"foreignKey:StackID" json:"stack,omitempty"`
}

func (Location) TableName() string { return "locations" }

func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
