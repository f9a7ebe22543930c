package model

import (
	"time"

	"github.com/google/uuid"
)

// Table statuses.
const (
	TableAvailable   = "available"
	TableOccupied    = "occupied"
	TableReserved    = "reserved"
	TableMaintenance = "maintenance"
)

// Table areas.
const (
	AreaInternal = "internal"
	AreaExternal = "external"
	AreaBalcony  = "balcony"
	AreaPrivate  = "private"
)

// Table represents a physical table and its occupancy lifecycle.
// Invariant: ClientCount/OccupiedAt/ServerID are set iff Status == occupied.
// The only way back to "available" is TableService.Release, which requires
// zero open orders.
type Table struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Number   int       `gorm:"uniqueIndex;not null"`
	Capacity int       `gorm:"not null"`
	Area     string    `gorm:"type:varchar(20);not null;default:'internal'"`
	Status   string    `gorm:"type:varchar(20);not null;default:'available';index"`

	ClientCount *int
	OccupiedAt  *time.Time
	ServerID    *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Table) TableName() string { return "tables" }
