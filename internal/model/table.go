package model

import (
	"time"

	"github.com/google/uuid"
)

// Table is a physical dining table. Token is printed as a QR code and never
// changes once issued.
type Table struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Label     string    `gorm:"not null"`
	Location  string    `gorm:"not null;default:''"`
	Seats     int       `gorm:"not null;default:2"`
	Token     string    `gorm:"uniqueIndex;not null;<-:create"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	SessionActive = "active"
	SessionClosed = "closed"
)

// TableSession is one dining session at a table. At most one session per
// table is active; a partial unique index enforces it.
type TableSession struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TableID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Token     string     `gorm:"uniqueIndex;not null"`
	Status    string     `gorm:"type:varchar(20);not null;default:'active'"`
	OpenedAt  time.Time  `gorm:"not null"`
	ClosedAt  *time.Time
	ClosedBy  *string

	Table *Table `gorm:"foreignKey:TableID"`
}
