package entity

import (
	"time"

	"github.com/google/uuid"
)

// Base carries the identity and audit columns of soft-deletable rows.
type Base struct {
	ID        uuid.UUID  `db:"id"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

// NewBase stamps a fresh id with both timestamps set to now.
func NewBase(now time.Time) Base {
	return Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// IsDeleted reports whether the row has been soft deleted.
func (b Base) IsDeleted() bool {
	return b.DeletedAt != nil
}

// BaseNoDelete is for rows that are removed outright.
type BaseNoDelete struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BaseSimple is for append-only rows.
type BaseSimple struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}
