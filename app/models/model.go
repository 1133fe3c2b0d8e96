// Package models holds the database row types.
package models

import "time"

// Model carries the columns every table shares. DeletedAt is set by a soft
// delete; rows with a non-nil DeletedAt are invisible to repositories.
type Model struct {
	ID        int64      `db:"id"         json:"id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Table is implemented by every model.
type Table interface {
	TableName() string
}
