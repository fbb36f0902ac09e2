package domain

import "time"

// Idempotency records the resource produced by a previously processed
// submission, keyed by (subject, scope, key). Subject is the acting principal,
// Scope names the operation (e.g. "lost_items" or "applications:<vacancy>").
// A retry carrying the same key returns ResourceID instead of creating a
// second resource.
type Idempotency struct {
	ID         string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Subject    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_subject_scope_key,priority:1"`
	Scope      string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_subject_scope_key,priority:2"`
	Key        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_subject_scope_key,priority:3"`
	ResourceID string    `gorm:"type:TEXT NOT NULL"`
	Status     int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt  time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
