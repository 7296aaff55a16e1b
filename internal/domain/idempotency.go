package domain

import "time"

// Idempotency records the outcome of a completed client request keyed by
// (scope, key). It enables safe client retries of POST /payment: a replay with
// the same fingerprint returns the stored confirmation URL without a second
// gateway call.
type Idempotency struct {
	ID              string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Scope           string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:1"`
	Key             string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:2"`
	Fingerprint     string    `gorm:"type:TEXT NOT NULL"`
	ConfirmationURL string    `gorm:"type:TEXT NOT NULL"`
	Status          int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt       time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt       time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
