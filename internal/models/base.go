package models

import "time"

// Audit carries the fields shared by every business entity: creation and
// mutation timestamps, the acting user's name, and the soft-delete marker.
// Rows are never physically removed through the normal repository surface;
// the deleted_at column doubles as the delete flag and is filtered out of
// every default query by the data-access layer.
type Audit struct {
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
	CreatedBy string    `bun:"created_by" json:"created_by,omitempty"`
	UpdatedBy string    `bun:"updated_by" json:"updated_by,omitempty"`
	DeletedAt time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// StampCreate sets the audit fields for a newly inserted row.
func (a *Audit) StampCreate(actor string, now time.Time) {
	a.CreatedAt = now
	a.UpdatedAt = now
	a.CreatedBy = actor
	a.UpdatedBy = actor
}

// StampUpdate refreshes the audit fields for a mutated row.
func (a *Audit) StampUpdate(actor string, now time.Time) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.CreatedBy == "" {
		a.CreatedBy = actor
	}
	a.UpdatedBy = actor
}

// Auditable is satisfied by every entity embedding Audit; the unit of work
// stamps entities through it when flushing staged changes.
type Auditable interface {
	StampCreate(actor string, now time.Time)
	StampUpdate(actor string, now time.Time)
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
