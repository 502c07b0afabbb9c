package models

import "github.com/uptrace/bun"

// LookupFields is the common shape shared by every lookup table: a unique
// name plus optional code and description.
type LookupFields struct {
	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	Name        string `bun:"name,notnull,unique" json:"name"`
	Code        string `bun:"code" json:"code,omitempty"`
	Description string `bun:"description" json:"description,omitempty"`
}

// RecordID returns the primary key.
func (f *LookupFields) RecordID() int64 { return f.ID }

// RecordName returns the unique display name.
func (f *LookupFields) RecordName() string { return f.Name }

// ApplyFields copies request values onto the record.
func (f *LookupFields) ApplyFields(name, code, description string) {
	f.Name = name
	f.Code = code
	f.Description = description
}

// LookupRecord is satisfied by pointers to every lookup entity.
type LookupRecord interface {
	RecordID() int64
	RecordName() string
	ApplyFields(name, code, description string)
	Auditable
}

// Department groups staff within the organisation.
type Department struct {
	bun.BaseModel `bun:"table:departments,alias:dep"`
	LookupFields
	Audit
}

// Facility is a duty station participants are attached to.
type Facility struct {
	bun.BaseModel `bun:"table:facilities,alias:fac"`
	LookupFields
	Audit
}

// Designation is a job title held by a participant.
type Designation struct {
	bun.BaseModel `bun:"table:designations,alias:des"`
	LookupFields
	Audit
}

// SalaryScale is a pay-grade band, e.g. "U4".
type SalaryScale struct {
	bun.BaseModel `bun:"table:salary_scales,alias:ss"`
	LookupFields
	Audit
}

// Sponsor funds trainings or enrollments.
type Sponsor struct {
	bun.BaseModel `bun:"table:sponsors,alias:sp"`
	LookupFields
	Audit
}

// AllowanceType classifies allowances, e.g. upkeep or travel.
type AllowanceType struct {
	bun.BaseModel `bun:"table:allowance_types,alias:at"`
	LookupFields
	Audit
}

// AllowanceStatus tracks the payment state of an allowance.
type AllowanceStatus struct {
	bun.BaseModel `bun:"table:allowance_statuses,alias:ast"`
	LookupFields
	Audit
}
