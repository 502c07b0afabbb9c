package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Allowance is a monetary entitlement tied to one participant and one
// training for a date range.
type Allowance struct {
	bun.BaseModel `bun:"table:allowances,alias:a"`

	ID                int64     `bun:"id,pk,autoincrement" json:"id"`
	ParticipantID     int64     `bun:"participant_id,notnull" json:"participant_id"`
	TrainingID        int64     `bun:"training_id,notnull" json:"training_id"`
	AllowanceTypeID   int64     `bun:"allowance_type_id,notnull" json:"allowance_type_id"`
	AllowanceStatusID int64     `bun:"allowance_status_id,notnull" json:"allowance_status_id"`
	Amount            float64   `bun:"amount,notnull" json:"amount"`
	StartDate         time.Time `bun:"start_date,nullzero" json:"start_date,omitempty"`
	EndDate           time.Time `bun:"end_date,nullzero" json:"end_date,omitempty"`

	Audit

	Participant     *Participant     `bun:"rel:belongs-to,join:participant_id=id,on_delete:RESTRICT" json:"participant,omitempty"`
	Training        *Training        `bun:"rel:belongs-to,join:training_id=id,on_delete:RESTRICT" json:"training,omitempty"`
	AllowanceType   *AllowanceType   `bun:"rel:belongs-to,join:allowance_type_id=id,on_delete:RESTRICT" json:"allowance_type,omitempty"`
	AllowanceStatus *AllowanceStatus `bun:"rel:belongs-to,join:allowance_status_id=id,on_delete:RESTRICT" json:"allowance_status,omitempty"`
}

// AllowanceFilter captures list criteria for allowances.
type AllowanceFilter struct {
	ParticipantID int64
	TrainingID    int64
	TypeID        int64
	StatusID      int64
}
