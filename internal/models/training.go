package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Training is an institution-run program participants enroll into.
type Training struct {
	bun.BaseModel `bun:"table:trainings,alias:t"`

	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	ProgramName    string    `bun:"program_name,notnull" json:"program_name"`
	Institution    string    `bun:"institution,notnull" json:"institution"`
	Country        string    `bun:"country" json:"country,omitempty"`
	StartDate      time.Time `bun:"start_date,nullzero" json:"start_date,omitempty"`
	EndDate        time.Time `bun:"end_date,nullzero" json:"end_date,omitempty"`
	DurationMonths int       `bun:"duration_months" json:"duration_months,omitempty"`
	SponsorID      int64     `bun:"sponsor_id,nullzero" json:"sponsor_id,omitempty"`

	Audit

	Sponsor     *Sponsor                 `bun:"rel:belongs-to,join:sponsor_id=id,on_delete:SET NULL" json:"sponsor,omitempty"`
	Enrollments []*ParticipantEnrollment `bun:"rel:has-many,join:id=training_id" json:"enrollments,omitempty"`
	Budgets     []*TrainingBudget        `bun:"rel:has-many,join:id=training_id" json:"budgets,omitempty"`
	Reports     []*TrainingReport        `bun:"rel:has-many,join:id=training_id" json:"reports,omitempty"`
}

// TrainingBudget is a per-fiscal-year allocation owned by one training.
type TrainingBudget struct {
	bun.BaseModel `bun:"table:training_budgets,alias:tb"`

	ID         int64   `bun:"id,pk,autoincrement" json:"id"`
	TrainingID int64   `bun:"training_id,notnull" json:"training_id"`
	FiscalYear string  `bun:"fiscal_year,notnull" json:"fiscal_year"`
	Amount     float64 `bun:"amount,notnull" json:"amount"`
	Notes      string  `bun:"notes" json:"notes,omitempty"`

	Audit

	Training *Training `bun:"rel:belongs-to,join:training_id=id,on_delete:CASCADE" json:"-"`
}

// TrainingReport is a progress report submitted against one training.
type TrainingReport struct {
	bun.BaseModel `bun:"table:training_reports,alias:tr"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	TrainingID  int64     `bun:"training_id,notnull" json:"training_id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Summary     string    `bun:"summary" json:"summary,omitempty"`
	SubmittedOn time.Time `bun:"submitted_on,nullzero" json:"submitted_on,omitempty"`

	Audit

	Training *Training `bun:"rel:belongs-to,join:training_id=id,on_delete:CASCADE" json:"-"`
}

// TrainingFilter captures list criteria for trainings.
type TrainingFilter struct {
	Search    string
	Country   string
	SponsorID int64
	Page      int
	PageSize  int
}
