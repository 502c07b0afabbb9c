package models

import "github.com/uptrace/bun"

// ParticipantEnrollment links one participant to one training. A pair may
// hold at most one live enrollment; the check runs before every write so a
// soft-deleted enrollment does not block re-enrolling.
type ParticipantEnrollment struct {
	bun.BaseModel `bun:"table:participant_enrollments,alias:pe"`

	ID               int64  `bun:"id,pk,autoincrement" json:"id"`
	ParticipantID    int64  `bun:"participant_id,notnull" json:"participant_id"`
	TrainingID       int64  `bun:"training_id,notnull" json:"training_id"`
	EmploymentStatus string `bun:"employment_status" json:"employment_status,omitempty"`
	StudyLeave       bool   `bun:"study_leave,notnull,default:false" json:"study_leave"`
	BondPeriodMonths int    `bun:"bond_period_months" json:"bond_period_months,omitempty"`

	DepartmentID  int64 `bun:"department_id,nullzero" json:"department_id,omitempty"`
	FacilityID    int64 `bun:"facility_id,nullzero" json:"facility_id,omitempty"`
	DesignationID int64 `bun:"designation_id,nullzero" json:"designation_id,omitempty"`
	SalaryScaleID int64 `bun:"salary_scale_id,nullzero" json:"salary_scale_id,omitempty"`
	SponsorID     int64 `bun:"sponsor_id,nullzero" json:"sponsor_id,omitempty"`

	Audit

	Participant *Participant `bun:"rel:belongs-to,join:participant_id=id,on_delete:RESTRICT" json:"participant,omitempty"`
	Training    *Training    `bun:"rel:belongs-to,join:training_id=id,on_delete:RESTRICT" json:"training,omitempty"`
	Department  *Department  `bun:"rel:belongs-to,join:department_id=id,on_delete:SET NULL" json:"department,omitempty"`
	Facility    *Facility    `bun:"rel:belongs-to,join:facility_id=id,on_delete:SET NULL" json:"facility,omitempty"`
	Designation *Designation `bun:"rel:belongs-to,join:designation_id=id,on_delete:SET NULL" json:"designation,omitempty"`
	SalaryScale *SalaryScale `bun:"rel:belongs-to,join:salary_scale_id=id,on_delete:SET NULL" json:"salary_scale,omitempty"`
	Sponsor     *Sponsor     `bun:"rel:belongs-to,join:sponsor_id=id,on_delete:SET NULL" json:"sponsor,omitempty"`
}
