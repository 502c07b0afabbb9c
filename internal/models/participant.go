package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Participant is a person enrolled into one or more trainings.
type Participant struct {
	bun.BaseModel `bun:"table:participants,alias:p"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	FirstName   string    `bun:"first_name,notnull" json:"first_name"`
	LastName    string    `bun:"last_name,notnull" json:"last_name"`
	OtherName   string    `bun:"other_name" json:"other_name,omitempty"`
	IDNumber    string    `bun:"id_number,notnull,unique" json:"id_number"`
	Gender      string    `bun:"gender" json:"gender,omitempty"`
	DateOfBirth time.Time `bun:"date_of_birth,nullzero" json:"date_of_birth,omitempty"`
	Email       string    `bun:"email" json:"email,omitempty"`
	Phone       string    `bun:"phone" json:"phone,omitempty"`
	Address     string    `bun:"address" json:"address,omitempty"`

	Audit

	NextOfKin   []*NextOfKin             `bun:"rel:has-many,join:id=participant_id" json:"next_of_kin,omitempty"`
	Enrollments []*ParticipantEnrollment `bun:"rel:has-many,join:id=participant_id" json:"enrollments,omitempty"`
	Transfers   []*ParticipantTransfer   `bun:"rel:has-many,join:id=participant_id" json:"transfers,omitempty"`
	Allowances  []*Allowance             `bun:"rel:has-many,join:id=participant_id" json:"allowances,omitempty"`
}

// FullName renders the participant's display name.
func (p *Participant) FullName() string {
	name := p.FirstName + " " + p.LastName
	if p.OtherName != "" {
		name += " " + p.OtherName
	}
	return name
}

// NextOfKin is a contact person owned by one participant. Rows are removed
// together with their participant (cascade).
type NextOfKin struct {
	bun.BaseModel `bun:"table:next_of_kin,alias:nok"`

	ID            int64  `bun:"id,pk,autoincrement" json:"id"`
	ParticipantID int64  `bun:"participant_id,notnull" json:"participant_id"`
	FullName      string `bun:"full_name,notnull" json:"full_name"`
	Relationship  string `bun:"relationship" json:"relationship,omitempty"`
	Phone         string `bun:"phone" json:"phone,omitempty"`
	Address       string `bun:"address" json:"address,omitempty"`

	Audit

	Participant *Participant `bun:"rel:belongs-to,join:participant_id=id,on_delete:CASCADE" json:"-"`
}

// ParticipantTransfer records a participant moving between facilities.
type ParticipantTransfer struct {
	bun.BaseModel `bun:"table:participant_transfers,alias:pt"`

	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	ParticipantID  int64     `bun:"participant_id,notnull" json:"participant_id"`
	FromFacilityID int64     `bun:"from_facility_id,nullzero" json:"from_facility_id,omitempty"`
	ToFacilityID   int64     `bun:"to_facility_id,nullzero" json:"to_facility_id,omitempty"`
	TransferDate   time.Time `bun:"transfer_date,nullzero" json:"transfer_date"`
	Reason         string    `bun:"reason" json:"reason,omitempty"`

	Audit

	Participant  *Participant `bun:"rel:belongs-to,join:participant_id=id,on_delete:CASCADE" json:"-"`
	FromFacility *Facility    `bun:"rel:belongs-to,join:from_facility_id=id,on_delete:SET NULL" json:"from_facility,omitempty"`
	ToFacility   *Facility    `bun:"rel:belongs-to,join:to_facility_id=id,on_delete:SET NULL" json:"to_facility,omitempty"`
}

// ParticipantFilter captures list criteria for participants.
type ParticipantFilter struct {
	Search     string
	FacilityID int64
	Page       int
	PageSize   int
}
