package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tms-admin/tms-api/internal/models"
	"github.com/tms-admin/tms-api/internal/repository"
	appErrors "github.com/tms-admin/tms-api/pkg/errors"
)

// CreateParticipantRequest holds payload for registering participants.
type CreateParticipantRequest struct {
	FirstName   string    `json:"first_name" validate:"required"`
	LastName    string    `json:"last_name" validate:"required"`
	OtherName   string    `json:"other_name"`
	IDNumber    string    `json:"id_number" validate:"required"`
	Gender      string    `json:"gender"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Email       string    `json:"email" validate:"omitempty,email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
}

// UpdateParticipantRequest holds payload for updating participants.
type UpdateParticipantRequest struct {
	FirstName   string    `json:"first_name" validate:"required"`
	LastName    string    `json:"last_name" validate:"required"`
	OtherName   string    `json:"other_name"`
	IDNumber    string    `json:"id_number" validate:"required"`
	Gender      string    `json:"gender"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Email       string    `json:"email" validate:"omitempty,email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
}

// NextOfKinRequest holds payload for a participant's contact person.
type NextOfKinRequest struct {
	FullName     string `json:"full_name" validate:"required"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

// TransferParticipantRequest moves a participant to a new facility.
type TransferParticipantRequest struct {
	ToFacilityID int64     `json:"to_facility_id" validate:"required"`
	TransferDate time.Time `json:"transfer_date"`
	Reason       string    `json:"reason"`
}

// ParticipantService handles participant use-cases.
type ParticipantService struct {
	factory   *repository.Factory
	validator *validator.Validate
	logger    *zap.Logger
}

// NewParticipantService constructs the participant service.
func NewParticipantService(factory *repository.Factory, validate *validator.Validate, logger *zap.Logger) *ParticipantService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParticipantService{factory: factory, validator: validate, logger: logger}
}

// List returns participants and pagination metadata.
func (s *ParticipantService) List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, *models.Pagination, error) {
	uow := s.factory.New()
	defer uow.Close()

	participants, total, err := uow.Participants.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list participants")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return participants, pagination, nil
}

// Get returns a participant with next of kin, enrollments, transfers and
// allowances.
func (s *ParticipantService) Get(ctx context.Context, id int64) (*models.Participant, error) {
	uow := s.factory.New()
	defer uow.Close()

	participant, err := uow.Participants.GetWithRelations(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}
	return participant, nil
}

// Search finds participants by name or id number.
func (s *ParticipantService) Search(ctx context.Context, term string) ([]models.Participant, error) {
	uow := s.factory.New()
	defer uow.Close()

	participants, err := uow.Participants.Search(ctx, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search participants")
	}
	return participants, nil
}

// Create registers a new participant.
func (s *ParticipantService) Create(ctx context.Context, req CreateParticipantRequest) (*models.Participant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid participant payload")
	}

	uow := s.factory.New()
	defer uow.Close()

	unique, err := uow.Participants.IsIDNumberUnique(ctx, req.IDNumber, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate id number")
	}
	if !unique {
		return nil, appErrors.Clone(appErrors.ErrConflict, "id number already used")
	}

	participant := &models.Participant{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		OtherName:   req.OtherName,
		IDNumber:    req.IDNumber,
		Gender:      req.Gender,
		DateOfBirth: req.DateOfBirth,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
	}
	uow.Participants.Add(participant)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create participant")
	}
	return participant, nil
}

// Update mutates an existing participant.
func (s *ParticipantService) Update(ctx context.Context, id int64, req UpdateParticipantRequest) (*models.Participant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid participant payload")
	}

	uow := s.factory.New()
	defer uow.Close()

	participant, err := uow.Participants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}

	unique, err := uow.Participants.IsIDNumberUnique(ctx, req.IDNumber, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate id number")
	}
	if !unique {
		return nil, appErrors.Clone(appErrors.ErrConflict, "id number already used")
	}

	participant.FirstName = req.FirstName
	participant.LastName = req.LastName
	participant.OtherName = req.OtherName
	participant.IDNumber = req.IDNumber
	participant.Gender = req.Gender
	participant.DateOfBirth = req.DateOfBirth
	participant.Email = req.Email
	participant.Phone = req.Phone
	participant.Address = req.Address

	uow.Participants.Update(participant)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update participant")
	}
	return participant, nil
}

// Delete soft-deletes a participant unless live enrollments or allowances
// still reference it.
func (s *ParticipantService) Delete(ctx context.Context, id int64) error {
	uow := s.factory.New()
	defer uow.Close()

	participant, err := uow.Participants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}

	enrollments, err := uow.Enrollments.ByParticipant(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollments")
	}
	if len(enrollments) > 0 {
		return appErrors.Clone(appErrors.ErrDependentRecords, "participant has enrollments")
	}

	allowances, err := uow.Allowances.ByParticipant(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check allowances")
	}
	if len(allowances) > 0 {
		return appErrors.Clone(appErrors.ErrDependentRecords, "participant has allowances")
	}

	uow.Participants.Delete(participant)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete participant")
	}
	return nil
}

// AddNextOfKin attaches a contact person to a participant.
func (s *ParticipantService) AddNextOfKin(ctx context.Context, participantID int64, req NextOfKinRequest) (*models.NextOfKin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid next of kin payload")
	}

	uow := s.factory.New()
	defer uow.Close()

	if _, err := uow.Participants.GetByID(ctx, participantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}

	kin := &models.NextOfKin{
		ParticipantID: participantID,
		FullName:      req.FullName,
		Relationship:  req.Relationship,
		Phone:         req.Phone,
		Address:       req.Address,
	}
	uow.NextOfKin.Add(kin)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add next of kin")
	}
	return kin, nil
}

// UpdateNextOfKin mutates a participant's contact person.
func (s *ParticipantService) UpdateNextOfKin(ctx context.Context, participantID, kinID int64, req NextOfKinRequest) (*models.NextOfKin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid next of kin payload")
	}

	uow := s.factory.New()
	defer uow.Close()

	kin, err := uow.NextOfKin.GetByID(ctx, kinID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "next of kin not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load next of kin")
	}
	if kin.ParticipantID != participantID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "next of kin not found")
	}

	kin.FullName = req.FullName
	kin.Relationship = req.Relationship
	kin.Phone = req.Phone
	kin.Address = req.Address

	uow.NextOfKin.Update(kin)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update next of kin")
	}
	return kin, nil
}

// DeleteNextOfKin removes a participant's contact person.
func (s *ParticipantService) DeleteNextOfKin(ctx context.Context, participantID, kinID int64) error {
	uow := s.factory.New()
	defer uow.Close()

	kin, err := uow.NextOfKin.GetByID(ctx, kinID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "next of kin not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load next of kin")
	}
	if kin.ParticipantID != participantID {
		return appErrors.Clone(appErrors.ErrNotFound, "next of kin not found")
	}

	uow.NextOfKin.Delete(kin)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete next of kin")
	}
	return nil
}

// Transfer records a facility move and realigns the participant's live
// enrollments inside one transaction.
func (s *ParticipantService) Transfer(ctx context.Context, participantID int64, req TransferParticipantRequest) (*models.ParticipantTransfer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer payload")
	}

	uow := s.factory.New()
	defer uow.Close()

	if _, err := uow.Participants.GetByID(ctx, participantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}
	if _, err := uow.Facilities.GetByID(ctx, req.ToFacilityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "target facility not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facility")
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open transaction")
	}

	enrollments, err := uow.Enrollments.ByParticipant(ctx, participantID)
	if err != nil {
		_ = uow.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	var fromFacilityID int64
	for i := range enrollments {
		e := &enrollments[i]
		if e.FacilityID != 0 && fromFacilityID == 0 {
			fromFacilityID = e.FacilityID
		}
		e.FacilityID = req.ToFacilityID
		uow.Enrollments.Update(e)
	}

	transferDate := req.TransferDate
	if transferDate.IsZero() {
		transferDate = time.Now().UTC()
	}
	transfer := &models.ParticipantTransfer{
		ParticipantID:  participantID,
		FromFacilityID: fromFacilityID,
		ToFacilityID:   req.ToFacilityID,
		TransferDate:   transferDate,
		Reason:         req.Reason,
	}
	uow.Transfers.Add(transfer)

	if _, err := uow.SaveChanges(ctx); err != nil {
		_ = uow.Rollback()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record transfer")
	}
	if err := uow.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transfer")
	}
	return transfer, nil
}

// ListTransfers returns the facility moves recorded for a participant.
func (s *ParticipantService) ListTransfers(ctx context.Context, participantID int64) ([]models.ParticipantTransfer, error) {
	uow := s.factory.New()
	defer uow.Close()

	if _, err := uow.Participants.GetByID(ctx, participantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}

	transfers, err := uow.Transfers.Find(ctx, "participant_id = ?", participantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transfers")
	}
	return transfers, nil
}
