package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tms-admin/tms-api/internal/models"
	"github.com/tms-admin/tms-api/internal/repository"
	appErrors "github.com/tms-admin/tms-api/pkg/errors"
)

// EnrollParticipantRequest describes enrollment creation payload.
type EnrollParticipantRequest struct {
	ParticipantID    int64  `json:"participant_id" validate:"required"`
	TrainingID       int64  `json:"training_id" validate:"required"`
	EmploymentStatus string `json:"employment_status"`
	StudyLeave       bool   `json:"study_leave"`
	BondPeriodMonths int    `json:"bond_period_months" validate:"gte=0"`
	DepartmentID     int64  `json:"department_id"`
	FacilityID       int64  `json:"facility_id"`
	DesignationID    int64  `json:"designation_id"`
	SalaryScaleID    int64  `json:"salary_scale_id"`
	SponsorID        int64  `json:"sponsor_id"`
}

// UpdateEnrollmentRequest mutates the employment context of an enrollment.
// The participant and training pair is immutable once created.
type UpdateEnrollmentRequest struct {
	EmploymentStatus string `json:"employment_status"`
	StudyLeave       bool   `json:"study_leave"`
	BondPeriodMonths int    `json:"bond_period_months" validate:"gte=0"`
	DepartmentID     int64  `json:"department_id"`
	FacilityID       int64  `json:"facility_id"`
	DesignationID    int64  `json:"designation_id"`
	SalaryScaleID    int64  `json:"salary_scale_id"`
	SponsorID        int64  `json:"sponsor_id"`
}

// EnrollmentService orchestrates enrollment workflows.
type EnrollmentService struct {
	factory   *repository.Factory
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(factory *repository.Factory, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{factory: factory, validator: validate, logger: logger}
}

// List returns enrollments filtered by participant and/or training.
func (s *EnrollmentService) List(ctx context.Context, participantID, trainingID int64) ([]models.ParticipantEnrollment, error) {
	uow := s.factory.New()
	defer uow.Close()

	var (
		enrollments []models.ParticipantEnrollment
		err         error
	)
	switch {
	case participantID != 0 && trainingID != 0:
		enrollments, err = uow.Enrollments.Find(ctx, "participant_id = ? AND training_id = ?", participantID, trainingID)
	case participantID != 0:
		enrollments, err = uow.Enrollments.ByParticipant(ctx, participantID)
	case trainingID != 0:
		enrollments, err = uow.Enrollments.ByTraining(ctx, trainingID)
	default:
		enrollments, err = uow.Enrollments.GetAll(ctx)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// Get returns one enrollment.
func (s *EnrollmentService) Get(ctx context.Context, id int64) (*models.ParticipantEnrollment, error) {
	uow := s.factory.New()
	defer uow.Close()

	enrollment, err := uow.Enrollments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

func (s *EnrollmentService) checkLookups(ctx context.Context, uow *repository.UnitOfWork, req UpdateEnrollmentRequest) error {
	checks := []struct {
		id     int64
		exists func(context.Context, int64) (bool, error)
		label  string
	}{
		{req.DepartmentID, uow.Departments.Exists, "department"},
		{req.FacilityID, uow.Facilities.Exists, "facility"},
		{req.DesignationID, uow.Designations.Exists, "designation"},
		{req.SalaryScaleID, uow.SalaryScales.Exists, "salary scale"},
		{req.SponsorID, uow.Sponsors.Exists, "sponsor"},
	}
	for _, c := range checks {
		if c.id == 0 {
			continue
		}
		ok, err := c.exists(ctx, c.id)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate "+c.label)
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, c.label+" not found")
		}
	}
	return nil
}

// Enroll registers a participant into a training. A pair may enroll at most
// once.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollParticipantRequest) (*models.ParticipantEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	uow := s.factory.New()
	defer uow.Close()

	if _, err := uow.Participants.GetByID(ctx, req.ParticipantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}
	if _, err := uow.Trainings.GetByID(ctx, req.TrainingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "training not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load training")
	}
	if err := s.checkLookups(ctx, uow, UpdateEnrollmentRequest{
		DepartmentID:  req.DepartmentID,
		FacilityID:    req.FacilityID,
		DesignationID: req.DesignationID,
		SalaryScaleID: req.SalaryScaleID,
		SponsorID:     req.SponsorID,
	}); err != nil {
		return nil, err
	}

	enrolled, err := uow.Enrollments.IsParticipantEnrolled(ctx, req.ParticipantID, req.TrainingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if enrolled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "participant already enrolled in training")
	}

	enrollment := &models.ParticipantEnrollment{
		ParticipantID:    req.ParticipantID,
		TrainingID:       req.TrainingID,
		EmploymentStatus: req.EmploymentStatus,
		StudyLeave:       req.StudyLeave,
		BondPeriodMonths: req.BondPeriodMonths,
		DepartmentID:     req.DepartmentID,
		FacilityID:       req.FacilityID,
		DesignationID:    req.DesignationID,
		SalaryScaleID:    req.SalaryScaleID,
		SponsorID:        req.SponsorID,
	}
	uow.Enrollments.Add(enrollment)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	return enrollment, nil
}

// Update mutates the employment context of an enrollment.
func (s *EnrollmentService) Update(ctx context.Context, id int64, req UpdateEnrollmentRequest) (*models.ParticipantEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	uow := s.factory.New()
	defer uow.Close()

	enrollment, err := uow.Enrollments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.checkLookups(ctx, uow, req); err != nil {
		return nil, err
	}

	enrollment.EmploymentStatus = req.EmploymentStatus
	enrollment.StudyLeave = req.StudyLeave
	enrollment.BondPeriodMonths = req.BondPeriodMonths
	enrollment.DepartmentID = req.DepartmentID
	enrollment.FacilityID = req.FacilityID
	enrollment.DesignationID = req.DesignationID
	enrollment.SalaryScaleID = req.SalaryScaleID
	enrollment.SponsorID = req.SponsorID

	uow.Enrollments.Update(enrollment)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	return enrollment, nil
}

// Delete soft-deletes an enrollment; the participant may re-enroll into the
// training afterwards.
func (s *EnrollmentService) Delete(ctx context.Context, id int64) error {
	uow := s.factory.New()
	defer uow.Close()

	enrollment, err := uow.Enrollments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	uow.Enrollments.Delete(enrollment)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	return nil
}
