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

// AllowanceRequest holds payload for creating or updating allowances.
type AllowanceRequest struct {
	ParticipantID     int64     `json:"participant_id" validate:"required"`
	TrainingID        int64     `json:"training_id" validate:"required"`
	AllowanceTypeID   int64     `json:"allowance_type_id" validate:"required"`
	AllowanceStatusID int64     `json:"allowance_status_id" validate:"required"`
	Amount            float64   `json:"amount" validate:"gte=0"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
}

// AllowanceSummary aggregates a participant's entitlements.
type AllowanceSummary struct {
	ParticipantID int64   `json:"participant_id"`
	Count         int     `json:"count"`
	Total         float64 `json:"total"`
}

// AllowanceService handles allowance use-cases.
type AllowanceService struct {
	factory   *repository.Factory
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAllowanceService constructs the allowance service.
func NewAllowanceService(factory *repository.Factory, validate *validator.Validate, logger *zap.Logger) *AllowanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllowanceService{factory: factory, validator: validate, logger: logger}
}

// List returns allowances matching the filter.
func (s *AllowanceService) List(ctx context.Context, filter models.AllowanceFilter) ([]models.Allowance, error) {
	uow := s.factory.New()
	defer uow.Close()

	allowances, err := uow.Allowances.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list allowances")
	}
	return allowances, nil
}

// Get returns one allowance.
func (s *AllowanceService) Get(ctx context.Context, id int64) (*models.Allowance, error) {
	uow := s.factory.New()
	defer uow.Close()

	allowance, err := uow.Allowances.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "allowance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allowance")
	}
	return allowance, nil
}

func (s *AllowanceService) checkReferences(ctx context.Context, uow *repository.UnitOfWork, req AllowanceRequest) error {
	enrolled, err := uow.Enrollments.IsParticipantEnrolled(ctx, req.ParticipantID, req.TrainingID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if !enrolled {
		return appErrors.Clone(appErrors.ErrValidation, "participant is not enrolled in training")
	}

	if ok, err := uow.AllowanceTypes.Exists(ctx, req.AllowanceTypeID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate allowance type")
	} else if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "allowance type not found")
	}
	if ok, err := uow.AllowanceStatuses.Exists(ctx, req.AllowanceStatusID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate allowance status")
	} else if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "allowance status not found")
	}
	return nil
}

// Create records an allowance against an enrolled participant.
func (s *AllowanceService) Create(ctx context.Context, req AllowanceRequest) (*models.Allowance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allowance payload")
	}
	if err := validateDateOrder(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	uow := s.factory.New()
	defer uow.Close()

	if err := s.checkReferences(ctx, uow, req); err != nil {
		return nil, err
	}

	allowance := &models.Allowance{
		ParticipantID:     req.ParticipantID,
		TrainingID:        req.TrainingID,
		AllowanceTypeID:   req.AllowanceTypeID,
		AllowanceStatusID: req.AllowanceStatusID,
		Amount:            req.Amount,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
	}
	uow.Allowances.Add(allowance)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create allowance")
	}
	return allowance, nil
}

// Update mutates an existing allowance.
func (s *AllowanceService) Update(ctx context.Context, id int64, req AllowanceRequest) (*models.Allowance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allowance payload")
	}
	if err := validateDateOrder(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	uow := s.factory.New()
	defer uow.Close()

	allowance, err := uow.Allowances.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "allowance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allowance")
	}
	if err := s.checkReferences(ctx, uow, req); err != nil {
		return nil, err
	}

	allowance.ParticipantID = req.ParticipantID
	allowance.TrainingID = req.TrainingID
	allowance.AllowanceTypeID = req.AllowanceTypeID
	allowance.AllowanceStatusID = req.AllowanceStatusID
	allowance.Amount = req.Amount
	allowance.StartDate = req.StartDate
	allowance.EndDate = req.EndDate

	uow.Allowances.Update(allowance)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update allowance")
	}
	return allowance, nil
}

// Delete soft-deletes an allowance.
func (s *AllowanceService) Delete(ctx context.Context, id int64) error {
	uow := s.factory.New()
	defer uow.Close()

	allowance, err := uow.Allowances.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "allowance not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allowance")
	}

	uow.Allowances.Delete(allowance)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete allowance")
	}
	return nil
}

// SummaryForParticipant aggregates a participant's live allowances.
func (s *AllowanceService) SummaryForParticipant(ctx context.Context, participantID int64) (*AllowanceSummary, error) {
	uow := s.factory.New()
	defer uow.Close()

	if _, err := uow.Participants.GetByID(ctx, participantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}

	count, err := uow.Allowances.CountWhere(ctx, "participant_id = ?", participantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count allowances")
	}
	total, err := uow.Allowances.TotalByParticipant(ctx, participantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum allowances")
	}

	return &AllowanceSummary{ParticipantID: participantID, Count: count, Total: total}, nil
}
