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

// TrainingRequest holds payload for creating or updating trainings.
type TrainingRequest struct {
	ProgramName    string    `json:"program_name" validate:"required"`
	Institution    string    `json:"institution" validate:"required"`
	Country        string    `json:"country"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	DurationMonths int       `json:"duration_months" validate:"gte=0"`
	SponsorID      int64     `json:"sponsor_id"`
}

// TrainingBudgetRequest holds a fiscal-year allocation payload.
type TrainingBudgetRequest struct {
	FiscalYear string  `json:"fiscal_year" validate:"required"`
	Amount     float64 `json:"amount" validate:"gte=0"`
	Notes      string  `json:"notes"`
}

// TrainingReportRequest holds a progress report payload.
type TrainingReportRequest struct {
	Title       string    `json:"title" validate:"required"`
	Summary     string    `json:"summary"`
	SubmittedOn time.Time `json:"submitted_on"`
}

// TrainingService handles training use-cases.
type TrainingService struct {
	factory   *repository.Factory
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTrainingService constructs the training service.
func NewTrainingService(factory *repository.Factory, validate *validator.Validate, logger *zap.Logger) *TrainingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrainingService{factory: factory, validator: validate, logger: logger}
}

// List returns trainings and pagination metadata.
func (s *TrainingService) List(ctx context.Context, filter models.TrainingFilter) ([]models.Training, *models.Pagination, error) {
	uow := s.factory.New()
	defer uow.Close()

	trainings, total, err := uow.Trainings.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list trainings")
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
	return trainings, pagination, nil
}

// Get returns a training with sponsor, enrollments, budgets and reports.
func (s *TrainingService) Get(ctx context.Context, id int64) (*models.Training, error) {
	uow := s.factory.New()
	defer uow.Close()

	training, err := uow.Trainings.GetWithRelations(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "training not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load training")
	}
	return training, nil
}

func (s *TrainingService) resolveSponsor(ctx context.Context, uow *repository.UnitOfWork, sponsorID int64) error {
	if sponsorID == 0 {
		return nil
	}
	if _, err := uow.Sponsors.GetByID(ctx, sponsorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "sponsor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sponsor")
	}
	return nil
}

func validateDateOrder(start, end time.Time) error {
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return appErrors.Clone(appErrors.ErrValidation, "end date precedes start date")
	}
	return nil
}

// Create registers a new training.
func (s *TrainingService) Create(ctx context.Context, req TrainingRequest) (*models.Training, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid training payload")
	}
	if err := validateDateOrder(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	uow := s.factory.New()
	defer uow.Close()

	if err := s.resolveSponsor(ctx, uow, req.SponsorID); err != nil {
		return nil, err
	}

	training := &models.Training{
		ProgramName:    req.ProgramName,
		Institution:    req.Institution,
		Country:        req.Country,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		DurationMonths: req.DurationMonths,
		SponsorID:      req.SponsorID,
	}
	uow.Trainings.Add(training)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create training")
	}
	return training, nil
}

// Update mutates an existing training.
func (s *TrainingService) Update(ctx context.Context, id int64, req TrainingRequest) (*models.Training, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid training payload")
	}
	if err := validateDateOrder(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	uow := s.factory.New()
	defer uow.Close()

	training, err := uow.Trainings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "training not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load training")
	}
	if err := s.resolveSponsor(ctx, uow, req.SponsorID); err != nil {
		return nil, err
	}

	training.ProgramName = req.ProgramName
	training.Institution = req.Institution
	training.Country = req.Country
	training.StartDate = req.StartDate
	training.EndDate = req.EndDate
	training.DurationMonths = req.DurationMonths
	training.SponsorID = req.SponsorID

	uow.Trainings.Update(training)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update training")
	}
	return training, nil
}

// Delete soft-deletes a training unless live enrollments or allowances
// still reference it.
func (s *TrainingService) Delete(ctx context.Context, id int64) error {
	uow := s.factory.New()
	defer uow.Close()

	training, err := uow.Trainings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "training not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load training")
	}

	enrollments, err := uow.Enrollments.ByTraining(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollments")
	}
	if len(enrollments) > 0 {
		return appErrors.Clone(appErrors.ErrDependentRecords, "training has enrollments")
	}

	allowances, err := uow.Allowances.ByTraining(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check allowances")
	}
	if len(allowances) > 0 {
		return appErrors.Clone(appErrors.ErrDependentRecords, "training has allowances")
	}

	uow.Trainings.Delete(training)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete training")
	}
	return nil
}

// AddBudget attaches a fiscal-year allocation to a training.
func (s *TrainingService) AddBudget(ctx context.Context, trainingID int64, req TrainingBudgetRequest) (*models.TrainingBudget, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid budget payload")
	}

	uow := s.factory.New()
	defer uow.Close()

	if _, err := uow.Trainings.GetByID(ctx, trainingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "training not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load training")
	}

	budget := &models.TrainingBudget{
		TrainingID: trainingID,
		FiscalYear: req.FiscalYear,
		Amount:     req.Amount,
		Notes:      req.Notes,
	}
	uow.TrainingBudgets.Add(budget)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add budget")
	}
	return budget, nil
}

// DeleteBudget removes a fiscal-year allocation.
func (s *TrainingService) DeleteBudget(ctx context.Context, trainingID, budgetID int64) error {
	uow := s.factory.New()
	defer uow.Close()

	budget, err := uow.TrainingBudgets.GetByID(ctx, budgetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "budget not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load budget")
	}
	if budget.TrainingID != trainingID {
		return appErrors.Clone(appErrors.ErrNotFound, "budget not found")
	}

	uow.TrainingBudgets.Delete(budget)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete budget")
	}
	return nil
}

// AddReport attaches a progress report to a training.
func (s *TrainingService) AddReport(ctx context.Context, trainingID int64, req TrainingReportRequest) (*models.TrainingReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	uow := s.factory.New()
	defer uow.Close()

	if _, err := uow.Trainings.GetByID(ctx, trainingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "training not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load training")
	}

	submitted := req.SubmittedOn
	if submitted.IsZero() {
		submitted = time.Now().UTC()
	}
	report := &models.TrainingReport{
		TrainingID:  trainingID,
		Title:       req.Title,
		Summary:     req.Summary,
		SubmittedOn: submitted,
	}
	uow.TrainingReports.Add(report)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add report")
	}
	return report, nil
}

// DeleteReport removes a progress report.
func (s *TrainingService) DeleteReport(ctx context.Context, trainingID, reportID int64) error {
	uow := s.factory.New()
	defer uow.Close()

	report, err := uow.TrainingReports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	if report.TrainingID != trainingID {
		return appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}

	uow.TrainingReports.Delete(report)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report")
	}
	return nil
}

// TotalBudget sums the live allocations for a training.
func (s *TrainingService) TotalBudget(ctx context.Context, trainingID int64) (float64, error) {
	uow := s.factory.New()
	defer uow.Close()

	if _, err := uow.Trainings.GetByID(ctx, trainingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "training not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load training")
	}

	budgets, err := uow.TrainingBudgets.Find(ctx, "training_id = ?", trainingID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load budgets")
	}
	var total float64
	for _, b := range budgets {
		total += b.Amount
	}
	return total, nil
}
