package repository

import (
	"context"

	"github.com/tms-admin/tms-api/internal/models"
)

// AllowanceRepository adds filtering and aggregation over allowances.
type AllowanceRepository struct {
	*Repository[models.Allowance]
}

func NewAllowanceRepository(session *Session) *AllowanceRepository {
	return &AllowanceRepository{Repository: NewRepository[models.Allowance](session)}
}

// List returns the live allowances matching the filter.
func (r *AllowanceRepository) List(ctx context.Context, filter models.AllowanceFilter) ([]models.Allowance, error) {
	var allowances []models.Allowance
	q := r.session.DB().NewSelect().Model(&allowances)

	if filter.ParticipantID != 0 {
		q = q.Where("participant_id = ?", filter.ParticipantID)
	}
	if filter.TrainingID != 0 {
		q = q.Where("training_id = ?", filter.TrainingID)
	}
	if filter.TypeID != 0 {
		q = q.Where("allowance_type_id = ?", filter.TypeID)
	}
	if filter.StatusID != 0 {
		q = q.Where("allowance_status_id = ?", filter.StatusID)
	}

	err := q.Order("start_date", "id").Scan(ctx)
	return allowances, err
}

// ByParticipant returns all live allowances for one participant.
func (r *AllowanceRepository) ByParticipant(ctx context.Context, participantID int64) ([]models.Allowance, error) {
	return r.Find(ctx, "participant_id = ?", participantID)
}

// ByTraining returns all live allowances for one training.
func (r *AllowanceRepository) ByTraining(ctx context.Context, trainingID int64) ([]models.Allowance, error) {
	return r.Find(ctx, "training_id = ?", trainingID)
}

// TotalByParticipant sums the live allowance amounts for a participant.
// Returns zero when the participant has none.
func (r *AllowanceRepository) TotalByParticipant(ctx context.Context, participantID int64) (float64, error) {
	var total float64
	err := r.session.DB().NewSelect().
		Model((*models.Allowance)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)").
		Where("participant_id = ?", participantID).
		Scan(ctx, &total)
	return total, err
}

// TotalByTraining sums the live allowance amounts for a training.
func (r *AllowanceRepository) TotalByTraining(ctx context.Context, trainingID int64) (float64, error) {
	var total float64
	err := r.session.DB().NewSelect().
		Model((*models.Allowance)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)").
		Where("training_id = ?", trainingID).
		Scan(ctx, &total)
	return total, err
}
