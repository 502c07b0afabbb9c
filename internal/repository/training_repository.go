package repository

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/tms-admin/tms-api/internal/models"
)

// TrainingRepository adds training-specific queries.
type TrainingRepository struct {
	*Repository[models.Training]
}

func NewTrainingRepository(session *Session) *TrainingRepository {
	return &TrainingRepository{Repository: NewRepository[models.Training](session)}
}

// List returns a page of trainings matching the filter plus the total match
// count.
func (r *TrainingRepository) List(ctx context.Context, filter models.TrainingFilter) ([]models.Training, int, error) {
	var trainings []models.Training
	q := r.session.DB().NewSelect().Model(&trainings)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("program_name LIKE ?", pattern).
				WhereOr("institution LIKE ?", pattern)
		})
	}
	if filter.Country != "" {
		q = q.Where("country = ?", filter.Country)
	}
	if filter.SponsorID != 0 {
		q = q.Where("sponsor_id = ?", filter.SponsorID)
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	total, err := q.Order("start_date DESC", "id").
		Limit(size).
		Offset((page - 1) * size).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return trainings, total, nil
}

// GetWithRelations loads a training with its sponsor, enrollments, budgets
// and reports.
func (r *TrainingRepository) GetWithRelations(ctx context.Context, id int64) (*models.Training, error) {
	training := new(models.Training)
	err := r.session.DB().NewSelect().Model(training).
		Relation("Sponsor").
		Relation("Enrollments").
		Relation("Budgets").
		Relation("Reports").
		Where("t.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return training, nil
}
