package repository

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/tms-admin/tms-api/internal/models"
)

// ParticipantRepository adds participant-specific queries on top of the
// generic surface.
type ParticipantRepository struct {
	*Repository[models.Participant]
}

func NewParticipantRepository(session *Session) *ParticipantRepository {
	return &ParticipantRepository{Repository: NewRepository[models.Participant](session)}
}

// List returns a page of participants matching the filter plus the total
// match count.
func (r *ParticipantRepository) List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, int, error) {
	var participants []models.Participant
	q := r.session.DB().NewSelect().Model(&participants)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("first_name LIKE ?", pattern).
				WhereOr("last_name LIKE ?", pattern).
				WhereOr("other_name LIKE ?", pattern).
				WhereOr("id_number LIKE ?", pattern)
		})
	}
	if filter.FacilityID != 0 {
		q = q.Where("EXISTS (SELECT 1 FROM participant_enrollments pe WHERE pe.participant_id = p.id AND pe.facility_id = ? AND pe.deleted_at IS NULL)", filter.FacilityID)
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	total, err := q.Order("last_name", "first_name", "id").
		Limit(size).
		Offset((page - 1) * size).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return participants, total, nil
}

// Search finds participants whose names or id number contain the term.
func (r *ParticipantRepository) Search(ctx context.Context, term string) ([]models.Participant, error) {
	pattern := "%" + term + "%"
	var participants []models.Participant
	err := r.session.DB().NewSelect().Model(&participants).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("first_name LIKE ?", pattern).
				WhereOr("last_name LIKE ?", pattern).
				WhereOr("other_name LIKE ?", pattern).
				WhereOr("id_number LIKE ?", pattern)
		}).
		Order("last_name", "first_name").
		Scan(ctx)
	return participants, err
}

// IsIDNumberUnique reports whether no other live participant carries the
// given id number. Pass excludeID 0 when creating.
func (r *ParticipantRepository) IsIDNumberUnique(ctx context.Context, idNumber string, excludeID int64) (bool, error) {
	q := r.session.DB().NewSelect().Model((*models.Participant)(nil)).
		Where("id_number = ?", idNumber)
	if excludeID != 0 {
		q = q.Where("id != ?", excludeID)
	}
	exists, err := q.Exists(ctx)
	return !exists, err
}

// GetWithRelations loads a participant together with next of kin,
// enrollments, transfers and allowances.
func (r *ParticipantRepository) GetWithRelations(ctx context.Context, id int64) (*models.Participant, error) {
	participant := new(models.Participant)
	err := r.session.DB().NewSelect().Model(participant).
		Relation("NextOfKin").
		Relation("Enrollments").
		Relation("Transfers").
		Relation("Allowances").
		Where("p.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return participant, nil
}
