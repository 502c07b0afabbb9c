package repository

import (
	"context"

	"github.com/tms-admin/tms-api/internal/models"
)

// EnrollmentRepository adds pair-aware queries over enrollments.
type EnrollmentRepository struct {
	*Repository[models.ParticipantEnrollment]
}

func NewEnrollmentRepository(session *Session) *EnrollmentRepository {
	return &EnrollmentRepository{Repository: NewRepository[models.ParticipantEnrollment](session)}
}

// ByParticipant returns all live enrollments for one participant.
func (r *EnrollmentRepository) ByParticipant(ctx context.Context, participantID int64) ([]models.ParticipantEnrollment, error) {
	return r.Find(ctx, "participant_id = ?", participantID)
}

// ByTraining returns all live enrollments for one training.
func (r *EnrollmentRepository) ByTraining(ctx context.Context, trainingID int64) ([]models.ParticipantEnrollment, error) {
	return r.Find(ctx, "training_id = ?", trainingID)
}

// IsParticipantEnrolled reports whether the participant already has a live
// enrollment into the training.
func (r *EnrollmentRepository) IsParticipantEnrolled(ctx context.Context, participantID, trainingID int64) (bool, error) {
	return r.session.DB().NewSelect().
		Model((*models.ParticipantEnrollment)(nil)).
		Where("participant_id = ?", participantID).
		Where("training_id = ?", trainingID).
		Exists(ctx)
}

// FindPair returns the live enrollment for the pair, or sql.ErrNoRows.
func (r *EnrollmentRepository) FindPair(ctx context.Context, participantID, trainingID int64) (*models.ParticipantEnrollment, error) {
	enrollment := new(models.ParticipantEnrollment)
	err := r.session.DB().NewSelect().Model(enrollment).
		Where("participant_id = ?", participantID).
		Where("training_id = ?", trainingID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}
