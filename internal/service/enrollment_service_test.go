package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/tms-admin/tms-api/pkg/errors"
)

func TestEnrollAndDuplicateRejection(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewEnrollmentService(factory, nil, nil)
	ctx := context.Background()

	p := seedParticipant(t, factory, "EN-001")
	tr := seedTraining(t, factory, "Public Health Diploma")

	enrollment, err := svc.Enroll(ctx, EnrollParticipantRequest{ParticipantID: p.ID, TrainingID: tr.ID, EmploymentStatus: "PERMANENT"})
	require.NoError(t, err)
	assert.NotZero(t, enrollment.ID)
	assert.Equal(t, "PERMANENT", enrollment.EmploymentStatus)

	_, err = svc.Enroll(ctx, EnrollParticipantRequest{ParticipantID: p.ID, TrainingID: tr.ID})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestEnrollRejectsUnknownReferences(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewEnrollmentService(factory, nil, nil)
	ctx := context.Background()

	tr := seedTraining(t, factory, "Anaesthesia Fellowship")

	_, err := svc.Enroll(ctx, EnrollParticipantRequest{ParticipantID: 999, TrainingID: tr.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	p := seedParticipant(t, factory, "EN-002")
	_, err = svc.Enroll(ctx, EnrollParticipantRequest{ParticipantID: p.ID, TrainingID: 999})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Enroll(ctx, EnrollParticipantRequest{ParticipantID: p.ID, TrainingID: tr.ID, FacilityID: 42})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReEnrollAfterDelete(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewEnrollmentService(factory, nil, nil)
	ctx := context.Background()

	p := seedParticipant(t, factory, "EN-003")
	tr := seedTraining(t, factory, "Midwifery Upgrade")

	first, err := svc.Enroll(ctx, EnrollParticipantRequest{ParticipantID: p.ID, TrainingID: tr.ID})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, first.ID))

	second, err := svc.Enroll(ctx, EnrollParticipantRequest{ParticipantID: p.ID, TrainingID: tr.ID})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestUpdateEnrollmentKeepsPairImmutable(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewEnrollmentService(factory, nil, nil)
	ctx := context.Background()

	p := seedParticipant(t, factory, "EN-004")
	tr := seedTraining(t, factory, "Pharmacy Technician Course")

	enrollment, err := svc.Enroll(ctx, EnrollParticipantRequest{ParticipantID: p.ID, TrainingID: tr.ID})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, enrollment.ID, UpdateEnrollmentRequest{EmploymentStatus: "CONTRACT", StudyLeave: true, BondPeriodMonths: 24})
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ParticipantID)
	assert.Equal(t, tr.ID, updated.TrainingID)
	assert.Equal(t, "CONTRACT", updated.EmploymentStatus)
	assert.True(t, updated.StudyLeave)
	assert.Equal(t, 24, updated.BondPeriodMonths)
}

func TestListEnrollmentsByParticipantAndTraining(t *testing.T) {
	factory := newTestFactory(t)
	svc := NewEnrollmentService(factory, nil, nil)
	ctx := context.Background()

	p := seedParticipant(t, factory, "EN-005")
	tr1 := seedTraining(t, factory, "Radiography")
	tr2 := seedTraining(t, factory, "Laboratory Science")

	_, err := svc.Enroll(ctx, EnrollParticipantRequest{ParticipantID: p.ID, TrainingID: tr1.ID})
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, EnrollParticipantRequest{ParticipantID: p.ID, TrainingID: tr2.ID})
	require.NoError(t, err)

	byParticipant, err := svc.List(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Len(t, byParticipant, 2)

	byTraining, err := svc.List(ctx, 0, tr1.ID)
	require.NoError(t, err)
	assert.Len(t, byTraining, 1)

	byPair, err := svc.List(ctx, p.ID, tr2.ID)
	require.NoError(t, err)
	assert.Len(t, byPair, 1)
}
