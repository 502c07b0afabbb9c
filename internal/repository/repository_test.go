package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tms-admin/tms-api/internal/models"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, CreateSchema(context.Background(), db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestFactory(t *testing.T) *Factory {
	t.Helper()
	return NewFactory(newTestDB(t))
}

func seedParticipant(t *testing.T, factory *Factory, idNumber string) *models.Participant {
	t.Helper()
	uow := factory.New()
	defer uow.Close()

	p := &models.Participant{FirstName: "Jane", LastName: "Doe", IDNumber: idNumber}
	uow.Participants.Add(p)
	_, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
	return p
}

func seedTraining(t *testing.T, factory *Factory, program string) *models.Training {
	t.Helper()
	uow := factory.New()
	defer uow.Close()

	tr := &models.Training{ProgramName: program, Institution: "Makerere University"}
	uow.Trainings.Add(tr)
	_, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
	return tr
}

func TestSaveChangesPersistsStagedInsert(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()

	uow := factory.New()
	defer uow.Close()

	p := &models.Participant{FirstName: "Alice", LastName: "Okello", IDNumber: "CM-001"}
	uow.Participants.Add(p)

	affected, err := uow.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, affected)
	assert.NotZero(t, p.ID)

	got, err := uow.Participants.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.FirstName)
	assert.Equal(t, "CM-001", got.IDNumber)
}

func TestStagedMutationsInvisibleBeforeSave(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()

	uow := factory.New()
	defer uow.Close()

	uow.Participants.Add(&models.Participant{FirstName: "Bob", LastName: "Mukasa", IDNumber: "CM-002"})
	assert.Equal(t, 1, uow.Session().PendingCount())

	count, err := uow.Participants.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "staged insert must not be visible before SaveChanges")

	_, err = uow.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Zero(t, uow.Session().PendingCount())

	count, err = uow.Participants.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSaveChangesWithoutStagedOpsIsNoop(t *testing.T) {
	factory := newTestFactory(t)

	uow := factory.New()
	defer uow.Close()

	affected, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestSaveChangesStampsAuditFields(t *testing.T) {
	factory := newTestFactory(t)
	ctx := WithActor(context.Background(), "registrar")

	uow := factory.New()
	defer uow.Close()

	p := &models.Participant{FirstName: "Carol", LastName: "Atim", IDNumber: "CM-003"}
	uow.Participants.Add(p)
	_, err := uow.SaveChanges(ctx)
	require.NoError(t, err)

	got, err := uow.Participants.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "registrar", got.CreatedBy)
	assert.Equal(t, "registrar", got.UpdatedBy)
	assert.False(t, got.CreatedAt.IsZero())

	got.Phone = "0700000000"
	uow.Participants.Update(got)
	_, err = uow.SaveChanges(WithActor(ctx, "auditor"))
	require.NoError(t, err)

	updated, err := uow.Participants.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "registrar", updated.CreatedBy)
	assert.Equal(t, "auditor", updated.UpdatedBy)
}

func TestDeleteIsSoftAndFilteredEverywhere(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()
	p := seedParticipant(t, factory, "CM-004")

	uow := factory.New()
	defer uow.Close()

	uow.Participants.Delete(p)
	affected, err := uow.SaveChanges(WithActor(ctx, "deleter"))
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	_, err = uow.Participants.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows, "soft-deleted rows hide from id lookups too")

	count, err := uow.Participants.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	exists, err := uow.Participants.Exists(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	kept, err := uow.Participants.GetByIDIncludingDeleted(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, kept.DeletedAt.IsZero(), "row is retained with its delete marker")
	assert.Equal(t, "deleter", kept.UpdatedBy, "a soft delete is a mutation and records its actor")
}

func TestForceDeleteRemovesRow(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()
	p := seedParticipant(t, factory, "CM-005")

	uow := factory.New()
	defer uow.Close()

	uow.Participants.ForceDelete(p)
	_, err := uow.SaveChanges(ctx)
	require.NoError(t, err)

	_, err = uow.Participants.GetByIDIncludingDeleted(ctx, p.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestIsIDNumberUnique(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()
	p := seedParticipant(t, factory, "CM-006")

	uow := factory.New()
	defer uow.Close()

	unique, err := uow.Participants.IsIDNumberUnique(ctx, "CM-006", 0)
	require.NoError(t, err)
	assert.False(t, unique)

	unique, err = uow.Participants.IsIDNumberUnique(ctx, "CM-006", p.ID)
	require.NoError(t, err)
	assert.True(t, unique, "a record does not conflict with itself on update")

	unique, err = uow.Participants.IsIDNumberUnique(ctx, "CM-777", 0)
	require.NoError(t, err)
	assert.True(t, unique)
}

func TestParticipantListFiltersAndPaginates(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()

	uow := factory.New()
	defer uow.Close()
	for _, p := range []*models.Participant{
		{FirstName: "Grace", LastName: "Nabirye", IDNumber: "CM-100"},
		{FirstName: "Peter", LastName: "Nabirye", IDNumber: "CM-101"},
		{FirstName: "Moses", LastName: "Okot", IDNumber: "CM-102"},
	} {
		uow.Participants.Add(p)
	}
	_, err := uow.SaveChanges(ctx)
	require.NoError(t, err)

	page, total, err := uow.Participants.List(ctx, models.ParticipantFilter{Search: "Nabirye", Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Grace", page[0].FirstName)
}

func TestEnrollmentPairUniqueness(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()
	p := seedParticipant(t, factory, "CM-200")
	tr := seedTraining(t, factory, "Field Epidemiology")

	uow := factory.New()
	defer uow.Close()

	uow.Enrollments.Add(&models.ParticipantEnrollment{ParticipantID: p.ID, TrainingID: tr.ID})
	_, err := uow.SaveChanges(ctx)
	require.NoError(t, err)

	enrolled, err := uow.Enrollments.IsParticipantEnrolled(ctx, p.ID, tr.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)

	pair, err := uow.Enrollments.FindPair(ctx, p.ID, tr.ID)
	require.NoError(t, err)

	// Soft-deleting the enrollment frees the pair for re-enrollment.
	uow.Enrollments.Delete(pair)
	_, err = uow.SaveChanges(ctx)
	require.NoError(t, err)

	enrolled, err = uow.Enrollments.IsParticipantEnrolled(ctx, p.ID, tr.ID)
	require.NoError(t, err)
	assert.False(t, enrolled)
}

func TestAllowanceTotals(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()
	p := seedParticipant(t, factory, "CM-300")
	tr := seedTraining(t, factory, "Health Informatics")

	uow := factory.New()
	defer uow.Close()

	total, err := uow.Allowances.TotalByParticipant(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, total, "no allowances means a zero total, not an error")

	typeRec := &models.AllowanceType{}
	typeRec.ApplyFields("Upkeep", "UPK", "")
	statusRec := &models.AllowanceStatus{}
	statusRec.ApplyFields("Paid", "PD", "")
	uow.AllowanceTypes.Add(typeRec)
	uow.AllowanceStatuses.Add(statusRec)
	_, err = uow.SaveChanges(ctx)
	require.NoError(t, err)

	uow.Allowances.Add(&models.Allowance{ParticipantID: p.ID, TrainingID: tr.ID, AllowanceTypeID: typeRec.ID, AllowanceStatusID: statusRec.ID, Amount: 150.50})
	uow.Allowances.Add(&models.Allowance{ParticipantID: p.ID, TrainingID: tr.ID, AllowanceTypeID: typeRec.ID, AllowanceStatusID: statusRec.ID, Amount: 49.50})
	_, err = uow.SaveChanges(ctx)
	require.NoError(t, err)

	total, err = uow.Allowances.TotalByParticipant(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 200.0, total, 0.001)

	total, err = uow.Allowances.TotalByTraining(ctx, tr.ID)
	require.NoError(t, err)
	assert.InDelta(t, 200.0, total, 0.001)
}

func TestLookupNameUniquenessFoldsCaseForAllowanceTypes(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()

	uow := factory.New()
	defer uow.Close()

	dep := &models.Department{}
	dep.ApplyFields("Nursing", "", "")
	uow.Departments.Add(dep)

	at := &models.AllowanceType{}
	at.ApplyFields("Travel", "TRV", "")
	uow.AllowanceTypes.Add(at)
	_, err := uow.SaveChanges(ctx)
	require.NoError(t, err)

	// Departments compare names exactly.
	unique, err := uow.Departments.IsNameUnique(ctx, "nursing", 0)
	require.NoError(t, err)
	assert.True(t, unique)

	// Allowance classifiers compare case-insensitively.
	unique, err = uow.AllowanceTypes.IsNameUnique(ctx, "TRAVEL", 0)
	require.NoError(t, err)
	assert.False(t, unique)

	unique, err = uow.AllowanceTypes.IsNameUnique(ctx, "TRAVEL", at.ID)
	require.NoError(t, err)
	assert.True(t, unique)
}

func TestLookupInUseGuards(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()
	p := seedParticipant(t, factory, "CM-400")
	tr := seedTraining(t, factory, "Biostatistics")

	uow := factory.New()
	defer uow.Close()

	fac := &models.Facility{}
	fac.ApplyFields("Mulago NRH", "", "")
	uow.Facilities.Add(fac)
	_, err := uow.SaveChanges(ctx)
	require.NoError(t, err)

	used, err := uow.Facilities.InUse(ctx, fac.ID)
	require.NoError(t, err)
	assert.False(t, used)

	uow.Enrollments.Add(&models.ParticipantEnrollment{ParticipantID: p.ID, TrainingID: tr.ID, FacilityID: fac.ID})
	_, err = uow.SaveChanges(ctx)
	require.NoError(t, err)

	used, err = uow.Facilities.InUse(ctx, fac.ID)
	require.NoError(t, err)
	assert.True(t, used)
}

func TestExplicitTransactionSpansSaveCycles(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()

	uow := factory.New()
	defer uow.Close()

	require.NoError(t, uow.Begin(ctx))
	p := &models.Participant{FirstName: "Denis", LastName: "Ssentongo", IDNumber: "CM-500"}
	uow.Participants.Add(p)
	_, err := uow.SaveChanges(ctx)
	require.NoError(t, err)

	tr := &models.Training{ProgramName: "Surgery Fellowship", Institution: "Mbarara University"}
	uow.Trainings.Add(tr)
	_, err = uow.SaveChanges(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Commit())

	count, err := uow.Participants.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = uow.Trainings.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestExplicitTransactionRollbackDiscardsWork(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()

	uow := factory.New()
	defer uow.Close()

	require.NoError(t, uow.Begin(ctx))
	uow.Participants.Add(&models.Participant{FirstName: "Eve", LastName: "Namatovu", IDNumber: "CM-600"})
	_, err := uow.SaveChanges(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Rollback())

	count, err := uow.Participants.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "flushed but uncommitted writes vanish on rollback")
}

func TestUserRepositoryIdentityFlows(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()

	uow := factory.New()
	defer uow.Close()

	user := &models.User{Email: "admin@tms.local", PasswordHash: "x", FullName: "Admin", Role: models.RoleAdmin, Active: true}
	require.NoError(t, uow.Users.Create(ctx, user))

	found, err := uow.Users.FindByEmail(ctx, "admin@tms.local")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	unique, err := uow.Users.IsEmailUnique(ctx, "admin@tms.local", 0)
	require.NoError(t, err)
	assert.False(t, unique)

	rt := &models.RefreshToken{ID: "tok-1", UserID: user.ID, Token: "opaque-1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, uow.Users.CreateRefreshToken(ctx, rt))

	stored, err := uow.Users.FindRefreshToken(ctx, "opaque-1")
	require.NoError(t, err)
	assert.False(t, stored.Revoked)

	require.NoError(t, uow.Users.RevokeAllForUser(ctx, user.ID))
	stored, err = uow.Users.FindRefreshToken(ctx, "opaque-1")
	require.NoError(t, err)
	assert.True(t, stored.Revoked)
	require.NotNil(t, stored.RevokedAt)
}

func TestSaveObserverReceivesAffectedRows(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()

	var observed []int
	factory.OnSave(func(affected int) { observed = append(observed, affected) })

	uow := factory.New()
	defer uow.Close()

	dep := &models.Department{}
	dep.ApplyFields("Pharmacy", "", "")
	uow.Departments.Add(dep)
	fac := &models.Facility{}
	fac.ApplyFields("Regional Referral", "", "")
	uow.Facilities.Add(fac)
	_, err := uow.SaveChanges(ctx)
	require.NoError(t, err)

	// A save cycle with nothing staged does not notify.
	_, err = uow.SaveChanges(ctx)
	require.NoError(t, err)

	require.Len(t, observed, 1)
	assert.Equal(t, 2, observed[0])
}

func TestFailedSaveKeepsMutationsStaged(t *testing.T) {
	factory := newTestFactory(t)
	ctx := context.Background()

	uow := factory.New()
	defer uow.Close()

	dep := &models.Department{}
	dep.ApplyFields("Nursing", "", "")
	uow.Departments.Add(dep)
	_, err := uow.SaveChanges(ctx)
	require.NoError(t, err)

	dup := &models.Department{}
	dup.ApplyFields("Nursing", "", "")
	uow.Departments.Add(dup)
	_, err = uow.SaveChanges(ctx)
	require.Error(t, err, "duplicate name violates the unique index")
	assert.Equal(t, 1, uow.Session().PendingCount(), "failed flush leaves the mutation staged")

	dup.ApplyFields("Midwifery", "", "")
	affected, err := uow.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, affected)
}
