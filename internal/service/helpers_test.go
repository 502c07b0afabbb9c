package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tms-admin/tms-api/internal/models"
	"github.com/tms-admin/tms-api/internal/repository"
)

func newTestFactory(t *testing.T) *repository.Factory {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, repository.CreateSchema(context.Background(), db))
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewFactory(db)
}

func seedParticipant(t *testing.T, factory *repository.Factory, idNumber string) *models.Participant {
	t.Helper()
	uow := factory.New()
	defer uow.Close()

	p := &models.Participant{FirstName: "Sarah", LastName: "Nakato", IDNumber: idNumber}
	uow.Participants.Add(p)
	_, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
	return p
}

func seedTraining(t *testing.T, factory *repository.Factory, program string) *models.Training {
	t.Helper()
	uow := factory.New()
	defer uow.Close()

	tr := &models.Training{ProgramName: program, Institution: "Gulu University"}
	uow.Trainings.Add(tr)
	_, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
	return tr
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return d
}

func seedAllowanceLookups(t *testing.T, factory *repository.Factory) (*models.AllowanceType, *models.AllowanceStatus) {
	t.Helper()
	uow := factory.New()
	defer uow.Close()

	at := &models.AllowanceType{}
	at.ApplyFields("Upkeep", "UPK", "")
	st := &models.AllowanceStatus{}
	st.ApplyFields("Pending", "PND", "")
	uow.AllowanceTypes.Add(at)
	uow.AllowanceStatuses.Add(st)
	_, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
	return at, st
}
