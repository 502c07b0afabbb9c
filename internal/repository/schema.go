package repository

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/tms-admin/tms-api/internal/models"
)

// schemaModels lists every entity in dependency order so foreign keys
// resolve when tables are created with constraints enabled.
var schemaModels = []any{
	(*models.Department)(nil),
	(*models.Facility)(nil),
	(*models.Designation)(nil),
	(*models.SalaryScale)(nil),
	(*models.Sponsor)(nil),
	(*models.AllowanceType)(nil),
	(*models.AllowanceStatus)(nil),
	(*models.Participant)(nil),
	(*models.NextOfKin)(nil),
	(*models.ParticipantTransfer)(nil),
	(*models.Training)(nil),
	(*models.TrainingBudget)(nil),
	(*models.TrainingReport)(nil),
	(*models.ParticipantEnrollment)(nil),
	(*models.Allowance)(nil),
	(*models.User)(nil),
	(*models.RefreshToken)(nil),
}

// CreateSchema creates every table if it does not exist yet. It is safe to
// call on each startup.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range schemaModels {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}
