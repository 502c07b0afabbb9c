package repository

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/uptrace/bun"

	"github.com/tms-admin/tms-api/internal/models"
	"github.com/tms-admin/tms-api/pkg/errors"
)

// UnitOfWork scopes a set of repositories to one logical change set. All of
// them share a session; mutations staged on any repository persist together
// when SaveChanges runs. Begin/Commit/Rollback widen the scope to several
// save cycles inside one database transaction.
type UnitOfWork struct {
	db      *bun.DB
	session *Session
	tx      *bun.Tx
	onSave  SaveObserver

	Participants      *ParticipantRepository
	NextOfKin         *Repository[models.NextOfKin]
	Transfers         *Repository[models.ParticipantTransfer]
	Trainings         *TrainingRepository
	TrainingBudgets   *Repository[models.TrainingBudget]
	TrainingReports   *Repository[models.TrainingReport]
	Enrollments       *EnrollmentRepository
	Allowances        *AllowanceRepository
	Departments       *DepartmentRepository
	Facilities        *FacilityRepository
	Designations      *DesignationRepository
	SalaryScales      *SalaryScaleRepository
	Sponsors          *SponsorRepository
	AllowanceTypes    *AllowanceTypeRepository
	AllowanceStatuses *AllowanceStatusRepository
	Users             *UserRepository
}

// SaveObserver receives the affected-row count of every successful flush.
type SaveObserver func(affected int)

// Factory creates fresh units of work over a shared connection pool. One
// unit of work per request; they are not safe to reuse across requests.
type Factory struct {
	db     *bun.DB
	onSave SaveObserver
}

// NewFactory wraps the connection pool.
func NewFactory(db *bun.DB) *Factory {
	return &Factory{db: db}
}

// OnSave installs an observer notified after each successful save cycle,
// used to feed flush metrics.
func (f *Factory) OnSave(fn SaveObserver) {
	f.onSave = fn
}

// New creates a unit of work with an empty change set.
func (f *Factory) New() *UnitOfWork {
	session := newSession(f.db)
	return &UnitOfWork{
		db:      f.db,
		session: session,
		onSave:  f.onSave,

		Participants:      NewParticipantRepository(session),
		NextOfKin:         NewRepository[models.NextOfKin](session),
		Transfers:         NewRepository[models.ParticipantTransfer](session),
		Trainings:         NewTrainingRepository(session),
		TrainingBudgets:   NewRepository[models.TrainingBudget](session),
		TrainingReports:   NewRepository[models.TrainingReport](session),
		Enrollments:       NewEnrollmentRepository(session),
		Allowances:        NewAllowanceRepository(session),
		Departments:       NewDepartmentRepository(session),
		Facilities:        NewFacilityRepository(session),
		Designations:      NewDesignationRepository(session),
		SalaryScales:      NewSalaryScaleRepository(session),
		Sponsors:          NewSponsorRepository(session),
		AllowanceTypes:    NewAllowanceTypeRepository(session),
		AllowanceStatuses: NewAllowanceStatusRepository(session),
		Users:             NewUserRepository(session),
	}
}

// Session exposes the shared session, mainly for tests and custom queries.
func (u *UnitOfWork) Session() *Session {
	return u.session
}

// SaveChanges flushes every staged mutation in insertion order and returns
// the number of affected rows. Without an explicit transaction the flush
// runs atomically inside its own; with one, the writes land on the open
// transaction and become durable only on Commit. A failed flush puts the
// mutations back on the stage so the caller may resolve the conflict and
// retry.
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int, error) {
	ops := u.session.take()
	if len(ops) == 0 {
		return 0, nil
	}

	actor := ActorFromContext(ctx)
	now := time.Now().UTC()

	if u.tx != nil {
		affected, err := flush(ctx, *u.tx, ops, actor, now)
		if err != nil {
			u.session.restore(ops)
			return 0, err
		}
		if u.onSave != nil {
			u.onSave(affected)
		}
		return affected, nil
	}

	var affected int
	err := u.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		n, err := flush(ctx, tx, ops, actor, now)
		affected = n
		return err
	})
	if err != nil {
		u.session.restore(ops)
		return 0, err
	}
	if u.onSave != nil {
		u.onSave(affected)
	}
	return affected, nil
}

func flush(ctx context.Context, tx bun.Tx, ops []pendingOp, actor string, now time.Time) (int, error) {
	var affected int
	for _, op := range ops {
		var (
			res sql.Result
			err error
		)
		switch op.kind {
		case opInsert:
			if a, ok := op.model.(models.Auditable); ok {
				a.StampCreate(actor, now)
			}
			res, err = tx.NewInsert().Model(op.model).Exec(ctx)
		case opUpdate:
			if a, ok := op.model.(models.Auditable); ok {
				a.StampUpdate(actor, now)
			}
			res, err = tx.NewUpdate().Model(op.model).WherePK().Exec(ctx)
		case opSoftDelete:
			// bun's soft delete writes only deleted_at, so the audit stamp
			// has to land through its own update.
			if a, ok := op.model.(models.Auditable); ok {
				a.StampUpdate(actor, now)
				_, err = tx.NewUpdate().Model(op.model).
					Column("updated_at", "updated_by").
					WherePK().
					Exec(ctx)
				if err != nil {
					return 0, err
				}
			}
			res, err = tx.NewDelete().Model(op.model).WherePK().Exec(ctx)
		case opForceDelete:
			res, err = tx.NewDelete().Model(op.model).WherePK().ForceDelete().Exec(ctx)
		}
		if err != nil {
			return 0, err
		}
		if res != nil {
			if n, err := res.RowsAffected(); err == nil {
				affected += int(n)
			}
		}
	}
	return affected, nil
}

// Begin opens an explicit transaction spanning multiple save cycles. Reads
// and flushed writes run against it until Commit or Rollback.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return errors.New("TX_ALREADY_OPEN", http.StatusInternalServerError, "a transaction is already open")
	}
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	u.tx = &tx
	u.session.bind(tx)
	return nil
}

// Commit makes the work flushed since Begin durable.
func (u *UnitOfWork) Commit() error {
	if u.tx == nil {
		return errors.New("TX_NOT_OPEN", http.StatusInternalServerError, "no transaction is open")
	}
	err := u.tx.Commit()
	u.tx = nil
	u.session.bind(u.db)
	return err
}

// Rollback discards the open transaction and any still-staged mutations.
func (u *UnitOfWork) Rollback() error {
	if u.tx == nil {
		return errors.New("TX_NOT_OPEN", http.StatusInternalServerError, "no transaction is open")
	}
	err := u.tx.Rollback()
	u.tx = nil
	u.session.discard()
	u.session.bind(u.db)
	return err
}

// Close releases the unit of work. An open transaction is rolled back and
// staged but unsaved mutations are dropped.
func (u *UnitOfWork) Close() error {
	if u.tx != nil {
		return u.Rollback()
	}
	u.session.discard()
	return nil
}
