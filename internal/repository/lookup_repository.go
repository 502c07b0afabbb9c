package repository

import (
	"context"

	"github.com/tms-admin/tms-api/internal/models"
)

// lookupRepository is the shared surface over the seven lookup tables.
// foldCase makes name comparisons case-insensitive, used by the allowance
// classifiers where "Paid" and "paid" must be one value.
type lookupRepository[T any] struct {
	*Repository[T]
	foldCase bool
}

func newLookupRepository[T any](session *Session, foldCase bool) lookupRepository[T] {
	return lookupRepository[T]{Repository: NewRepository[T](session), foldCase: foldCase}
}

// GetByName returns the live record with the given name, or sql.ErrNoRows.
func (r lookupRepository[T]) GetByName(ctx context.Context, name string) (*T, error) {
	record := new(T)
	q := r.session.DB().NewSelect().Model(record)
	if r.foldCase {
		q = q.Where("LOWER(name) = LOWER(?)", name)
	} else {
		q = q.Where("name = ?", name)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

// IsNameUnique reports whether no other live record carries the name. Pass
// excludeID 0 when creating.
func (r lookupRepository[T]) IsNameUnique(ctx context.Context, name string, excludeID int64) (bool, error) {
	q := r.session.DB().NewSelect().Model((*T)(nil))
	if r.foldCase {
		q = q.Where("LOWER(name) = LOWER(?)", name)
	} else {
		q = q.Where("name = ?", name)
	}
	if excludeID != 0 {
		q = q.Where("id != ?", excludeID)
	}
	exists, err := q.Exists(ctx)
	return !exists, err
}

// Search returns live records whose name contains the term, ordered by name.
// Matching folds case on the allowance classifiers, like every other name
// comparison there.
func (r lookupRepository[T]) Search(ctx context.Context, term string) ([]T, error) {
	var records []T
	q := r.session.DB().NewSelect().Model(&records)
	if r.foldCase {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+term+"%")
	} else {
		q = q.Where("name LIKE ?", "%"+term+"%")
	}
	if err := q.Order("name").Scan(ctx); err != nil {
		return nil, err
	}
	return records, nil
}

func (r lookupRepository[T]) countRefs(ctx context.Context, model any, clause string, id int64) (bool, error) {
	return r.session.DB().NewSelect().Model(model).Where(clause, id).Exists(ctx)
}

// DepartmentRepository guards departments referenced by enrollments.
type DepartmentRepository struct{ lookupRepository[models.Department] }

func NewDepartmentRepository(session *Session) *DepartmentRepository {
	return &DepartmentRepository{newLookupRepository[models.Department](session, false)}
}

// InUse reports whether any live enrollment references the department.
func (r *DepartmentRepository) InUse(ctx context.Context, id int64) (bool, error) {
	return r.countRefs(ctx, (*models.ParticipantEnrollment)(nil), "department_id = ?", id)
}

// FacilityRepository guards facilities referenced by enrollments and
// transfers.
type FacilityRepository struct{ lookupRepository[models.Facility] }

func NewFacilityRepository(session *Session) *FacilityRepository {
	return &FacilityRepository{newLookupRepository[models.Facility](session, false)}
}

func (r *FacilityRepository) InUse(ctx context.Context, id int64) (bool, error) {
	used, err := r.countRefs(ctx, (*models.ParticipantEnrollment)(nil), "facility_id = ?", id)
	if err != nil || used {
		return used, err
	}
	return r.session.DB().NewSelect().
		Model((*models.ParticipantTransfer)(nil)).
		Where("from_facility_id = ? OR to_facility_id = ?", id, id).
		Exists(ctx)
}

// DesignationRepository guards designations referenced by enrollments.
type DesignationRepository struct{ lookupRepository[models.Designation] }

func NewDesignationRepository(session *Session) *DesignationRepository {
	return &DesignationRepository{newLookupRepository[models.Designation](session, false)}
}

func (r *DesignationRepository) InUse(ctx context.Context, id int64) (bool, error) {
	return r.countRefs(ctx, (*models.ParticipantEnrollment)(nil), "designation_id = ?", id)
}

// SalaryScaleRepository guards salary scales referenced by enrollments.
type SalaryScaleRepository struct{ lookupRepository[models.SalaryScale] }

func NewSalaryScaleRepository(session *Session) *SalaryScaleRepository {
	return &SalaryScaleRepository{newLookupRepository[models.SalaryScale](session, false)}
}

func (r *SalaryScaleRepository) InUse(ctx context.Context, id int64) (bool, error) {
	return r.countRefs(ctx, (*models.ParticipantEnrollment)(nil), "salary_scale_id = ?", id)
}

// SponsorRepository guards sponsors referenced by trainings and enrollments.
type SponsorRepository struct{ lookupRepository[models.Sponsor] }

func NewSponsorRepository(session *Session) *SponsorRepository {
	return &SponsorRepository{newLookupRepository[models.Sponsor](session, false)}
}

func (r *SponsorRepository) InUse(ctx context.Context, id int64) (bool, error) {
	used, err := r.countRefs(ctx, (*models.Training)(nil), "sponsor_id = ?", id)
	if err != nil || used {
		return used, err
	}
	return r.countRefs(ctx, (*models.ParticipantEnrollment)(nil), "sponsor_id = ?", id)
}

// AllowanceTypeRepository guards allowance types referenced by allowances.
// Name comparisons fold case.
type AllowanceTypeRepository struct{ lookupRepository[models.AllowanceType] }

func NewAllowanceTypeRepository(session *Session) *AllowanceTypeRepository {
	return &AllowanceTypeRepository{newLookupRepository[models.AllowanceType](session, true)}
}

// HasAllowances reports whether any live allowance uses the type.
func (r *AllowanceTypeRepository) HasAllowances(ctx context.Context, id int64) (bool, error) {
	return r.countRefs(ctx, (*models.Allowance)(nil), "allowance_type_id = ?", id)
}

func (r *AllowanceTypeRepository) InUse(ctx context.Context, id int64) (bool, error) {
	return r.HasAllowances(ctx, id)
}

// AllowanceStatusRepository guards allowance statuses referenced by
// allowances. Name comparisons fold case.
type AllowanceStatusRepository struct{ lookupRepository[models.AllowanceStatus] }

func NewAllowanceStatusRepository(session *Session) *AllowanceStatusRepository {
	return &AllowanceStatusRepository{newLookupRepository[models.AllowanceStatus](session, true)}
}

// HasAllowances reports whether any live allowance uses the status.
func (r *AllowanceStatusRepository) HasAllowances(ctx context.Context, id int64) (bool, error) {
	return r.countRefs(ctx, (*models.Allowance)(nil), "allowance_status_id = ?", id)
}

func (r *AllowanceStatusRepository) InUse(ctx context.Context, id int64) (bool, error) {
	return r.HasAllowances(ctx, id)
}
