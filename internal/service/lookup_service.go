package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tms-admin/tms-api/internal/models"
	"github.com/tms-admin/tms-api/internal/repository"
	appErrors "github.com/tms-admin/tms-api/pkg/errors"
)

// LookupRequest holds payload for creating or updating a lookup record.
type LookupRequest struct {
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// LookupStore is the repository surface a lookup service needs. Every typed
// lookup repository satisfies it for its own entity.
type LookupStore[T any] interface {
	GetByID(ctx context.Context, id int64) (*T, error)
	GetAll(ctx context.Context) ([]T, error)
	Search(ctx context.Context, term string) ([]T, error)
	IsNameUnique(ctx context.Context, name string, excludeID int64) (bool, error)
	InUse(ctx context.Context, id int64) (bool, error)
	Add(entity *T)
	Update(entity *T)
	Delete(entity *T)
}

type lookupPtr[T any] interface {
	*T
	models.LookupRecord
}

// LookupService implements the uniform CRUD surface shared by the seven
// lookup tables. The store selector picks the right repository out of each
// fresh unit of work.
type LookupService[T any, PT lookupPtr[T]] struct {
	factory   *repository.Factory
	store     func(*repository.UnitOfWork) LookupStore[T]
	label     string
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLookupService constructs a lookup service for one lookup table. The
// label names the entity in error messages, e.g. "department".
func NewLookupService[T any, PT lookupPtr[T]](factory *repository.Factory, store func(*repository.UnitOfWork) LookupStore[T], label string, validate *validator.Validate, logger *zap.Logger) *LookupService[T, PT] {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService[T, PT]{factory: factory, store: store, label: label, validator: validate, logger: logger}
}

// List returns live records, narrowed to a name-contains match when a term
// is given.
func (s *LookupService[T, PT]) List(ctx context.Context, term string) ([]T, error) {
	uow := s.factory.New()
	defer uow.Close()

	var (
		records []T
		err     error
	)
	if term == "" {
		records, err = s.store(uow).GetAll(ctx)
	} else {
		records, err = s.store(uow).Search(ctx, term)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list "+s.label+" records")
	}
	return records, nil
}

// Get returns one record.
func (s *LookupService[T, PT]) Get(ctx context.Context, id int64) (*T, error) {
	uow := s.factory.New()
	defer uow.Close()

	record, err := s.store(uow).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, s.label+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+s.label)
	}
	return record, nil
}

// Create registers a new record with a unique name.
func (s *LookupService[T, PT]) Create(ctx context.Context, req LookupRequest) (*T, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+s.label+" payload")
	}

	uow := s.factory.New()
	defer uow.Close()
	store := s.store(uow)

	unique, err := store.IsNameUnique(ctx, req.Name, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate "+s.label+" name")
	}
	if !unique {
		return nil, appErrors.Clone(appErrors.ErrConflict, s.label+" name already used")
	}

	record := PT(new(T))
	record.ApplyFields(req.Name, req.Code, req.Description)
	store.Add((*T)(record))
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create "+s.label)
	}
	return (*T)(record), nil
}

// Update renames or redescribes a record, keeping the name unique.
func (s *LookupService[T, PT]) Update(ctx context.Context, id int64, req LookupRequest) (*T, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+s.label+" payload")
	}

	uow := s.factory.New()
	defer uow.Close()
	store := s.store(uow)

	record, err := store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, s.label+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+s.label)
	}

	unique, err := store.IsNameUnique(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate "+s.label+" name")
	}
	if !unique {
		return nil, appErrors.Clone(appErrors.ErrConflict, s.label+" name already used")
	}

	PT(record).ApplyFields(req.Name, req.Code, req.Description)
	store.Update(record)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update "+s.label)
	}
	return record, nil
}

// Delete soft-deletes a record unless live rows still reference it.
func (s *LookupService[T, PT]) Delete(ctx context.Context, id int64) error {
	uow := s.factory.New()
	defer uow.Close()
	store := s.store(uow)

	record, err := store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, s.label+" not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+s.label)
	}

	used, err := store.InUse(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check "+s.label+" references")
	}
	if used {
		return appErrors.Clone(appErrors.ErrDependentRecords, s.label+" is referenced by other records")
	}

	store.Delete(record)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete "+s.label)
	}
	return nil
}
