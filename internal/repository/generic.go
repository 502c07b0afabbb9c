package repository

import (
	"context"
)

// Repository is the uniform data-access surface over one entity type. All
// persistence mechanics defer to the shared session; mutating operations
// only stage changes, persisted when the unit of work saves. Soft-deleted
// rows are excluded from every read, including direct id lookups.
type Repository[T any] struct {
	session *Session
}

// NewRepository binds a generic repository to a session.
func NewRepository[T any](session *Session) *Repository[T] {
	return &Repository[T]{session: session}
}

// GetByID fetches one entity by primary key. Missing rows surface as
// sql.ErrNoRows for the caller to map.
func (r *Repository[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	entity := new(T)
	if err := r.session.DB().NewSelect().Model(entity).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return entity, nil
}

// GetByIDIncludingDeleted fetches one entity regardless of its soft-delete
// state.
func (r *Repository[T]) GetByIDIncludingDeleted(ctx context.Context, id int64) (*T, error) {
	entity := new(T)
	err := r.session.DB().NewSelect().Model(entity).WhereAllWithDeleted().Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// GetAll returns every live entity ordered by primary key.
func (r *Repository[T]) GetAll(ctx context.Context) ([]T, error) {
	var entities []T
	err := r.session.DB().NewSelect().Model(&entities).Order("id").Scan(ctx)
	return entities, err
}

// Find returns the entities matching the given predicate clause.
func (r *Repository[T]) Find(ctx context.Context, clause string, args ...any) ([]T, error) {
	var entities []T
	err := r.session.DB().NewSelect().Model(&entities).Where(clause, args...).Scan(ctx)
	return entities, err
}

// Exists reports whether a live entity with the given id exists.
func (r *Repository[T]) Exists(ctx context.Context, id int64) (bool, error) {
	return r.session.DB().NewSelect().Model((*T)(nil)).Where("id = ?", id).Exists(ctx)
}

// Count returns the number of live entities.
func (r *Repository[T]) Count(ctx context.Context) (int, error) {
	return r.session.DB().NewSelect().Model((*T)(nil)).Count(ctx)
}

// CountWhere returns the number of live entities matching the predicate.
func (r *Repository[T]) CountWhere(ctx context.Context, clause string, args ...any) (int, error) {
	return r.session.DB().NewSelect().Model((*T)(nil)).Where(clause, args...).Count(ctx)
}

// Add stages the entity for insertion.
func (r *Repository[T]) Add(entity *T) {
	r.session.stage(opInsert, entity)
}

// Update stages the entity for an update by primary key.
func (r *Repository[T]) Update(entity *T) {
	r.session.stage(opUpdate, entity)
}

// Delete stages a soft delete: the row is marked deleted, never removed.
func (r *Repository[T]) Delete(entity *T) {
	r.session.stage(opSoftDelete, entity)
}

// ForceDelete stages a physical removal. Reserved for purge flows.
func (r *Repository[T]) ForceDelete(entity *T) {
	r.session.stage(opForceDelete, entity)
}
