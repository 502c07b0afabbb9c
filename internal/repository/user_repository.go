package repository

import (
	"context"
	"time"

	"github.com/tms-admin/tms-api/internal/models"
)

// UserRepository manages accounts and refresh tokens. Identity writes run
// immediately rather than through the staged change set: token rotation and
// login stamps must not wait for a business save cycle.
type UserRepository struct {
	*Repository[models.User]
}

func NewUserRepository(session *Session) *UserRepository {
	return &UserRepository{Repository: NewRepository[models.User](session)}
}

// FindByEmail returns the live account with the given email, or
// sql.ErrNoRows.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user := new(models.User)
	err := r.session.DB().NewSelect().Model(user).Where("email = ?", email).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// IsEmailUnique reports whether no other live account carries the email.
func (r *UserRepository) IsEmailUnique(ctx context.Context, email string, excludeID int64) (bool, error) {
	q := r.session.DB().NewSelect().Model((*models.User)(nil)).Where("email = ?", email)
	if excludeID != 0 {
		q = q.Where("id != ?", excludeID)
	}
	exists, err := q.Exists(ctx)
	return !exists, err
}

// Create inserts an account right away.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.StampCreate(ActorFromContext(ctx), time.Now().UTC())
	_, err := r.session.DB().NewInsert().Model(user).Exec(ctx)
	return err
}

// UpdateLastLogin stamps the successful-login time.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.session.DB().NewUpdate().
		Model((*models.User)(nil)).
		Set("last_login = ?", at).
		Where("id = ?", userID).
		Exec(ctx)
	return err
}

// UpdatePassword replaces the stored hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	_, err := r.session.DB().NewUpdate().
		Model((*models.User)(nil)).
		Set("password_hash = ?", hash).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", userID).
		Exec(ctx)
	return err
}

// CreateRefreshToken stores a new rotating credential.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	_, err := r.session.DB().NewInsert().Model(token).Exec(ctx)
	return err
}

// FindRefreshToken returns the stored token row, or sql.ErrNoRows.
func (r *UserRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt := new(models.RefreshToken)
	err := r.session.DB().NewSelect().Model(rt).Where("token = ?", token).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// RevokeRefreshToken marks one token unusable.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, token string) error {
	now := time.Now().UTC()
	_, err := r.session.DB().NewUpdate().
		Model((*models.RefreshToken)(nil)).
		Set("revoked = ?", true).
		Set("revoked_at = ?", now).
		Where("token = ?", token).
		Where("revoked = ?", false).
		Exec(ctx)
	return err
}

// RevokeAllForUser invalidates every outstanding token for one account,
// used on logout and password change.
func (r *UserRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	now := time.Now().UTC()
	_, err := r.session.DB().NewUpdate().
		Model((*models.RefreshToken)(nil)).
		Set("revoked = ?", true).
		Set("revoked_at = ?", now).
		Where("user_id = ?", userID).
		Where("revoked = ?", false).
		Exec(ctx)
	return err
}
