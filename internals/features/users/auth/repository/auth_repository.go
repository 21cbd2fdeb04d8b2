package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	authModel "campusku_backend/internals/features/users/auth/model"
	"campusku_backend/internals/features/users/auth/service"
	userModel "campusku_backend/internals/features/users/user/model"
	"campusku_backend/internals/helpers/apperror"
)

type AuthRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

var _ service.Repository = (*AuthRepository)(nil)

/* ====================== USER ====================== */

func (r *AuthRepository) FindUserByIdentifier(ctx context.Context, identifier string) (*userModel.UserModel, error) {
	identifier = strings.TrimSpace(identifier)
	var user userModel.UserModel
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?) OR user_name = ?", identifier, identifier).
		First(&user).Error
	if err != nil {
		return nil, apperror.FromDB(err, "user")
	}
	return &user, nil
}

func (r *AuthRepository) FindUserByID(ctx context.Context, id uuid.UUID) (*userModel.UserModel, error) {
	var user userModel.UserModel
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, apperror.FromDB(err, "user")
	}
	return &user, nil
}

func (r *AuthRepository) UpdateUserPassword(ctx context.Context, id uuid.UUID, hash string) error {
	res := r.db.WithContext(ctx).Model(&userModel.UserModel{}).
		Where("id = ?", id).
		Update("password", hash)
	if res.Error != nil {
		return apperror.FromDB(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("user not found")
	}
	return nil
}

/* ====================== REFRESH TOKEN ====================== */

func (r *AuthRepository) CreateRefreshToken(ctx context.Context, token *authModel.RefreshTokenModel) error {
	return apperror.FromDB(r.db.WithContext(ctx).Create(token).Error, "refresh token")
}

// FindActiveRefreshToken yields a NotFound error when the hash is unknown, revoked or expired.
func (r *AuthRepository) FindActiveRefreshToken(ctx context.Context, hash string, now time.Time) (*authModel.RefreshTokenModel, error) {
	var rt authModel.RefreshTokenModel
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND revoked_at IS NULL AND expires_at > ?", hash, now).
		First(&rt).Error
	if err != nil {
		return nil, apperror.FromDB(err, "refresh token")
	}
	return &rt, nil
}

func (r *AuthRepository) RevokeRefreshToken(ctx context.Context, id uuid.UUID, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&authModel.RefreshTokenModel{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", now)
	if res.Error != nil {
		return apperror.FromDB(res.Error, "refresh token")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("refresh token not found")
	}
	return nil
}

func (r *AuthRepository) RevokeRefreshTokenByHash(ctx context.Context, hash string, now time.Time) error {
	err := r.db.WithContext(ctx).Model(&authModel.RefreshTokenModel{}).
		Where("token_hash = ? AND revoked_at IS NULL", hash).
		Update("revoked_at", now).Error
	return apperror.FromDB(err, "refresh token")
}

func (r *AuthRepository) RevokeUserRefreshTokens(ctx context.Context, userID uuid.UUID, now time.Time) error {
	err := r.db.WithContext(ctx).Model(&authModel.RefreshTokenModel{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now).Error
	return apperror.FromDB(err, "refresh token")
}

// DeleteExpiredRefreshTokens removes tokens expired or revoked before cutoff.
func (r *AuthRepository) DeleteExpiredRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at < ?", cutoff, cutoff).
		Delete(&authModel.RefreshTokenModel{})
	return res.RowsAffected, apperror.FromDB(res.Error, "refresh token")
}

/* ====================== BLACKLIST ====================== */

func (r *AuthRepository) BlacklistToken(ctx context.Context, hash string, expiresAt time.Time) error {
	row := authModel.TokenBlacklistModel{Token: hash, ExpiredAt: expiresAt}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token"}}, DoNothing: true}).
		Create(&row).Error
	return apperror.FromDB(err, "token blacklist")
}

func (r *AuthRepository) IsTokenBlacklisted(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := r.db.WithContext(ctx).
		Raw(`SELECT EXISTS(SELECT 1 FROM token_blacklist WHERE token = ? AND deleted_at IS NULL)`, hash).
		Scan(&exists).Error
	if err != nil {
		return false, apperror.FromDB(err, "token blacklist")
	}
	return exists, nil
}

// CleanupExpiredBlacklist hard-deletes entries whose access token expired before cutoff.
func (r *AuthRepository) CleanupExpiredBlacklist(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Unscoped().
		Where("expired_at < ?", cutoff).
		Delete(&authModel.TokenBlacklistModel{})
	return res.RowsAffected, apperror.FromDB(res.Error, "token blacklist")
}
