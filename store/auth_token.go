package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/authgate/authgate/errs"
	"github.com/authgate/authgate/models"
)

// TokenRecords persists issued access/refresh pairs. Refresh and revocation
// check pairing against these records, not just cryptographic validity, so a
// leaked refresh token cannot be combined with an unrelated access token.
type TokenRecords interface {
	// Save persists a newly issued pair. TTL bounds how long the record is
	// kept; backends without expiry may ignore it.
	Save(ctx context.Context, rec models.AuthToken, ttl time.Duration) error
	// FindByAccess returns the record for an access token, or Unauthorized.
	FindByAccess(ctx context.Context, accessToken string) (*models.AuthToken, error)
	// FindPair returns the record only when both tokens were issued
	// together and the record still exists; Unauthorized otherwise.
	FindPair(ctx context.Context, accessToken, refreshToken string) (*models.AuthToken, error)
	// DeleteByAccess revokes the pair. Unknown token is Unauthorized.
	DeleteByAccess(ctx context.Context, accessToken string) error
	// DeleteByUser revokes every pair issued to a user.
	DeleteByUser(ctx context.Context, userID string) error
}

// AuthTokenStore is the gorm-backed TokenRecords implementation.
type AuthTokenStore struct{ DB *gorm.DB }

func NewAuthTokenStore(db *gorm.DB) *AuthTokenStore { return &AuthTokenStore{DB: db} }

func (s *AuthTokenStore) Save(ctx context.Context, rec models.AuthToken, _ time.Duration) error {
	if rec.ID == "" {
		rec.ID = models.NewID()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return s.DB.WithContext(ctx).Create(&rec).Error
}

func (s *AuthTokenStore) FindByAccess(ctx context.Context, accessToken string) (*models.AuthToken, error) {
	var rec models.AuthToken
	err := s.DB.WithContext(ctx).Where("access_token = ?", accessToken).First(&rec).Error
	if err != nil {
		if isNotFound(err) {
			return nil, errs.Unauthorized("UNAUTHORIZED")
		}
		return nil, err
	}
	return &rec, nil
}

func (s *AuthTokenStore) FindPair(ctx context.Context, accessToken, refreshToken string) (*models.AuthToken, error) {
	var rec models.AuthToken
	err := s.DB.WithContext(ctx).
		Where("access_token = ? AND refresh_token = ?", accessToken, refreshToken).
		First(&rec).Error
	if err != nil {
		if isNotFound(err) {
			return nil, errs.Unauthorized("UNAUTHORIZED")
		}
		return nil, err
	}
	return &rec, nil
}

func (s *AuthTokenStore) DeleteByAccess(ctx context.Context, accessToken string) error {
	res := s.DB.WithContext(ctx).Where("access_token = ?", accessToken).Delete(&models.AuthToken{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.Unauthorized("UNAUTHORIZED")
	}
	return nil
}

func (s *AuthTokenStore) DeleteByUser(ctx context.Context, userID string) error {
	return s.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.AuthToken{}).Error
}
