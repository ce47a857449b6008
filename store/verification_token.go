package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/authgate/authgate/errs"
	"github.com/authgate/authgate/models"
)

// VerificationTokenStore manages single-use tokens for email verification
// and password reset. Issuing a new token invalidates any outstanding token
// for the same user and purpose, so only the latest email link works.
type VerificationTokenStore struct{ DB *gorm.DB }

func NewVerificationTokenStore(db *gorm.DB) *VerificationTokenStore {
	return &VerificationTokenStore{DB: db}
}

// Issue creates a fresh token for the user. ttl bounds how long the token
// may be consumed.
func (s *VerificationTokenStore) Issue(ctx context.Context, userID string, purpose models.VerificationPurpose, ttl time.Duration) (*models.VerificationToken, error) {
	now := time.Now().UTC()
	rec := models.VerificationToken{
		ID:        models.NewID(),
		UserID:    userID,
		Token:     models.NewID(),
		Purpose:   purpose,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND purpose = ?", userID, purpose).
			Delete(&models.VerificationToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Consume validates and burns a token. The token must belong to the user,
// match the purpose, and not be expired; expired tokens are removed as a
// side effect. Any failure reads the same to the caller so a probing client
// cannot distinguish wrong token from expired token.
func (s *VerificationTokenStore) Consume(ctx context.Context, userID, token string, purpose models.VerificationPurpose) error {
	var rec models.VerificationToken
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND token = ? AND purpose = ?", userID, token, purpose).
		First(&rec).Error
	if err != nil {
		if isNotFound(err) {
			return errs.InvalidInput("INVALID_TOKEN")
		}
		return err
	}
	if time.Now().UTC().After(rec.ExpiresAt) {
		if err := s.DB.WithContext(ctx).Delete(&models.VerificationToken{}, "id = ?", rec.ID).Error; err != nil {
			return err
		}
		return errs.InvalidInput("INVALID_TOKEN")
	}
	return s.DB.WithContext(ctx).Delete(&models.VerificationToken{}, "id = ?", rec.ID).Error
}

// DeleteByUser drops every outstanding token for a user, for account
// deletion and test resets.
func (s *VerificationTokenStore) DeleteByUser(ctx context.Context, userID string) error {
	return s.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.VerificationToken{}).Error
}
