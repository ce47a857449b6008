package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/authgate/authgate/errs"
	"github.com/authgate/authgate/models"
)

// MemoryTokenRecords is an in-process TokenRecords backed by buntdb. It is
// the default for tests and single-node deployments that do not want a
// Valkey dependency; records expire via buntdb's native TTL.
type MemoryTokenRecords struct{ db *buntdb.DB }

func NewMemoryTokenRecords() (*MemoryTokenRecords, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, err
	}
	return &MemoryTokenRecords{db: db}, nil
}

// MustMemoryTokenRecords panics on open failure; ":memory:" cannot
// realistically fail, which keeps test setup terse.
func MustMemoryTokenRecords() *MemoryTokenRecords {
	ts, err := NewMemoryTokenRecords()
	if err != nil {
		panic(err)
	}
	return ts
}

func (ts *MemoryTokenRecords) Close() error { return ts.db.Close() }

func accessKey(token string) string      { return "access:" + tokenHash(token) }
func userKey(userID, hash string) string { return "user:" + userID + ":" + hash }
func userPrefix(userID string) string    { return "user:" + userID + ":" }

func (ts *MemoryTokenRecords) Save(_ context.Context, rec models.AuthToken, ttl time.Duration) error {
	if rec.ID == "" {
		rec.ID = models.NewID()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	jv, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	h := tokenHash(rec.AccessToken)
	var opts *buntdb.SetOptions
	if ttl > 0 {
		opts = &buntdb.SetOptions{Expires: true, TTL: ttl}
	}
	return ts.db.Update(func(tx *buntdb.Tx) error {
		if _, _, err := tx.Set("access:"+h, string(jv), opts); err != nil {
			return err
		}
		_, _, err := tx.Set(userKey(rec.UserID, h), "1", opts)
		return err
	})
}

func (ts *MemoryTokenRecords) FindByAccess(_ context.Context, accessToken string) (*models.AuthToken, error) {
	var rec models.AuthToken
	err := ts.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(accessKey(accessToken))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(val), &rec)
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil, errs.Unauthorized("UNAUTHORIZED")
		}
		return nil, err
	}
	return &rec, nil
}

func (ts *MemoryTokenRecords) FindPair(ctx context.Context, accessToken, refreshToken string) (*models.AuthToken, error) {
	rec, err := ts.FindByAccess(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if rec.RefreshToken != refreshToken {
		return nil, errs.Unauthorized("UNAUTHORIZED")
	}
	return rec, nil
}

func (ts *MemoryTokenRecords) DeleteByAccess(ctx context.Context, accessToken string) error {
	rec, err := ts.FindByAccess(ctx, accessToken)
	if err != nil {
		return err
	}
	h := tokenHash(accessToken)
	return ts.db.Update(func(tx *buntdb.Tx) error {
		if _, err := tx.Delete("access:" + h); err != nil && !errors.Is(err, buntdb.ErrNotFound) {
			return err
		}
		if _, err := tx.Delete(userKey(rec.UserID, h)); err != nil && !errors.Is(err, buntdb.ErrNotFound) {
			return err
		}
		return nil
	})
}

func (ts *MemoryTokenRecords) DeleteByUser(_ context.Context, userID string) error {
	prefix := userPrefix(userID)
	var hashes []string
	err := ts.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(prefix+"*", func(key, _ string) bool {
			hashes = append(hashes, strings.TrimPrefix(key, prefix))
			return true
		})
	})
	if err != nil {
		return err
	}
	return ts.db.Update(func(tx *buntdb.Tx) error {
		for _, h := range hashes {
			if _, err := tx.Delete("access:" + h); err != nil && !errors.Is(err, buntdb.ErrNotFound) {
				return err
			}
			if _, err := tx.Delete(prefix + h); err != nil && !errors.Is(err, buntdb.ErrNotFound) {
				return err
			}
		}
		return nil
	})
}
