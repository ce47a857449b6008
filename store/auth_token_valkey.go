package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	valkey "github.com/valkey-io/valkey-go"

	"github.com/authgate/authgate/errs"
	"github.com/authgate/authgate/models"
)

// ValkeyTokenRecords keeps token pairs in Valkey (Redis-compatible) with
// native TTL expiry, so stale records vanish without a sweeper.
type ValkeyTokenRecords struct {
	client valkey.Client
	prefix string
}

// NewValkeyTokenRecords connects to a Valkey instance.
// addr example: "127.0.0.1:6379"; prefix namespaces keys.
func NewValkeyTokenRecords(addr string, prefix string) (*ValkeyTokenRecords, error) {
	cli, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "authgate:"
	}
	return &ValkeyTokenRecords{client: cli, prefix: prefix}, nil
}

func (ts *ValkeyTokenRecords) key(k string) string { return ts.prefix + k }

// tokenHash returns a stable hex sha256 for a token string; tokens are JWTs
// and too long to use as keys directly.
func tokenHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func (ts *ValkeyTokenRecords) Save(ctx context.Context, rec models.AuthToken, ttl time.Duration) error {
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
	accessH := tokenHash(rec.AccessToken)
	if err := ts.client.Do(ctx, ts.client.B().Set().Key(ts.key("access:"+accessH)).Value(string(jv)).Ex(ttl).Build()).Error(); err != nil {
		return err
	}
	// user index for DeleteByUser
	return ts.client.Do(ctx, ts.client.B().Sadd().Key(ts.key("user:"+rec.UserID)).Member(accessH).Build()).Error()
}

func (ts *ValkeyTokenRecords) getByAccessHash(ctx context.Context, accessH string) (*models.AuthToken, error) {
	res := ts.client.Do(ctx, ts.client.B().Get().Key(ts.key("access:"+accessH)).Build())
	if res.Error() != nil {
		return nil, errs.Unauthorized("UNAUTHORIZED")
	}
	val, err := res.ToString()
	if err != nil || val == "" {
		return nil, errs.Unauthorized("UNAUTHORIZED")
	}
	var rec models.AuthToken
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (ts *ValkeyTokenRecords) FindByAccess(ctx context.Context, accessToken string) (*models.AuthToken, error) {
	if accessToken == "" {
		return nil, errs.Unauthorized("UNAUTHORIZED")
	}
	return ts.getByAccessHash(ctx, tokenHash(accessToken))
}

func (ts *ValkeyTokenRecords) FindPair(ctx context.Context, accessToken, refreshToken string) (*models.AuthToken, error) {
	rec, err := ts.FindByAccess(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if rec.RefreshToken != refreshToken {
		return nil, errs.Unauthorized("UNAUTHORIZED")
	}
	return rec, nil
}

func (ts *ValkeyTokenRecords) DeleteByAccess(ctx context.Context, accessToken string) error {
	accessH := tokenHash(accessToken)
	rec, err := ts.getByAccessHash(ctx, accessH)
	if err != nil {
		return err
	}
	if err := ts.client.Do(ctx, ts.client.B().Del().Key(ts.key("access:"+accessH)).Build()).Error(); err != nil {
		return err
	}
	return ts.client.Do(ctx, ts.client.B().Srem().Key(ts.key("user:"+rec.UserID)).Member(accessH).Build()).Error()
}

func (ts *ValkeyTokenRecords) DeleteByUser(ctx context.Context, userID string) error {
	res := ts.client.Do(ctx, ts.client.B().Smembers().Key(ts.key("user:"+userID)).Build())
	if res.Error() != nil {
		return nil
	}
	hashes, err := res.AsStrSlice()
	if err != nil {
		return err
	}
	for _, h := range hashes {
		if err := ts.client.Do(ctx, ts.client.B().Del().Key(ts.key("access:"+h)).Build()).Error(); err != nil {
			return err
		}
	}
	return ts.client.Do(ctx, ts.client.B().Del().Key(ts.key("user:"+userID)).Build()).Error()
}
