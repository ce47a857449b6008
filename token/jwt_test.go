package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuer() *Issuer {
	return NewIssuer([]byte("test-secret"), 15*time.Minute, 7*24*time.Hour)
}

func TestIssuer_IssueAndValidate(t *testing.T) {
	iss := testIssuer()

	pair, err := iss.Issue("user-1", "user@test.com", []string{"admin", "user"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.ExpiresAt, 5*time.Second)

	claims, err := iss.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "user@test.com", claims.Email)
	assert.Equal(t, []string{"admin", "user"}, claims.Roles)
	assert.NotEmpty(t, claims.ID)

	refresh, err := iss.ValidateRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", refresh.Subject)
}

func TestIssuer_NilRolesBecomeEmpty(t *testing.T) {
	iss := testIssuer()

	pair, err := iss.Issue("user-2", "", nil)
	require.NoError(t, err)
	claims, err := iss.ValidateAccess(pair.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, claims.Roles)
	assert.Empty(t, claims.Roles)
}

func TestIssuer_RejectsWrongKey(t *testing.T) {
	iss := testIssuer()
	other := NewIssuer([]byte("other-secret"), 15*time.Minute, time.Hour)

	pair, err := iss.Issue("user-3", "u3@test.com", nil)
	require.NoError(t, err)

	_, err = other.ValidateAccess(pair.AccessToken)
	assert.Error(t, err)
	_, err = other.ValidateRefresh(pair.RefreshToken)
	assert.Error(t, err)
	// A forged signature is not excused by the expired-tolerant parser either.
	_, err = other.ParseAccessAllowExpired(pair.AccessToken)
	assert.Error(t, err)
}

func TestIssuer_RejectsGarbage(t *testing.T) {
	iss := testIssuer()

	_, err := iss.ValidateAccess("not.a.jwt")
	assert.Error(t, err)
	_, err = iss.ValidateRefresh("")
	assert.Error(t, err)
}

func TestIssuer_ExpiredAccess(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), -time.Minute, time.Hour)

	pair, err := iss.Issue("user-4", "u4@test.com", []string{"user"})
	require.NoError(t, err)

	_, err = iss.ValidateAccess(pair.AccessToken)
	assert.Error(t, err, "expired access token must not validate live")

	claims, err := iss.ParseAccessAllowExpired(pair.AccessToken)
	require.NoError(t, err, "refresh flow tolerates an expired access token")
	assert.Equal(t, "user-4", claims.Subject)
	assert.Equal(t, []string{"user"}, claims.Roles)
}

func TestIssuer_ExpiredRefresh(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), time.Hour, -time.Minute)

	pair, err := iss.Issue("user-5", "u5@test.com", nil)
	require.NoError(t, err)

	_, err = iss.ValidateRefresh(pair.RefreshToken)
	assert.Error(t, err, "expired refresh token must not validate")
}
