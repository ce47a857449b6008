package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gavv/httpexpect/v2"
	"github.com/gin-gonic/gin"

	"github.com/authgate/authgate/models"
)

// gateEngine registers one token-gated route and one role-gated route so the
// first two authorization gates can be exercised in isolation.
func gateEngine(s *Server) *gin.Engine {
	r := gin.New()
	r.GET("/whoami", s.TokenMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": GetUserIDFromContext(c),
			"roles":   GetRolesFromContext(c),
		})
	})
	r.GET("/admin", s.TokenMiddleware(),
		s.Require(RouteRequirement{Roles: []models.RoleName{models.RoleNameAdmin, models.RoleNameDeveloper}}),
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
	return r
}

// mintSession issues a pair and records it, mirroring what login does.
func mintSession(t *testing.T, s *Server, userID string, roles []string) (access, refresh string) {
	t.Helper()
	pair, err := s.Issuer.Issue(userID, userID+"@test.local", roles)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	rec := models.AuthToken{UserID: userID, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	if err := s.Tokens.Save(context.Background(), rec, s.Issuer.RefreshTTL); err != nil {
		t.Fatalf("save record: %v", err)
	}
	return pair.AccessToken, pair.RefreshToken
}

func TestTokenMiddleware(t *testing.T) {
	s := newMemoryServer()
	ts := httptest.NewServer(gateEngine(s))
	defer ts.Close()
	e := httpexpect.Default(t, ts.URL)

	t.Run("missing header", func(t *testing.T) {
		e.GET("/whoami").Expect().
			Status(http.StatusUnauthorized).
			JSON().Object().HasValue("statusCode", http.StatusUnauthorized)
	})

	t.Run("malformed header", func(t *testing.T) {
		e.GET("/whoami").WithHeader("Authorization", "Token abc").Expect().
			Status(http.StatusUnauthorized)
		e.GET("/whoami").WithHeader("Authorization", "Bearer").Expect().
			Status(http.StatusUnauthorized)
	})

	t.Run("garbage token", func(t *testing.T) {
		e.GET("/whoami").WithHeader("Authorization", "Bearer not.a.jwt").Expect().
			Status(http.StatusUnauthorized)
	})

	t.Run("valid signature without record", func(t *testing.T) {
		pair, err := s.Issuer.Issue("user-x", "x@test.local", nil)
		if err != nil {
			t.Fatalf("issue pair: %v", err)
		}
		// Never saved, so the first gate's record check rejects it.
		e.GET("/whoami").WithHeader("Authorization", "Bearer "+pair.AccessToken).Expect().
			Status(http.StatusUnauthorized)
	})

	t.Run("valid session", func(t *testing.T) {
		access, _ := mintSession(t, s, "user-1", []string{"user"})
		e.GET("/whoami").WithHeader("Authorization", "Bearer "+access).Expect().
			Status(http.StatusOK).
			JSON().Object().HasValue("user_id", "user-1")
	})

	t.Run("revoked session", func(t *testing.T) {
		access, _ := mintSession(t, s, "user-2", []string{"user"})
		e.GET("/whoami").WithHeader("Authorization", "Bearer "+access).Expect().
			Status(http.StatusOK)
		if err := s.Tokens.DeleteByAccess(context.Background(), access); err != nil {
			t.Fatalf("revoke: %v", err)
		}
		e.GET("/whoami").WithHeader("Authorization", "Bearer "+access).Expect().
			Status(http.StatusUnauthorized)
	})
}

// gateUser creates a fresh user with the given roles and returns its ID.
// Rows are removed again when the test finishes.
func gateUser(t *testing.T, s *Server, email string, roles ...string) string {
	t.Helper()
	ctx := context.Background()
	user, err := s.Users.Create(ctx, email, "Password1!", "Gate", "User", models.UserStatusActive)
	if err != nil {
		t.Fatalf("create %s: %v", email, err)
	}
	for _, role := range roles {
		if _, err := s.Users.AssignRoleByName(ctx, user.ID, role); err != nil {
			t.Fatalf("assign %s to %s: %v", role, email, err)
		}
	}
	t.Cleanup(func() {
		s.DB.Exec("DELETE FROM role_users WHERE user_id = ?", user.ID)
		s.DB.Exec("DELETE FROM auth_tokens WHERE user_id = ?", user.ID)
		s.DB.Exec("DELETE FROM users WHERE id = ?", user.ID)
	})
	return user.ID
}

func TestRoleGate(t *testing.T) {
	s := newDBServer(t)
	if _, err := s.Roles.SeedSystemRoles(context.Background()); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	ts := httptest.NewServer(gateEngine(s))
	defer ts.Close()
	e := httpexpect.Default(t, ts.URL)

	t.Run("role missing", func(t *testing.T) {
		id := gateUser(t, s, "gate-plain@test.local", "user")
		access, _ := mintSession(t, s, id, []string{"user"})
		e.GET("/admin").WithHeader("Authorization", "Bearer "+access).Expect().
			Status(http.StatusForbidden).
			JSON().Object().HasValue("message", "FORBIDDEN")
	})

	t.Run("no roles at all", func(t *testing.T) {
		id := gateUser(t, s, "gate-roleless@test.local")
		access, _ := mintSession(t, s, id, nil)
		e.GET("/admin").WithHeader("Authorization", "Bearer "+access).Expect().
			Status(http.StatusForbidden)
	})

	t.Run("admin passes", func(t *testing.T) {
		id := gateUser(t, s, "gate-admin@test.local", "admin", "user")
		access, _ := mintSession(t, s, id, []string{"admin", "user"})
		e.GET("/admin").WithHeader("Authorization", "Bearer "+access).Expect().
			Status(http.StatusOK)
	})

	t.Run("developer passes", func(t *testing.T) {
		id := gateUser(t, s, "gate-dev@test.local", "developer")
		access, _ := mintSession(t, s, id, []string{"developer"})
		e.GET("/admin").WithHeader("Authorization", "Bearer "+access).Expect().
			Status(http.StatusOK)
	})

	t.Run("token claims do not outlive a role revoke", func(t *testing.T) {
		id := gateUser(t, s, "gate-revoked@test.local", "admin")
		access, _ := mintSession(t, s, id, []string{"admin"})
		e.GET("/admin").WithHeader("Authorization", "Bearer "+access).Expect().
			Status(http.StatusOK)
		if err := s.Users.RevokeRoleByName(context.Background(), id, "admin"); err != nil {
			t.Fatalf("revoke role: %v", err)
		}
		e.GET("/admin").WithHeader("Authorization", "Bearer "+access).Expect().
			Status(http.StatusForbidden)
	})

	t.Run("claims alone never authorize", func(t *testing.T) {
		id := gateUser(t, s, "gate-claims-only@test.local", "user")
		// Forge a session whose claims say admin. The live store still says
		// user, and the store wins.
		access, _ := mintSession(t, s, id, []string{"admin"})
		e.GET("/admin").WithHeader("Authorization", "Bearer "+access).Expect().
			Status(http.StatusForbidden)
	})
}
