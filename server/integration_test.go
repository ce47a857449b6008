package server

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/gavv/httpexpect/v2"

	"github.com/authgate/authgate/email"
	"github.com/authgate/authgate/models"
)

// capturingSender keeps the last token mail per flow so tests can read the
// tokens that would normally leave over SMTP.
type capturingSender struct {
	mu           sync.Mutex
	verification email.VerificationEmailData
	reset        email.VerificationEmailData
}

func (s *capturingSender) SendVerification(_ context.Context, data email.VerificationEmailData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verification = data
	return nil
}

func (s *capturingSender) SendPasswordReset(_ context.Context, data email.VerificationEmailData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset = data
	return nil
}

func (s *capturingSender) SendEmail(context.Context, email.EmailData) error { return nil }
func (s *capturingSender) Health(context.Context) error                     { return nil }
func (s *capturingSender) ProviderType() email.ProviderType                 { return "capture" }

func (s *capturingSender) lastVerification() email.VerificationEmailData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verification
}

func (s *capturingSender) lastReset() email.VerificationEmailData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reset
}

func setupFlow(t *testing.T) (*Server, *httpexpect.Expect, *capturingSender) {
	t.Helper()
	s := newDBServer(t)
	mailer := &capturingSender{}
	s.Mailer = mailer
	e := newExpect(t, s)
	e.POST("/test/setup").Expect().Status(http.StatusCreated)
	return s, e, mailer
}

func login(e *httpexpect.Expect, emailAddr, password string) *httpexpect.Object {
	return e.POST("/auth/login").
		WithJSON(map[string]string{"email": emailAddr, "password": password}).
		Expect().Status(http.StatusCreated).
		JSON().Object()
}

func bearer(tokens *httpexpect.Object) string {
	return "Bearer " + tokens.Value("access_token").String().Raw()
}

func TestEndToEnd_LoginAndGates(t *testing.T) {
	_, e, _ := setupFlow(t)

	adminTokens := login(e, "test-1@test.com", "password")
	adminTokens.ContainsKey("refresh_token").ContainsKey("expires_at")

	e.GET("/auth/user").WithHeader("Authorization", bearer(adminTokens)).
		Expect().Status(http.StatusOK).
		JSON().Object().HasValue("email", "test-1@test.com")

	// Admin clears all three gates on user management.
	e.GET("/users").WithHeader("Authorization", bearer(adminTokens)).
		Expect().Status(http.StatusOK).
		JSON().Array().NotEmpty()

	// test-3 only has the user role: the role gate stops it.
	userTokens := login(e, "test-3@test.com", "password")
	e.GET("/users").WithHeader("Authorization", bearer(userTokens)).
		Expect().Status(http.StatusForbidden).
		JSON().Object().HasValue("message", "FORBIDDEN")

	// test-2 is a developer: role gate passes, and user.read is granted.
	devTokens := login(e, "test-2@test.com", "password")
	e.GET("/users").WithHeader("Authorization", bearer(devTokens)).
		Expect().Status(http.StatusOK)
	// But developers hold no user.create grant: the permission gate stops it.
	e.POST("/users").WithHeader("Authorization", bearer(devTokens)).
		WithJSON(map[string]string{"email": "blocked@test.local", "password": "Password1!", "first_name": "No", "last_name": "Entry"}).
		Expect().Status(http.StatusForbidden)

	// Wrong password and unknown email read identically.
	e.POST("/auth/login").
		WithJSON(map[string]string{"email": "test-1@test.com", "password": "wrong"}).
		Expect().Status(http.StatusUnauthorized)
	e.POST("/auth/login").
		WithJSON(map[string]string{"email": "ghost@test.com", "password": "password"}).
		Expect().Status(http.StatusUnauthorized)
}

func TestEndToEnd_RegisterVerifyFlow(t *testing.T) {
	_, e, mailer := setupFlow(t)

	// Weak passwords never reach the store.
	e.POST("/auth/register").
		WithJSON(map[string]string{"email": "new@test.local", "password": "weak", "first_name": "New", "last_name": "User"}).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().HasValue("message", "PASSWORD_TOO_WEAK")

	e.POST("/auth/register").
		WithJSON(map[string]string{"email": "new@test.local", "password": "Password1!", "first_name": "New", "last_name": "User"}).
		Expect().Status(http.StatusCreated).
		JSON().Object().
		HasValue("email", "new@test.local").
		HasValue("status", "unverified")

	// Duplicate registration is a 400.
	e.POST("/auth/register").
		WithJSON(map[string]string{"email": "new@test.local", "password": "Password1!", "first_name": "New", "last_name": "User"}).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().HasValue("message", "EMAIL_ALREADY_EXISTS")

	firstToken := mailer.lastVerification().Token
	if firstToken == "" {
		t.Fatal("registration should mail a verification token")
	}

	// Resend invalidates the first token.
	e.POST("/auth/resend-verification-email").
		WithJSON(map[string]string{"email": "new@test.local"}).
		Expect().Status(http.StatusCreated)
	secondToken := mailer.lastVerification().Token
	if secondToken == "" || secondToken == firstToken {
		t.Fatal("resend should mint a fresh token")
	}

	e.POST("/auth/verify-user-email").
		WithJSON(map[string]string{"email": "new@test.local", "token": firstToken}).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().HasValue("message", "INVALID_TOKEN")

	e.POST("/auth/verify-user-email").
		WithJSON(map[string]string{"email": "new@test.local", "token": secondToken}).
		Expect().Status(http.StatusCreated)

	// Verified accounts cannot request another verification mail.
	e.POST("/auth/resend-verification-email").
		WithJSON(map[string]string{"email": "new@test.local"}).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().HasValue("message", "USER_ALREADY_VERIFIED")

	tokens := login(e, "new@test.local", "Password1!")
	me := e.GET("/auth/user").WithHeader("Authorization", bearer(tokens)).
		Expect().Status(http.StatusOK).
		JSON().Object()
	me.HasValue("status", "active")
	me.Value("roles").Array().ContainsAny("user")
}

func TestEndToEnd_RefreshRotation(t *testing.T) {
	_, e, _ := setupFlow(t)

	tokens := login(e, "test-1@test.com", "password")
	oldAccess := tokens.Value("access_token").String().Raw()
	oldRefresh := tokens.Value("refresh_token").String().Raw()

	fresh := e.POST("/auth/refresh-token").
		WithJSON(map[string]string{"access_token": oldAccess, "refresh_token": oldRefresh}).
		Expect().Status(http.StatusCreated).
		JSON().Object()
	newAccess := fresh.Value("access_token").String().Raw()
	if newAccess == oldAccess {
		t.Fatal("refresh must mint a new access token")
	}

	// The superseded pair is revoked: neither refresh nor access works.
	e.POST("/auth/refresh-token").
		WithJSON(map[string]string{"access_token": oldAccess, "refresh_token": oldRefresh}).
		Expect().Status(http.StatusUnauthorized)
	e.GET("/auth/user").WithHeader("Authorization", "Bearer "+oldAccess).
		Expect().Status(http.StatusUnauthorized)

	e.GET("/auth/user").WithHeader("Authorization", "Bearer "+newAccess).
		Expect().Status(http.StatusOK)

	// Tokens from two different sessions do not combine.
	other := login(e, "test-1@test.com", "password")
	e.POST("/auth/refresh-token").
		WithJSON(map[string]string{
			"access_token":  newAccess,
			"refresh_token": other.Value("refresh_token").String().Raw(),
		}).
		Expect().Status(http.StatusUnauthorized)
}

func TestEndToEnd_Logout(t *testing.T) {
	_, e, _ := setupFlow(t)

	tokens := login(e, "test-3@test.com", "password")
	auth := bearer(tokens)

	e.GET("/auth/user").WithHeader("Authorization", auth).
		Expect().Status(http.StatusOK)
	e.POST("/auth/logout").WithHeader("Authorization", auth).
		Expect().Status(http.StatusCreated)
	// The signature is still valid but the record is gone.
	e.GET("/auth/user").WithHeader("Authorization", auth).
		Expect().Status(http.StatusUnauthorized)
	e.POST("/auth/logout").WithHeader("Authorization", auth).
		Expect().Status(http.StatusUnauthorized)
}

func TestEndToEnd_PasswordResetFlow(t *testing.T) {
	_, e, mailer := setupFlow(t)

	tokens := login(e, "test-3@test.com", "password")

	e.POST("/auth/forgot-password").
		WithJSON(map[string]string{"email": "test-3@test.com"}).
		Expect().Status(http.StatusCreated)
	resetToken := mailer.lastReset().Token
	if resetToken == "" {
		t.Fatal("forgot-password should mail a reset token")
	}

	// Unknown accounts surface as 404.
	e.POST("/auth/forgot-password").
		WithJSON(map[string]string{"email": "ghost@test.com"}).
		Expect().Status(http.StatusNotFound)

	e.POST("/auth/reset-password").
		WithJSON(map[string]string{"email": "test-3@test.com", "token": resetToken, "password": "weak"}).
		Expect().Status(http.StatusBadRequest)

	e.POST("/auth/reset-password").
		WithJSON(map[string]string{"email": "test-3@test.com", "token": resetToken, "password": "NewPassword1!"}).
		Expect().Status(http.StatusCreated)

	// Every pre-reset session is revoked.
	e.GET("/auth/user").WithHeader("Authorization", bearer(tokens)).
		Expect().Status(http.StatusUnauthorized)

	// The token burned with the reset.
	e.POST("/auth/reset-password").
		WithJSON(map[string]string{"email": "test-3@test.com", "token": resetToken, "password": "AnotherPassword1!"}).
		Expect().Status(http.StatusBadRequest)

	e.POST("/auth/login").
		WithJSON(map[string]string{"email": "test-3@test.com", "password": "password"}).
		Expect().Status(http.StatusUnauthorized)
	login(e, "test-3@test.com", "NewPassword1!")
}

func TestEndToEnd_ChangePassword(t *testing.T) {
	_, e, _ := setupFlow(t)

	tokens := login(e, "test-2@test.com", "password")
	auth := bearer(tokens)

	e.POST("/auth/change-password").WithHeader("Authorization", auth).
		WithJSON(map[string]string{"old_password": "wrong", "new_password": "NewPassword1!"}).
		Expect().Status(http.StatusUnauthorized)

	e.POST("/auth/change-password").WithHeader("Authorization", auth).
		WithJSON(map[string]string{"old_password": "password", "new_password": "NewPassword1!"}).
		Expect().Status(http.StatusCreated)

	login(e, "test-2@test.com", "NewPassword1!")
}

func TestEndToEnd_ChangeEmail(t *testing.T) {
	_, e, _ := setupFlow(t)

	// Self-service only: no token, no change.
	e.POST("/auth/change-email").
		WithJSON(map[string]string{"email": "moved@test.com"}).
		Expect().Status(http.StatusUnauthorized)

	tokens := login(e, "test-3@test.com", "password")
	auth := bearer(tokens)

	// Another account already holds this address.
	e.POST("/auth/change-email").WithHeader("Authorization", auth).
		WithJSON(map[string]string{"email": "test-1@test.com"}).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().HasValue("message", "EMAIL_ALREADY_EXISTS")

	e.POST("/auth/change-email").WithHeader("Authorization", auth).
		WithJSON(map[string]string{"email": "Moved@Test.com"}).
		Expect().Status(http.StatusCreated)

	// The address is stored lowercased and the old one is gone.
	e.POST("/auth/login").
		WithJSON(map[string]string{"email": "test-3@test.com", "password": "password"}).
		Expect().Status(http.StatusUnauthorized)
	moved := login(e, "moved@test.com", "password")
	e.GET("/auth/user").WithHeader("Authorization", bearer(moved)).
		Expect().Status(http.StatusOK).
		JSON().Object().HasValue("email", "moved@test.com")
}

func TestEndToEnd_RoleAssignment(t *testing.T) {
	s, e, _ := setupFlow(t)

	adminTokens := login(e, "test-1@test.com", "password")
	adminAuth := bearer(adminTokens)

	target, err := s.Users.FindByEmail(context.Background(), "test-3@test.com")
	if err != nil {
		t.Fatalf("seeded user missing: %v", err)
	}

	e.POST("/auth/assign-role").WithHeader("Authorization", adminAuth).
		WithJSON(map[string]string{"user_id": target.ID, "role_name": "moderator"}).
		Expect().Status(http.StatusCreated)

	// The role gate reads live assignments, so the pre-assignment token
	// carries the new role too, and moderator still fails admin/developer.
	modTokens := login(e, "test-3@test.com", "password")
	e.GET("/users").WithHeader("Authorization", bearer(modTokens)).
		Expect().Status(http.StatusForbidden) // moderator is not admin/developer

	e.POST("/auth/revoke-role").WithHeader("Authorization", adminAuth).
		WithJSON(map[string]string{"user_id": target.ID, "role_name": "moderator"}).
		Expect().Status(http.StatusCreated)

	// The plain user cannot assign roles at all.
	userTokens := login(e, "test-3@test.com", "password")
	e.POST("/auth/assign-role").WithHeader("Authorization", bearer(userTokens)).
		WithJSON(map[string]string{"user_id": target.ID, "role_name": "admin"}).
		Expect().Status(http.StatusForbidden)

	e.POST("/auth/assign-role").WithHeader("Authorization", adminAuth).
		WithJSON(map[string]string{"user_id": target.ID, "role_name": "superuser"}).
		Expect().Status(http.StatusBadRequest)
}

func TestEndToEnd_LivePermissionGate(t *testing.T) {
	s, e, _ := setupFlow(t)
	ctx := context.Background()

	adminTokens := login(e, "test-1@test.com", "password")
	adminAuth := bearer(adminTokens)
	devTokens := login(e, "test-2@test.com", "password")
	devAuth := bearer(devTokens)

	e.GET("/users").WithHeader("Authorization", devAuth).
		Expect().Status(http.StatusOK)

	developer, err := s.Roles.FindByName(ctx, models.RoleNameDeveloper)
	if err != nil {
		t.Fatalf("developer role missing: %v", err)
	}
	var userRead models.Permission
	if err := s.DB.Where("module = ? AND action = ?", models.ModuleUser, models.ActionRead).First(&userRead).Error; err != nil {
		t.Fatalf("user.read permission missing: %v", err)
	}

	// Flip the grant off: the developer's existing token stops working on
	// the permission-gated route without being reissued.
	e.PATCH("/roles/permissions/update").WithHeader("Authorization", adminAuth).
		WithJSON(map[string]interface{}{"role_id": developer.ID, "permission_id": userRead.ID, "can_do_the_action": false}).
		Expect().Status(http.StatusOK)
	e.GET("/users").WithHeader("Authorization", devAuth).
		Expect().Status(http.StatusForbidden)

	// And back on.
	e.PATCH("/roles/permissions/update").WithHeader("Authorization", adminAuth).
		WithJSON(map[string]interface{}{"role_id": developer.ID, "permission_id": userRead.ID, "can_do_the_action": true}).
		Expect().Status(http.StatusOK)
	e.GET("/users").WithHeader("Authorization", devAuth).
		Expect().Status(http.StatusOK)

	// Revoking the link entirely closes the gate too.
	e.POST("/roles/permissions/revoke").WithHeader("Authorization", adminAuth).
		WithJSON(map[string]string{"role_id": developer.ID, "permission_id": userRead.ID}).
		Expect().Status(http.StatusOK)
	e.GET("/users").WithHeader("Authorization", devAuth).
		Expect().Status(http.StatusForbidden)

	e.POST("/roles/permissions/assign").WithHeader("Authorization", adminAuth).
		WithJSON(map[string]string{"role_id": developer.ID, "permission_id": userRead.ID}).
		Expect().Status(http.StatusCreated)
	e.GET("/users").WithHeader("Authorization", devAuth).
		Expect().Status(http.StatusOK)
}

func TestEndToEnd_UserManagement(t *testing.T) {
	_, e, _ := setupFlow(t)

	adminTokens := login(e, "test-1@test.com", "password")
	adminAuth := bearer(adminTokens)

	created := e.POST("/users").WithHeader("Authorization", adminAuth).
		WithJSON(map[string]string{"email": "managed@test.local", "password": "Password1!", "first_name": "Managed", "last_name": "User"}).
		Expect().Status(http.StatusCreated).
		JSON().Object()
	created.HasValue("status", "active")
	id := created.Value("id").String().Raw()

	e.GET("/users/"+id).WithHeader("Authorization", adminAuth).
		Expect().Status(http.StatusOK).
		JSON().Object().HasValue("email", "managed@test.local")

	e.PATCH("/users/"+id).WithHeader("Authorization", adminAuth).
		WithJSON(map[string]string{"first_name": "Renamed", "status": "suspended"}).
		Expect().Status(http.StatusOK).
		JSON().Object().
		HasValue("first_name", "Renamed").
		HasValue("status", "suspended")

	e.PATCH("/users/"+id).WithHeader("Authorization", adminAuth).
		WithJSON(map[string]string{"status": "frozen"}).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().HasValue("message", "INVALID_USER_STATUS")

	e.GET("/users/not-a-uuid").WithHeader("Authorization", adminAuth).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().HasValue("message", "INVALID_USER_ID")

	e.DELETE("/users/"+id).WithHeader("Authorization", adminAuth).
		Expect().Status(http.StatusOK)
	e.GET("/users/"+id).WithHeader("Authorization", adminAuth).
		Expect().Status(http.StatusNotFound)
}

func TestEndToEnd_RoleAndPermissionCRUD(t *testing.T) {
	s, e, _ := setupFlow(t)
	ctx := context.Background()

	adminTokens := login(e, "test-1@test.com", "password")
	adminAuth := bearer(adminTokens)

	// Seeding over a seeded database is a no-op that reports the full sets.
	e.POST("/roles/seed").WithHeader("Authorization", adminAuth).
		Expect().Status(http.StatusCreated).
		JSON().Array().Length().IsEqual(len(models.SystemRoleNames()))
	e.POST("/permissions/seed").WithHeader("Authorization", adminAuth).
		Expect().Status(http.StatusCreated).
		JSON().Array().Length().
		IsEqual(len(models.PermissionModules()) * len(models.PermissionActions()))

	e.GET("/roles").WithHeader("Authorization", adminAuth).
		Expect().Status(http.StatusOK).
		JSON().Array().Length().IsEqual(len(models.SystemRoleNames()))

	e.POST("/roles").WithHeader("Authorization", adminAuth).
		WithJSON(map[string]string{"name": "admin"}).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().HasValue("message", "ROLE_ALREADY_EXISTS")
	e.POST("/roles").WithHeader("Authorization", adminAuth).
		WithJSON(map[string]string{"name": "superuser"}).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().HasValue("message", "INVALID_ROLE_NAME")

	moderator, err := s.Roles.FindByName(ctx, models.RoleNameModerator)
	if err != nil {
		t.Fatalf("moderator role missing: %v", err)
	}
	e.GET("/roles/"+moderator.ID).WithHeader("Authorization", adminAuth).
		Expect().Status(http.StatusOK).
		JSON().Object().HasValue("name", "moderator")

	e.POST("/permissions").WithHeader("Authorization", adminAuth).
		WithJSON(map[string]string{"action": "read", "module": "user"}).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().HasValue("message", "PERMISSION_ALREADY_EXISTS")
	e.POST("/permissions").WithHeader("Authorization", adminAuth).
		WithJSON(map[string]string{"action": "destroy", "module": "user"}).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().HasValue("message", "INVALID_PERMISSION_ACTION")

	e.GET("/permissions").WithHeader("Authorization", adminAuth).
		Expect().Status(http.StatusOK).
		JSON().Array().NotEmpty()

	// Deleting a role takes its grant and assignment links with it.
	e.DELETE("/roles/"+moderator.ID).WithHeader("Authorization", adminAuth).
		Expect().Status(http.StatusOK)
	e.GET("/roles/"+moderator.ID).WithHeader("Authorization", adminAuth).
		Expect().Status(http.StatusNotFound)
	var linkCount int64
	s.DB.Model(&models.RolePermission{}).Where("role_id = ?", moderator.ID).Count(&linkCount)
	if linkCount != 0 {
		t.Errorf("deleting a role should cascade its permission links, %d remain", linkCount)
	}
	s.DB.Model(&models.RoleUser{}).Where("role_id = ?", moderator.ID).Count(&linkCount)
	if linkCount != 0 {
		t.Errorf("deleting a role should cascade its user links, %d remain", linkCount)
	}
}
