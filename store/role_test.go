package store

import (
	"context"
	"testing"

	"github.com/authgate/authgate/errs"
	"github.com/authgate/authgate/models"
)

func TestRoleStore_SeedSystemRoles_Idempotent(t *testing.T) {
	db := getTestGormDB(t)
	roles := NewRoleStore(db)
	ctx := context.Background()

	first, err := roles.SeedSystemRoles(ctx)
	if err != nil {
		t.Fatalf("SeedSystemRoles failed: %v", err)
	}
	second, err := roles.SeedSystemRoles(ctx)
	if err != nil {
		t.Fatalf("second SeedSystemRoles failed: %v", err)
	}
	if len(first) != len(models.SystemRoleNames()) || len(second) != len(first) {
		t.Errorf("expected %d roles both passes, got %d then %d",
			len(models.SystemRoleNames()), len(first), len(second))
	}
	byID := map[string]bool{}
	for _, r := range second {
		byID[r.ID] = true
	}
	for _, r := range first {
		if !byID[r.ID] {
			t.Errorf("role %s changed identity between seed passes", r.Name)
		}
	}
}

func TestRoleStore_Create_Validation(t *testing.T) {
	db := getTestGormDB(t)
	roles := NewRoleStore(db)
	ctx := context.Background()

	if _, err := roles.Create(ctx, "superuser"); err == nil {
		t.Error("names outside the closed set should be rejected")
	} else if e, ok := errs.As(err); !ok || e.Message != "INVALID_ROLE_NAME" {
		t.Errorf("expected INVALID_ROLE_NAME, got %v", err)
	}

	if _, err := roles.SeedSystemRoles(ctx); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	if _, err := roles.Create(ctx, "admin"); err == nil {
		t.Error("duplicate role name should conflict")
	} else if e, ok := errs.As(err); !ok || e.Message != "ROLE_ALREADY_EXISTS" {
		t.Errorf("expected ROLE_ALREADY_EXISTS, got %v", err)
	}
}

func TestRoleStore_FindByID_Malformed(t *testing.T) {
	db := getTestGormDB(t)
	roles := NewRoleStore(db)

	_, err := roles.FindByID(context.Background(), "nope")
	if e, ok := errs.As(err); !ok || e.Message != "INVALID_ROLE_ID" {
		t.Errorf("expected INVALID_ROLE_ID, got %v", err)
	}
}

func TestRoleStore_PermissionLinks(t *testing.T) {
	db := getTestGormDB(t)
	roles := NewRoleStore(db)
	perms := NewPermissionStore(db)
	users := NewUserStore(db)
	ctx := context.Background()

	if _, err := roles.SeedSystemRoles(ctx); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	if _, err := perms.Seed(ctx); err != nil {
		t.Fatalf("seed permissions: %v", err)
	}

	moderator, err := roles.FindByName(ctx, models.RoleNameModerator)
	if err != nil {
		t.Fatalf("moderator missing: %v", err)
	}
	var perm models.Permission
	if err := db.Where("module = ? AND action = ?", models.ModuleRole, models.ActionDelete).First(&perm).Error; err != nil {
		t.Fatalf("role.delete permission missing: %v", err)
	}
	defer db.Exec(`DELETE FROM role_permissions WHERE role_id = ? AND permission_id = ?`, moderator.ID, perm.ID)

	email := uniqueTestEmail("links")
	defer cleanupUser(users, email)
	user, err := users.Create(ctx, email, "Password1!", "A", "B", models.UserStatusActive)
	if err != nil {
		t.Fatalf("Create user failed: %v", err)
	}
	if _, err := users.AssignRoleByName(ctx, user.ID, "moderator"); err != nil {
		t.Fatalf("assign role: %v", err)
	}

	link, err := roles.AssignPermission(ctx, moderator.ID, perm.ID, true)
	if err != nil {
		t.Fatalf("AssignPermission failed: %v", err)
	}
	if !link.CanDoTheAction {
		t.Error("flag should be true after assign")
	}

	keys, err := roles.GrantedPermissionKeys(ctx, user.ID)
	if err != nil {
		t.Fatalf("GrantedPermissionKeys failed: %v", err)
	}
	if !containsString(keys, perm.Key()) {
		t.Errorf("granted keys %v should include %s", keys, perm.Key())
	}

	// Re-assigning with false flips the flag on the existing link.
	link2, err := roles.AssignPermission(ctx, moderator.ID, perm.ID, false)
	if err != nil {
		t.Fatalf("second AssignPermission failed: %v", err)
	}
	if link2.ID != link.ID {
		t.Error("re-assign should reuse the existing link row")
	}
	if link2.CanDoTheAction {
		t.Error("flag should be false after re-assign")
	}
	keys, _ = roles.GrantedPermissionKeys(ctx, user.ID)
	if containsString(keys, perm.Key()) {
		t.Errorf("a false flag must not grant %s", perm.Key())
	}

	upd, err := roles.UpdatePermission(ctx, moderator.ID, perm.ID, true)
	if err != nil {
		t.Fatalf("UpdatePermission failed: %v", err)
	}
	if !upd.CanDoTheAction {
		t.Error("flag should be true after update")
	}

	if err := roles.RevokePermission(ctx, moderator.ID, perm.ID); err != nil {
		t.Fatalf("RevokePermission failed: %v", err)
	}
	// Revoking an absent link is still success.
	if err := roles.RevokePermission(ctx, moderator.ID, perm.ID); err != nil {
		t.Errorf("revoking twice should not error: %v", err)
	}
	if _, err := roles.UpdatePermission(ctx, moderator.ID, perm.ID, true); err == nil {
		t.Error("updating a revoked link should fail")
	} else if e, ok := errs.As(err); !ok || e.Kind != errs.KindNotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}
