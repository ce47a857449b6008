// Package seed provisions the baseline RBAC data: the four system roles,
// the full permission matrix, the default grants each role carries, and the
// fixed test users. Every step is create-or-fetch, so running it against a
// populated database changes nothing.
package seed

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/authgate/authgate/models"
	"github.com/authgate/authgate/store"
)

// defaultGrants maps each system role to the permission keys it starts
// with. Admin gets the whole matrix, declared here as nil and expanded at
// run time so new permissions never need a matching edit.
var defaultGrants = map[models.RoleName][]string{
	models.RoleNameAdmin: nil, // all
	models.RoleNameModerator: {
		models.PermissionKey(models.ModuleUser, models.ActionRead),
		models.PermissionKey(models.ModuleUser, models.ActionUpdate),
		models.PermissionKey(models.ModuleRole, models.ActionRead),
		models.PermissionKey(models.ModulePermission, models.ActionRead),
	},
	models.RoleNameDeveloper: {
		models.PermissionKey(models.ModuleUser, models.ActionRead),
		models.PermissionKey(models.ModuleRole, models.ActionRead),
		models.PermissionKey(models.ModulePermission, models.ActionRead),
	},
	models.RoleNameUser: {
		models.PermissionKey(models.ModuleUser, models.ActionRead),
	},
}

// Run seeds roles, permissions, grants, and test users.
func Run(ctx context.Context, db *gorm.DB) error {
	roles := store.NewRoleStore(db)
	perms := store.NewPermissionStore(db)
	users := store.NewUserStore(db)

	seededRoles, err := roles.SeedSystemRoles(ctx)
	if err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	seededPerms, err := perms.Seed(ctx)
	if err != nil {
		return fmt.Errorf("seed permissions: %w", err)
	}

	byKey := make(map[string]*models.Permission, len(seededPerms))
	for i := range seededPerms {
		byKey[seededPerms[i].Key()] = &seededPerms[i]
	}
	byName := make(map[models.RoleName]*models.Role, len(seededRoles))
	for i := range seededRoles {
		byName[seededRoles[i].Name] = &seededRoles[i]
	}

	for name, keys := range defaultGrants {
		role, ok := byName[name]
		if !ok {
			return fmt.Errorf("seed grants: role %q missing after seeding", name)
		}
		if keys == nil {
			for i := range seededPerms {
				if _, err := roles.AssignPermission(ctx, role.ID, seededPerms[i].ID, true); err != nil {
					return fmt.Errorf("seed grants for %q: %w", name, err)
				}
			}
			continue
		}
		for _, key := range keys {
			perm, ok := byKey[key]
			if !ok {
				return fmt.Errorf("seed grants: permission %q missing after seeding", key)
			}
			if _, err := roles.AssignPermission(ctx, role.ID, perm.ID, true); err != nil {
				return fmt.Errorf("seed grants for %q: %w", name, err)
			}
		}
	}

	if _, err := users.SeedTestUsers(ctx); err != nil {
		return fmt.Errorf("seed test users: %w", err)
	}
	return nil
}

// Wipe removes every row the service owns, child tables first. Used by the
// end-to-end reset endpoint before reseeding.
func Wipe(ctx context.Context, db *gorm.DB) error {
	tables := []interface{}{
		&models.RolePermission{},
		&models.RoleUser{},
		&models.VerificationToken{},
		&models.AuthToken{},
		&models.User{},
		&models.Permission{},
		&models.Role{},
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Where("1 = 1").Delete(table).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
