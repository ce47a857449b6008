package store

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/authgate/authgate/errs"
	"github.com/authgate/authgate/models"
)

// RoleStore provides operations for roles and their permission links.
type RoleStore struct{ DB *gorm.DB }

func NewRoleStore(db *gorm.DB) *RoleStore { return &RoleStore{DB: db} }

// Create inserts a role. The name must come from the closed enumeration and
// not collide with an existing role.
func (s *RoleStore) Create(ctx context.Context, name string) (*models.Role, error) {
	name = strings.TrimSpace(name)
	if !models.IsValidRoleName(name) {
		return nil, errs.InvalidInput("INVALID_ROLE_NAME")
	}
	now := time.Now().UTC()
	role := models.Role{ID: models.NewID(), Name: models.RoleName(name), CreatedAt: now, UpdatedAt: now}
	if err := s.DB.WithContext(ctx).Create(&role).Error; err != nil {
		if isDuplicate(err) {
			return nil, errs.Conflict("ROLE_ALREADY_EXISTS")
		}
		return nil, err
	}
	return &role, nil
}

// FindAll returns every role with its permission and user links eager-loaded.
func (s *RoleStore) FindAll(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := s.DB.WithContext(ctx).
		Preload("RolePermissions.Permission").
		Preload("RoleUsers.User").
		Order("name ASC").
		Find(&roles).Error
	return roles, err
}

// FindByID returns one role with links eager-loaded, NotFound if absent, or
// InvalidInput when the id is malformed.
func (s *RoleStore) FindByID(ctx context.Context, id string) (*models.Role, error) {
	if !models.IsValidID(id) {
		return nil, errs.InvalidInput("INVALID_ROLE_ID")
	}
	var role models.Role
	err := s.DB.WithContext(ctx).
		Preload("RolePermissions.Permission").
		Preload("RoleUsers.User").
		Where("id = ?", id).
		First(&role).Error
	if err != nil {
		if isNotFound(err) {
			return nil, errs.NotFound("ROLE_NOT_FOUND")
		}
		return nil, err
	}
	return &role, nil
}

// FindByName looks a role up by its enumerated name.
func (s *RoleStore) FindByName(ctx context.Context, name models.RoleName) (*models.Role, error) {
	var role models.Role
	err := s.DB.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if err != nil {
		if isNotFound(err) {
			return nil, errs.NotFound("ROLE_NOT_FOUND")
		}
		return nil, err
	}
	return &role, nil
}

// Update renames a role within the closed enumeration.
func (s *RoleStore) Update(ctx context.Context, id, name string) (*models.Role, error) {
	if !models.IsValidID(id) {
		return nil, errs.InvalidInput("INVALID_ROLE_ID")
	}
	if !models.IsValidRoleName(name) {
		return nil, errs.InvalidInput("INVALID_ROLE_NAME")
	}
	res := s.DB.WithContext(ctx).Model(&models.Role{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return nil, errs.Conflict("ROLE_NAME_ALREADY_EXISTS")
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errs.NotFound("ROLE_NOT_FOUND")
	}
	return s.FindByID(ctx, id)
}

// Delete removes a role. Link rows go first so the role row never leaves
// dangling references: role_permissions, then role_users, then the role.
func (s *RoleStore) Delete(ctx context.Context, id string) error {
	if !models.IsValidID(id) {
		return errs.InvalidInput("INVALID_ROLE_ID")
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", id).Delete(&models.RoleUser{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Role{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.NotFound("ROLE_NOT_FOUND")
		}
		return nil
	})
}

// SeedSystemRoles creates each of the fixed role names, fetching the
// existing row on conflict. Running it twice yields the same four roles.
func (s *RoleStore) SeedSystemRoles(ctx context.Context) ([]models.Role, error) {
	var out []models.Role
	for _, name := range models.SystemRoleNames() {
		now := time.Now().UTC()
		role := models.Role{ID: models.NewID(), Name: name, CreatedAt: now, UpdatedAt: now}
		err := s.DB.WithContext(ctx).Create(&role).Error
		if err == nil {
			out = append(out, role)
			continue
		}
		if !isDuplicate(err) {
			return nil, err
		}
		var existing models.Role
		if ferr := s.DB.WithContext(ctx).Where("name = ?", name).First(&existing).Error; ferr != nil {
			if isNotFound(ferr) {
				continue
			}
			return nil, ferr
		}
		out = append(out, existing)
	}
	return out, nil
}

// AssignPermission links a permission to a role. Both sides must exist; a
// pre-existing link has its can_do_the_action flag updated instead, so
// assigning twice never creates two rows.
func (s *RoleStore) AssignPermission(ctx context.Context, roleID, permissionID string, canDo bool) (*models.RolePermission, error) {
	if !models.IsValidID(roleID) {
		return nil, errs.InvalidInput("INVALID_ROLE_ID")
	}
	if !models.IsValidID(permissionID) {
		return nil, errs.InvalidInput("INVALID_PERMISSION_ID")
	}
	var role models.Role
	if err := s.DB.WithContext(ctx).Where("id = ?", roleID).First(&role).Error; err != nil {
		if isNotFound(err) {
			return nil, errs.NotFound("ROLE_NOT_FOUND")
		}
		return nil, err
	}
	var perm models.Permission
	if err := s.DB.WithContext(ctx).Where("id = ?", permissionID).First(&perm).Error; err != nil {
		if isNotFound(err) {
			return nil, errs.NotFound("PERMISSION_NOT_FOUND")
		}
		return nil, err
	}

	now := time.Now().UTC()
	link := models.RolePermission{
		ID:             models.NewID(),
		RoleID:         roleID,
		PermissionID:   permissionID,
		CanDoTheAction: canDo,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := s.DB.WithContext(ctx).Create(&link).Error
	if err == nil {
		return &link, nil
	}
	if !isDuplicate(err) {
		return nil, err
	}
	// Conflict: switch the create into an update of the existing link.
	if uerr := s.DB.WithContext(ctx).Model(&models.RolePermission{}).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Updates(map[string]interface{}{"can_do_the_action": canDo, "updated_at": now}).Error; uerr != nil {
		return nil, uerr
	}
	var existing models.RolePermission
	if ferr := s.DB.WithContext(ctx).Where("role_id = ? AND permission_id = ?", roleID, permissionID).First(&existing).Error; ferr != nil {
		return nil, ferr
	}
	return &existing, nil
}

// RevokePermission deletes the role/permission link. Revoking a link that
// does not exist is success, not an error.
func (s *RoleStore) RevokePermission(ctx context.Context, roleID, permissionID string) error {
	if !models.IsValidID(roleID) {
		return errs.InvalidInput("INVALID_ROLE_ID")
	}
	if !models.IsValidID(permissionID) {
		return errs.InvalidInput("INVALID_PERMISSION_ID")
	}
	return s.DB.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&models.RolePermission{}).Error
}

// UpdatePermission changes the flag on an existing link only.
func (s *RoleStore) UpdatePermission(ctx context.Context, roleID, permissionID string, canDo bool) (*models.RolePermission, error) {
	if !models.IsValidID(roleID) {
		return nil, errs.InvalidInput("INVALID_ROLE_ID")
	}
	if !models.IsValidID(permissionID) {
		return nil, errs.InvalidInput("INVALID_PERMISSION_ID")
	}
	res := s.DB.WithContext(ctx).Model(&models.RolePermission{}).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Updates(map[string]interface{}{"can_do_the_action": canDo, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errs.NotFound("ROLE_PERMISSION_ASSIGNMENT_NOT_FOUND")
	}
	var link models.RolePermission
	if err := s.DB.WithContext(ctx).Where("role_id = ? AND permission_id = ?", roleID, permissionID).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// GrantedPermissionKeys returns the "module.action" keys granted to a user
// through all roles whose links carry can_do_the_action = true. Reads from
// the store on every call so grants take effect immediately.
func (s *RoleStore) GrantedPermissionKeys(ctx context.Context, userID string) ([]string, error) {
	var perms []models.Permission
	err := s.DB.WithContext(ctx).
		Table("permissions p").
		Select("p.*").
		Joins("JOIN role_permissions rp ON rp.permission_id = p.id AND rp.can_do_the_action = ?", true).
		Joins("JOIN role_users ru ON ru.role_id = rp.role_id").
		Where("ru.user_id = ?", userID).
		Scan(&perms).Error
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(perms))
	seen := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		k := p.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys, nil
}

// RoleNamesForUser returns the names of every role the user holds.
func (s *RoleStore) RoleNamesForUser(ctx context.Context, userID string) ([]string, error) {
	var names []string
	err := s.DB.WithContext(ctx).
		Table("roles r").
		Select("r.name").
		Joins("JOIN role_users ru ON ru.role_id = r.id").
		Where("ru.user_id = ?", userID).
		Order("r.name ASC").
		Scan(&names).Error
	return names, err
}
