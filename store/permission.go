package store

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/authgate/authgate/errs"
	"github.com/authgate/authgate/models"
)

// PermissionStore provides operations for permissions.
type PermissionStore struct{ DB *gorm.DB }

func NewPermissionStore(db *gorm.DB) *PermissionStore { return &PermissionStore{DB: db} }

// Create inserts a new permission. The (action, module) pair must be part
// of the closed enumerations and not already present.
func (s *PermissionStore) Create(ctx context.Context, action, module string) (*models.Permission, error) {
	action = strings.TrimSpace(action)
	module = strings.TrimSpace(module)
	if !models.IsValidAction(action) {
		return nil, errs.InvalidInput("INVALID_PERMISSION_ACTION")
	}
	if !models.IsValidModule(module) {
		return nil, errs.InvalidInput("INVALID_PERMISSION_MODULE")
	}
	now := time.Now().UTC()
	perm := models.Permission{
		ID:        models.NewID(),
		Action:    models.PermissionAction(action),
		Module:    models.PermissionModule(module),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.DB.WithContext(ctx).Create(&perm).Error; err != nil {
		if isDuplicate(err) {
			return nil, errs.Conflict("PERMISSION_ALREADY_EXISTS")
		}
		return nil, err
	}
	return &perm, nil
}

// FindAll returns every permission ordered by module then action.
func (s *PermissionStore) FindAll(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission
	err := s.DB.WithContext(ctx).Order("module ASC, action ASC").Find(&perms).Error
	return perms, err
}

// FindByID returns one permission or NotFound.
func (s *PermissionStore) FindByID(ctx context.Context, id string) (*models.Permission, error) {
	if !models.IsValidID(id) {
		return nil, errs.InvalidInput("INVALID_PERMISSION_ID")
	}
	var perm models.Permission
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&perm).Error; err != nil {
		if isNotFound(err) {
			return nil, errs.NotFound("PERMISSION_NOT_FOUND")
		}
		return nil, err
	}
	return &perm, nil
}

// Update changes the action and/or module of an existing permission.
func (s *PermissionStore) Update(ctx context.Context, id string, action, module *string) (*models.Permission, error) {
	perm, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if action != nil {
		if !models.IsValidAction(*action) {
			return nil, errs.InvalidInput("INVALID_PERMISSION_ACTION")
		}
		updates["action"] = *action
	}
	if module != nil {
		if !models.IsValidModule(*module) {
			return nil, errs.InvalidInput("INVALID_PERMISSION_MODULE")
		}
		updates["module"] = *module
	}
	if err := s.DB.WithContext(ctx).Model(&models.Permission{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		if isDuplicate(err) {
			return nil, errs.Conflict("PERMISSION_ALREADY_EXISTS")
		}
		return nil, err
	}
	return s.FindByID(ctx, perm.ID)
}

// Delete removes a permission or answers NotFound.
func (s *PermissionStore) Delete(ctx context.Context, id string) error {
	if !models.IsValidID(id) {
		return errs.InvalidInput("INVALID_PERMISSION_ID")
	}
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Permission{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("PERMISSION_NOT_FOUND")
	}
	return nil
}

// Seed creates the full module x action matrix. Idempotent: a uniqueness
// conflict falls back to fetching the winning row. Returns the rows that
// exist after the pass.
func (s *PermissionStore) Seed(ctx context.Context) ([]models.Permission, error) {
	var out []models.Permission
	for _, module := range models.PermissionModules() {
		for _, action := range models.PermissionActions() {
			perm, err := s.createOrFetch(ctx, action, module)
			if err != nil {
				return nil, err
			}
			if perm != nil {
				out = append(out, *perm)
			}
		}
	}
	return out, nil
}

func (s *PermissionStore) createOrFetch(ctx context.Context, action models.PermissionAction, module models.PermissionModule) (*models.Permission, error) {
	now := time.Now().UTC()
	perm := models.Permission{
		ID:        models.NewID(),
		Action:    action,
		Module:    module,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.DB.WithContext(ctx).Create(&perm).Error
	if err == nil {
		return &perm, nil
	}
	if !isDuplicate(err) {
		return nil, err
	}
	var existing models.Permission
	ferr := s.DB.WithContext(ctx).Where("action = ? AND module = ?", action, module).First(&existing).Error
	if ferr != nil {
		if isNotFound(ferr) {
			return nil, nil
		}
		return nil, ferr
	}
	return &existing, nil
}
