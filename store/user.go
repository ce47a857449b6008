package store

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/authgate/authgate/auth"
	"github.com/authgate/authgate/errs"
	"github.com/authgate/authgate/models"
)

// UserStore provides operations for users and their role links.
type UserStore struct{ DB *gorm.DB }

func NewUserStore(db *gorm.DB) *UserStore { return &UserStore{DB: db} }

// Create hashes the plaintext password and inserts the user. Plaintext is
// never persisted or logged.
func (s *UserStore) Create(ctx context.Context, email, password, firstName, lastName string, status models.UserStatus) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := models.User{
		ID:        models.NewID(),
		Email:     email,
		Password:  hashed,
		FirstName: firstName,
		LastName:  lastName,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		if isDuplicate(err) {
			return nil, errs.Conflict("EMAIL_ALREADY_EXISTS")
		}
		return nil, err
	}
	return &user, nil
}

// FindAll returns every user with role links and roles eager-loaded.
func (s *UserStore) FindAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.DB.WithContext(ctx).
		Preload("RoleUsers.Role").
		Order("email ASC").
		Find(&users).Error
	return users, err
}

// FindByID returns one user with roles eager-loaded or NotFound.
func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if !models.IsValidID(id) {
		return nil, errs.InvalidInput("INVALID_USER_ID")
	}
	var user models.User
	err := s.DB.WithContext(ctx).
		Preload("RoleUsers.Role").
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		if isNotFound(err) {
			return nil, errs.NotFound("USER_NOT_FOUND")
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail returns one user by email or NotFound.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	err := s.DB.WithContext(ctx).
		Preload("RoleUsers.Role").
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		if isNotFound(err) {
			return nil, errs.NotFound("USER_NOT_FOUND")
		}
		return nil, err
	}
	return &user, nil
}

// UserUpdate carries the mutable user fields; nil leaves a field unchanged.
type UserUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
	Status    *models.UserStatus
}

// Update applies a partial update or answers NotFound.
func (s *UserStore) Update(ctx context.Context, id string, upd UserUpdate) (*models.User, error) {
	if !models.IsValidID(id) {
		return nil, errs.InvalidInput("INVALID_USER_ID")
	}
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if upd.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*upd.Email))
	}
	if upd.FirstName != nil {
		updates["first_name"] = *upd.FirstName
	}
	if upd.LastName != nil {
		updates["last_name"] = *upd.LastName
	}
	if upd.Status != nil {
		updates["status"] = *upd.Status
	}
	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return nil, errs.Conflict("EMAIL_ALREADY_EXISTS")
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errs.NotFound("USER_NOT_FOUND")
	}
	return s.FindByID(ctx, id)
}

// SetPassword overwrites the stored hash with a hash of the new plaintext.
func (s *UserStore) SetPassword(ctx context.Context, id, password string) error {
	if !models.IsValidID(id) {
		return errs.InvalidInput("INVALID_USER_ID")
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"password": hashed, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("USER_NOT_FOUND")
	}
	return nil
}

// SetStatus moves a user to a new lifecycle status.
func (s *UserStore) SetStatus(ctx context.Context, id string, status models.UserStatus) error {
	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("USER_NOT_FOUND")
	}
	return nil
}

// Delete removes a user and its role links.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	if !models.IsValidID(id) {
		return errs.InvalidInput("INVALID_USER_ID")
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.RoleUser{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.NotFound("USER_NOT_FOUND")
		}
		return nil
	})
}

// AssignRoleByName links the named role to the user. The name is checked
// against the closed enumeration before the lookup; an existing link is
// returned as-is rather than erroring.
func (s *UserStore) AssignRoleByName(ctx context.Context, userID, roleName string) (*models.RoleUser, error) {
	if !models.IsValidRoleName(roleName) {
		return nil, errs.InvalidInput("INVALID_ROLE_NAME")
	}
	var role models.Role
	if err := s.DB.WithContext(ctx).Where("name = ?", roleName).First(&role).Error; err != nil {
		if isNotFound(err) {
			return nil, errs.NotFound("ROLE_NOT_FOUND")
		}
		return nil, err
	}
	link := models.RoleUser{
		ID:        models.NewID(),
		UserID:    userID,
		RoleID:    role.ID,
		CreatedAt: time.Now().UTC(),
	}
	err := s.DB.WithContext(ctx).Create(&link).Error
	if err == nil {
		return &link, nil
	}
	if !isDuplicate(err) {
		return nil, err
	}
	var existing models.RoleUser
	if ferr := s.DB.WithContext(ctx).Where("user_id = ? AND role_id = ?", userID, role.ID).First(&existing).Error; ferr != nil {
		return nil, ferr
	}
	return &existing, nil
}

// RevokeRoleByName removes the user's link to the named role.
func (s *UserStore) RevokeRoleByName(ctx context.Context, userID, roleName string) error {
	if !models.IsValidRoleName(roleName) {
		return errs.InvalidInput("INVALID_ROLE_NAME")
	}
	var role models.Role
	if err := s.DB.WithContext(ctx).Where("name = ?", roleName).First(&role).Error; err != nil {
		if isNotFound(err) {
			return errs.NotFound("ROLE_NOT_FOUND")
		}
		return err
	}
	return s.DB.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, role.ID).
		Delete(&models.RoleUser{}).Error
}

// testUserSpec fixes the sample accounts SeedTestUsers creates.
type testUserSpec struct {
	email      string
	firstName  string
	lastName   string
	extraRoles []models.RoleName
}

// SeedTestUsers creates the fixed sample accounts, each step tolerant of
// the row already existing: users are create-or-fetch by email, every user
// gets the default role, and the per-user extras come on top.
func (s *UserStore) SeedTestUsers(ctx context.Context) ([]models.User, error) {
	specs := []testUserSpec{
		{email: "test-1@test.com", firstName: "Test", lastName: "User 1", extraRoles: []models.RoleName{models.RoleNameAdmin}},
		{email: "test-2@test.com", firstName: "Test", lastName: "User 2", extraRoles: []models.RoleName{models.RoleNameDeveloper}},
		{email: "test-3@test.com", firstName: "Test", lastName: "User 3"},
	}
	var out []models.User
	for _, spec := range specs {
		user, err := s.Create(ctx, spec.email, "password", spec.firstName, spec.lastName, models.UserStatusActive)
		if err != nil {
			e, ok := errs.As(err)
			if !ok || e.Kind != errs.KindConflict {
				return nil, err
			}
			user, err = s.FindByEmail(ctx, spec.email)
			if err != nil {
				return nil, err
			}
		}
		if _, err := s.AssignRoleByName(ctx, user.ID, string(models.RoleNameUser)); err != nil && !errs.IsNotFound(err) {
			return nil, err
		}
		for _, extra := range spec.extraRoles {
			if _, err := s.AssignRoleByName(ctx, user.ID, string(extra)); err != nil && !errs.IsNotFound(err) {
				return nil, err
			}
		}
		out = append(out, *user)
	}
	return out, nil
}
