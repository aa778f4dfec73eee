package services

import (
	"errors"

	"formhub/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewUserService(db *gorm.DB, logger *zap.Logger) *UserService {
	return &UserService{db: db, logger: logger}
}

type Preferences struct {
	Language string `json:"language"`
	Theme    string `json:"theme"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (s *UserService) GetPreferences(userID uint) (*Preferences, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &Preferences{Language: user.Language, Theme: user.Theme}, nil
}

func (s *UserService) UpdatePreferences(userID uint, prefs *Preferences) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if prefs.Language != "" {
		user.Language = prefs.Language
	}
	if prefs.Theme != "" {
		user.Theme = prefs.Theme
	}
	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) ListUsers() ([]models.User, error) {
	var users []models.User
	err := s.db.Order("id").Find(&users).Error
	return users, err
}

// UpdateRole changes a user's role. An admin may not change their own role
// away from ADMIN; without that guard a lone admin could lock everyone out.
func (s *UserService) UpdateRole(caller Caller, targetID uint, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if targetID == caller.ID && role != models.RoleAdmin {
		return nil, ErrSelfDemotion
	}

	var user models.User
	if err := s.db.First(&user, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.Role = role
	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}

	s.logger.Info("user role changed", zap.Uint("user_id", targetID), zap.String("role", role))
	return &user, nil
}

// DeleteUser refuses to remove a user who still owns templates, forms,
// comments or likes. Dependents must be reassigned or deleted first.
func (s *UserService) DeleteUser(userID uint) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	var count int64
	checks := []struct {
		model  interface{}
		column string
	}{
		{&models.Template{}, "author_id"},
		{&models.Form{}, "user_id"},
		{&models.Comment{}, "user_id"},
		{&models.Like{}, "user_id"},
	}
	for _, check := range checks {
		var n int64
		if err := s.db.Model(check.model).Where(check.column+" = ?", userID).Count(&n).Error; err != nil {
			return err
		}
		count += n
	}
	if count > 0 {
		return ErrUserHasDependents
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Drop any allow-list memberships before the row itself.
	if err := tx.Exec("DELETE FROM template_allowed_users WHERE user_id = ?", userID).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&models.User{}, userID).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.logger.Info("user deleted", zap.Uint("user_id", userID))
	return nil
}
