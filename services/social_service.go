package services

import (
	"context"
	"errors"

	"formhub/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SocialService owns the comment and like layer attached to templates.
type SocialService struct {
	db     *gorm.DB
	cache  *TemplateCache
	logger *zap.Logger
}

func NewSocialService(db *gorm.DB, cache *TemplateCache, logger *zap.Logger) *SocialService {
	return &SocialService{db: db, cache: cache, logger: logger}
}

type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (s *SocialService) ListComments(templateID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.Where("template_id = ?", templateID).
		Preload("User").
		Order("created_at").
		Find(&comments).Error
	return comments, err
}

func (s *SocialService) CreateComment(templateID uint, caller Caller, req *CommentRequest) (*models.Comment, error) {
	var template models.Template
	if err := s.db.First(&template, templateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	comment := models.Comment{
		TemplateID: templateID,
		UserID:     caller.ID,
		Content:    req.Content,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// EditComment requires the caller to be the comment author or an admin.
func (s *SocialService) EditComment(commentID uint, caller Caller, req *CommentRequest) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	if comment.UserID != caller.ID && !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	comment.Content = req.Content
	if err := s.db.Save(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *SocialService) DeleteComment(commentID uint, caller Caller) error {
	var comment models.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	if comment.UserID != caller.ID && !caller.IsAdmin() {
		return ErrForbidden
	}

	return s.db.Delete(&models.Comment{}, commentID).Error
}

// ToggleLike flips the like relation for (caller, template): an existing row
// is removed, a missing one is created. The response never carries the
// resulting state, only success.
func (s *SocialService) ToggleLike(templateID uint, caller Caller) error {
	var template models.Template
	if err := s.db.First(&template, templateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}

	var existing models.Like
	err := s.db.Where("user_id = ? AND template_id = ?", caller.ID, templateID).First(&existing).Error
	switch {
	case err == nil:
		if err := s.db.Delete(&models.Like{}, existing.ID).Error; err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.createLike(templateID, caller.ID); err != nil {
			return err
		}
	default:
		return err
	}

	// Like counts drive the popular listing.
	s.cache.Invalidate(context.Background())
	s.logger.Debug("like toggled", zap.Uint("template_id", templateID), zap.Uint("user_id", caller.ID))
	return nil
}

// createLike inserts the like row. Two concurrent toggles can both pass the
// existence check; the loser's insert trips the unique index, and the like is
// in place either way.
func (s *SocialService) createLike(templateID, userID uint) error {
	like := models.Like{TemplateID: templateID, UserID: userID}
	if err := s.db.Create(&like).Error; err != nil {
		var n int64
		countErr := s.db.Model(&models.Like{}).
			Where("user_id = ? AND template_id = ?", userID, templateID).
			Count(&n).Error
		if countErr == nil && n > 0 {
			return nil
		}
		return err
	}
	return nil
}
