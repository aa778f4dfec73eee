package services

import (
	"context"
	"errors"
	"strings"

	"formhub/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TemplateService struct {
	db     *gorm.DB
	cache  *TemplateCache
	logger *zap.Logger
}

func NewTemplateService(db *gorm.DB, cache *TemplateCache, logger *zap.Logger) *TemplateService {
	return &TemplateService{db: db, cache: cache, logger: logger}
}

type CreateTemplateRequest struct {
	Title        string                  `json:"title" binding:"required"`
	Description  string                  `json:"description" binding:"required"`
	Topic        string                  `json:"topic" binding:"required"`
	Public       bool                    `json:"public"`
	ImageURL     *string                 `json:"image_url"`
	Tags         []string                `json:"tags"`
	Questions    []CreateQuestionRequest `json:"questions" binding:"required,min=1"`
	AllowedUsers []uint                  `json:"allowed_users"`
}

type CreateQuestionRequest struct {
	Title            string   `json:"title" binding:"required"`
	Description      string   `json:"description"`
	Type             string   `json:"type" binding:"required"`
	DisplayedInTable bool     `json:"displayed_in_table"`
	Options          []string `json:"options"`
}

type UpdateTemplateRequest struct {
	Title        string                  `json:"title"`
	Description  string                  `json:"description"`
	Topic        string                  `json:"topic"`
	Public       bool                    `json:"public"`
	ImageURL     *string                 `json:"image_url"`
	Tags         []string                `json:"tags"`
	Questions    []CreateQuestionRequest `json:"questions" binding:"required,min=1"`
	AllowedUsers []uint                  `json:"allowed_users"`
}

func validateQuestions(questions []CreateQuestionRequest) error {
	for _, q := range questions {
		if !models.ValidQuestionType(q.Type) {
			return ErrInvalidQuestion
		}
		if models.ChoiceType(q.Type) && len(q.Options) == 0 {
			return ErrCheckboxOptions
		}
	}
	return nil
}

// createQuestions inserts the question rows and their options inside tx,
// preserving the submitted order.
func createQuestions(tx *gorm.DB, templateID uint, questions []CreateQuestionRequest) error {
	for i, qReq := range questions {
		question := models.Question{
			TemplateID:       templateID,
			Title:            qReq.Title,
			Description:      qReq.Description,
			Type:             qReq.Type,
			DisplayedInTable: qReq.DisplayedInTable,
			Position:         i + 1,
		}
		if err := tx.Create(&question).Error; err != nil {
			return err
		}

		for j, value := range qReq.Options {
			option := models.Option{
				QuestionID: question.ID,
				Value:      value,
				Position:   j + 1,
			}
			if err := tx.Create(&option).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// connectTags reuses an existing tag row when the name matches and creates
// it otherwise, then attaches the set to the template.
func connectTags(tx *gorm.DB, template *models.Template, names []string) error {
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var tag models.Tag
		if err := tx.Where("name = ?", name).FirstOrCreate(&tag, models.Tag{Name: name}).Error; err != nil {
			return err
		}
		tags = append(tags, tag)
	}
	return tx.Model(template).Association("Tags").Replace(tags)
}

func connectAllowedUsers(tx *gorm.DB, template *models.Template, userIDs []uint) error {
	var users []models.User
	if len(userIDs) > 0 {
		if err := tx.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return err
		}
	}
	return tx.Model(template).Association("AllowedUsers").Replace(users)
}

func (s *TemplateService) Create(caller Caller, req *CreateTemplateRequest) (*models.Template, error) {
	if err := validateQuestions(req.Questions); err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	template := models.Template{
		Title:       req.Title,
		Description: req.Description,
		Topic:       req.Topic,
		Public:      req.Public,
		AuthorID:    caller.ID,
		ImageURL:    req.ImageURL,
	}
	if err := tx.Create(&template).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createQuestions(tx, template.ID, req.Questions); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := connectTags(tx, &template, req.Tags); err != nil {
		tx.Rollback()
		return nil, err
	}

	// The allow-list only gates private templates, and it lives in the same
	// transaction as the template row itself.
	if !req.Public && len(req.AllowedUsers) > 0 {
		if err := connectAllowedUsers(tx, &template, req.AllowedUsers); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.cache.Invalidate(context.Background())
	s.logger.Info("template created", zap.Uint("template_id", template.ID), zap.Uint("author_id", caller.ID))
	return s.GetByID(template.ID)
}

func (s *TemplateService) GetByID(templateID uint) (*models.Template, error) {
	var template models.Template
	err := s.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.position")
		}).
		Preload("Tags").
		Preload("Author").
		Preload("Comments").
		Preload("AllowedUsers").
		First(&template, templateID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return &template, nil
}

// ListLatest returns the public templates, newest first.
func (s *TemplateService) ListLatest(ctx context.Context) ([]models.Template, error) {
	if templates, ok := s.cache.GetList(ctx, cacheKeyLatest); ok {
		return templates, nil
	}

	var templates []models.Template
	err := s.db.Where("public = ?", true).
		Order("created_at DESC").
		Preload("Author").
		Preload("Tags").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}

	s.cache.SetList(ctx, cacheKeyLatest, templates)
	return templates, nil
}

// ListPopular returns the public templates ordered by like count.
func (s *TemplateService) ListPopular(ctx context.Context) ([]models.Template, error) {
	if templates, ok := s.cache.GetList(ctx, cacheKeyPopular); ok {
		return templates, nil
	}

	var templates []models.Template
	err := s.db.Model(&models.Template{}).
		Select("templates.*, COUNT(likes.id) AS like_count").
		Joins("LEFT JOIN likes ON likes.template_id = templates.id").
		Where("templates.public = ?", true).
		Group("templates.id").
		Order("like_count DESC, templates.created_at DESC").
		Preload("Author").
		Preload("Tags").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}

	s.cache.SetList(ctx, cacheKeyPopular, templates)
	return templates, nil
}

func (s *TemplateService) ListTags() ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.Order("name").Find(&tags).Error
	return tags, err
}

func (s *TemplateService) ListByAuthor(authorID uint) ([]models.Template, error) {
	var templates []models.Template
	err := s.db.Where("author_id = ?", authorID).
		Order("created_at DESC").
		Preload("Tags").
		Find(&templates).Error
	return templates, err
}

// Search matches the query case-insensitively against template title,
// description and topic, tag names, question title and description, and
// comment content. Matching template ids are collected first so joined rows
// never duplicate results.
func (s *TemplateService) Search(query string) ([]models.Template, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrQueryRequired
	}
	pattern := "%" + strings.ToLower(query) + "%"

	var ids []uint
	err := s.db.Model(&models.Template{}).
		Joins("LEFT JOIN template_tags ON template_tags.template_id = templates.id").
		Joins("LEFT JOIN tags ON tags.id = template_tags.tag_id").
		Joins("LEFT JOIN questions ON questions.template_id = templates.id").
		Joins("LEFT JOIN comments ON comments.template_id = templates.id").
		Where(
			"LOWER(templates.title) LIKE ? OR LOWER(templates.description) LIKE ? OR LOWER(templates.topic) LIKE ?"+
				" OR LOWER(tags.name) LIKE ? OR LOWER(questions.title) LIKE ? OR LOWER(questions.description) LIKE ?"+
				" OR LOWER(comments.content) LIKE ?",
			pattern, pattern, pattern, pattern, pattern, pattern, pattern,
		).
		Distinct().
		Pluck("templates.id", &ids).Error
	if err != nil {
		return nil, err
	}

	templates := []models.Template{}
	if len(ids) == 0 {
		return templates, nil
	}
	err = s.db.Where("id IN ?", ids).
		Preload("Tags").
		Preload("Questions").
		Preload("Comments").
		Preload("Author").
		Order("created_at DESC").
		Find(&templates).Error
	return templates, err
}

// Update replaces the whole question set with the submitted one inside a
// single transaction, then reconnects tags and the allow-list. Questions
// absent from the submission are gone afterwards.
func (s *TemplateService) Update(templateID uint, caller Caller, req *UpdateTemplateRequest) (*models.Template, error) {
	if req.Title == "" || req.Description == "" || req.Topic == "" {
		return nil, ErrTemplateFields
	}
	if err := validateQuestions(req.Questions); err != nil {
		return nil, err
	}

	template, err := s.GetByID(templateID)
	if err != nil {
		return nil, err
	}
	if template.AuthorID != caller.ID && !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Destructive replace: options first, then their questions.
	questionIDs := make([]uint, 0, len(template.Questions))
	for _, q := range template.Questions {
		questionIDs = append(questionIDs, q.ID)
	}
	if len(questionIDs) > 0 {
		if err := tx.Where("question_id IN ?", questionIDs).Delete(&models.Option{}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Where("template_id = ?", templateID).Delete(&models.Question{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createQuestions(tx, templateID, req.Questions); err != nil {
		tx.Rollback()
		return nil, err
	}

	template.Title = req.Title
	template.Description = req.Description
	template.Topic = req.Topic
	template.Public = req.Public
	if req.ImageURL != nil {
		template.ImageURL = req.ImageURL
	}
	if err := tx.Model(&models.Template{ID: templateID}).Updates(map[string]interface{}{
		"title":       template.Title,
		"description": template.Description,
		"topic":       template.Topic,
		"public":      template.Public,
		"image_url":   template.ImageURL,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	shell := models.Template{ID: templateID}
	if err := connectTags(tx, &shell, req.Tags); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := connectAllowedUsers(tx, &shell, req.AllowedUsers); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.cache.Invalidate(context.Background())
	s.logger.Info("template updated", zap.Uint("template_id", templateID))
	return s.GetByID(templateID)
}

// Delete removes the template and every dependent row in reverse dependency
// order: options, questions, comments, likes, answers, forms, then the
// association rows and the template itself.
func (s *TemplateService) Delete(templateID uint, caller Caller) error {
	template, err := s.GetByID(templateID)
	if err != nil {
		return err
	}
	if template.AuthorID != caller.ID && !caller.IsAdmin() {
		return ErrForbidden
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	questionIDs := make([]uint, 0, len(template.Questions))
	for _, q := range template.Questions {
		questionIDs = append(questionIDs, q.ID)
	}
	if len(questionIDs) > 0 {
		if err := tx.Where("question_id IN ?", questionIDs).Delete(&models.Option{}).Error; err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Where("template_id = ?", templateID).Delete(&models.Question{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Where("template_id = ?", templateID).Delete(&models.Comment{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Where("template_id = ?", templateID).Delete(&models.Like{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	var formIDs []uint
	if err := tx.Model(&models.Form{}).Where("template_id = ?", templateID).Pluck("id", &formIDs).Error; err != nil {
		tx.Rollback()
		return err
	}
	if len(formIDs) > 0 {
		if err := tx.Where("form_id IN ?", formIDs).Delete(&models.Answer{}).Error; err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Where("template_id = ?", templateID).Delete(&models.Form{}).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	shell := models.Template{ID: templateID}
	if err := tx.Model(&shell).Association("Tags").Clear(); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Model(&shell).Association("AllowedUsers").Clear(); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Delete(&models.Template{}, templateID).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.cache.Invalidate(context.Background())
	s.logger.Info("template deleted", zap.Uint("template_id", templateID))
	return nil
}
