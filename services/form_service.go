package services

import (
	"errors"

	"formhub/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type FormService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewFormService(db *gorm.DB, logger *zap.Logger) *FormService {
	return &FormService{db: db, logger: logger}
}

type CreateFormRequest struct {
	TemplateID uint            `json:"template_id" binding:"required"`
	Answers    []AnswerRequest `json:"answers" binding:"required,min=1"`
}

type UpdateFormRequest struct {
	Answers []AnswerRequest `json:"answers" binding:"required,min=1"`
}

type AnswerRequest struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	Value      string `json:"value"`
}

// UserFormSummary is the projection returned by ListByUser.
type UserFormSummary struct {
	ID            uint   `json:"id"`
	TemplateTitle string `json:"template_title"`
}

// validateAnswers checks that every submitted answer targets a question of
// the given template.
func validateAnswers(template *models.Template, answers []AnswerRequest) error {
	known := make(map[uint]bool, len(template.Questions))
	for _, q := range template.Questions {
		known[q.ID] = true
	}
	for _, a := range answers {
		if !known[a.QuestionID] {
			return ErrAnswerMismatch
		}
	}
	return nil
}

// canSubmit gates submissions against private templates: the author, an
// admin, or an allow-listed user may fill them. Public templates have no gate.
func canSubmit(template *models.Template, caller Caller) bool {
	if template.Public || caller.IsAdmin() || template.AuthorID == caller.ID {
		return true
	}
	for _, u := range template.AllowedUsers {
		if u.ID == caller.ID {
			return true
		}
	}
	return false
}

func (s *FormService) Create(caller Caller, req *CreateFormRequest) (*models.Form, error) {
	if req.TemplateID == 0 || len(req.Answers) == 0 {
		return nil, ErrFormInput
	}

	var template models.Template
	err := s.db.Preload("Questions").Preload("AllowedUsers").First(&template, req.TemplateID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	if !canSubmit(&template, caller) {
		return nil, ErrForbidden
	}
	if err := validateAnswers(&template, req.Answers); err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	form := models.Form{
		TemplateID: req.TemplateID,
		UserID:     caller.ID,
	}
	if err := tx.Create(&form).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, aReq := range req.Answers {
		answer := models.Answer{
			FormID:     form.ID,
			QuestionID: aReq.QuestionID,
			Value:      aReq.Value,
		}
		if err := tx.Create(&answer).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.logger.Info("form submitted",
		zap.Uint("form_id", form.ID),
		zap.Uint("template_id", req.TemplateID),
		zap.Uint("user_id", caller.ID))
	return s.GetByID(form.ID)
}

func (s *FormService) GetByID(formID uint) (*models.Form, error) {
	var form models.Form
	err := s.db.
		Preload("Answers").
		Preload("User").
		Preload("Template").
		Preload("Template.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position")
		}).
		Preload("Template.Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.position")
		}).
		First(&form, formID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	return &form, nil
}

// ListByTemplate feeds the results view; only the template author or an
// admin may read it.
func (s *FormService) ListByTemplate(templateID uint, caller Caller) ([]models.Form, error) {
	var template models.Template
	if err := s.db.First(&template, templateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	if template.AuthorID != caller.ID && !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	var forms []models.Form
	err := s.db.Where("template_id = ?", templateID).
		Preload("Answers").
		Preload("User").
		Order("created_at DESC").
		Find(&forms).Error
	return forms, err
}

func (s *FormService) ListByUser(userID uint) ([]UserFormSummary, error) {
	var forms []models.Form
	err := s.db.Where("user_id = ?", userID).
		Preload("Template").
		Order("created_at DESC").
		Find(&forms).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]UserFormSummary, 0, len(forms))
	for _, form := range forms {
		summaries = append(summaries, UserFormSummary{
			ID:            form.ID,
			TemplateTitle: form.Template.Title,
		})
	}
	return summaries, nil
}

// Update replaces the form's full answer set atomically; no answer from the
// prior submission survives.
func (s *FormService) Update(formID uint, caller Caller, req *UpdateFormRequest) (*models.Form, error) {
	form, err := s.GetByID(formID)
	if err != nil {
		return nil, err
	}
	if form.UserID != caller.ID && !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := validateAnswers(&form.Template, req.Answers); err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("form_id = ?", formID).Delete(&models.Answer{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, aReq := range req.Answers {
		answer := models.Answer{
			FormID:     formID,
			QuestionID: aReq.QuestionID,
			Value:      aReq.Value,
		}
		if err := tx.Create(&answer).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.logger.Info("form updated", zap.Uint("form_id", formID))
	return s.GetByID(formID)
}

func (s *FormService) Delete(formID uint, caller Caller) error {
	form, err := s.GetByID(formID)
	if err != nil {
		return err
	}
	if form.UserID != caller.ID && !caller.IsAdmin() {
		return ErrForbidden
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("form_id = ?", formID).Delete(&models.Answer{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&models.Form{}, formID).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.logger.Info("form deleted", zap.Uint("form_id", formID))
	return nil
}
