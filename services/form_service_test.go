package services

import (
	"errors"
	"testing"

	"formhub/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTemplate(t *testing.T, db *gorm.DB, author *models.User, public bool) *models.Template {
	t.Helper()

	svc := testTemplateService(t, db)
	req := basicTemplateRequest()
	req.Public = public
	template, err := svc.Create(callerFor(author), req)
	if err != nil {
		t.Fatalf("setup template: %v", err)
	}
	return template
}

func TestCreateForm(t *testing.T) {
	db := newTestDB(t)
	svc := NewFormService(db, zap.NewNop())
	author := newTestUser(t, db, "author@example.com", models.RoleUser)
	filler := newTestUser(t, db, "filler@example.com", models.RoleUser)
	template := setupTemplate(t, db, author, true)

	form, err := svc.Create(callerFor(filler), &CreateFormRequest{
		TemplateID: template.ID,
		Answers: []AnswerRequest{
			{QuestionID: template.Questions[0].ID, Value: "loved it"},
			{QuestionID: template.Questions[1].ID, Value: "Yes"},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if form.UserID != filler.ID || form.TemplateID != template.ID {
		t.Errorf("form = user %d template %d, want user %d template %d",
			form.UserID, form.TemplateID, filler.ID, template.ID)
	}
	if len(form.Answers) != 2 {
		t.Fatalf("answers = %d, want 2", len(form.Answers))
	}
}

func TestCreateFormRejectsForeignQuestion(t *testing.T) {
	db := newTestDB(t)
	svc := NewFormService(db, zap.NewNop())
	author := newTestUser(t, db, "author@example.com", models.RoleUser)
	template := setupTemplate(t, db, author, true)

	_, err := svc.Create(callerFor(author), &CreateFormRequest{
		TemplateID: template.ID,
		Answers:    []AnswerRequest{{QuestionID: 424242, Value: "x"}},
	})
	if !errors.Is(err, ErrAnswerMismatch) {
		t.Fatalf("err = %v, want ErrAnswerMismatch", err)
	}
	if n := count(t, db, &models.Form{}, ""); n != 0 {
		t.Errorf("forms after failed create = %d, want 0", n)
	}
}

func TestCreateFormPrivateTemplateGate(t *testing.T) {
	db := newTestDB(t)
	author := newTestUser(t, db, "author@example.com", models.RoleUser)
	invited := newTestUser(t, db, "invited@example.com", models.RoleUser)
	outsider := newTestUser(t, db, "outsider@example.com", models.RoleUser)

	tmplSvc := testTemplateService(t, db)
	req := basicTemplateRequest()
	req.Public = false
	req.AllowedUsers = []uint{invited.ID}
	template, err := tmplSvc.Create(callerFor(author), req)
	if err != nil {
		t.Fatal(err)
	}

	svc := NewFormService(db, zap.NewNop())
	answers := []AnswerRequest{{QuestionID: template.Questions[0].ID, Value: "ok"}}

	if _, err := svc.Create(callerFor(invited), &CreateFormRequest{TemplateID: template.ID, Answers: answers}); err != nil {
		t.Errorf("invited user rejected: %v", err)
	}
	if _, err := svc.Create(callerFor(outsider), &CreateFormRequest{TemplateID: template.ID, Answers: answers}); !errors.Is(err, ErrForbidden) {
		t.Errorf("outsider err = %v, want ErrForbidden", err)
	}
	if _, err := svc.Create(callerFor(author), &CreateFormRequest{TemplateID: template.ID, Answers: answers}); err != nil {
		t.Errorf("author rejected: %v", err)
	}
}

func TestUpdateFormReplacesAnswers(t *testing.T) {
	db := newTestDB(t)
	svc := NewFormService(db, zap.NewNop())
	author := newTestUser(t, db, "author@example.com", models.RoleUser)
	template := setupTemplate(t, db, author, true)
	caller := callerFor(author)

	form, err := svc.Create(caller, &CreateFormRequest{
		TemplateID: template.ID,
		Answers: []AnswerRequest{
			{QuestionID: template.Questions[0].ID, Value: "first"},
			{QuestionID: template.Questions[1].ID, Value: "Yes"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(form.ID, caller, &UpdateFormRequest{
		Answers: []AnswerRequest{{QuestionID: template.Questions[0].ID, Value: "second"}},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(updated.Answers) != 1 {
		t.Fatalf("answers after update = %d, want exactly the submitted count", len(updated.Answers))
	}
	if updated.Answers[0].Value != "second" {
		t.Errorf("surviving answer = %q, want %q", updated.Answers[0].Value, "second")
	}
	if n := count(t, db, &models.Answer{}, "form_id = ?", form.ID); n != 1 {
		t.Errorf("answer rows = %d, want 1 (prior answers must not survive)", n)
	}
}

func TestUpdateFormOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := NewFormService(db, zap.NewNop())
	author := newTestUser(t, db, "author@example.com", models.RoleUser)
	stranger := newTestUser(t, db, "stranger@example.com", models.RoleUser)
	template := setupTemplate(t, db, author, true)

	form, err := svc.Create(callerFor(author), &CreateFormRequest{
		TemplateID: template.ID,
		Answers:    []AnswerRequest{{QuestionID: template.Questions[0].ID, Value: "v"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Update(form.ID, callerFor(stranger), &UpdateFormRequest{
		Answers: []AnswerRequest{{QuestionID: template.Questions[0].ID, Value: "hacked"}},
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestDeleteFormRemovesAnswers(t *testing.T) {
	db := newTestDB(t)
	svc := NewFormService(db, zap.NewNop())
	author := newTestUser(t, db, "author@example.com", models.RoleUser)
	template := setupTemplate(t, db, author, true)
	caller := callerFor(author)

	form, err := svc.Create(caller, &CreateFormRequest{
		TemplateID: template.ID,
		Answers:    []AnswerRequest{{QuestionID: template.Questions[0].ID, Value: "v"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(form.ID, caller); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n := count(t, db, &models.Answer{}, ""); n != 0 {
		t.Errorf("answers after delete = %d, want 0", n)
	}
	if _, err := svc.GetByID(form.ID); !errors.Is(err, ErrFormNotFound) {
		t.Errorf("GetByID after delete err = %v, want ErrFormNotFound", err)
	}
}

func TestListByUserProjection(t *testing.T) {
	db := newTestDB(t)
	svc := NewFormService(db, zap.NewNop())
	author := newTestUser(t, db, "author@example.com", models.RoleUser)
	template := setupTemplate(t, db, author, true)
	caller := callerFor(author)

	if _, err := svc.Create(caller, &CreateFormRequest{
		TemplateID: template.ID,
		Answers:    []AnswerRequest{{QuestionID: template.Questions[0].ID, Value: "v"}},
	}); err != nil {
		t.Fatal(err)
	}

	summaries, err := svc.ListByUser(author.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	if summaries[0].TemplateTitle != template.Title {
		t.Errorf("template title = %q, want %q", summaries[0].TemplateTitle, template.Title)
	}
}

func TestListByTemplateRequiresOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewFormService(db, zap.NewNop())
	author := newTestUser(t, db, "author@example.com", models.RoleUser)
	stranger := newTestUser(t, db, "stranger@example.com", models.RoleUser)
	admin := newTestUser(t, db, "admin@example.com", models.RoleAdmin)
	template := setupTemplate(t, db, author, true)

	if _, err := svc.ListByTemplate(template.ID, callerFor(stranger)); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger err = %v, want ErrForbidden", err)
	}
	if _, err := svc.ListByTemplate(template.ID, callerFor(author)); err != nil {
		t.Errorf("author err = %v, want nil", err)
	}
	if _, err := svc.ListByTemplate(template.ID, callerFor(admin)); err != nil {
		t.Errorf("admin err = %v, want nil", err)
	}
}
