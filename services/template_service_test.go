package services

import (
	"context"
	"errors"
	"testing"

	"formhub/models"

	"go.uber.org/zap"
)

func basicTemplateRequest() *CreateTemplateRequest {
	return &CreateTemplateRequest{
		Title:       "Customer Survey",
		Description: "How did we do?",
		Topic:       "Feedback",
		Public:      true,
		Tags:        []string{"Feedback", "Survey"},
		Questions: []CreateQuestionRequest{
			{Title: "Your thoughts", Type: models.QuestionTextarea},
			{Title: "Would you recommend us?", Type: models.QuestionCheckbox, Options: []string{"Yes", "No"}},
		},
	}
}

func TestCreateTemplate(t *testing.T) {
	db := newTestDB(t)
	svc := testTemplateService(t, db)
	author := newTestUser(t, db, "author@example.com", models.RoleUser)

	template, err := svc.Create(callerFor(author), basicTemplateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if template.AuthorID != author.ID {
		t.Errorf("author id = %d, want %d", template.AuthorID, author.ID)
	}
	if len(template.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(template.Questions))
	}
	if len(template.Questions[1].Options) != 2 {
		t.Errorf("checkbox options = %d, want 2", len(template.Questions[1].Options))
	}
	if len(template.Tags) != 2 {
		t.Errorf("tags = %d, want 2", len(template.Tags))
	}
}

func TestCreateTemplateCheckboxWithoutOptions(t *testing.T) {
	db := newTestDB(t)
	svc := testTemplateService(t, db)
	author := newTestUser(t, db, "author@example.com", models.RoleUser)

	req := basicTemplateRequest()
	req.Questions = []CreateQuestionRequest{
		{Title: "Pick one", Type: models.QuestionCheckbox},
	}

	_, err := svc.Create(callerFor(author), req)
	if !errors.Is(err, ErrCheckboxOptions) {
		t.Fatalf("err = %v, want ErrCheckboxOptions", err)
	}

	// Nothing may have been written.
	if n := count(t, db, &models.Template{}, ""); n != 0 {
		t.Errorf("templates after failed create = %d, want 0", n)
	}
	if n := count(t, db, &models.Question{}, ""); n != 0 {
		t.Errorf("questions after failed create = %d, want 0", n)
	}
}

func TestCreateTemplateReusesTags(t *testing.T) {
	db := newTestDB(t)
	svc := testTemplateService(t, db)
	author := newTestUser(t, db, "author@example.com", models.RoleUser)

	if _, err := svc.Create(callerFor(author), basicTemplateRequest()); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := svc.Create(callerFor(author), basicTemplateRequest()); err != nil {
		t.Fatalf("second Create: %v", err)
	}

	if n := count(t, db, &models.Tag{}, ""); n != 2 {
		t.Errorf("tag rows = %d, want 2 (connect-or-create must dedupe by name)", n)
	}
}

func TestCreateTemplateAttachesAllowList(t *testing.T) {
	db := newTestDB(t)
	svc := testTemplateService(t, db)
	author := newTestUser(t, db, "author@example.com", models.RoleUser)
	invited := newTestUser(t, db, "invited@example.com", models.RoleUser)

	req := basicTemplateRequest()
	req.Public = false
	req.AllowedUsers = []uint{invited.ID}

	template, err := svc.Create(callerFor(author), req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(template.AllowedUsers) != 1 || template.AllowedUsers[0].ID != invited.ID {
		t.Fatalf("allow-list = %+v, want the invited user", template.AllowedUsers)
	}
}

func TestGetTemplateNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := testTemplateService(t, db)

	if _, err := svc.GetByID(9999); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("err = %v, want ErrTemplateNotFound", err)
	}
}

func TestUpdateTemplateReplacesQuestions(t *testing.T) {
	db := newTestDB(t)
	svc := testTemplateService(t, db)
	author := newTestUser(t, db, "author@example.com", models.RoleUser)
	caller := callerFor(author)

	template, err := svc.Create(caller, basicTemplateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(template.ID, caller, &UpdateTemplateRequest{
		Title:       "Customer Survey v2",
		Description: "Updated",
		Topic:       "Feedback",
		Public:      true,
		Questions: []CreateQuestionRequest{
			{Title: "Overall rating", Type: models.QuestionNumber},
		},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(updated.Questions) != 1 {
		t.Fatalf("questions after update = %d, want 1", len(updated.Questions))
	}
	if updated.Questions[0].Title != "Overall rating" {
		t.Errorf("surviving question = %q, want the submitted one", updated.Questions[0].Title)
	}

	// The replace is destructive: no stale question or option rows survive.
	if n := count(t, db, &models.Question{}, "template_id = ?", template.ID); n != 1 {
		t.Errorf("question rows = %d, want 1", n)
	}
	if n := count(t, db, &models.Option{}, ""); n != 0 {
		t.Errorf("option rows = %d, want 0", n)
	}
}

func TestUpdateTemplateRequiresScalars(t *testing.T) {
	db := newTestDB(t)
	svc := testTemplateService(t, db)
	author := newTestUser(t, db, "author@example.com", models.RoleUser)
	caller := callerFor(author)

	template, err := svc.Create(caller, basicTemplateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.Update(template.ID, caller, &UpdateTemplateRequest{
		Title:     "",
		Questions: []CreateQuestionRequest{{Title: "Q", Type: models.QuestionText}},
	})
	if !errors.Is(err, ErrTemplateFields) {
		t.Fatalf("err = %v, want ErrTemplateFields", err)
	}
}

func TestUpdateTemplateOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := testTemplateService(t, db)
	author := newTestUser(t, db, "author@example.com", models.RoleUser)
	stranger := newTestUser(t, db, "stranger@example.com", models.RoleUser)
	admin := newTestUser(t, db, "admin@example.com", models.RoleAdmin)

	template, err := svc.Create(callerFor(author), basicTemplateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := &UpdateTemplateRequest{
		Title:       "Hijacked",
		Description: "d",
		Topic:       "t",
		Questions:   []CreateQuestionRequest{{Title: "Q", Type: models.QuestionText}},
	}

	if _, err := svc.Update(template.ID, callerFor(stranger), req); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger update err = %v, want ErrForbidden", err)
	}
	if _, err := svc.Update(template.ID, callerFor(admin), req); err != nil {
		t.Fatalf("admin update err = %v, want nil", err)
	}
}

func TestDeleteTemplateCascades(t *testing.T) {
	db := newTestDB(t)
	svc := testTemplateService(t, db)
	author := newTestUser(t, db, "author@example.com", models.RoleUser)
	caller := callerFor(author)

	template, err := svc.Create(caller, basicTemplateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Attach the full set of dependents.
	social := NewSocialService(db, nil, zap.NewNop())
	if _, err := social.CreateComment(template.ID, caller, &CommentRequest{Content: "nice"}); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if err := social.ToggleLike(template.ID, caller); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	formSvc := NewFormService(db, zap.NewNop())
	if _, err := formSvc.Create(caller, &CreateFormRequest{
		TemplateID: template.ID,
		Answers:    []AnswerRequest{{QuestionID: template.Questions[0].ID, Value: "great"}},
	}); err != nil {
		t.Fatalf("Create form: %v", err)
	}

	if err := svc.Delete(template.ID, caller); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	for _, check := range []struct {
		name  string
		model interface{}
	}{
		{"templates", &models.Template{}},
		{"questions", &models.Question{}},
		{"options", &models.Option{}},
		{"comments", &models.Comment{}},
		{"likes", &models.Like{}},
		{"forms", &models.Form{}},
		{"answers", &models.Answer{}},
	} {
		if n := count(t, db, check.model, ""); n != 0 {
			t.Errorf("%s after delete = %d, want 0", check.name, n)
		}
	}
}

func TestSearchTemplates(t *testing.T) {
	db := newTestDB(t)
	svc := testTemplateService(t, db)
	author := newTestUser(t, db, "author@example.com", models.RoleUser)
	caller := callerFor(author)

	// Matches via title, tag name, question text and comment content.
	byTitle, err := svc.Create(caller, &CreateTemplateRequest{
		Title: "Employee Survey", Description: "annual", Topic: "HR", Public: true,
		Questions: []CreateQuestionRequest{{Title: "Q1", Type: models.QuestionText}},
	})
	if err != nil {
		t.Fatal(err)
	}
	byTag, err := svc.Create(caller, &CreateTemplateRequest{
		Title: "Checkin", Description: "weekly", Topic: "HR", Public: true,
		Tags:      []string{"survey-tools"},
		Questions: []CreateQuestionRequest{{Title: "Q1", Type: models.QuestionText}},
	})
	if err != nil {
		t.Fatal(err)
	}
	byQuestion, err := svc.Create(caller, &CreateTemplateRequest{
		Title: "Feedback", Description: "misc", Topic: "General", Public: true,
		Questions: []CreateQuestionRequest{{Title: "Was the survey useful?", Type: models.QuestionText}},
	})
	if err != nil {
		t.Fatal(err)
	}
	byComment, err := svc.Create(caller, &CreateTemplateRequest{
		Title: "Signup", Description: "misc", Topic: "General", Public: true,
		Questions: []CreateQuestionRequest{{Title: "Q1", Type: models.QuestionText}},
	})
	if err != nil {
		t.Fatal(err)
	}
	social := NewSocialService(db, nil, zap.NewNop())
	if _, err := social.CreateComment(byComment.ID, caller, &CommentRequest{Content: "best SURVEY around"}); err != nil {
		t.Fatal(err)
	}
	unrelated, err := svc.Create(caller, &CreateTemplateRequest{
		Title: "Order form", Description: "checkout", Topic: "Sales", Public: true,
		Questions: []CreateQuestionRequest{{Title: "Quantity", Type: models.QuestionNumber}},
	})
	if err != nil {
		t.Fatal(err)
	}

	results, err := svc.Search("Survey")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	found := map[uint]bool{}
	for _, tmpl := range results {
		found[tmpl.ID] = true
	}
	for _, want := range []*models.Template{byTitle, byTag, byQuestion, byComment} {
		if !found[want.ID] {
			t.Errorf("search missed template %d (%s)", want.ID, want.Title)
		}
	}
	if found[unrelated.ID] {
		t.Errorf("search returned unrelated template %d", unrelated.ID)
	}

	if _, err := svc.Search("  "); !errors.Is(err, ErrQueryRequired) {
		t.Errorf("empty query err = %v, want ErrQueryRequired", err)
	}
}

func TestListLatestOnlyPublic(t *testing.T) {
	db := newTestDB(t)
	svc := testTemplateService(t, db)
	author := newTestUser(t, db, "author@example.com", models.RoleUser)
	caller := callerFor(author)

	public := basicTemplateRequest()
	if _, err := svc.Create(caller, public); err != nil {
		t.Fatal(err)
	}
	private := basicTemplateRequest()
	private.Title = "Private one"
	private.Public = false
	if _, err := svc.Create(caller, private); err != nil {
		t.Fatal(err)
	}

	templates, err := svc.ListLatest(context.Background())
	if err != nil {
		t.Fatalf("ListLatest: %v", err)
	}
	if len(templates) != 1 || templates[0].Title != "Customer Survey" {
		t.Fatalf("latest = %+v, want only the public template", templates)
	}
}

func TestListPopularOrdersByLikes(t *testing.T) {
	db := newTestDB(t)
	svc := testTemplateService(t, db)
	author := newTestUser(t, db, "author@example.com", models.RoleUser)
	fanOne := newTestUser(t, db, "fan1@example.com", models.RoleUser)
	fanTwo := newTestUser(t, db, "fan2@example.com", models.RoleUser)
	caller := callerFor(author)

	quiet, err := svc.Create(caller, basicTemplateRequest())
	if err != nil {
		t.Fatal(err)
	}
	liked := basicTemplateRequest()
	liked.Title = "Crowd favourite"
	favourite, err := svc.Create(caller, liked)
	if err != nil {
		t.Fatal(err)
	}

	for _, fan := range []*models.User{fanOne, fanTwo} {
		if err := db.Create(&models.Like{TemplateID: favourite.ID, UserID: fan.ID}).Error; err != nil {
			t.Fatalf("create like: %v", err)
		}
	}

	templates, err := svc.ListPopular(context.Background())
	if err != nil {
		t.Fatalf("ListPopular: %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("popular = %d templates, want 2", len(templates))
	}
	if templates[0].ID != favourite.ID {
		t.Fatalf("first popular = %d, want the liked template %d", templates[0].ID, favourite.ID)
	}
	if templates[0].LikeCount != 2 {
		t.Errorf("liked template like_count = %d, want 2", templates[0].LikeCount)
	}
	if templates[1].ID != quiet.ID || templates[1].LikeCount != 0 {
		t.Errorf("second popular = id %d count %d, want id %d count 0",
			templates[1].ID, templates[1].LikeCount, quiet.ID)
	}
}
