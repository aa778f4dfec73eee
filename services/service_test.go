package services

import (
	"fmt"
	"strings"
	"testing"

	"formhub/models"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database migrated with the full
// schema. The DSN is derived from the test name so parallel tests never
// share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Template{},
		&models.Question{},
		&models.Option{},
		&models.Tag{},
		&models.Form{},
		&models.Answer{},
		&models.Comment{},
		&models.Like{},
	)
	if err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()

	user := models.User{
		Email:    email,
		Password: "hashed",
		Name:     strings.Split(email, "@")[0],
		Role:     role,
		Language: "ENGLISH",
		Theme:    "LIGHT",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return &user
}

func callerFor(user *models.User) Caller {
	return Caller{ID: user.ID, Email: user.Email, Role: user.Role}
}

func testTemplateService(t *testing.T, db *gorm.DB) *TemplateService {
	t.Helper()
	return NewTemplateService(db, NewTemplateCache(nil, 0, zap.NewNop()), zap.NewNop())
}

func count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	tx := db.Model(model)
	if query != "" {
		tx = tx.Where(query, args...)
	}
	if err := tx.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
