package repo

import (
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/campus-assistant/internal/domain"
)

// newTestDB opens a private in-memory database. With migrate=true every
// domain table is created.
func newTestDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if migrate {
		if err := AutoMigrate(db); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// seedDirectory inserts two students, two subjects and two teachers.
func seedDirectory(t *testing.T, db *gorm.DB) {
	t.Helper()
	rows := []any{
		&domain.Student{ID: "SV002", Name: "Bảo", Major: "CNTT", ClassName: "K20"},
		&domain.Student{ID: "SV001", Name: "An", Major: "CNTT", ClassName: "K20", Email: "an@example.edu"},
		&domain.Subject{ID: "MH02", Name: "Vật lý"},
		&domain.Subject{ID: "MH01", Name: "Giải tích"},
		&domain.Teacher{ID: "GV02", Name: "Trần"},
		&domain.Teacher{ID: "GV01", Name: "Lê"},
	}
	for _, r := range rows {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("seed %T: %v", r, err)
		}
	}
}
