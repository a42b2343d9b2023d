package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/campus-assistant/internal/domain"
	"github.com/tbourn/campus-assistant/internal/llm"
	"github.com/tbourn/campus-assistant/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	rows := []any{
		&domain.Student{ID: "SV002", Name: "Bảo", Major: "CNTT"},
		&domain.Student{ID: "SV001", Name: "An", Major: "CNTT", ClassName: "K20", Email: "an@example.edu"},
		&domain.Subject{ID: "MH01", Name: "Giải tích"},
		&domain.Subject{ID: "MH02", Name: "Vật lý"},
		&domain.Teacher{ID: "GV01", Name: "Lê"},
	}
	for _, r := range rows {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("seed %T: %v", r, err)
		}
	}
}

func validCmd() ScheduleCommand {
	return ScheduleCommand{
		Weekday:   Int(2),
		Period:    Int(1),
		Room:      "A101",
		StudentID: "SV001",
		SubjectID: "MH01",
		TeacherID: "GV01",
		StartDate: "2024-01-01",
		EndDate:   "2024-03-01",
	}
}

// fakeGateway records calls and answers with a fixed reply or error.
type fakeGateway struct {
	mu      sync.Mutex
	reply   string
	err     error
	pingErr []error // consumed one per Ping

	prompts   []string
	histories [][]domain.ChatTurn
	pings     int
}

func (f *fakeGateway) Complete(_ context.Context, prompt string, _ llm.GenerationConfig) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGateway) CompleteChat(_ context.Context, history []domain.ChatTurn, message string, _ llm.GenerationConfig) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, message)
	f.histories = append(f.histories, history)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGateway) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	if len(f.pingErr) == 0 {
		return nil
	}
	err := f.pingErr[0]
	f.pingErr = f.pingErr[1:]
	return err
}

func (f *fakeGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}
