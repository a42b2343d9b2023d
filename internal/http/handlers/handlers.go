// Package handlers exposes the student and admin chat endpoints. Handlers are
// transport-thin: they bind input, read the caller identity set by the auth
// middleware, call the chat services and shape the JSON the portal expects.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/campus-assistant/internal/domain"
	"github.com/tbourn/campus-assistant/internal/services"
)

// StudentChat is the student-facing chat service.
type StudentChat interface {
	Send(ctx context.Context, studentID, message string) (string, error)
	HistoryPage(ctx context.Context, studentID string, page, pageSize int) ([]domain.ChatTurn, int64, error)
	HistoryStats(ctx context.Context, studentID string) (int64, *time.Time, error)
	Timetable(ctx context.Context, studentID string) ([]domain.ScheduleView, error)
}

// AdminChat is the admin-facing chat service.
type AdminChat interface {
	Handle(ctx context.Context, req services.AdminRequest) (*services.AdminReply, error)
	History(ctx context.Context, adminID string) ([]domain.ChatTurn, error)
	ClearHistory(ctx context.Context, adminID string) error
	CheckModel(ctx context.Context) services.ModelCheck
}

// Schedules is the schedule maintenance service used by admin endpoints.
type Schedules interface {
	ListAll(ctx context.Context) ([]domain.ScheduleView, error)
	Delete(ctx context.Context, weekday, period int, room, studentID string) error
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	student   StudentChat
	admin     AdminChat
	schedules Schedules

	now func() time.Time
}

// New constructs Handlers bound to the given services.
func New(student StudentChat, admin AdminChat, schedules Schedules) *Handlers {
	return &Handlers{student: student, admin: admin, schedules: schedules, now: time.Now}
}

// userID returns the identity set by the auth middleware, or "" when the
// route is not authenticated.
func userID(c *gin.Context) string {
	return c.GetString("userID")
}

// requireUser writes a 401 and returns false when no identity is present.
func requireUser(c *gin.Context) (string, bool) {
	id := userID(c)
	if id == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, msgNoIdentity)
		return "", false
	}
	return id, true
}
