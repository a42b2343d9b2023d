package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/campus-assistant/internal/domain"
	"github.com/tbourn/campus-assistant/internal/services"
)

type fakeStudent struct {
	reply   string
	err     error
	turns   []domain.ChatTurn
	total   int64
	latest  *time.Time
	rows    []domain.ScheduleView
	gotID   string
	gotMsg  string
	gotPage [2]int
}

func (f *fakeStudent) Send(_ context.Context, id, msg string) (string, error) {
	f.gotID, f.gotMsg = id, msg
	return f.reply, f.err
}

func (f *fakeStudent) HistoryPage(_ context.Context, id string, page, size int) ([]domain.ChatTurn, int64, error) {
	f.gotID, f.gotPage = id, [2]int{page, size}
	return f.turns, f.total, f.err
}

func (f *fakeStudent) HistoryStats(context.Context, string) (int64, *time.Time, error) {
	return f.total, f.latest, nil
}

func (f *fakeStudent) Timetable(_ context.Context, id string) ([]domain.ScheduleView, error) {
	f.gotID = id
	return f.rows, f.err
}

type fakeAdmin struct {
	reply   *services.AdminReply
	err     error
	check   services.ModelCheck
	turns   []domain.ChatTurn
	req     services.AdminRequest
	cleared string
}

func (f *fakeAdmin) Handle(_ context.Context, req services.AdminRequest) (*services.AdminReply, error) {
	f.req = req
	return f.reply, f.err
}

func (f *fakeAdmin) History(context.Context, string) ([]domain.ChatTurn, error) {
	return f.turns, nil
}

func (f *fakeAdmin) ClearHistory(_ context.Context, id string) error {
	f.cleared = id
	return nil
}

func (f *fakeAdmin) CheckModel(context.Context) services.ModelCheck { return f.check }

type fakeSchedules struct {
	rows    []domain.ScheduleView
	err     error
	deleted []any
}

func (f *fakeSchedules) ListAll(context.Context) ([]domain.ScheduleView, error) {
	return f.rows, f.err
}

func (f *fakeSchedules) Delete(_ context.Context, weekday, period int, room, studentID string) error {
	f.deleted = []any{weekday, period, room, studentID}
	return f.err
}

// withUser stands in for the auth middleware.
func withUser(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id != "" {
			c.Set("userID", id)
		}
		c.Next()
	}
}

func newTestRouter(h *Handlers, uid string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withUser(uid))
	r.POST("/chat", h.PostChat)
	r.GET("/chat/history", h.GetChatHistory)
	r.GET("/thoikhoabieu", h.GetTimetable)
	r.POST("/admin/chat", h.AdminChat)
	r.GET("/admin/chat/test", h.AdminTest)
	r.GET("/admin/chat/history", h.AdminHistory)
	r.DELETE("/admin/chat/history", h.ClearAdminHistory)
	r.GET("/admin/chat/schedules", h.ListSchedules)
	r.DELETE("/admin/chat/schedules", h.DeleteSchedule)
	return r
}

func do(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
