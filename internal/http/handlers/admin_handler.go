package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/campus-assistant/internal/domain"
	"github.com/tbourn/campus-assistant/internal/http/middleware"
	"github.com/tbourn/campus-assistant/internal/services"
)

const (
	msgRouteAlive     = "Admin chat route hoạt động!"
	msgHistoryCleared = "Đã xóa lịch sử chat"
	msgScheduleGone   = "Đã xóa lịch học"
	formType          = "schedule_form"
)

// AdminChatRequest is a plain admin message, or the submit sentinel with a
// schedule payload.
type AdminChatRequest struct {
	Message      string          `json:"message" example:"thêm lịch học"`
	ScheduleData json.RawMessage `json:"scheduleData,omitempty" swaggertype:"object"`
}

// AdminChatResponse is returned for every admin chat outcome. Validation
// failures of a schedule submission are reported here with Success false.
type AdminChatResponse struct {
	Message   string                 `json:"message"`
	Type      string                 `json:"type,omitempty" example:"schedule_form"`
	FormData  *services.ScheduleForm `json:"formData,omitempty"`
	Schedule  *domain.Schedule       `json:"schedule,omitempty"`
	Fields    []string               `json:"fields,omitempty"`
	Replayed  bool                   `json:"replayed,omitempty"`
	Success   bool                   `json:"success"`
	Timestamp time.Time              `json:"timestamp"`
}

// AdminTestResponse is the liveness payload of the admin chat route.
type AdminTestResponse struct {
	Message   string               `json:"message"`
	Timestamp time.Time            `json:"timestamp"`
	Model     *services.ModelCheck `json:"model,omitempty"`
}

// MessageResponse is a bare confirmation.
type MessageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// SchedulesResponse lists schedule rows.
type SchedulesResponse struct {
	Schedules []domain.ScheduleView `json:"schedules"`
}

// DeleteScheduleRequest identifies the slot to remove.
type DeleteScheduleRequest struct {
	Weekday   int    `json:"thu" binding:"required" example:"2"`
	Period    int    `json:"ca" binding:"required" example:"1"`
	Room      string `json:"phong" binding:"required" example:"A101"`
	StudentID string `json:"masv" binding:"required" example:"SV001"`
}

// AdminChat godoc
// @ID          adminChat
// @Summary     Admin chat
// @Description Chats with the assistant, opens the add-schedule form when asked, or commits a submitted schedule (message "ADD_SCHEDULE" with scheduleData). Rejected schedules are reported with success=false and HTTP 200.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string                       false  "Makes a schedule submission safe to retry"
// @Param       body             body    handlers.AdminChatRequest    true   "Admin message"
// @Success     200  {object}  handlers.AdminChatResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing, invalid or expired token"
// @Failure     403  {object}  handlers.ErrorResponse  "Not an admin"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Failure     503  {object}  handlers.ErrorResponse  "Model unavailable"
// @Router      /admin/chat [post]
func (h *Handlers) AdminChat(c *gin.Context) {
	uid, okID := requireUser(c)
	if !okID {
		return
	}
	var req AdminChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgBadBody)
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)
	if middleware.IsReplay(c) {
		middleware.LoggerFrom(c).Debug().Str("idempotency_key", key).Msg("replaying schedule submission")
	}

	reply, err := h.admin.Handle(c.Request.Context(), services.AdminRequest{
		AdminID:        uid,
		Message:        req.Message,
		ScheduleData:   req.ScheduleData,
		IdempotencyKey: key,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := AdminChatResponse{
		Message:   reply.Message,
		Schedule:  reply.Schedule,
		Replayed:  reply.Replayed,
		Success:   reply.Success,
		Timestamp: h.now().UTC(),
	}
	if reply.Form != nil {
		resp.Type = formType
		resp.FormData = reply.Form
	}
	if reply.Rejected != nil {
		resp.Fields = reply.Rejected.Fields
	}
	ok(c, http.StatusOK, resp)
}

// AdminTest godoc
// @ID          adminChatTest
// @Summary     Admin chat liveness
// @Description Confirms the admin chat route is mounted. With check=model it also pings the model with bounded retries and reports every attempt.
// @Tags        Admin
// @Produce     json
// @Param       check  query  string  false  "Set to \"model\" to run a model connectivity check"
// @Success     200  {object}  handlers.AdminTestResponse
// @Failure     503  {object}  handlers.AdminTestResponse  "Model check failed"
// @Router      /admin/chat/test [get]
func (h *Handlers) AdminTest(c *gin.Context) {
	resp := AdminTestResponse{Message: msgRouteAlive, Timestamp: h.now().UTC()}
	if !strings.EqualFold(c.Query("check"), "model") {
		ok(c, http.StatusOK, resp)
		return
	}
	mc := h.admin.CheckModel(c.Request.Context())
	resp.Model = &mc
	if !mc.OK {
		ok(c, http.StatusServiceUnavailable, resp)
		return
	}
	ok(c, http.StatusOK, resp)
}

// AdminHistory godoc
// @ID          adminChatHistory
// @Summary     Admin session history
// @Description Returns the caller's in-memory chat session, oldest first.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}   domain.ChatTurn
// @Failure     401  {object}  handlers.ErrorResponse  "Missing, invalid or expired token"
// @Failure     403  {object}  handlers.ErrorResponse  "Not an admin"
// @Router      /admin/chat/history [get]
func (h *Handlers) AdminHistory(c *gin.Context) {
	uid, okID := requireUser(c)
	if !okID {
		return
	}
	turns, err := h.admin.History(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	if turns == nil {
		turns = []domain.ChatTurn{}
	}
	ok(c, http.StatusOK, turns)
}

// ClearAdminHistory godoc
// @ID          clearAdminChatHistory
// @Summary     Clear admin session
// @Description Drops the caller's in-memory chat session.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.MessageResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing, invalid or expired token"
// @Failure     403  {object}  handlers.ErrorResponse  "Not an admin"
// @Router      /admin/chat/history [delete]
func (h *Handlers) ClearAdminHistory(c *gin.Context) {
	uid, okID := requireUser(c)
	if !okID {
		return
	}
	if err := h.admin.ClearHistory(c.Request.Context(), uid); err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: msgHistoryCleared, Success: true})
}

// ListSchedules godoc
// @ID          listSchedules
// @Summary     List schedules
// @Description Returns every schedule row joined with student, subject and teacher names.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.SchedulesResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/chat/schedules [get]
func (h *Handlers) ListSchedules(c *gin.Context) {
	rows, err := h.schedules.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if rows == nil {
		rows = []domain.ScheduleView{}
	}
	ok(c, http.StatusOK, SchedulesResponse{Schedules: rows})
}

// DeleteSchedule godoc
// @ID          deleteSchedule
// @Summary     Delete a schedule slot
// @Description Removes the schedule rows matching weekday, period, room and student.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.DeleteScheduleRequest  true  "Slot to delete"
// @Success     200   {object}  handlers.MessageResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404   {object}  handlers.ErrorResponse  "Schedule not found"
// @Router      /admin/chat/schedules [delete]
func (h *Handlers) DeleteSchedule(c *gin.Context) {
	var req DeleteScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Room) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgBadBody)
		return
	}
	if err := h.schedules.Delete(c.Request.Context(), req.Weekday, req.Period, req.Room, req.StudentID); err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: msgScheduleGone, Success: true})
}
