package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/campus-assistant/internal/domain"
	"github.com/tbourn/campus-assistant/internal/utils"
)

// ChatRequest is the student chat payload.
type ChatRequest struct {
	Message string `json:"message" example:"Tôi có lịch học thứ mấy?"`
}

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	Response string `json:"response" example:"Bạn có lịch học vào Thứ 2, ca 1."`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ChatHistoryResponse is a page of persisted turns, newest first.
type ChatHistoryResponse struct {
	Turns      []domain.ChatTurn `json:"history"`
	Pagination Pagination        `json:"pagination"`
}

// TimetableResponse lists the caller's schedule rows.
type TimetableResponse struct {
	Schedules []domain.ScheduleView `json:"thoikhoabieu"`
}

// PostChat godoc
// @ID          postChat
// @Summary     Ask the assistant
// @Description Answers a student question using their history, profile and timetable, and records the exchange.
// @Tags        Student
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.ChatRequest  true  "Chat payload"
// @Success     200   {object}  handlers.ChatResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Empty or oversized message"
// @Failure     401   {object}  handlers.ErrorResponse  "Missing, invalid or expired token"
// @Failure     403   {object}  handlers.ErrorResponse  "Caller has no student profile"
// @Failure     429   {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Failure     503   {object}  handlers.ErrorResponse  "Model unavailable"
// @Router      /chat [post]
func (h *Handlers) PostChat(c *gin.Context) {
	uid, okID := requireUser(c)
	if !okID {
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgBadBody)
		return
	}

	reply, err := h.student.Send(c.Request.Context(), uid, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, ChatResponse{Response: reply})
}

// GetChatHistory godoc
// @ID          getChatHistory
// @Summary     List chat history (paginated)
// @Description Returns the caller's persisted turns, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Student
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ChatHistoryResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing, invalid or expired token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/history [get]
func (h *Handlers) GetChatHistory(c *gin.Context) {
	uid, okID := requireUser(c)
	if !okID {
		return
	}
	ctx := c.Request.Context()
	page, pageSize := utils.ClampPage(c.Query("page"), c.Query("page_size"))

	// ETag pre-check (best effort).
	if count, latest, err := h.student.HistoryStats(ctx, uid); err == nil {
		var ts int64
		if latest != nil {
			ts = latest.UnixNano()
		}
		etag := fmt.Sprintf(`W/"turns:%s:%d:%d:%d:%d"`, uid, count, ts, page, pageSize)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.student.HistoryPage(ctx, uid, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ChatHistoryResponse{
		Turns: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetTimetable godoc
// @ID          getTimetable
// @Summary     Student timetable
// @Description Returns the caller's schedule rows with subject and teacher names.
// @Tags        Student
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.TimetableResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing, invalid or expired token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /thoikhoabieu [get]
func (h *Handlers) GetTimetable(c *gin.Context) {
	uid, okID := requireUser(c)
	if !okID {
		return
	}
	rows, err := h.student.Timetable(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	if rows == nil {
		rows = []domain.ScheduleView{}
	}
	ok(c, http.StatusOK, TimetableResponse{Schedules: rows})
}
