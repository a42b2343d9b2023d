package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/campus-assistant/internal/domain"
	"github.com/tbourn/campus-assistant/internal/history"
	"github.com/tbourn/campus-assistant/internal/llm"
	"github.com/tbourn/campus-assistant/internal/repo"
)

// Admin chat replies.
const (
	FormMessage      = "Vui lòng điền thông tin lịch học vào form dưới đây:"
	FormSubmitText   = "Thêm lịch học"
	ScheduleAdded    = "Đã thêm lịch học thành công!"
	scheduleFailedAs = "Lỗi khi thêm lịch học: %s"

	// ScheduleAddScope namespaces idempotency keys of schedule submissions.
	ScheduleAddScope = "schedule.add"
)

// FormOption is one choice of a select field.
type FormOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FormField describes one input of the schedule form.
type FormField struct {
	Name        string       `json:"name"`
	Label       string       `json:"label"`
	Type        string       `json:"type"` // select|text|date
	Options     []FormOption `json:"options,omitempty"`
	Required    bool         `json:"required"`
	Placeholder string       `json:"placeholder,omitempty"`
}

// ScheduleForm is the descriptor the client renders as the add-schedule form.
type ScheduleForm struct {
	Fields           []FormField `json:"fields"`
	SubmitEndpoint   string      `json:"submitEndpoint"`
	SubmitButtonText string      `json:"submitButtonText"`
}

// AdminRequest is one admin chat message.
type AdminRequest struct {
	AdminID        string
	Message        string
	ScheduleData   json.RawMessage // only read for the submit sentinel
	IdempotencyKey string
}

// AdminReply is the outcome of an admin chat message. Success is false only
// for rejected schedule commands; Message then carries the reason.
type AdminReply struct {
	Kind     MessageKind
	Message  string
	Success  bool
	Form     *ScheduleForm
	Schedule *domain.Schedule
	Replayed bool
	Rejected *ValidationError
}

// AdminChatService interprets admin chat messages: it opens and commits the
// schedule form and otherwise chats with the model over an in-memory session.
type AdminChatService struct {
	DB        *gorm.DB
	Gateway   llm.Gateway
	Sessions  history.Store
	Schedules *ScheduleService
	Gen       llm.GenerationConfig

	HistoryCap     int
	MaxPromptRunes int
	SubmitEndpoint string
	IdempotencyTTL time.Duration
	CheckPolicy    RetryPolicy

	Now func() time.Time
}

func (s *AdminChatService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Handle classifies req and runs the matching flow.
func (s *AdminChatService) Handle(ctx context.Context, req AdminRequest) (*AdminReply, error) {
	cl := Classify(req.Message)
	ctx, span := otel.Tracer("services/AdminChatService").Start(ctx, "Handle",
		trace.WithAttributes(
			attribute.String("admin.id", req.AdminID),
			attribute.String("chat.kind", cl.Kind.String()),
		),
	)
	defer span.End()
	classifications.WithLabelValues(cl.Kind.String()).Inc()

	switch cl.Kind {
	case OpenScheduleForm:
		form, err := s.Form(ctx)
		if err != nil {
			return nil, err
		}
		return &AdminReply{Kind: cl.Kind, Message: FormMessage, Success: true, Form: form}, nil
	case SubmitScheduleCommand:
		return s.submit(ctx, req)
	default:
		return s.chat(ctx, req.AdminID, cl.Text)
	}
}

func (s *AdminChatService) chat(ctx context.Context, adminID, message string) (*AdminReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(message) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}

	recent, err := s.Sessions.Recent(ctx, adminID, s.HistoryCap)
	if err != nil {
		return nil, err
	}
	reply, err := s.Gateway.CompleteChat(ctx, history.Chronological(recent), adminPrompt(s.now(), message), s.Gen)
	if err != nil {
		return nil, err
	}
	turn := domain.ChatTurn{UserInput: message, ModelReply: reply, CreatedAt: s.now().UTC()}
	if err := s.Sessions.Append(ctx, adminID, turn); err != nil {
		return nil, err
	}
	return &AdminReply{Kind: PlainChat, Message: reply, Success: true}, nil
}

func adminPrompt(now time.Time, message string) string {
	return fmt.Sprintf("Hôm nay là ngày %d tháng %d năm %d %02d:%02d\n"+
		"Bạn là trợ lý AI của admin, hãy trả lời các câu hỏi một cách chuyên nghiệp, lịch sự và ngắn gọn.\n"+
		"Tin nhắn của admin: %s",
		now.Day(), int(now.Month()), now.Year(), now.Hour(), now.Minute(), message)
}

func (s *AdminChatService) submit(ctx context.Context, req AdminRequest) (*AdminReply, error) {
	if req.IdempotencyKey != "" {
		rec, err := repo.GetIdempotency(ctx, s.DB, req.AdminID, ScheduleAddScope, req.IdempotencyKey, s.now())
		switch {
		case err == nil:
			scheduleCommands.WithLabelValues("replayed").Inc()
			reply := &AdminReply{Kind: SubmitScheduleCommand, Message: ScheduleAdded, Success: true, Replayed: true}
			if row, gerr := repo.GetSchedule(ctx, s.DB, rec.RefID); gerr == nil {
				reply.Schedule = row
			}
			return reply, nil
		case !errors.Is(err, repo.ErrNotFound):
			return nil, err
		}
	}

	cmd, verr := decodeCommand(req.ScheduleData)
	if verr != nil {
		recordRejection(verr)
		return rejected(verr), nil
	}

	row, err := s.Schedules.ValidateAndCommit(ctx, cmd)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return rejected(ve), nil
		}
		return nil, err
	}

	if req.IdempotencyKey != "" {
		if _, err := repo.CreateIdempotency(ctx, s.DB, req.AdminID, ScheduleAddScope, req.IdempotencyKey, row.ID, http.StatusOK, s.IdempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("schedule_id", row.ID).Msg("idempotency record not saved")
		}
	}
	return &AdminReply{Kind: SubmitScheduleCommand, Message: ScheduleAdded, Success: true, Schedule: row}, nil
}

func decodeCommand(raw json.RawMessage) (ScheduleCommand, *ValidationError) {
	var cmd ScheduleCommand
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return cmd, invalid(ErrMissingFields, "Vui lòng điền đầy đủ thông tin")
	}
	if err := json.Unmarshal(trimmed, &cmd); err != nil {
		return cmd, invalid(ErrMissingFields, "Dữ liệu lịch học không hợp lệ")
	}
	return cmd, nil
}

func rejected(ve *ValidationError) *AdminReply {
	return &AdminReply{
		Kind:     SubmitScheduleCommand,
		Message:  fmt.Sprintf(scheduleFailedAs, ve.Reason),
		Success:  false,
		Rejected: ve,
	}
}

// Form builds the add-schedule form with students, subjects and teachers
// as select options, each ordered by name.
func (s *AdminChatService) Form(ctx context.Context) (*ScheduleForm, error) {
	var (
		g        errgroup.Group
		students []domain.Student
		subjects []domain.Subject
		teachers []domain.Teacher
	)
	g.Go(func() (err error) {
		students, err = repo.ListStudents(ctx, s.DB)
		return err
	})
	g.Go(func() (err error) {
		subjects, err = repo.ListSubjects(ctx, s.DB)
		return err
	})
	g.Go(func() (err error) {
		teachers, err = repo.ListTeachers(ctx, s.DB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	weekdays := make([]FormOption, 0, domain.MaxWeekday-domain.MinWeekday+1)
	for d := domain.MinWeekday; d <= domain.MaxWeekday; d++ {
		weekdays = append(weekdays, FormOption{Value: fmt.Sprint(d), Label: domain.WeekdayLabel(d)})
	}
	periods := make([]FormOption, 0, domain.MaxPeriod)
	for p := domain.MinPeriod; p <= domain.MaxPeriod; p++ {
		periods = append(periods, FormOption{Value: fmt.Sprint(p), Label: domain.PeriodLabel(p)})
	}
	studentOpts := make([]FormOption, 0, len(students))
	for _, sv := range students {
		studentOpts = append(studentOpts, FormOption{Value: sv.ID, Label: sv.ID + " - " + sv.Name})
	}
	subjectOpts := make([]FormOption, 0, len(subjects))
	for _, mh := range subjects {
		subjectOpts = append(subjectOpts, FormOption{Value: mh.ID, Label: mh.ID + " - " + mh.Name})
	}
	teacherOpts := make([]FormOption, 0, len(teachers))
	for _, gv := range teachers {
		teacherOpts = append(teacherOpts, FormOption{Value: gv.ID, Label: gv.ID + " - " + gv.Name})
	}

	return &ScheduleForm{
		Fields: []FormField{
			{Name: "thu", Label: "Thứ", Type: "select", Options: weekdays, Required: true},
			{Name: "ca", Label: "Ca học", Type: "select", Options: periods, Required: true},
			{Name: "phong", Label: "Phòng học", Type: "text", Required: true, Placeholder: "Nhập phòng học"},
			{Name: "masv", Label: "Sinh viên", Type: "select", Options: studentOpts, Required: true},
			{Name: "mamh", Label: "Môn học", Type: "select", Options: subjectOpts, Required: true},
			{Name: "magv", Label: "Giảng viên", Type: "select", Options: teacherOpts, Required: true},
			{Name: "ngaybatdau", Label: "Ngày bắt đầu", Type: "date", Required: true},
			{Name: "ngayketthuc", Label: "Ngày kết thúc", Type: "date", Required: true},
		},
		SubmitEndpoint:   s.SubmitEndpoint,
		SubmitButtonText: FormSubmitText,
	}, nil
}

// History returns the admin's session, oldest first.
func (s *AdminChatService) History(ctx context.Context, adminID string) ([]domain.ChatTurn, error) {
	turns, err := s.Sessions.Recent(ctx, adminID, s.HistoryCap)
	if err != nil {
		return nil, err
	}
	return history.Chronological(turns), nil
}

// ClearHistory drops the admin's session.
func (s *AdminChatService) ClearHistory(ctx context.Context, adminID string) error {
	return s.Sessions.Clear(ctx, adminID)
}

// ModelCheck is the result of a foreground connectivity check.
type ModelCheck struct {
	OK       bool      `json:"ok"`
	Attempts []Attempt `json:"-"`
	Log      []string  `json:"attempts,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// CheckModel pings the model under CheckPolicy, logging and recording every
// failed attempt.
func (s *AdminChatService) CheckModel(ctx context.Context) ModelCheck {
	var res ModelCheck
	lg := zerolog.Ctx(ctx)
	err := Retry(ctx, s.CheckPolicy, false, func(a Attempt) {
		res.Attempts = append(res.Attempts, a)
		line := fmt.Sprintf("retrying %d/%d: %v", a.N, a.Of, a.Err)
		if a.Final {
			line = fmt.Sprintf("failed %d/%d: %v", a.N, a.Of, a.Err)
		}
		res.Log = append(res.Log, line)
		lg.Warn().Err(a.Err).Int("attempt", a.N).Int("of", a.Of).Msg("model check")
	}, s.Gateway.Ping)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.OK = true
	return res
}
