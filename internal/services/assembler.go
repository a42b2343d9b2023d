package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/campus-assistant/internal/domain"
	"github.com/tbourn/campus-assistant/internal/history"
	"github.com/tbourn/campus-assistant/internal/repo"
)

const (
	preamble        = "Bạn là một trợ lý AI thân thiện."
	historyHeading  = "Hãy nhớ các thông tin sau từ cuộc trò chuyện trước:"
	scheduleHeading = "Lịch học của sinh viên:"
	profileHeading  = "Thông tin sinh viên:"
	answerSuffix    = "Hãy trả lời dựa trên context trên nhưng đừng nói dựa trên dữ liệu đã có mà hãy trả lời như bạn đã biết sẵn những thông tin đó:"
)

// PromptContext is everything the model sees for one student question.
// It lives for a single request and is never stored.
type PromptContext struct {
	History   []domain.ChatTurn // oldest first
	Profile   *domain.Student   // nil when the student has no profile row
	Schedule  []domain.ScheduleView
	Utterance string
}

// Render produces the prompt text. Empty blocks are omitted.
func (p PromptContext) Render() string {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n")

	if len(p.History) > 0 {
		b.WriteString(historyHeading)
		b.WriteString("\n")
		for _, t := range p.History {
			fmt.Fprintf(&b, "Người dùng: %s\nAI: %s\n", t.UserInput, t.ModelReply)
		}
	}

	if len(p.Schedule) > 0 {
		b.WriteString("\n")
		b.WriteString(scheduleHeading)
		b.WriteString("\n")
		for _, s := range p.Schedule {
			fmt.Fprintf(&b, "- Thứ: %s\n", s.WeekdayLabel())
			fmt.Fprintf(&b, "  Môn học: %s - %s\n", s.SubjectID, s.SubjectName)
			fmt.Fprintf(&b, "  Ca học: %s\n", s.PeriodLabel())
			fmt.Fprintf(&b, "  Phòng học: %s\n", s.Room)
			fmt.Fprintf(&b, "  Giảng viên: %s\n", s.TeacherName)
			fmt.Fprintf(&b, "  Ngày bắt đầu: %s\n", s.StartDate)
			fmt.Fprintf(&b, "  Ngày kết thúc: %s\n", s.EndDate)
		}
	}

	if p.Profile != nil {
		sv := p.Profile
		b.WriteString("\n")
		b.WriteString(profileHeading)
		b.WriteString("\n")
		for _, line := range [][2]string{
			{"Mã sinh viên", sv.ID},
			{"Tên sinh viên", sv.Name},
			{"Ngành", sv.Major},
			{"Lớp", sv.ClassName},
			{"Ngày sinh", sv.BirthDate},
			{"Giới tính", sv.Gender},
			{"Số điện thoại", sv.Phone},
			{"Email", sv.Email},
		} {
			if line[1] != "" {
				fmt.Fprintf(&b, "%s: %s\n", line[0], line[1])
			}
		}
	}

	fmt.Fprintf(&b, "\nBây giờ người dùng hỏi: %s\n%s", p.Utterance, answerSuffix)
	return b.String()
}

// Assembler gathers history, profile and timetable for a student and builds
// the prompt. It only reads.
type Assembler struct {
	DB         *gorm.DB
	History    history.Store
	HistoryCap int
}

// Assemble fetches the three fact sources concurrently. When any fetch fails
// it returns an error wrapping ErrDataUnavailable together with whatever was
// gathered, so the caller can choose to abort or degrade.
func (a *Assembler) Assemble(ctx context.Context, studentID, utterance string) (PromptContext, error) {
	ctx, span := otel.Tracer("services/Assembler").Start(ctx, "Assemble",
		trace.WithAttributes(attribute.String("student.id", studentID)),
	)
	defer span.End()

	pc := PromptContext{Utterance: utterance}

	var (
		g                             errgroup.Group
		histErr, profileErr, schedErr error
	)
	g.Go(func() error {
		turns, err := a.History.Recent(ctx, studentID, a.HistoryCap)
		if err != nil {
			histErr = fmt.Errorf("history: %w", err)
			return histErr
		}
		pc.History = history.Chronological(turns)
		return nil
	})
	g.Go(func() error {
		sv, err := repo.GetStudent(ctx, a.DB, studentID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			profileErr = fmt.Errorf("profile: %w", err)
			return profileErr
		}
		pc.Profile = sv
		return nil
	})
	g.Go(func() error {
		rows, err := repo.ListStudentSchedules(ctx, a.DB, studentID)
		if err != nil {
			schedErr = fmt.Errorf("schedule: %w", err)
			return schedErr
		}
		pc.Schedule = rows
		return nil
	})

	if g.Wait() != nil {
		err := fmt.Errorf("%w: %w", ErrDataUnavailable, errors.Join(histErr, profileErr, schedErr))
		span.RecordError(err)
		return pc, err
	}
	span.SetAttributes(
		attribute.Int("history.turns", len(pc.History)),
		attribute.Int("schedule.rows", len(pc.Schedule)),
	)
	return pc, nil
}
