package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/campus-assistant/internal/domain"
	"github.com/tbourn/campus-assistant/internal/history"
	"github.com/tbourn/campus-assistant/internal/llm"
	"github.com/tbourn/campus-assistant/internal/repo"
)

// StudentChatService answers student questions with their history, profile
// and timetable folded into the prompt, and records each exchange.
type StudentChatService struct {
	DB        *gorm.DB
	Assembler *Assembler
	Gateway   llm.Gateway
	History   history.Store
	Gen       llm.GenerationConfig

	MaxPromptRunes int

	// DegradeOnFetchErr answers from partial context when a fact source
	// fails instead of failing the request.
	DegradeOnFetchErr bool
}

// NewStudentChatService wires a StudentChatService over a persisted history.
func NewStudentChatService(db *gorm.DB, gw llm.Gateway, store history.Store, historyCap int, gen llm.GenerationConfig) *StudentChatService {
	return &StudentChatService{
		DB:        db,
		Assembler: &Assembler{DB: db, History: store, HistoryCap: historyCap},
		Gateway:   gw,
		History:   store,
		Gen:       gen,
	}
}

// Send answers message for studentID and persists the exchange.
func (s *StudentChatService) Send(ctx context.Context, studentID, message string) (string, error) {
	ctx, span := otel.Tracer("services/StudentChatService").Start(ctx, "Send",
		trace.WithAttributes(attribute.String("student.id", studentID)),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(message) > s.MaxPromptRunes {
		return "", ErrTooLong
	}

	// The turn references the student row, so an unknown identity is
	// rejected before the model is called.
	pc, err := s.Assembler.Assemble(ctx, studentID, message)
	switch {
	case err == nil:
		if pc.Profile == nil {
			return "", ErrUnknownStudent
		}
	case !s.DegradeOnFetchErr || !errors.Is(err, ErrDataUnavailable):
		return "", err
	default:
		if pc.Profile == nil {
			if err := s.requireStudent(ctx, studentID); err != nil {
				return "", err
			}
		}
		zerolog.Ctx(ctx).Warn().Err(err).Str("student_id", studentID).Msg("answering with partial context")
	}

	reply, err := s.Gateway.Complete(ctx, pc.Render(), s.Gen)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	turn := domain.ChatTurn{UserInput: message, ModelReply: reply, CreatedAt: time.Now().UTC()}
	if err := s.History.Append(ctx, studentID, turn); err != nil {
		span.RecordError(err)
		return "", err
	}
	return reply, nil
}

// requireStudent confirms the student row exists.
func (s *StudentChatService) requireStudent(ctx context.Context, studentID string) error {
	_, err := repo.GetStudent(ctx, s.DB, studentID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrUnknownStudent
	case err != nil:
		return fmt.Errorf("%w: profile: %w", ErrDataUnavailable, err)
	}
	return nil
}

// HistoryPage returns a page of persisted turns, newest first, and the total.
func (s *StudentChatService) HistoryPage(ctx context.Context, studentID string, page, pageSize int) ([]domain.ChatTurn, int64, error) {
	ctx, span := otel.Tracer("services/StudentChatService").Start(ctx, "HistoryPage",
		trace.WithAttributes(
			attribute.String("student.id", studentID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	total, err := repo.CountChatTurns(ctx, s.DB, studentID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ChatTurn{}, 0, nil
	}
	items, err := repo.ListChatTurnsPage(ctx, s.DB, studentID, (page-1)*pageSize, pageSize)
	return items, total, err
}

// HistoryStats reports the turn count and latest timestamp, used for
// conditional GETs.
func (s *StudentChatService) HistoryStats(ctx context.Context, studentID string) (int64, *time.Time, error) {
	return repo.ChatTurnsStats(ctx, s.DB, studentID)
}

// Timetable returns the student's schedule rows.
func (s *StudentChatService) Timetable(ctx context.Context, studentID string) ([]domain.ScheduleView, error) {
	return repo.ListStudentSchedules(ctx, s.DB, studentID)
}
