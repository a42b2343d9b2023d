package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/campus-assistant/internal/domain"
	"github.com/tbourn/campus-assistant/internal/repo"
)

// IntField is an optional integer that also accepts its decimal string
// form, since HTML selects submit strings. Whole floats such as 2.0 count
// as integers. A blank string counts as absent; any other non-integer is
// present with value 0, which no range accepts.
type IntField struct {
	N       int
	Present bool
}

// Int returns a present IntField.
func Int(n int) IntField { return IntField{N: n, Present: true} }

func (f *IntField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = IntField{}
		return nil
	}
	var num json.Number
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = IntField{}
			return nil
		}
		num = json.Number(s)
	} else if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*f = IntField{N: integral(num), Present: true}
	return nil
}

// integral returns num when it holds a whole value such as 3 or 3.0,
// and 0 otherwise.
func integral(num json.Number) int {
	if n, err := strconv.Atoi(num.String()); err == nil {
		return n
	}
	v, err := num.Float64()
	if err != nil || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0
	}
	return int(v)
}

func (f IntField) MarshalJSON() ([]byte, error) {
	if !f.Present {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(f.N)), nil
}

// ScheduleCommand is the payload of a schedule form submission.
type ScheduleCommand struct {
	Weekday   IntField `json:"thu"`
	Period    IntField `json:"ca"`
	Room      string   `json:"phong"`
	StudentID string   `json:"masv"`
	SubjectID string   `json:"mamh"`
	TeacherID string   `json:"magv"`
	StartDate string   `json:"ngaybatdau"`
	EndDate   string   `json:"ngayketthuc"`
}

// ScheduleService validates, commits, lists and deletes timetable rows.
type ScheduleService struct {
	DB *gorm.DB
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(db *gorm.DB) *ScheduleService {
	return &ScheduleService{DB: db}
}

// Validate runs the checks that need no store access, in order: presence,
// weekday, period, date range. It returns the normalized row to insert.
func (s *ScheduleService) Validate(cmd ScheduleCommand) (domain.Schedule, error) {
	var missing []string
	check := func(ok bool, field string) {
		if !ok {
			missing = append(missing, field)
		}
	}
	room := strings.TrimSpace(cmd.Room)
	check(cmd.Weekday.Present, "thu")
	check(cmd.Period.Present, "ca")
	check(room != "", "phong")
	check(strings.TrimSpace(cmd.StudentID) != "", "masv")
	check(strings.TrimSpace(cmd.SubjectID) != "", "mamh")
	check(strings.TrimSpace(cmd.TeacherID) != "", "magv")
	check(strings.TrimSpace(cmd.StartDate) != "", "ngaybatdau")
	check(strings.TrimSpace(cmd.EndDate) != "", "ngayketthuc")
	if len(missing) > 0 {
		return domain.Schedule{}, invalid(ErrMissingFields, "Vui lòng điền đầy đủ thông tin", missing...)
	}

	if cmd.Weekday.N < domain.MinWeekday || cmd.Weekday.N > domain.MaxWeekday {
		return domain.Schedule{}, invalid(ErrInvalidWeekday, "Thứ phải từ 2-8", "thu")
	}
	if cmd.Period.N < domain.MinPeriod || cmd.Period.N > domain.MaxPeriod {
		return domain.Schedule{}, invalid(ErrInvalidPeriod, "Ca học phải từ 1-4", "ca")
	}

	start, err := parseDate(cmd.StartDate)
	if err != nil {
		return domain.Schedule{}, invalid(ErrInvalidDateRange, "Ngày bắt đầu không hợp lệ", "ngaybatdau")
	}
	end, err := parseDate(cmd.EndDate)
	if err != nil {
		return domain.Schedule{}, invalid(ErrInvalidDateRange, "Ngày kết thúc không hợp lệ", "ngayketthuc")
	}
	if !start.Before(end) {
		return domain.Schedule{}, invalid(ErrInvalidDateRange, "Ngày kết thúc phải sau ngày bắt đầu", "ngaybatdau", "ngayketthuc")
	}

	return domain.Schedule{
		Weekday:   cmd.Weekday.N,
		Period:    cmd.Period.N,
		Room:      room,
		StudentID: strings.TrimSpace(cmd.StudentID),
		SubjectID: strings.TrimSpace(cmd.SubjectID),
		TeacherID: strings.TrimSpace(cmd.TeacherID),
		StartDate: start.Format(domain.DateLayout),
		EndDate:   end.Format(domain.DateLayout),
	}, nil
}

// ValidateAndCommit validates cmd and inserts it. The conflict check,
// reference check and insert share one transaction. On any rejection
// nothing is written and a *ValidationError is returned.
func (s *ScheduleService) ValidateAndCommit(ctx context.Context, cmd ScheduleCommand) (*domain.Schedule, error) {
	ctx, span := otel.Tracer("services/ScheduleService").Start(ctx, "ValidateAndCommit",
		trace.WithAttributes(
			attribute.String("schedule.room", cmd.Room),
			attribute.String("schedule.student", cmd.StudentID),
		),
	)
	defer span.End()

	row, err := s.Validate(cmd)
	if err != nil {
		recordRejection(err)
		return nil, err
	}

	var created *domain.Schedule
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			// Serialize writers so two overlapping submissions cannot both
			// pass the conflict check.
			if err := tx.Exec("LOCK TABLE schedules IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
				return err
			}
		}

		existing, err := repo.FindScheduleConflict(ctx, tx, row.Weekday, row.Period, row.Room, row.StartDate, row.EndDate)
		switch {
		case err == nil:
			zerolog.Ctx(ctx).Debug().Str("existing_id", existing.ID).Msg("schedule slot taken")
			return invalid(ErrScheduleConflict, "Đã có lịch học khác trong thời gian này")
		case !errors.Is(err, repo.ErrNotFound):
			return err
		}

		missing, err := repo.MissingReferences(ctx, tx, row.StudentID, row.SubjectID, row.TeacherID)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return invalid(ErrUnknownReference, "Không tìm thấy "+strings.Join(missing, ", "), missing...)
		}

		created, err = repo.CreateSchedule(ctx, tx, row)
		return err
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			recordRejection(err)
			return nil, err
		}
		scheduleCommands.WithLabelValues("error").Inc()
		span.RecordError(err)
		return nil, err
	}
	scheduleCommands.WithLabelValues("committed").Inc()
	return created, nil
}

// Get returns a schedule row by id.
func (s *ScheduleService) Get(ctx context.Context, id string) (*domain.Schedule, error) {
	row, err := repo.GetSchedule(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrScheduleNotFound
	}
	return row, err
}

// ListAll returns every schedule with display names.
func (s *ScheduleService) ListAll(ctx context.Context) ([]domain.ScheduleView, error) {
	return repo.ListAllSchedules(ctx, s.DB)
}

// ListForStudent returns the timetable of one student.
func (s *ScheduleService) ListForStudent(ctx context.Context, studentID string) ([]domain.ScheduleView, error) {
	return repo.ListStudentSchedules(ctx, s.DB, studentID)
}

// Delete removes the schedule occupying a student's slot.
func (s *ScheduleService) Delete(ctx context.Context, weekday, period int, room, studentID string) error {
	_, err := repo.DeleteSchedules(ctx, s.DB, weekday, period, strings.TrimSpace(room), strings.TrimSpace(studentID))
	if errors.Is(err, repo.ErrNotFound) {
		return ErrScheduleNotFound
	}
	return err
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	// Date inputs sometimes arrive as full ISO timestamps.
	if len(s) > len(domain.DateLayout) && s[len(domain.DateLayout)] == 'T' {
		s = s[:len(domain.DateLayout)]
	}
	return time.Parse(domain.DateLayout, s)
}

func recordRejection(err error) {
	label := "rejected"
	var verr *ValidationError
	if errors.As(err, &verr) {
		label = "rejected_" + strings.ReplaceAll(verr.Kind.Error(), " ", "_")
	}
	scheduleCommands.WithLabelValues(label).Inc()
}
