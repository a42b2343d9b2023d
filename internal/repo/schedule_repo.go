package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/campus-assistant/internal/domain"
)

const scheduleViewColumns = `schedules.id, schedules.weekday, schedules.period, schedules.room,
	schedules.student_id, students.name AS student_name,
	schedules.subject_id, subjects.name AS subject_name,
	schedules.teacher_id, teachers.name AS teacher_name,
	schedules.start_date, schedules.end_date`

func scheduleViews(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Table("schedules").
		Select(scheduleViewColumns).
		Joins("LEFT JOIN students ON students.id = schedules.student_id").
		Joins("LEFT JOIN subjects ON subjects.id = schedules.subject_id").
		Joins("LEFT JOIN teachers ON teachers.id = schedules.teacher_id").
		Order("schedules.weekday ASC, schedules.period ASC, schedules.room ASC")
}

// ListStudentSchedules returns the timetable of studentID joined with subject
// and teacher names, ordered by weekday then period.
func ListStudentSchedules(ctx context.Context, db *gorm.DB, studentID string) ([]domain.ScheduleView, error) {
	var out []domain.ScheduleView
	err := scheduleViews(ctx, db).
		Where("schedules.student_id = ?", studentID).
		Scan(&out).Error
	return out, err
}

// ListAllSchedules returns every schedule joined with display names.
func ListAllSchedules(ctx context.Context, db *gorm.DB) ([]domain.ScheduleView, error) {
	var out []domain.ScheduleView
	err := scheduleViews(ctx, db).Scan(&out).Error
	return out, err
}

// FindScheduleConflict returns an existing schedule that occupies the same
// weekday, period and room with a date range overlapping [start, end], or
// ErrNotFound if the slot is free. Dates are "YYYY-MM-DD" strings, so
// lexical comparison is date comparison.
func FindScheduleConflict(ctx context.Context, db *gorm.DB, weekday, period int, room, start, end string) (*domain.Schedule, error) {
	var s domain.Schedule
	err := db.WithContext(ctx).
		Where("weekday = ? AND period = ? AND room = ?", weekday, period, room).
		Where("start_date <= ? AND end_date >= ?", end, start).
		Order("start_date ASC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSchedule inserts a schedule row with a fresh UUID.
func CreateSchedule(ctx context.Context, db *gorm.DB, s domain.Schedule) (*domain.Schedule, error) {
	s.ID = uuid.NewString()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSchedule fetches a schedule by id.
func GetSchedule(ctx context.Context, db *gorm.DB, id string) (*domain.Schedule, error) {
	var s domain.Schedule
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSchedules removes the rows matching a (weekday, period, room,
// student) slot. It returns ErrNotFound when nothing matched.
func DeleteSchedules(ctx context.Context, db *gorm.DB, weekday, period int, room, studentID string) (int64, error) {
	if room == "" || studentID == "" {
		return 0, errors.New("repo: room and student are required")
	}
	res := db.WithContext(ctx).
		Where("weekday = ? AND period = ? AND room = ? AND student_id = ?", weekday, period, room, studentID).
		Delete(&domain.Schedule{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return res.RowsAffected, nil
}
