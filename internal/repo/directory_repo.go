package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/campus-assistant/internal/domain"
)

// GetStudent fetches a student profile by student number. It returns
// ErrNotFound when the student does not exist.
func GetStudent(ctx context.Context, db *gorm.DB, id string) (*domain.Student, error) {
	var s domain.Student
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListStudents returns all students ordered by name.
func ListStudents(ctx context.Context, db *gorm.DB) ([]domain.Student, error) {
	var out []domain.Student
	err := db.WithContext(ctx).Order("name ASC, id ASC").Find(&out).Error
	return out, err
}

// ListSubjects returns all subjects ordered by name.
func ListSubjects(ctx context.Context, db *gorm.DB) ([]domain.Subject, error) {
	var out []domain.Subject
	err := db.WithContext(ctx).Order("name ASC, id ASC").Find(&out).Error
	return out, err
}

// ListTeachers returns all teachers ordered by name.
func ListTeachers(ctx context.Context, db *gorm.DB) ([]domain.Teacher, error) {
	var out []domain.Teacher
	err := db.WithContext(ctx).Order("name ASC, id ASC").Find(&out).Error
	return out, err
}

// MissingReferences reports which of the given student, subject and teacher
// ids do not exist. The result holds the wire names of the missing fields
// (masv, mamh, magv) in that order.
func MissingReferences(ctx context.Context, db *gorm.DB, studentID, subjectID, teacherID string) ([]string, error) {
	checks := []struct {
		field string
		model any
		id    string
	}{
		{"masv", &domain.Student{}, studentID},
		{"mamh", &domain.Subject{}, subjectID},
		{"magv", &domain.Teacher{}, teacherID},
	}
	var missing []string
	for _, c := range checks {
		var n int64
		if err := db.WithContext(ctx).Model(c.model).Where("id = ?", c.id).Count(&n).Error; err != nil {
			return nil, err
		}
		if n == 0 {
			missing = append(missing, c.field)
		}
	}
	return missing, nil
}
