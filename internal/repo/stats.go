// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/campus-assistant/internal/domain"
)

// ChatTurnsStats returns the number of persisted turns of studentID and the
// newest CreatedAt among them. When there are no turns, count is 0 and
// latest is nil.
func ChatTurnsStats(ctx context.Context, db *gorm.DB, studentID string) (count int64, latest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.ChatTurn{}).Where("student_id = ?", studentID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Avoid MAX() -> TEXT in SQLite.
	var row struct {
		CreatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.ChatTurn{}).
		Where("student_id = ?", studentID).
		Select("created_at").
		Order("created_at DESC").
		Limit(1).
		Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
