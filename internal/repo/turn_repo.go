// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for persisted
// chat turns.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Ordering: turns are ordered by (created_at, id) so that turns recorded in
// the same clock tick still have a stable order.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/campus-assistant/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateChatTurn inserts a completed exchange for studentID. A zero
// turn.CreatedAt is stamped with the current UTC time.
func CreateChatTurn(ctx context.Context, db *gorm.DB, studentID string, turn domain.ChatTurn) (*domain.ChatTurn, error) {
	t := &domain.ChatTurn{
		ID:         uuid.NewString(),
		StudentID:  studentID,
		UserInput:  turn.UserInput,
		ModelReply: turn.ModelReply,
		CreatedAt:  turn.CreatedAt,
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// RecentChatTurns returns at most limit turns of studentID, most recent first.
func RecentChatTurns(ctx context.Context, db *gorm.DB, studentID string, limit int) ([]domain.ChatTurn, error) {
	var out []domain.ChatTurn
	if limit <= 0 {
		return out, nil
	}
	err := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountChatTurns returns the number of persisted turns of studentID.
func CountChatTurns(ctx context.Context, db *gorm.DB, studentID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ChatTurn{}).
		Where("student_id = ?", studentID).
		Count(&total).Error
	return total, err
}

// ListChatTurnsPage returns a page of studentID's turns, most recent first.
// The caller computes offset and limit (e.g., (page-1)*pageSize).
func ListChatTurnsPage(ctx context.Context, db *gorm.DB, studentID string, offset, limit int) ([]domain.ChatTurn, error) {
	var out []domain.ChatTurn
	err := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// DeleteChatTurns removes every turn of studentID and reports how many rows
// were removed.
func DeleteChatTurns(ctx context.Context, db *gorm.DB, studentID string) (int64, error) {
	res := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&domain.ChatTurn{})
	return res.RowsAffected, res.Error
}
