// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on the localized message. writeError maps service errors to a status,
// a code and the user-facing text.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/campus-assistant/internal/http/middleware"
	"github.com/tbourn/campus-assistant/internal/llm"
	"github.com/tbourn/campus-assistant/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeEmptyPrompt      = "empty_prompt"
	ErrCodePromptTooLong    = "prompt_too_long"
	ErrCodeDataUnavailable  = "data_unavailable"
	ErrCodeModelUnavailable = "model_unavailable"
	ErrCodeEmptyCompletion  = "empty_completion"
	ErrCodeUnknownStudent   = "unknown_student"
)

// User-facing messages.
const (
	msgInternal         = "Internal server error"
	msgProcessingFailed = "Có lỗi xảy ra khi xử lý yêu cầu"
	msgModelUnavailable = "Không thể kết nối đến AI service"
	msgEmptyCompletion  = "AI không trả lời, vui lòng thử lại"
	msgEmptyPrompt      = "Vui lòng nhập tin nhắn"
	msgPromptTooLong    = "Tin nhắn quá dài"
	msgScheduleNotFound = "Không tìm thấy lịch học"
	msgBadBody          = "Dữ liệu gửi lên không hợp lệ"
	msgNoIdentity       = "Không tìm thấy token"
	msgUnknownStudent   = "Không tìm thấy thông tin sinh viên"
)

// writeError translates a service error into the error envelope.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyPrompt):
		fail(c, http.StatusBadRequest, ErrCodeEmptyPrompt, msgEmptyPrompt)
	case errors.Is(err, services.ErrTooLong):
		fail(c, http.StatusBadRequest, ErrCodePromptTooLong, msgPromptTooLong)
	case errors.Is(err, services.ErrUnknownStudent):
		fail(c, http.StatusForbidden, ErrCodeUnknownStudent, msgUnknownStudent)
	case errors.Is(err, services.ErrScheduleNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, msgScheduleNotFound)
	case errors.Is(err, llm.ErrModelUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeModelUnavailable, msgModelUnavailable)
	case errors.Is(err, llm.ErrEmptyCompletion):
		fail(c, http.StatusInternalServerError, ErrCodeEmptyCompletion, msgEmptyCompletion)
	case errors.Is(err, services.ErrDataUnavailable):
		middleware.LoggerFrom(c).Error().Err(err).Msg("context assembly failed")
		fail(c, http.StatusInternalServerError, ErrCodeDataUnavailable, msgProcessingFailed)
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("request failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, msgInternal)
	}
}
