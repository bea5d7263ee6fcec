package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/november/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
// すべての成功レスポンスは success:true をペイロードに含めること。
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// writeError は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeError(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, map[string]any{
		"success":  false,
		"code":     apiErr.Code,
		"message":  apiErr.Message,
		"category": apiErr.Category,
		"action":   apiErr.Action,
	})
}

// handleServiceError はサービス層のエラーをHTTPステータスに対応付けて書き込む。
// センチネルエラーとAPIError以外は内部サーバーエラーとして扱い、
// 詳細はログのみに記録する。
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrChapterNotFound):
		writeError(w, http.StatusNotFound, &model.APIError{
			Code:     model.ErrCodeChapterNotFound,
			Message:  "Chapter not found",
			Category: "rating",
			Action:   "Check the chapter ID.",
		})
	case errors.Is(err, model.ErrCommentNotFound):
		writeError(w, http.StatusNotFound, &model.APIError{
			Code:     model.ErrCodeCommentNotFound,
			Message:  "Comment not found",
			Category: "comment",
			Action:   "Check the comment ID.",
		})
	case errors.Is(err, model.ErrForbidden):
		writeError(w, http.StatusForbidden, &model.APIError{
			Code:     model.ErrCodeForbidden,
			Message:  "You can only delete your own comments",
			Category: "auth",
			Action:   "You can only modify your own resources.",
		})
	case errors.Is(err, model.ErrDuplicateSubscriber):
		writeError(w, http.StatusConflict, model.NewDuplicateSubscriberError())
	default:
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			writeError(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
			return
		}

		slog.Error("internal server error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "Server error",
			"error":   err.Error(),
		})
	}
}

// mapAPIErrorToHTTPStatus はAPIErrorのコードをHTTPステータスに対応付ける。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidEmail,
		model.ErrCodeInvalidRating, model.ErrCodeCommentTooLong:
		return http.StatusBadRequest
	case model.ErrCodeChapterNotFound, model.ErrCodeCommentNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateRating, model.ErrCodeDuplicateSubscriber:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
