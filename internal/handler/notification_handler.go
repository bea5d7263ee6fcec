package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/november/internal/middleware"
	"github.com/hitoshi/november/internal/model"
	"github.com/hitoshi/november/internal/notification"
)

// NotifierInterface は通知ハンドラーが必要とするディスパッチャーのインターフェース。
type NotifierInterface interface {
	// NotifyChapter は全登録読者に新着章の通知を送信する。
	NotifyChapter(ctx context.Context, chapterNumber int) (*notification.Summary, error)
}

// NotificationHandler は新着章通知のHTTPハンドラー。管理者のみ実行できる。
type NotificationHandler struct {
	notifier   NotifierInterface
	userFinder UserFinder
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(notifier NotifierInterface, userFinder UserFinder) *NotificationHandler {
	return &NotificationHandler{
		notifier:   notifier,
		userFinder: userFinder,
	}
}

// sendNotificationRequest は通知送信リクエストのボディ。
type sendNotificationRequest struct {
	ChapterNumber int `json:"chapterNumber"`
}

// SendNotification は全登録読者に新着章のDM通知をファンアウトする。
// 宛先ごとの成否を集計して返し、一部の失敗で全体を中断しない。
// POST /sendCliqNotification
func (h *NotificationHandler) SendNotification(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	caller, err := h.userFinder.FindByID(r.Context(), userID)
	if err != nil || caller == nil {
		writeError(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}
	if !caller.IsAdmin {
		writeError(w, http.StatusForbidden, model.NewForbiddenError("Admin access required"))
		return
	}

	var req sendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.NewInvalidRequestError("Invalid request body"))
		return
	}
	if req.ChapterNumber <= 0 {
		writeError(w, http.StatusBadRequest, model.NewInvalidRequestError("Chapter number required"))
		return
	}

	summary, err := h.notifier.NotifyChapter(r.Context(), req.ChapterNumber)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Notifications sent",
		"sent":    summary.Sent,
		"failed":  summary.Failed,
		"total":   summary.Total,
		"details": summary.Details,
	})
}
