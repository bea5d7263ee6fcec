package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hitoshi/november/internal/comment"
	"github.com/hitoshi/november/internal/middleware"
	"github.com/hitoshi/november/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	// ListByChapter は章のコメント一覧を新しい順で返す。
	ListByChapter(ctx context.Context, chapterID string) ([]*model.Comment, error)
	// Add はユーザーのコメントを投稿する。
	Add(ctx context.Context, user *model.User, chapterID, body string) (*model.Comment, error)
	// Delete はコメントを削除する。投稿者本人のみ。
	Delete(ctx context.Context, userID, commentID string) error
}

// UserFinder はIDからユーザーを取得するインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// CommentHandler は章へのコメントに関するHTTPハンドラー。
type CommentHandler struct {
	service    CommentServiceInterface
	userFinder UserFinder
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface, userFinder UserFinder) *CommentHandler {
	return &CommentHandler{
		service:    service,
		userFinder: userFinder,
	}
}

// commentResponse はコメント1件のAPIレスポンス。
type commentResponse struct {
	ID        string    `json:"id"`
	ChapterID string    `json:"chapterId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	UserEmail string    `json:"userEmail"`
	Comment   string    `json:"comment"`
	Timestamp time.Time `json:"timestamp"`
}

func toCommentResponse(c *model.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		ChapterID: c.ChapterID,
		UserID:    c.UserID,
		UserName:  c.UserName,
		UserEmail: c.UserEmail,
		Comment:   c.Body,
		Timestamp: c.CreatedAt,
	}
}

// GetComments は章のコメント一覧を新しい順で取得する。
// GET /getComments?chapterId={id}
func (h *CommentHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	chapterID := r.URL.Query().Get("chapterId")
	if chapterID == "" {
		writeError(w, http.StatusBadRequest, model.NewInvalidRequestError("chapterId is required"))
		return
	}

	comments, err := h.service.ListByChapter(r.Context(), chapterID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		responses = append(responses, toCommentResponse(c))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"chapterId": chapterID,
		"comments":  responses,
		"total":     len(responses),
	})
}

// addCommentRequest はコメント投稿リクエストのボディ。
type addCommentRequest struct {
	ChapterID string `json:"chapterId"`
	Comment   string `json:"comment"`
}

// AddComment はログインユーザーのコメントを投稿する。
// POST /addComment
func (h *CommentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.NewInvalidRequestError("Invalid request body"))
		return
	}

	if req.ChapterID == "" || req.Comment == "" {
		writeError(w, http.StatusBadRequest, model.NewInvalidRequestError("chapterId and comment are required"))
		return
	}

	user, err := h.userFinder.FindByID(r.Context(), userID)
	if err != nil || user == nil {
		writeError(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	posted, err := h.service.Add(r.Context(), user, req.ChapterID, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, comment.ErrEmptyBody):
			writeError(w, http.StatusBadRequest, model.NewInvalidRequestError("Comment cannot be empty"))
		case errors.Is(err, comment.ErrBodyTooLong):
			writeError(w, http.StatusBadRequest, &model.APIError{
				Code:     model.ErrCodeCommentTooLong,
				Message:  "Comment is too long (max 1000 characters)",
				Category: "comment",
				Action:   "Shorten the comment and try again.",
			})
		default:
			handleServiceError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Comment posted successfully",
		"comment": toCommentResponse(posted),
	})
}

// deleteCommentRequest はコメント削除リクエストのボディ。
type deleteCommentRequest struct {
	CommentID string `json:"commentId"`
}

// DeleteComment はコメントを削除する。削除できるのは投稿者本人のみ。
// DELETE /deleteComment
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req deleteCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.NewInvalidRequestError("Invalid request body"))
		return
	}

	if req.CommentID == "" {
		writeError(w, http.StatusBadRequest, model.NewInvalidRequestError("commentId is required"))
		return
	}

	if err := h.service.Delete(r.Context(), userID, req.CommentID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Comment deleted successfully",
	})
}
