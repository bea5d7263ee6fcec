package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/november/internal/comment"
	"github.com/hitoshi/november/internal/model"
)

// --- モック定義 ---

type mockCommentService struct {
	listByChapterFunc func(ctx context.Context, chapterID string) ([]*model.Comment, error)
	addFunc           func(ctx context.Context, user *model.User, chapterID, body string) (*model.Comment, error)
	deleteFunc        func(ctx context.Context, userID, commentID string) error
}

func (m *mockCommentService) ListByChapter(ctx context.Context, chapterID string) ([]*model.Comment, error) {
	return m.listByChapterFunc(ctx, chapterID)
}

func (m *mockCommentService) Add(ctx context.Context, user *model.User, chapterID, body string) (*model.Comment, error) {
	return m.addFunc(ctx, user, chapterID, body)
}

func (m *mockCommentService) Delete(ctx context.Context, userID, commentID string) error {
	return m.deleteFunc(ctx, userID, commentID)
}

type mockUserFinder struct {
	findByIDFunc func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserFinder) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFunc(ctx, id)
}

func knownUserFinder() *mockUserFinder {
	return &mockUserFinder{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "reader@example.com", Name: "Reader"}, nil
		},
	}
}

// --- テスト ---

func TestGetComments(t *testing.T) {
	now := time.Date(2025, 11, 12, 9, 30, 0, 0, time.UTC)
	service := &mockCommentService{
		listByChapterFunc: func(ctx context.Context, chapterID string) ([]*model.Comment, error) {
			return []*model.Comment{
				{ID: "c-2", ChapterID: chapterID, UserID: "u-1", UserName: "Reader", UserEmail: "reader@example.com", Body: "Latest", CreatedAt: now},
				{ID: "c-1", ChapterID: chapterID, UserID: "u-2", UserName: "Other", UserEmail: "other@example.com", Body: "First", CreatedAt: now.Add(-time.Hour)},
			}, nil
		},
	}
	h := NewCommentHandler(service, knownUserFinder())

	req := httptest.NewRequest(http.MethodGet, "/getComments?chapterId=chapter-1", nil)
	rec := httptest.NewRecorder()
	h.GetComments(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["chapterId"] != "chapter-1" {
		t.Errorf("chapterId = %v", body["chapterId"])
	}
	if body["total"] != float64(2) {
		t.Errorf("total = %v, want 2", body["total"])
	}
	comments := body["comments"].([]any)
	first := comments[0].(map[string]any)
	if first["id"] != "c-2" || first["comment"] != "Latest" || first["userName"] != "Reader" {
		t.Errorf("unexpected first comment: %v", first)
	}
}

func TestGetComments_MissingChapterID(t *testing.T) {
	h := NewCommentHandler(&mockCommentService{}, knownUserFinder())

	req := httptest.NewRequest(http.MethodGet, "/getComments", nil)
	rec := httptest.NewRecorder()
	h.GetComments(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAddComment(t *testing.T) {
	service := &mockCommentService{
		addFunc: func(ctx context.Context, user *model.User, chapterID, body string) (*model.Comment, error) {
			if user.ID != "user-1" {
				t.Errorf("user.ID = %s", user.ID)
			}
			return &model.Comment{
				ID:        "c-1",
				ChapterID: chapterID,
				UserID:    user.ID,
				UserName:  user.Name,
				UserEmail: user.Email,
				Body:      body,
				CreatedAt: time.Now(),
			}, nil
		},
	}
	h := NewCommentHandler(service, knownUserFinder())

	req := authedRequest(http.MethodPost, "/addComment", `{"chapterId":"chapter-1","comment":"Great chapter!"}`, "user-1")
	rec := httptest.NewRecorder()
	h.AddComment(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["message"] != "Comment posted successfully" {
		t.Errorf("message = %v", body["message"])
	}
	posted := body["comment"].(map[string]any)
	if posted["comment"] != "Great chapter!" || posted["userEmail"] != "reader@example.com" {
		t.Errorf("unexpected comment payload: %v", posted)
	}
}

func TestAddComment_ValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{"missing chapterId", `{"comment":"hi"}`, nil, http.StatusBadRequest},
		{"missing comment", `{"chapterId":"c1"}`, nil, http.StatusBadRequest},
		{"empty after sanitize", `{"chapterId":"c1","comment":"<b></b>"}`, comment.ErrEmptyBody, http.StatusBadRequest},
		{"too long", `{"chapterId":"c1","comment":"x"}`, comment.ErrBodyTooLong, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockCommentService{
				addFunc: func(ctx context.Context, user *model.User, chapterID, body string) (*model.Comment, error) {
					return nil, tt.serviceErr
				},
			}
			h := NewCommentHandler(service, knownUserFinder())

			req := authedRequest(http.MethodPost, "/addComment", tt.body, "user-1")
			rec := httptest.NewRecorder()
			h.AddComment(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAddComment_UnknownUser(t *testing.T) {
	finder := &mockUserFinder{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}
	h := NewCommentHandler(&mockCommentService{}, finder)

	req := authedRequest(http.MethodPost, "/addComment", `{"chapterId":"c1","comment":"hi"}`, "ghost")
	rec := httptest.NewRecorder()
	h.AddComment(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestDeleteComment(t *testing.T) {
	service := &mockCommentService{
		deleteFunc: func(ctx context.Context, userID, commentID string) error {
			if userID != "user-1" || commentID != "c-1" {
				t.Errorf("unexpected delete args: %s %s", userID, commentID)
			}
			return nil
		},
	}
	h := NewCommentHandler(service, knownUserFinder())

	req := authedRequest(http.MethodDelete, "/deleteComment", `{"commentId":"c-1"}`, "user-1")
	rec := httptest.NewRecorder()
	h.DeleteComment(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["message"] != "Comment deleted successfully" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestDeleteComment_Forbidden(t *testing.T) {
	service := &mockCommentService{
		deleteFunc: func(ctx context.Context, userID, commentID string) error {
			return model.ErrForbidden
		},
	}
	h := NewCommentHandler(service, knownUserFinder())

	req := authedRequest(http.MethodDelete, "/deleteComment", `{"commentId":"c-1"}`, "user-2")
	rec := httptest.NewRecorder()
	h.DeleteComment(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestDeleteComment_NotFound(t *testing.T) {
	service := &mockCommentService{
		deleteFunc: func(ctx context.Context, userID, commentID string) error {
			return model.ErrCommentNotFound
		},
	}
	h := NewCommentHandler(service, knownUserFinder())

	req := authedRequest(http.MethodDelete, "/deleteComment", `{"commentId":"missing"}`, "user-1")
	rec := httptest.NewRecorder()
	h.DeleteComment(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
