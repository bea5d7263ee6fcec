package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/november/internal/model"
)

func TestHandleServiceError_KnownSentinels(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"chapter not found", model.ErrChapterNotFound, http.StatusNotFound, model.ErrCodeChapterNotFound},
		{"comment not found", model.ErrCommentNotFound, http.StatusNotFound, model.ErrCodeCommentNotFound},
		{"forbidden", model.ErrForbidden, http.StatusForbidden, model.ErrCodeForbidden},
		{"duplicate subscriber", model.ErrDuplicateSubscriber, http.StatusConflict, model.ErrCodeDuplicateSubscriber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decodeBody(t, rec)
			if body["success"] != false {
				t.Error("success should be false")
			}
			if body["code"] != tt.wantCode {
				t.Errorf("code = %v, want %s", body["code"], tt.wantCode)
			}
		})
	}
}

func TestHandleServiceError_WrappedSentinel(t *testing.T) {
	rec := httptest.NewRecorder()
	handleServiceError(rec, errors.Join(errors.New("context"), model.ErrChapterNotFound))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for wrapped sentinel", rec.Code)
	}
}

func TestHandleServiceError_Unknown(t *testing.T) {
	rec := httptest.NewRecorder()
	handleServiceError(rec, errors.New("database connection lost"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != false {
		t.Error("success should be false")
	}
	if body["message"] != "Server error" {
		t.Errorf("message = %v", body["message"])
	}
}
