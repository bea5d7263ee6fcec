package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hitoshi/november/internal/model"
	"github.com/hitoshi/november/internal/signup"
)

// SignupServiceInterface は購読登録ハンドラーが必要とするサービスインターフェース。
type SignupServiceInterface interface {
	// Register はメールアドレスを正規化・検証して購読者として登録する。
	Register(ctx context.Context, email string) (string, error)
}

// SignupHandler はメールアドレスによる購読登録のHTTPハンドラー。
type SignupHandler struct {
	service SignupServiceInterface
}

// NewSignupHandler はSignupHandlerを生成する。
func NewSignupHandler(service SignupServiceInterface) *SignupHandler {
	return &SignupHandler{
		service: service,
	}
}

// signupRequest は購読登録リクエストのボディ。
type signupRequest struct {
	Email string `json:"email"`
}

// Signup はメールアドレスを購読者として登録する。
// 形式不正は400、登録済み（大文字小文字を区別しない）は409を返す。
// POST /signup
func (h *SignupHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.NewInvalidRequestError("Invalid request body"))
		return
	}

	if req.Email == "" {
		writeError(w, http.StatusBadRequest, model.NewInvalidRequestError("Email is required"))
		return
	}

	email, err := h.service.Register(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, signup.ErrInvalidEmail) {
			writeError(w, http.StatusBadRequest, model.NewInvalidEmailError())
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Email registered successfully",
		"email":   email,
	})
}
