// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, rating, comment, signup, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeInvalidEmail        = "INVALID_EMAIL"
	ErrCodeInvalidRating       = "INVALID_RATING"
	ErrCodeCommentTooLong      = "COMMENT_TOO_LONG"
	ErrCodeChapterNotFound     = "CHAPTER_NOT_FOUND"
	ErrCodeCommentNotFound     = "COMMENT_NOT_FOUND"
	ErrCodeDuplicateRating     = "DUPLICATE_RATING"
	ErrCodeDuplicateSubscriber = "DUPLICATE_SUBSCRIBER"
)

// サービス層が返すセンチネルエラー。ハンドラーがHTTPステータスに対応付ける。
var (
	// ErrChapterNotFound は指定された章が存在しない場合に返す。
	ErrChapterNotFound = errors.New("chapter not found")
	// ErrCommentNotFound は指定されたコメントが存在しない場合に返す。
	ErrCommentNotFound = errors.New("comment not found")
	// ErrForbidden は他人のリソースへの操作を拒否する場合に返す。
	ErrForbidden = errors.New("forbidden")
	// ErrDuplicateSubscriber は登録済みメールアドレスの再登録時に返す。
	ErrDuplicateSubscriber = errors.New("email already registered")
)

// DuplicateRatingError は同一ユーザーによる同一章への再評価を表す。
// 既存の評価値と現在の章集計を保持し、409レスポンスに含める。
type DuplicateRatingError struct {
	ExistingRating int
	AverageRating  float64
	TotalRatings   int
}

// Error はerrorインターフェースを実装する。
func (e *DuplicateRatingError) Error() string {
	return fmt.Sprintf("chapter already rated (existing rating: %d)", e.ExistingRating)
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "User not authenticated",
		Category: "auth",
		Action:   "Log in and try again.",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  message,
		Category: "auth",
		Action:   "You can only modify your own resources.",
	}
}

// NewInvalidRequestError は入力検証エラーを生成する。
func NewInvalidRequestError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  message,
		Category: "validation",
		Action:   "Check the request fields and try again.",
	}
}

// NewInvalidEmailError はメールアドレス形式エラーを生成する。
func NewInvalidEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  "Invalid email format",
		Category: "validation",
		Action:   "Enter a valid email address.",
	}
}

// NewChapterNotFoundError は章未検出エラーを生成する。
func NewChapterNotFoundError(chapterID string) *APIError {
	return &APIError{
		Code:     ErrCodeChapterNotFound,
		Message:  fmt.Sprintf("Chapter not found: %s", chapterID),
		Category: "rating",
		Action:   "Check the chapter ID.",
	}
}

// NewCommentNotFoundError はコメント未検出エラーを生成する。
func NewCommentNotFoundError(commentID string) *APIError {
	return &APIError{
		Code:     ErrCodeCommentNotFound,
		Message:  fmt.Sprintf("Comment not found: %s", commentID),
		Category: "comment",
		Action:   "Check the comment ID.",
	}
}

// NewDuplicateSubscriberError は登録済みメールエラーを生成する。
func NewDuplicateSubscriberError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateSubscriber,
		Message:  "This email is already in use",
		Category: "signup",
		Action:   "Use a different email address.",
	}
}
