// Package comment は章へのコメントの投稿・取得・削除を提供する。
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/november/internal/model"
	"github.com/hitoshi/november/internal/repository"
)

// MaxBodyLength はコメント本文の最大文字数。
const MaxBodyLength = 1000

// 投稿時の入力検証エラー。ハンドラーが400に対応付ける。
var (
	ErrEmptyBody   = fmt.Errorf("comment cannot be empty")
	ErrBodyTooLong = fmt.Errorf("comment is too long (max %d characters)", MaxBodyLength)
)

// MetricsRecorder はコメントサービスが記録するメトリクスのインターフェース。
type MetricsRecorder interface {
	RecordCommentPosted()
}

// Service はコメントに関するビジネスロジックを提供する。
type Service struct {
	commentRepo repository.CommentRepository
	chapterRepo repository.ChapterRepository
	sanitizer   *bluemonday.Policy
	metrics     MetricsRecorder
}

// NewService はServiceを生成する。
// コメント本文はStrictPolicyでサニタイズし、HTMLタグを一切許可しない。
func NewService(commentRepo repository.CommentRepository, chapterRepo repository.ChapterRepository, metrics MetricsRecorder) *Service {
	return &Service{
		commentRepo: commentRepo,
		chapterRepo: chapterRepo,
		sanitizer:   bluemonday.StrictPolicy(),
		metrics:     metrics,
	}
}

// ListByChapter は章のコメント一覧を新しい順で返す。
// 章が存在しない場合はmodel.ErrChapterNotFoundを返す。
func (s *Service) ListByChapter(ctx context.Context, chapterID string) ([]*model.Comment, error) {
	chapter, err := s.chapterRepo.FindByID(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chapter: %w", err)
	}
	if chapter == nil {
		return nil, model.ErrChapterNotFound
	}

	comments, err := s.commentRepo.ListByChapterID(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

// Add はユーザーのコメントを投稿する。
// 本文はトリムとHTMLサニタイズを行い、空または1000文字超は拒否する。
func (s *Service) Add(ctx context.Context, user *model.User, chapterID, body string) (*model.Comment, error) {
	body = strings.TrimSpace(s.sanitizer.Sanitize(body))
	if body == "" {
		return nil, ErrEmptyBody
	}
	if len([]rune(body)) > MaxBodyLength {
		return nil, ErrBodyTooLong
	}

	chapter, err := s.chapterRepo.FindByID(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chapter: %w", err)
	}
	if chapter == nil {
		return nil, model.ErrChapterNotFound
	}

	newComment := &model.Comment{
		ID:        uuid.New().String(),
		ChapterID: chapterID,
		UserID:    user.ID,
		UserName:  user.Name,
		UserEmail: user.Email,
		Body:      body,
		CreatedAt: time.Now(),
	}

	if err := s.commentRepo.Create(ctx, newComment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.metrics.RecordCommentPosted()
	slog.Info("comment posted",
		slog.String("comment_id", newComment.ID),
		slog.String("chapter_id", chapterID),
		slog.String("user_id", user.ID),
	)

	return newComment, nil
}

// Delete はコメントを削除する。削除できるのは投稿者本人のみで、
// 他人のコメントの場合はmodel.ErrForbiddenを返す。
func (s *Service) Delete(ctx context.Context, userID, commentID string) error {
	target, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to fetch comment: %w", err)
	}
	if target == nil {
		return model.ErrCommentNotFound
	}

	if target.UserID != userID {
		return model.ErrForbidden
	}

	if err := s.commentRepo.DeleteByID(ctx, commentID); err != nil {
		return err
	}

	slog.Info("comment deleted",
		slog.String("comment_id", commentID),
		slog.String("user_id", userID),
	)

	return nil
}
