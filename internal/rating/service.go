// Package rating は章への評価の受付と集計取得を提供する。
package rating

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/november/internal/model"
	"github.com/hitoshi/november/internal/repository"
)

// MetricsRecorder は評価サービスが記録するメトリクスのインターフェース。
type MetricsRecorder interface {
	RecordRatingSubmitted(value int)
	RecordDuplicateRatingBlocked()
}

// Service は評価に関するビジネスロジックを提供する。
type Service struct {
	ratingRepo  repository.RatingRepository
	chapterRepo repository.ChapterRepository
	metrics     MetricsRecorder
}

// NewService はServiceを生成する。
func NewService(ratingRepo repository.RatingRepository, chapterRepo repository.ChapterRepository, metrics MetricsRecorder) *Service {
	return &Service{
		ratingRepo:  ratingRepo,
		chapterRepo: chapterRepo,
		metrics:     metrics,
	}
}

// Submit はユーザーの評価を受け付け、更新後の章集計を返す。
// 重複チェック・評価の保存・集計更新はリポジトリ層が単一の原子的な単位として
// 実行する。重複時は*model.DuplicateRatingErrorを透過する。
func (s *Service) Submit(ctx context.Context, userID, chapterID string, value int) (*model.Chapter, error) {
	if value < 1 || value > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5: %d", value)
	}

	newRating := &model.Rating{
		ID:        uuid.New().String(),
		UserID:    userID,
		ChapterID: chapterID,
		Value:     value,
		CreatedAt: time.Now(),
	}

	chapter, err := s.ratingRepo.Submit(ctx, newRating)
	if err != nil {
		var dup *model.DuplicateRatingError
		if errors.As(err, &dup) {
			s.metrics.RecordDuplicateRatingBlocked()
			slog.Info("duplicate rating blocked",
				slog.String("user_id", userID),
				slog.String("chapter_id", chapterID),
				slog.Int("existing_rating", dup.ExistingRating),
			)
		}
		return nil, err
	}

	s.metrics.RecordRatingSubmitted(value)
	slog.Info("rating saved",
		slog.String("user_id", userID),
		slog.String("chapter_id", chapterID),
		slog.Int("rating", value),
		slog.Float64("avg_rating", chapter.AvgRating),
		slog.Int("total_ratings", chapter.TotalRatings),
	)

	return chapter, nil
}

// ListByUser はユーザー自身の評価一覧を返す。章ごとに最初の1件のみを採用する。
// インデックス経由のクエリが失敗した場合は全件スキャンにフォールバックし、
// レイテンシと引き換えに可用性を維持する。
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*model.Rating, error) {
	ratings, err := s.ratingRepo.ListByUserID(ctx, userID)
	if err != nil {
		slog.Warn("indexed rating query failed, falling back to full scan",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)

		all, scanErr := s.ratingRepo.ListAll(ctx)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to list user ratings: %w", scanErr)
		}

		ratings = ratings[:0]
		for _, r := range all {
			if r.UserID == userID {
				ratings = append(ratings, r)
			}
		}
	}

	// 章ごとに最初の1件のみ（ユニーク制約導入前の古いデータ対策）
	seen := make(map[string]bool, len(ratings))
	unique := make([]*model.Rating, 0, len(ratings))
	for _, r := range ratings {
		if seen[r.ChapterID] {
			continue
		}
		seen[r.ChapterID] = true
		unique = append(unique, r)
	}

	return unique, nil
}

// GetAggregate は指定章の集計を返す。章が存在しない場合はmodel.ErrChapterNotFoundを返す。
func (s *Service) GetAggregate(ctx context.Context, chapterID string) (*model.Chapter, error) {
	chapter, err := s.chapterRepo.FindByID(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chapter: %w", err)
	}
	if chapter == nil {
		return nil, model.ErrChapterNotFound
	}
	return chapter, nil
}

// ListAggregates は全章の集計を章番号順で返す。
func (s *Service) ListAggregates(ctx context.Context) ([]*model.Chapter, error) {
	chapters, err := s.chapterRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}
