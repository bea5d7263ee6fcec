package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hitoshi/november/internal/middleware"
	"github.com/hitoshi/november/internal/model"
)

// RatingServiceInterface は評価ハンドラーが必要とするサービスインターフェース。
type RatingServiceInterface interface {
	// Submit はユーザーの章への評価を登録し、更新後の章集計を返す。
	Submit(ctx context.Context, userID, chapterID string, value int) (*model.Chapter, error)
	// ListByUser はユーザー自身の評価一覧を返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Rating, error)
	// GetAggregate は1章の評価集計を返す。
	GetAggregate(ctx context.Context, chapterID string) (*model.Chapter, error)
	// ListAggregates は全章の評価集計を返す。
	ListAggregates(ctx context.Context) ([]*model.Chapter, error)
}

// RatingHandler は章の評価に関するHTTPハンドラー。
type RatingHandler struct {
	service RatingServiceInterface
}

// NewRatingHandler はRatingHandlerを生成する。
func NewRatingHandler(service RatingServiceInterface) *RatingHandler {
	return &RatingHandler{
		service: service,
	}
}

// addRatingRequest は評価登録リクエストのボディ。
type addRatingRequest struct {
	ChapterID string `json:"chapterId"`
	Rating    int    `json:"rating"`
}

// AddRating はユーザーの章への評価を登録する。
// 同一ユーザーによる同一章への再評価は409で拒否し、既存の評価値と
// 現在の集計を返す。
// POST /addRating
func (h *RatingHandler) AddRating(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req addRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.NewInvalidRequestError("Invalid request body"))
		return
	}

	if req.ChapterID == "" {
		writeError(w, http.StatusBadRequest, model.NewInvalidRequestError("chapterId is required"))
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRating,
			Message:  "Rating must be a number between 1 and 5",
			Category: "rating",
			Action:   "Submit a rating from 1 to 5.",
		})
		return
	}

	chapter, err := h.service.Submit(r.Context(), userID, req.ChapterID, req.Rating)
	if err != nil {
		var dup *model.DuplicateRatingError
		if errors.As(err, &dup) {
			writeJSON(w, http.StatusConflict, map[string]any{
				"success":        false,
				"message":        "You have already rated this chapter",
				"alreadyRated":   true,
				"existingRating": dup.ExistingRating,
				"averageRating":  dup.AverageRating,
				"totalRatings":   dup.TotalRatings,
			})
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Rating saved successfully",
		"chapterId":     chapter.ID,
		"userRating":    req.Rating,
		"averageRating": chapter.AvgRating,
		"totalRatings":  chapter.TotalRatings,
	})
}

// chapterAggregateResponse は章ごとの評価集計のAPIレスポンス。
type chapterAggregateResponse struct {
	ChapterID    string  `json:"chapterId"`
	AvgRating    float64 `json:"avgRating"`
	TotalRatings int     `json:"totalRatings"`
}

// GetRatings は章の評価集計を取得する。
// chapterIdクエリパラメータを指定すると1章分、省略すると全章分を返す。
// GET /getRatings?chapterId={id}
func (h *RatingHandler) GetRatings(w http.ResponseWriter, r *http.Request) {
	chapterID := r.URL.Query().Get("chapterId")

	if chapterID != "" {
		chapter, err := h.service.GetAggregate(r.Context(), chapterID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"chapterId":    chapter.ID,
			"avgRating":    chapter.AvgRating,
			"totalRatings": chapter.TotalRatings,
		})
		return
	}

	chapters, err := h.service.ListAggregates(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	ratings := make([]chapterAggregateResponse, 0, len(chapters))
	for _, c := range chapters {
		ratings = append(ratings, chapterAggregateResponse{
			ChapterID:    c.ID,
			AvgRating:    c.AvgRating,
			TotalRatings: c.TotalRatings,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"ratings": ratings,
	})
}

// userRatingEntry はユーザー自身の評価1件のAPIレスポンス。
type userRatingEntry struct {
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

// GetUserRatings はログインユーザー自身の全評価を章IDをキーにして返す。
// GET /getUserRatings
func (h *RatingHandler) GetUserRatings(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	ratings, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	userRatings := make(map[string]userRatingEntry, len(ratings))
	for _, rating := range ratings {
		if _, exists := userRatings[rating.ChapterID]; !exists {
			userRatings[rating.ChapterID] = userRatingEntry{
				Rating:    rating.Value,
				Timestamp: rating.CreatedAt,
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"ratings": userRatings,
	})
}
