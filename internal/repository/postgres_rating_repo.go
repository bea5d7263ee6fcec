package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/november/internal/model"
)

// PostgreSQLのエラーコード。
const (
	uniqueViolation           = "23505" // unique_violation
	invalidTextRepresentation = "22P02" // invalid_text_representation
)

// isUniqueViolation はエラーがユニーク制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// isInvalidTextRepresentation は値がカラム型にキャストできない場合の
// エラーかどうかを判定する。UUIDカラムに不正形式のIDを渡すと発生するため、
// リポジトリ層では「見つからない」と同義に扱う。
func isInvalidTextRepresentation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation
}

// PostgresRatingRepo はPostgreSQLを使用した評価リポジトリ。
type PostgresRatingRepo struct {
	db *sql.DB
}

// NewPostgresRatingRepo はPostgresRatingRepoを生成する。
func NewPostgresRatingRepo(db *sql.DB) *PostgresRatingRepo {
	return &PostgresRatingRepo{db: db}
}

// Submit は評価の受付を単一トランザクションで実行し、更新後の章を返す。
//
// 処理順序:
//  1. 章の行をSELECT ... FOR UPDATEで取得し、同一章への送信を直列化する
//  2. 既存評価をSELECTし、あれば*model.DuplicateRatingErrorを返す。
//     同一(user, chapter)への並行送信は行ロックで直列化済みのため、
//     このチェックとINSERTの間に割り込まれることはない
//  3. ratingsへINSERTし、逐次平均で集計を再計算してchaptersを更新する
//
// INSERTがユニーク制約違反(23505)を起こすとトランザクション全体が
// 中断状態になり以降の文は実行できないため、重複の読み取りは必ず
// INSERTの前に行う。(user_id, chapter_id)のユニークインデックスは
// 最終防衛線としてストレージ層で一意性を保証し続ける。
func (r *PostgresRatingRepo) Submit(ctx context.Context, rating *model.Rating) (*model.Chapter, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	chapter := &model.Chapter{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, number, title, avg_rating, total_ratings, published_at, created_at, updated_at
		 FROM chapters
		 WHERE id = $1
		 FOR UPDATE`,
		rating.ChapterID,
	).Scan(&chapter.ID, &chapter.Number, &chapter.Title, &chapter.AvgRating,
		&chapter.TotalRatings, &chapter.PublishedAt, &chapter.CreatedAt, &chapter.UpdatedAt)

	if err == sql.ErrNoRows || isInvalidTextRepresentation(err) {
		return nil, model.ErrChapterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock chapter: %w", err)
	}

	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT rating FROM ratings WHERE user_id = $1 AND chapter_id = $2`,
		rating.UserID, rating.ChapterID,
	).Scan(&existing)
	if err == nil {
		return nil, &model.DuplicateRatingError{
			ExistingRating: existing,
			AverageRating:  chapter.AvgRating,
			TotalRatings:   chapter.TotalRatings,
		}
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check existing rating: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ratings (id, user_id, chapter_id, rating, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rating.ID, rating.UserID, rating.ChapterID, rating.Value, rating.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert rating: %w", err)
	}

	newAvg, newCount := model.NextAggregate(chapter.AvgRating, chapter.TotalRatings, rating.Value)

	err = tx.QueryRowContext(ctx,
		`UPDATE chapters
		 SET avg_rating = $1, total_ratings = $2, updated_at = now()
		 WHERE id = $3
		 RETURNING updated_at`,
		newAvg, newCount, chapter.ID,
	).Scan(&chapter.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update chapter aggregate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	chapter.AvgRating = newAvg
	chapter.TotalRatings = newCount
	return chapter, nil
}

// ListByUserID は指定ユーザーの全評価をインデックス経由で取得する。
func (r *PostgresRatingRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Rating, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, chapter_id, rating, created_at
		 FROM ratings
		 WHERE user_id = $1
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings by user: %w", err)
	}
	defer rows.Close()

	return scanRatings(rows)
}

// ListAll は全評価を返す。ListByUserIDが失敗した場合の可用性フォールバック用。
func (r *PostgresRatingRepo) ListAll(ctx context.Context) ([]*model.Rating, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, chapter_id, rating, created_at
		 FROM ratings
		 ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list all ratings: %w", err)
	}
	defer rows.Close()

	return scanRatings(rows)
}

func scanRatings(rows *sql.Rows) ([]*model.Rating, error) {
	var ratings []*model.Rating
	for rows.Next() {
		rating := &model.Rating{}
		if err := rows.Scan(&rating.ID, &rating.UserID, &rating.ChapterID, &rating.Value, &rating.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}
	return ratings, nil
}

// compile-time interface check
var _ RatingRepository = (*PostgresRatingRepo)(nil)
