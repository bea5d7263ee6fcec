package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/november/internal/model"
)

// PostgresChapterRepo はPostgreSQLを使用した章リポジトリ。
type PostgresChapterRepo struct {
	db *sql.DB
}

// NewPostgresChapterRepo はPostgresChapterRepoを生成する。
func NewPostgresChapterRepo(db *sql.DB) *PostgresChapterRepo {
	return &PostgresChapterRepo{db: db}
}

const chapterColumns = `id, number, title, avg_rating, total_ratings, published_at, created_at, updated_at`

// FindByID は指定IDの章を取得する。見つからない場合はnilを返す。
func (r *PostgresChapterRepo) FindByID(ctx context.Context, id string) (*model.Chapter, error) {
	chapter := &model.Chapter{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+chapterColumns+` FROM chapters WHERE id = $1`,
		id,
	).Scan(&chapter.ID, &chapter.Number, &chapter.Title, &chapter.AvgRating,
		&chapter.TotalRatings, &chapter.PublishedAt, &chapter.CreatedAt, &chapter.UpdatedAt)

	// UUIDとして不正なIDは「存在しない章」として扱う
	if err == sql.ErrNoRows || isInvalidTextRepresentation(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find chapter by ID: %w", err)
	}

	return chapter, nil
}

// FindByNumber は章番号で章を検索する。見つからない場合はnilを返す。
func (r *PostgresChapterRepo) FindByNumber(ctx context.Context, number int) (*model.Chapter, error) {
	chapter := &model.Chapter{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+chapterColumns+` FROM chapters WHERE number = $1`,
		number,
	).Scan(&chapter.ID, &chapter.Number, &chapter.Title, &chapter.AvgRating,
		&chapter.TotalRatings, &chapter.PublishedAt, &chapter.CreatedAt, &chapter.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find chapter by number: %w", err)
	}

	return chapter, nil
}

// ListAll は全章を章番号昇順で返す。
func (r *PostgresChapterRepo) ListAll(ctx context.Context) ([]*model.Chapter, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+chapterColumns+` FROM chapters ORDER BY number`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []*model.Chapter
	for rows.Next() {
		chapter := &model.Chapter{}
		if err := rows.Scan(&chapter.ID, &chapter.Number, &chapter.Title, &chapter.AvgRating,
			&chapter.TotalRatings, &chapter.PublishedAt, &chapter.CreatedAt, &chapter.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}
		chapters = append(chapters, chapter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chapters: %w", err)
	}

	return chapters, nil
}

// compile-time interface check
var _ ChapterRepository = (*PostgresChapterRepo)(nil)
