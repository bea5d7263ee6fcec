package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/november/internal/model"
)

// PostgresSubscriberRepo はPostgreSQLを使用した購読者リポジトリ。
type PostgresSubscriberRepo struct {
	db *sql.DB
}

// NewPostgresSubscriberRepo はPostgresSubscriberRepoを生成する。
func NewPostgresSubscriberRepo(db *sql.DB) *PostgresSubscriberRepo {
	return &PostgresSubscriberRepo{db: db}
}

// Create は購読者を作成する。
// 一意性はlower(email)のユニークインデックスで強制するため、
// 事前スキャンによる重複チェックは行わない。重複時はmodel.ErrDuplicateSubscriberを返す。
func (r *PostgresSubscriberRepo) Create(ctx context.Context, subscriber *model.Subscriber) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscribers (id, email, created_at)
		 VALUES ($1, $2, $3)`,
		subscriber.ID, subscriber.Email, subscriber.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicateSubscriber
		}
		return fmt.Errorf("failed to insert subscriber: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SubscriberRepository = (*PostgresSubscriberRepo)(nil)
