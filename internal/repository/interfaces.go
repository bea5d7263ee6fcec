// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/november/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// ListAll は登録済みの全ユーザーを返す。通知ファンアウトの宛先解決に使用する。
	ListAll(ctx context.Context) ([]*model.User, error)
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// ChapterRepository は章データの永続化インターフェース。
type ChapterRepository interface {
	// FindByID は指定IDの章を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Chapter, error)

	// FindByNumber は章番号で章を検索する。見つからない場合はnilを返す。
	FindByNumber(ctx context.Context, number int) (*model.Chapter, error)

	// ListAll は全章を章番号昇順で返す。
	ListAll(ctx context.Context) ([]*model.Chapter, error)
}

// RatingRepository は評価データの永続化インターフェース。
type RatingRepository interface {
	// Submit は「重複チェック・評価INSERT・章集計UPDATE」を単一トランザクションで
	// 実行し、更新後の章を返す。対象章の行ロックにより同一章への送信は直列化され、
	// 異なる章への送信は並行に進む。
	//
	// 章が存在しない場合はmodel.ErrChapterNotFoundを返す。
	// 同一(user, chapter)の評価が既に存在する場合は*model.DuplicateRatingErrorを
	// 返し、集計は変更しない。
	Submit(ctx context.Context, rating *model.Rating) (*model.Chapter, error)

	// ListByUserID は指定ユーザーの全評価をインデックス経由で取得する。
	ListByUserID(ctx context.Context, userID string) ([]*model.Rating, error)

	// ListAll は全評価を返す。ListByUserIDが失敗した場合の可用性フォールバック用。
	ListAll(ctx context.Context) ([]*model.Rating, error)
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Comment, error)

	// ListByChapterID は章のコメント一覧を新しい順で返す。
	ListByChapterID(ctx context.Context, chapterID string) ([]*model.Comment, error)

	// DeleteByID は指定IDのコメントを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// SubscriberRepository は購読者データの永続化インターフェース。
type SubscriberRepository interface {
	// Create は購読者を作成する。メールアドレスの一意性はストレージ層の
	// ユニークインデックス（lower(email)）で強制し、重複時は
	// model.ErrDuplicateSubscriberを返す。
	Create(ctx context.Context, subscriber *model.Subscriber) error
}
