// Package model はドメインモデルを定義する。
package model

import "time"

// Chapter は連載小説の1章を表す。
// AvgRatingは常にTotalRatings件の評価値の平均（小数第2位まで）と一致する。
// この不変条件はratingsテーブルと同一トランザクション内でのみ更新することで維持する。
type Chapter struct {
	ID           string
	Number       int
	Title        string
	AvgRating    float64
	TotalRatings int
	PublishedAt  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Rating は読者による章への評価を表す。
// (UserID, ChapterID) の組み合わせごとに最大1件。一意性はストレージ層の
// ユニーク制約で強制する。
type Rating struct {
	ID        string
	UserID    string
	ChapterID string
	Value     int // 1〜5
	CreatedAt time.Time
}

// Comment は章へのコメントを表す。削除できるのは投稿者本人のみ。
type Comment struct {
	ID        string
	ChapterID string
	UserID    string
	UserName  string
	UserEmail string
	Body      string // 最大1000文字
	CreatedAt time.Time
}

// Subscriber はメール登録した購読者を表す。
// メールアドレスは小文字に正規化して保存し、大文字小文字を区別せず一意。
type Subscriber struct {
	ID        string
	Email     string
	CreatedAt time.Time
}
