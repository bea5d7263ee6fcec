package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/november/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder middleware.SessionFinder
	RateLimiter   *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ドメインサービス
	RatingService  RatingServiceInterface
	CommentService CommentServiceInterface
	SignupService  SignupServiceInterface
	Notifier       NotifierInterface
	UserFinder     UserFinder

	// メタデータ
	Version string

	// Prometheusスクレイプハンドラー
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	SecurityHeaders → CORS → (認証ルートのみ) Session → RateLimit(General)
//
// 公開ルート（認証・公開読み取り・購読登録・メタデータ）はセッション
// ミドルウェアの外に配置する。購読登録はIP単位のレート制限のみ適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	ratingHandler := NewRatingHandler(deps.RatingService)
	commentHandler := NewCommentHandler(deps.CommentService, deps.UserFinder)
	signupHandler := NewSignupHandler(deps.SignupService)
	notificationHandler := NewNotificationHandler(deps.Notifier, deps.UserFinder)
	metaHandler := NewMetaHandler(deps.Version)

	// --- 認証不要のルート ---

	// 認証ルート（OAuthフロー + 状態確認）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", authHandler.Login)
		r.Get("/callback", authHandler.Callback)
		r.Get("/check", authHandler.Check)
		r.Get("/logout", authHandler.Logout)
	})

	// 公開読み取り
	r.Get("/getRatings", ratingHandler.GetRatings)
	r.Get("/getComments", commentHandler.GetComments)

	// 購読登録（IP単位のレート制限）
	r.With(deps.RateLimiter.SignupMiddleware()).Post("/signup", signupHandler.Signup)

	// メタデータ
	r.Get("/health", metaHandler.Health)
	r.Get("/", metaHandler.Root)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/getUserRatings", ratingHandler.GetUserRatings)
		r.Post("/addRating", ratingHandler.AddRating)
		r.Post("/addComment", commentHandler.AddComment)
		r.Delete("/deleteComment", commentHandler.DeleteComment)
		r.Post("/sendCliqNotification", notificationHandler.SendNotification)
	})

	return r
}
